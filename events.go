package clmm

// Outbound event payloads (spec §6, "field names normative"). The core
// never assumes a particular transport: a Pool is given an EventSink and
// calls its single Emit method, the way the teacher's CorePool calls
// logrus at each step — here the "log line" is a typed struct instead of a
// format string, so a host can persist or re-broadcast it.

type CreatePoolEvent struct {
	Creator        Principal
	PoolAddress    Principal
	CollectionName string
	TokenA         TokenId
	TokenB         TokenId
	TickSpacing    int32
}

type OpenPositionEvent struct {
	User      Principal
	Pool      Principal
	TickLower int32
	TickUpper int32
	Index     PositionIndex
}

type ClosePositionEvent struct {
	User  Principal
	Pool  Principal
	Index PositionIndex
}

type AddLiquidityEvent struct {
	Pool      Principal
	TickLower int32
	TickUpper int32
	Liquidity U128
	AmountA   uint64
	AmountB   uint64
	Index     PositionIndex
}

type RemoveLiquidityEvent struct {
	Pool      Principal
	TickLower int32
	TickUpper int32
	Liquidity U128
	AmountA   uint64
	AmountB   uint64
	Index     PositionIndex
}

type SwapEvent struct {
	AToB          bool
	Pool          Principal
	SwapFrom      Principal
	Partner       string
	AmountIn      uint64
	AmountOut     uint64
	RefAmount     uint64
	FeeAmount     uint64
	VaultAAmount  uint64
	VaultBAmount  uint64
}

type CollectFeeEvent struct {
	Pool    Principal
	Index   PositionIndex
	AmountA uint64
	AmountB uint64
}

type CollectProtocolFeeEvent struct {
	Pool    Principal
	Caller  Principal
	AmountA uint64
	AmountB uint64
}

type CollectRewardEvent struct {
	Pool   Principal
	Index  PositionIndex
	Slot   int
	Amount uint64
}

type UpdateFeeRateEvent struct {
	Pool    Principal
	OldRate uint32
	NewRate uint32
}

type UpdateEmissionEvent struct {
	Pool            Principal
	Slot            int
	EmissionsPerSec U128
}

type TransferRewardAuthEvent struct {
	Pool Principal
	Slot int
	From Principal
	To   Principal
}

type AcceptRewardAuthEvent struct {
	Pool     Principal
	Slot     int
	NewOwner Principal
}

// EventSink receives every event the engine emits. nil is a valid Pool
// field: Emit is only ever called through the pool's emit helper, which
// no-ops on a nil sink.
type EventSink interface {
	Emit(event any)
}

func (p *Pool) emit(event any) {
	if p.events == nil {
		return
	}
	p.events.Emit(event)
}
