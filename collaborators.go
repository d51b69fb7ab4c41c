package clmm

// This file defines the §6 "inbound contracts consumed by the core": the
// collaborator interfaces the pool engine calls out to instead of owning
// the concern itself (access control, token custody, partner/fee-tier
// registries, position NFTs, and the wall clock). The core never holds a
// process-wide singleton for any of these (spec §9); a Pool is constructed
// with concrete implementations of each.

// AccessControl is the ACL collaborator: protocol/pool authority predicates
// and the two pause switches.
type AccessControl interface {
	IsProtocolAuthority(p Principal) bool
	IsPoolCreateAuthority(p Principal) bool
	IsProtocolFeeClaimAuthority(p Principal) bool
	AllowResetInitialPrice(p Principal) bool
	AllowSetPositionURI(p Principal) bool
	PoolPaused() bool
	ProtocolPaused() bool
}

// TokenVault is the token-registry/custody collaborator (spec §6, "Token
// registry"). Asset is the opaque debit/credit handle from types.go.
type TokenVault interface {
	Symbol(t TokenId) string
	Balance(t TokenId) uint64
	Withdraw(t TokenId, amount uint64) (Asset, error)
	Deposit(a Asset) error
}

// PartnerRegistry resolves a partner name to its referral-fee share and
// routes the referral-fee asset to them.
type PartnerRegistry interface {
	PartnerRefFeeRate(name string) (uint64, error)
	ReceiveRefFee(name string, a Asset) error
}

// FeeTierRegistry maps a tick spacing to its default fee rate. The default
// implementation (fee_tier_registry.go) is grounded on daoleno/uniswapv3-sdk.
type FeeTierRegistry interface {
	FeeRateForSpacing(tickSpacing int32) (uint32, error)
}

// TokenRegistry exposes token metadata a CLI/display layer needs but the
// core itself never consults on the hot path (default implementation in
// tokenregistry.go).
type TokenRegistry interface {
	Decimals(t TokenId) (uint8, error)
	Symbol(t TokenId) (string, error)
}

// PositionNFT is the position-NFT collaborator. The core authorizes
// position operations by checking the caller is HolderOf the position's
// token id (spec §6).
type PositionNFT interface {
	CreateCollection(poolAddress Principal, name string) error
	Mint(poolAddress Principal, positionIndex PositionIndex, owner Principal) error
	Burn(poolAddress Principal, positionIndex PositionIndex) error
	PositionName(poolIndex, positionIndex PositionIndex) string
	HolderOf(poolAddress Principal, positionIndex PositionIndex) (Principal, error)
}

// Clock is the wall-clock collaborator. now_seconds() must be non-decreasing
// between consecutive rewarder updates on the same pool (spec §6).
type Clock interface {
	NowSeconds() uint64
}

// ProtocolFeeSource supplies the current protocol fee rate (over a 10_000
// denominator), queried once per swap (spec §4.7 step 1).
type ProtocolFeeSource interface {
	ProtocolFeeRate() uint64
}
