// Package storage is the non-normative persistence layer (SPEC_FULL §2): a
// GORM-backed snapshot store for pool/tick/position state, adapted from the
// teacher's CorePool.Flush(db *gorm.DB) method and its
// GormDataType/Scan/Value JSON-blob pattern on TokenPositionManager.
package storage

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	clmm "github.com/CoinSummer/clmm-core"
)

// TickSnapshot is one persisted tick record.
type TickSnapshot struct {
	Index          int32  `json:"index"`
	LiquidityGross string `json:"liquidity_gross"`
	LiquidityNet   string `json:"liquidity_net"`
}

// PositionSnapshot is one persisted position record.
type PositionSnapshot struct {
	Index      uint64   `json:"index"`
	Owner      string   `json:"owner"`
	TickLower  int32    `json:"tick_lower"`
	TickUpper  int32    `json:"tick_upper"`
	Liquidity  string   `json:"liquidity"`
	FeeOwedA   uint64   `json:"fee_owed_a"`
	FeeOwedB   uint64   `json:"fee_owed_b"`
	RewardOwed []uint64 `json:"reward_owed"`
}

// PoolSnapshot is the GORM row for one pool's full persisted state: scalar
// columns for the pool-level fields, JSON-blob columns (via the Scan/Value
// pair below) for the variable-length tick/position collections — the same
// shape the teacher used to keep an O(1)-row-count table instead of a
// separate table per tick/position.
type PoolSnapshot struct {
	Address          string `gorm:"primaryKey"`
	TokenA           string
	TokenB           string
	TickSpacing      int32
	FeeRate          uint32
	SqrtPriceCurrent string
	TickCurrent      int32
	LiquidityActive  string
	FeeGrowthGlobalA string
	FeeGrowthGlobalB string
	FeeProtocolA     uint64
	FeeProtocolB     uint64
	Ticks            tickBlob
	Positions        positionBlob
}

type tickBlob []TickSnapshot
type positionBlob []PositionSnapshot

func (b tickBlob) GormDataType() string { return "LONGTEXT" }
func (b *tickBlob) Scan(value interface{}) error {
	return scanJSON(value, b)
}
func (b tickBlob) Value() (driver.Value, error) {
	return valueJSON(b)
}

func (b positionBlob) GormDataType() string { return "LONGTEXT" }
func (b *positionBlob) Scan(value interface{}) error {
	return scanJSON(value, b)
}
func (b positionBlob) Value() (driver.Value, error) {
	return valueJSON(b)
}

func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	case nil:
		return nil
	default:
		return errors.New(fmt.Sprint("storage: unsupported scan source:", value))
	}
}

func valueJSON(v interface{}) (driver.Value, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}

// Repository persists and reloads pool snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository opens (and migrates) a snapshot store on the given GORM
// connection (typically glebarez/sqlite, the teacher's own driver choice).
func NewRepository(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&PoolSnapshot{}); err != nil {
		return nil, fmt.Errorf("storage: migrating schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Save captures a Pool's current View/PositionViews/TickViews into a
// snapshot row, upserting by address.
func (r *Repository) Save(address string, view clmm.PoolView, positions []clmm.PositionView, ticks []clmm.TickView) error {
	snap := PoolSnapshot{
		Address:          address,
		TokenA:           view.TokenA.Hex(),
		TokenB:           view.TokenB.Hex(),
		TickSpacing:      view.TickSpacing,
		FeeRate:          view.FeeRate,
		SqrtPriceCurrent: view.SqrtPriceCurrent.String(),
		TickCurrent:      view.TickCurrent,
		LiquidityActive:  view.LiquidityActive.String(),
		FeeGrowthGlobalA: view.FeeGrowthGlobalA.String(),
		FeeGrowthGlobalB: view.FeeGrowthGlobalB.String(),
		FeeProtocolA:     view.FeeProtocolA,
		FeeProtocolB:     view.FeeProtocolB,
	}
	for _, t := range ticks {
		snap.Ticks = append(snap.Ticks, TickSnapshot{
			Index:          t.Index,
			LiquidityGross: t.LiquidityGross.String(),
			LiquidityNet:   t.LiquidityNet,
		})
	}
	for _, p := range positions {
		rewards := make([]uint64, len(p.RewardOwed))
		copy(rewards, p.RewardOwed[:])
		snap.Positions = append(snap.Positions, PositionSnapshot{
			Index:      uint64(p.Index),
			Owner:      p.Owner.Hex(),
			TickLower:  p.TickLower,
			TickUpper:  p.TickUpper,
			Liquidity:  p.Liquidity.String(),
			FeeOwedA:   p.FeeOwedA,
			FeeOwedB:   p.FeeOwedB,
			RewardOwed: rewards,
		})
	}
	return r.db.Save(&snap).Error
}

// Load reloads a previously saved snapshot row.
func (r *Repository) Load(address string) (*PoolSnapshot, error) {
	var snap PoolSnapshot
	if err := r.db.First(&snap, "address = ?", address).Error; err != nil {
		return nil, fmt.Errorf("storage: loading snapshot %s: %w", address, err)
	}
	return &snap, nil
}

// PrettyPrice renders a persisted √price field as a human-readable decimal
// price (token B per token A), the display-layer use of shopspring/decimal
// SPEC_FULL calls for: price = (sqrt_price / 2^64)^2.
func PrettyPrice(sqrtPriceQ64 string, decimalsA, decimalsB int32) (decimal.Decimal, error) {
	sqrtPrice, ok := new(big.Int).SetString(sqrtPriceQ64, 10)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("storage: invalid sqrt price %q", sqrtPriceQ64)
	}
	q64 := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 64), 0)
	sqrtDec := decimal.NewFromBigInt(sqrtPrice, 0).DivRound(q64, 18)
	price := sqrtDec.Mul(sqrtDec)
	scale := decimalsA - decimalsB
	if scale != 0 {
		price = price.Shift(scale)
	}
	return price, nil
}
