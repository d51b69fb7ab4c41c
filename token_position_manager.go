package clmm

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// nftRecord is the external mirror one position-NFT slot holds: owner,
// position name, and the pool/index pair it represents. It is deliberately
// thinner than position.go's core Position ledger (C5) — the NFT layer only
// tracks who holds which token, not liquidity or accrual, mirroring the
// teacher's TokenPosition record adapted to spec §6's narrower PositionNFT
// contract.
type nftRecord struct {
	Index  PositionIndex
	Pool   Principal
	Owner  Principal
	Name   string
}

// tokenPositionManager is the in-process store backing the default
// PositionNFT implementation (nft_position_simulator.go), grounded on the
// teacher's TokenPositionManager: the same owner/pool secondary indexes, the
// same GORM JSON-blob persistence pattern, rekeyed from uint64 tokenID/string
// addresses to PositionIndex/Principal.
type tokenPositionManager struct {
	Records     map[PositionIndex]*nftRecord
	OwnerTokens map[Principal][]PositionIndex
	PoolTokens  map[Principal][]PositionIndex
}

func newTokenPositionManager() *tokenPositionManager {
	return &tokenPositionManager{
		Records:     map[PositionIndex]*nftRecord{},
		OwnerTokens: map[Principal][]PositionIndex{},
		PoolTokens:  map[Principal][]PositionIndex{},
	}
}

func (tpm *tokenPositionManager) mint(pool Principal, index PositionIndex, owner Principal, name string) error {
	if _, exists := tpm.Records[index]; exists {
		return fmt.Errorf("clmm: position %d already minted", index)
	}
	tpm.Records[index] = &nftRecord{Index: index, Pool: pool, Owner: owner, Name: name}
	tpm.OwnerTokens[owner] = append(tpm.OwnerTokens[owner], index)
	tpm.PoolTokens[pool] = append(tpm.PoolTokens[pool], index)
	return nil
}

func (tpm *tokenPositionManager) burn(pool Principal, index PositionIndex) error {
	rec, exists := tpm.Records[index]
	if !exists {
		return fmt.Errorf("clmm: position %d not minted", index)
	}
	delete(tpm.Records, index)
	tpm.OwnerTokens[rec.Owner] = removeIndex(tpm.OwnerTokens[rec.Owner], index)
	tpm.PoolTokens[pool] = removeIndex(tpm.PoolTokens[pool], index)
	return nil
}

func (tpm *tokenPositionManager) transfer(index PositionIndex, from, to Principal) error {
	rec, exists := tpm.Records[index]
	if !exists {
		return fmt.Errorf("clmm: position %d not minted", index)
	}
	if rec.Owner != from {
		return fmt.Errorf("clmm: position %d owner mismatch", index)
	}
	rec.Owner = to
	tpm.OwnerTokens[from] = removeIndex(tpm.OwnerTokens[from], index)
	tpm.OwnerTokens[to] = append(tpm.OwnerTokens[to], index)
	return nil
}

func (tpm *tokenPositionManager) holderOf(index PositionIndex) (Principal, bool) {
	rec, exists := tpm.Records[index]
	if !exists {
		return Principal{}, false
	}
	return rec.Owner, true
}

func (tpm *tokenPositionManager) positionsByOwner(owner Principal) []PositionIndex {
	return append([]PositionIndex(nil), tpm.OwnerTokens[owner]...)
}

func removeIndex(s []PositionIndex, v PositionIndex) []PositionIndex {
	for i, x := range s {
		if x == v {
			s[i] = s[len(s)-1]
			return s[:len(s)-1]
		}
	}
	return s
}

// GormDataType / Scan / Value make tokenPositionManager embeddable as a
// single JSON blob column, the same pattern the teacher used to persist its
// TokenPositionManager.
func (tpm *tokenPositionManager) GormDataType() string {
	return "LONGTEXT"
}

func (tpm *tokenPositionManager) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, tpm)
	case string:
		return json.Unmarshal([]byte(v), tpm)
	case nil:
		return nil
	default:
		return errors.New(fmt.Sprint("clmm: failed to unmarshal tokenPositionManager value:", value))
	}
}

func (tpm *tokenPositionManager) Value() (driver.Value, error) {
	bs, err := json.Marshal(tpm)
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}
