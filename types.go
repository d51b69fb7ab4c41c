package clmm

import "github.com/ethereum/go-ethereum/common"

// TokenId identifies a fungible asset the pool vault holds balances of. The
// core treats it as opaque (spec §6); go-ethereum's common.Address gives a
// compact, comparable 20-byte identifier without inventing a new type, the
// same representation the teacher's NFT event parsers already use for
// on-chain addresses.
type TokenId = common.Address

// Principal identifies a caller: a position owner, a rewarder authority, or
// an ACL subject. Partners are identified by plain string names instead.
type Principal = common.Address

// Asset is the opaque "debit/credit an opaque balance keyed by token
// identifier" handle from spec §1's Non-goals: a vault withdrawal produces
// one, repay/deposit consumes one. It carries its token identity and an
// amount, and supports the spec's own "extract/destroy_zero" vocabulary.
type Asset struct {
	token  TokenId
	amount uint64
}

// NewAsset is exposed for collaborators (TokenVault implementations)
// constructing withdrawal results.
func NewAsset(token TokenId, amount uint64) Asset { return Asset{token: token, amount: amount} }

// ZeroAsset returns the zero-value asset for a token, used where the spec
// calls for "destroy the zero-value asset on the other side".
func ZeroAsset(token TokenId) Asset { return Asset{token: token} }

func (a Asset) Token() TokenId { return a.token }
func (a Asset) Amount() uint64 { return a.amount }
func (a Asset) IsZero() bool   { return a.amount == 0 }

// Extract splits off `amount` from a, returning the split-off asset and
// shrinking a in place. Fails with ErrAmountIncorrect if amount > a.amount.
func (a *Asset) Extract(amount uint64) (Asset, error) {
	if amount > a.amount {
		return Asset{}, ErrAmountIncorrect
	}
	a.amount -= amount
	return Asset{token: a.token, amount: amount}, nil
}

// Merge combines two assets of the same token, failing with
// ErrSameTokenType if they differ (reusing that sentinel: the two assets are
// required to be of the *same* type and aren't).
func (a *Asset) Merge(b Asset) error {
	if a.token != b.token {
		return ErrSameTokenType
	}
	sum, err := checkedAddU64(a.amount, b.amount)
	if err != nil {
		return err
	}
	a.amount = sum
	return nil
}
