package clmm

import (
	"errors"

	"github.com/daoleno/uniswap-sdk-core/entities"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownToken is returned by the default TokenRegistry for a token it
// was never constructed with. It is scoped to this collaborator, not the
// core engine's own sentinel set, since token metadata lookup sits entirely
// outside the spec's engine boundary.
var ErrUnknownToken = errors.New("clmm: unknown token")

// defaultTokenRegistry is the built-in TokenRegistry: a static table of
// uniswap-sdk-core entities.Token records keyed by address, giving the
// display/CLI layer decimals and symbol lookups without the core engine
// ever depending on chain metadata itself (spec §6 scopes TokenRegistry as
// something "the core itself never consults on the hot path").
type defaultTokenRegistry struct {
	tokens map[common.Address]*entities.Token
}

// NewTokenRegistry builds a TokenRegistry from a set of known tokens.
func NewTokenRegistry(tokens ...*entities.Token) TokenRegistry {
	m := make(map[common.Address]*entities.Token, len(tokens))
	for _, t := range tokens {
		m[t.Address] = t
	}
	return &defaultTokenRegistry{tokens: m}
}

func (r *defaultTokenRegistry) lookup(t TokenId) (*entities.Token, error) {
	tok, ok := r.tokens[t]
	if !ok {
		return nil, ErrUnknownToken
	}
	return tok, nil
}

func (r *defaultTokenRegistry) Decimals(t TokenId) (uint8, error) {
	tok, err := r.lookup(t)
	if err != nil {
		return 0, err
	}
	return tok.Decimals, nil
}

func (r *defaultTokenRegistry) Symbol(t TokenId) (string, error) {
	tok, err := r.lookup(t)
	if err != nil {
		return "", err
	}
	if tok.Symbol == nil {
		return "", nil
	}
	return *tok.Symbol, nil
}
