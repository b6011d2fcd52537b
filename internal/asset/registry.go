package asset

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sizing-bot/internal/apperror"
)

// Registry is a thread-safe index of known tokens by address and symbol.
type Registry struct {
	byAddress map[common.Address]*Token
	bySymbol  map[string]*Token // upper-cased symbol
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[common.Address]*Token),
		bySymbol:  make(map[string]*Token),
	}
}

// Register adds t. Address and symbol must both be unused.
func (r *Registry) Register(t *Token) error {
	if t == nil {
		return ErrNilToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToUpper(t.Symbol())
	if _, exists := r.byAddress[t.Address()]; exists {
		return fmt.Errorf("asset: %s already registered", t.Address().Hex())
	}
	if _, exists := r.bySymbol[key]; exists {
		return fmt.Errorf("asset: symbol %s already registered", t.Symbol())
	}

	r.byAddress[t.Address()] = t
	r.bySymbol[key] = t
	return nil
}

// MustRegister is Register for static seeding.
func (r *Registry) MustRegister(t *Token) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// BySymbol looks a token up case-insensitively.
func (r *Registry) BySymbol(symbol string) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// ByAddress looks a token up by contract address.
func (r *Registry) ByAddress(addr common.Address) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byAddress[addr]
	return t, ok
}

// Resolve maps symbols to tokens, failing on the first unknown one.
func (r *Registry) Resolve(symbols []string) ([]*Token, error) {
	out := make([]*Token, 0, len(symbols))
	for _, s := range symbols {
		t, ok := r.BySymbol(s)
		if !ok {
			return nil, apperror.New(apperror.CodeTokenNotFound, apperror.WithContext(s))
		}
		out = append(out, t)
	}
	return out, nil
}

// All returns every registered token ordered by symbol.
func (r *Registry) All() []*Token {
	r.mu.RLock()
	out := make([]*Token, 0, len(r.byAddress))
	for _, t := range r.byAddress {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol() < out[j].Symbol() })
	return out
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}
