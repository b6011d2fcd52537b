package app

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/fd1az/sizing-bot/business/sizing/domain"
)

// evalCache memoizes evaluator results for a single optimization run.
// Entries are written once per amount; concurrent lookups of the same
// amount share one evaluation.
type evalCache struct {
	eval *Evaluator

	mu      sync.RWMutex
	entries map[string]domain.ProfitTriple

	inflight    singleflight.Group
	evaluations atomic.Int64
}

func newEvalCache(eval *Evaluator) *evalCache {
	return &evalCache{
		eval:    eval,
		entries: make(map[string]domain.ProfitTriple),
	}
}

// Get returns the cached triple for amount, evaluating it on first use.
func (c *evalCache) Get(ctx context.Context, amount *big.Int) domain.ProfitTriple {
	key := amount.String()

	if t, ok := c.lookup(key); ok {
		return t
	}

	v, _, _ := c.inflight.Do(key, func() (any, error) {
		if t, ok := c.lookup(key); ok {
			return t, nil
		}
		t := c.eval.Evaluate(ctx, amount)
		c.evaluations.Add(1)
		c.store(key, t)
		return t, nil
	})
	return v.(domain.ProfitTriple)
}

// Evaluations returns how many times the evaluator actually ran.
func (c *evalCache) Evaluations() int {
	return int(c.evaluations.Load())
}

func (c *evalCache) lookup(key string) (domain.ProfitTriple, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[key]
	return t, ok
}

func (c *evalCache) store(key string, t domain.ProfitTriple) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.entries[key] = t
	}
}
