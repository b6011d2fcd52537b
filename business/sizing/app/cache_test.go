package app

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvalCache_EvaluatesEachAmountOnce(t *testing.T) {
	var calls atomic.Int32
	buy := func(_ context.Context, in *big.Int) (*big.Int, error) {
		calls.Add(1)
		return new(big.Int).Mul(in, big.NewInt(2)), nil
	}
	c := newEvalCache(NewEvaluator(buy, quoteConst(150), nil))
	ctx := context.Background()

	first := c.Get(ctx, big.NewInt(100))
	second := c.Get(ctx, big.NewInt(100))

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Evaluations())
}

func TestEvalCache_ConcurrentSameKeyShareOneEvaluation(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	buy := func(_ context.Context, in *big.Int) (*big.Int, error) {
		calls.Add(1)
		<-release
		return big.NewInt(10), nil
	}
	c := newEvalCache(NewEvaluator(buy, quoteConst(500), nil))

	var wg sync.WaitGroup
	results := make([]int64, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Get(context.Background(), big.NewInt(400)).Profit.Int64()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Evaluations())
	for _, p := range results {
		assert.Equal(t, int64(100), p)
	}
}
