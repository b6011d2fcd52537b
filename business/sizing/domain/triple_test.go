package domain_test

import (
	"math/big"
	"testing"

	"github.com/fd1az/sizing-bot/business/sizing/domain"
)

func TestSentinelValue(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 255)
	want.Neg(want)
	if domain.Sentinel.Cmp(want) != 0 {
		t.Errorf("Sentinel = %s, want -2^255", domain.Sentinel)
	}
}

func TestProfitTriple_Compare(t *testing.T) {
	invalid := domain.InvalidTriple(big.NewInt(5), nil)
	negative := domain.NewProfitTriple(big.NewInt(-1_000_000), big.NewInt(1), big.NewInt(1))
	small := domain.NewProfitTriple(big.NewInt(3), big.NewInt(1), big.NewInt(1))
	large := domain.NewProfitTriple(big.NewInt(9), big.NewInt(1), big.NewInt(1))

	tests := []struct {
		name string
		a, b domain.ProfitTriple
		want int
	}{
		{"invalid below negative profit", invalid, negative, -1},
		{"negative above invalid", negative, invalid, 1},
		{"two invalids are equal", invalid, domain.InvalidTriple(nil, nil), 0},
		{"profit order", small, large, -1},
		{"equal profits", large, domain.NewProfitTriple(big.NewInt(9), nil, nil), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
		})
	}

	if !negative.Better(invalid) || invalid.Better(negative) {
		t.Error("Better disagrees with Compare")
	}
}

func TestInvalidTriple_KeepsReachedQuantities(t *testing.T) {
	tr := domain.InvalidTriple(big.NewInt(42), nil)

	if tr.Valid {
		t.Fatal("expected invalid triple")
	}
	if tr.TokenOut.Int64() != 42 || tr.WethBack.Sign() != 0 {
		t.Errorf("got tokenOut=%s wethBack=%s, want 42 and 0", tr.TokenOut, tr.WethBack)
	}
	if tr.Profit.Cmp(domain.Sentinel) != 0 {
		t.Errorf("Profit = %s, want sentinel", tr.Profit)
	}
}

func TestResultFromTriple(t *testing.T) {
	size := big.NewInt(500)

	win := domain.ResultFromTriple(domain.StrategyTernary, size,
		domain.NewProfitTriple(big.NewInt(7), big.NewInt(1000), big.NewInt(508)))
	if win.SizeIn.Int64() != 500 || win.Profit.Int64() != 7 || !win.Actionable() || win.IsNeutral() {
		t.Errorf("unexpected winning result: %+v", win)
	}

	for name, tr := range map[string]domain.ProfitTriple{
		"invalid":   domain.InvalidTriple(big.NewInt(1), big.NewInt(1)),
		"losing":    domain.NewProfitTriple(big.NewInt(-1), big.NewInt(1000), big.NewInt(499)),
		"breakeven": domain.NewProfitTriple(big.NewInt(0), big.NewInt(1000), big.NewInt(500)),
	} {
		r := domain.ResultFromTriple(domain.StrategyGrid, size, tr)
		if !r.IsNeutral() || r.Actionable() {
			t.Errorf("%s: expected neutral zero result, got %+v", name, r)
		}
		if r.Strategy != domain.StrategyGrid {
			t.Errorf("%s: Strategy = %s", name, r.Strategy)
		}
	}
}
