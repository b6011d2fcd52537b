package domain_test

import (
	"math/big"
	"testing"

	"github.com/fd1az/sizing-bot/business/sizing/domain"
)

func ints(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

func equalPoints(t *testing.T, got, want []*big.Int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d points %v, want %d points %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].Cmp(want[i]) != 0 {
			t.Errorf("point[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSearchInterval_InteriorPoints(t *testing.T) {
	iv := domain.NewSearchInterval(big.NewInt(0), big.NewInt(1000))

	m1, m2 := iv.InteriorPoints()
	if m1.Int64() != 333 || m2.Int64() != 667 {
		t.Errorf("InteriorPoints = (%s, %s), want (333, 667)", m1, m2)
	}

	if got := iv.DiscardLeft(m1); got.Left.Int64() != 333 || got.Right.Int64() != 1000 {
		t.Errorf("DiscardLeft = [%s, %s]", got.Left, got.Right)
	}
	if got := iv.DiscardRight(m2); got.Left.Int64() != 0 || got.Right.Int64() != 667 {
		t.Errorf("DiscardRight = [%s, %s]", got.Left, got.Right)
	}
	if got := iv.ShrinkBoth(); got.Left.Int64() != 333 || got.Right.Int64() != 667 {
		t.Errorf("ShrinkBoth = [%s, %s]", got.Left, got.Right)
	}
}

func TestSearchInterval_DoesNotAliasInputs(t *testing.T) {
	left, right := big.NewInt(10), big.NewInt(20)
	iv := domain.NewSearchInterval(left, right)
	left.SetInt64(99)

	if iv.Left.Int64() != 10 {
		t.Errorf("interval aliased caller's left bound: %s", iv.Left)
	}
}

func TestSearchInterval_Subdivisible(t *testing.T) {
	tests := []struct {
		span int64
		want bool
	}{
		{0, false},
		{5, false},
		{6, false},
		{7, true},
		{1_000_000, true},
	}

	for _, tt := range tests {
		iv := domain.NewSearchInterval(big.NewInt(100), big.NewInt(100+tt.span))
		if got := iv.Subdivisible(); got != tt.want {
			t.Errorf("span %d: Subdivisible() = %v, want %v", tt.span, got, tt.want)
		}
	}
}

func TestSearchInterval_SamplePoints(t *testing.T) {
	tests := []struct {
		name        string
		left, right int64
		n           int
		want        []*big.Int
	}{
		{
			name: "exact division",
			left: 0, right: 100, n: 5,
			want: ints(0, 25, 50, 75, 100),
		},
		{
			name: "rounding appends right endpoint",
			left: 0, right: 10, n: 4,
			want: ints(0, 3, 6, 9, 10),
		},
		{
			name: "span smaller than sample count steps by one",
			left: 994, right: 1000, n: 33,
			want: ints(994, 995, 996, 997, 998, 999, 1000),
		},
		{
			name: "n below two is treated as two",
			left: 5, right: 9, n: 0,
			want: ints(5, 9),
		},
		{
			name: "collapsed interval",
			left: 7, right: 7, n: 33,
			want: ints(7),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := domain.NewSearchInterval(big.NewInt(tt.left), big.NewInt(tt.right))
			equalPoints(t, iv.SamplePoints(tt.n), tt.want)
		})
	}
}

func TestGridPoints(t *testing.T) {
	tests := []struct {
		name     string
		min, max int64
		n        int
		want     []*big.Int
	}{
		{"default spacing", 0, 1000, 5, ints(0, 250, 500, 750, 1000)},
		{"n clamped to two", 10, 20, 1, ints(10, 20)},
		{"truncated step never reaches max", 0, 10, 4, ints(0, 3, 6, 9)},
		{"narrow range drops points past max", 0, 3, 10, ints(0, 1, 2, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equalPoints(t, domain.GridPoints(big.NewInt(tt.min), big.NewInt(tt.max), tt.n), tt.want)
		})
	}
}
