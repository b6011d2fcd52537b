package domain

import "math/big"

var (
	bigOne   = big.NewInt(1)
	bigThree = big.NewInt(3)

	// MinSubdivisibleSpan is the largest span the ternary search refuses to
	// split further; below it the two one-third marks collapse at integer
	// granularity.
	MinSubdivisibleSpan = big.NewInt(6)
)

// SearchInterval is the closed candidate region [Left, Right].
// Left <= Right always holds and the interval only ever shrinks.
type SearchInterval struct {
	Left  *big.Int
	Right *big.Int
}

// NewSearchInterval creates an interval. Callers guarantee left <= right.
func NewSearchInterval(left, right *big.Int) SearchInterval {
	return SearchInterval{
		Left:  new(big.Int).Set(left),
		Right: new(big.Int).Set(right),
	}
}

// Span returns Right - Left.
func (i SearchInterval) Span() *big.Int {
	return new(big.Int).Sub(i.Right, i.Left)
}

// Subdivisible reports whether the span is still larger than MinSubdivisibleSpan.
func (i SearchInterval) Subdivisible() bool {
	return i.Span().Cmp(MinSubdivisibleSpan) > 0
}

// Third returns span/3, truncated.
func (i SearchInterval) Third() *big.Int {
	return new(big.Int).Quo(i.Span(), bigThree)
}

// InteriorPoints returns the one-third marks m1 = left + span/3 and
// m2 = right - span/3.
func (i SearchInterval) InteriorPoints() (m1, m2 *big.Int) {
	third := i.Third()
	m1 = new(big.Int).Add(i.Left, third)
	m2 = new(big.Int).Sub(i.Right, third)
	return m1, m2
}

// DiscardLeft keeps [m1, Right].
func (i SearchInterval) DiscardLeft(m1 *big.Int) SearchInterval {
	return SearchInterval{Left: new(big.Int).Set(m1), Right: i.Right}
}

// DiscardRight keeps [Left, m2].
func (i SearchInterval) DiscardRight(m2 *big.Int) SearchInterval {
	return SearchInterval{Left: i.Left, Right: new(big.Int).Set(m2)}
}

// ShrinkBoth moves both ends inwards by one third of the span. Used to step
// over a region where both interior candidates were invalid.
func (i SearchInterval) ShrinkBoth() SearchInterval {
	third := i.Third()
	return SearchInterval{
		Left:  new(big.Int).Add(i.Left, third),
		Right: new(big.Int).Sub(i.Right, third),
	}
}

// SamplePoints returns up to n evenly spaced integer candidates across the
// interval (step = span/(n-1), at least 1). Both endpoints are always
// present. n below 2 is treated as 2.
func (i SearchInterval) SamplePoints(n int) []*big.Int {
	if n < 2 {
		n = 2
	}
	steps := big.NewInt(int64(n - 1))
	step := new(big.Int).Quo(i.Span(), steps)
	if step.Sign() == 0 {
		step.Set(bigOne)
	}

	points := make([]*big.Int, 0, n+1)
	a := new(big.Int).Set(i.Left)
	for k := 0; k < n; k++ {
		if a.Cmp(i.Right) > 0 {
			break
		}
		points = append(points, new(big.Int).Set(a))
		a.Add(a, step)
	}

	if points[len(points)-1].Cmp(i.Right) != 0 {
		points = append(points, new(big.Int).Set(i.Right))
	}
	return points
}

// GridPoints partitions [minIn, maxIn] into max(2, n) candidates spaced by
// (maxIn-minIn)/(count-1), at least 1. Candidates past maxIn are dropped,
// which only happens when the range is narrower than the sample count.
func GridPoints(minIn, maxIn *big.Int, n int) []*big.Int {
	if n < 2 {
		n = 2
	}
	span := new(big.Int).Sub(maxIn, minIn)
	step := new(big.Int).Quo(span, big.NewInt(int64(n-1)))
	if step.Sign() == 0 {
		step.Set(bigOne)
	}

	points := make([]*big.Int, 0, n)
	a := new(big.Int).Set(minIn)
	for k := 0; k < n; k++ {
		if a.Cmp(maxIn) > 0 {
			break
		}
		points = append(points, new(big.Int).Set(a))
		a.Add(a, step)
	}
	return points
}
