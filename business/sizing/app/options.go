package app

// Default search parameters.
const (
	DefaultMaxIterations  = 40
	DefaultSegmentDivisor = 2048
	DefaultFinalPoints    = 33
	DefaultGridSamples    = 25
	DefaultConcurrency    = 2
)

// SearchConfig tunes the ternary-section search.
type SearchConfig struct {
	MaxIterations  int   // upper bound on narrowing iterations
	SegmentDivisor int64 // stop once span <= fullRange/SegmentDivisor
	FinalPoints    int   // dense samples across the final interval
	Concurrency    int   // max oracle evaluations in flight
}

// DefaultSearchConfig returns the default search parameters.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxIterations:  DefaultMaxIterations,
		SegmentDivisor: DefaultSegmentDivisor,
		FinalPoints:    DefaultFinalPoints,
		Concurrency:    DefaultConcurrency,
	}
}

// Option configures a search.
type Option func(*SearchConfig)

// WithMaxIterations bounds the narrowing loop. Zero skips straight to the
// dense refinement over the whole range.
func WithMaxIterations(n int) Option {
	return func(c *SearchConfig) {
		c.MaxIterations = n
	}
}

// WithSegmentDivisor sets the precision floor divisor.
func WithSegmentDivisor(d int64) Option {
	return func(c *SearchConfig) {
		c.SegmentDivisor = d
	}
}

// WithFinalPoints sets the number of refinement samples.
func WithFinalPoints(n int) Option {
	return func(c *SearchConfig) {
		c.FinalPoints = n
	}
}

// WithConcurrency sets how many candidates may be evaluated at once.
// One gives strictly sequential oracle calls.
func WithConcurrency(n int) Option {
	return func(c *SearchConfig) {
		c.Concurrency = n
	}
}

// WithSearchConfig replaces the whole configuration.
func WithSearchConfig(cfg SearchConfig) Option {
	return func(c *SearchConfig) {
		*c = cfg
	}
}

// normalized clamps out-of-range values to the nearest usable setting.
func (c SearchConfig) normalized() SearchConfig {
	if c.MaxIterations < 0 {
		c.MaxIterations = 0
	}
	if c.SegmentDivisor < 1 {
		c.SegmentDivisor = 1
	}
	if c.FinalPoints < 2 {
		c.FinalPoints = 2
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	return c
}

func buildConfig(opts []Option) SearchConfig {
	cfg := DefaultSearchConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.normalized()
}
