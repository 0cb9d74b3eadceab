// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package rangeidx

// Option configures the construction in [New].
type Option func(*config)

type config struct {
	strategy    Strategy
	concurrency int
}

func defaultConfig() config {
	return config{
		strategy:    StrategyAVL,
		concurrency: 1,
	}
}

// WithStrategy selects the search structure used inside each size bucket,
// default is [StrategyAVL].
func WithStrategy(s Strategy) Option {
	return func(c *config) {
		c.strategy = s
	}
}

// WithConcurrency builds up to n size buckets in parallel.
// The resulting index is the same for every n, n < 1 is treated as 1.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = max(n, 1)
	}
}
