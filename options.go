package recolor

import (
	"github.com/kovidgoyal/recolor/lab"
	"github.com/kovidgoyal/recolor/types"
)

type config struct {
	engine types.Config
	conv   lab.Converter
}

func default_config() config {
	return config{engine: types.DefaultConfig(), conv: lab.Default}
}

// Option sets an optional parameter of palette extraction and transfer.
type Option func(*config)

func apply_options(opts []Option) config {
	cfg := default_config()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithK sets the number of palette colors. Defaults to 5.
func WithK(k int) Option {
	return func(c *config) { c.engine.K = k }
}

// WithWorkers bounds the number of goroutines used, zero meaning GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.engine.Workers = n }
}

// WithConverter sets the Lab color space all computations happen in.
// Defaults to lab.CIELab.
func WithConverter(conv lab.Converter) Option {
	return func(c *config) {
		if conv != nil {
			c.conv = conv
		}
	}
}

// WithMaxIterations caps the number of k-means iterations.
func WithMaxIterations(n int) Option {
	return func(c *config) { c.engine.MaxIterations = n }
}

// WithLUTBins sets the number of lookup table cells per channel, it must
// divide 256. Defaults to 32.
func WithLUTBins(n int) Option {
	return func(c *config) { c.engine.LUTBins = n }
}

// WithConfig replaces every numeric parameter.
func WithConfig(cfg types.Config) Option {
	return func(c *config) { c.engine = cfg }
}
