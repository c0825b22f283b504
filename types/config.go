package types

import (
	"fmt"
)

// Config holds the numeric parameters shared by palette extraction and color
// transfer. It is passed by value and never mutated after construction.
type Config struct {
	// K is the number of palette colors.
	K int
	// HistogramBins is the number of bins per RGB channel used when binning
	// pixels for palette extraction. Must divide 256.
	HistogramBins int
	// LUTBins is the number of grid cells per RGB channel of the transfer
	// lookup table. Must divide 256.
	LUTBins int
	// SeedDelta controls how strongly bins near an already chosen seed are
	// suppressed during k-means seeding.
	SeedDelta float64
	// EPS is the pivot tolerance of the linear solver and the squared
	// movement below which a k-means center is considered stable.
	EPS float64
	// RGBEps is the tolerance, in 8-bit RGB units, of the gamut test. It is
	// also the squared Lab length below which a palette edit is applied
	// without gamut scaling.
	RGBEps float64
	// BorderEps is the squared Lab length of the bracket at which the gamut
	// border search stops.
	BorderEps float64
	// MaxIterations caps the number of Lloyd iterations.
	MaxIterations int
	// Workers is the maximum number of goroutines used by parallel stages,
	// zero means use GOMAXPROCS.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		K:             5,
		HistogramBins: 16,
		LUTBins:       32,
		SeedDelta:     80,
		EPS:           1e-6,
		RGBEps:        0.5,
		BorderEps:     0.5,
		MaxIterations: 1000,
	}
}

// HistogramBinWidth is the width, in 8-bit channel units, of one histogram bin.
func (c Config) HistogramBinWidth() int { return 256 / c.HistogramBins }

// LUTBinWidth is the distance, in 8-bit channel units, between adjacent
// lookup table vertices.
func (c Config) LUTBinWidth() int { return 256 / c.LUTBins }

func divides256(n int) bool {
	return n > 0 && n <= 256 && 256%n == 0
}

// Validate reports the first parameter that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.K < 1:
		return fmt.Errorf("%w: K must be positive, got %d", ErrInvalidConfig, c.K)
	case !divides256(c.HistogramBins):
		return fmt.Errorf("%w: histogram bins must divide 256, got %d", ErrInvalidConfig, c.HistogramBins)
	case !divides256(c.LUTBins):
		return fmt.Errorf("%w: lookup table bins must divide 256, got %d", ErrInvalidConfig, c.LUTBins)
	case c.SeedDelta <= 0:
		return fmt.Errorf("%w: seed delta must be positive, got %v", ErrInvalidConfig, c.SeedDelta)
	case c.EPS <= 0 || c.RGBEps < 0 || c.BorderEps <= 0:
		return fmt.Errorf("%w: tolerances must be positive", ErrInvalidConfig)
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
