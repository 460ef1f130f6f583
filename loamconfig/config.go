// Package loamconfig holds the enumerated configuration for the pipeline,
// with defaults matching the original LOAM parameters. Following
// go.viam.com/rdk/config's validate-on-construction idiom, values are
// supplied directly as a struct (parsing a config file is a peripheral
// concern excluded from this core, per spec section 1) and checked once by
// Validate.
package loamconfig

import "github.com/pkg/errors"

// Config enumerates every tunable named in the spec, section 6.
type Config struct {
	ScanPeriod float64 // seconds per sweep

	EdgeThreshold    float64 // minimum curvature to accept a corner feature
	SurfaceThreshold float64 // maximum curvature to accept a surface feature

	LessFlatFilterSize float64 // voxel leaf size, meters

	MaxIterations int // LM iterations per sweep

	CornerSqDistThreshold float64 // meters^2
	SurfSqDistThreshold   float64 // meters^2

	DeltaRotConvergenceDeg float64 // degrees
	DeltaTransConvergence  float64 // meters

	DegeneracyEigenThreshold float64

	UniformWeightIterations int // initial LM iterations skipping residual weighting

	SystemDelay int // startup sweeps discarded

	NScanRings          int
	LowerBoundDeg       float64
	UpperBoundDeg       float64
	CorrespondenceStale int // iterations between correspondence rebuilds

	// TimestampEpsilon bounds how close six buffered inputs' timestamps must
	// be to be considered one sweep.
	TimestampEpsilon float64
}

// DefaultConfig returns the configuration matching the values enumerated in
// spec section 6, for the VLP-16 device.
func DefaultConfig() Config {
	return Config{
		ScanPeriod:               0.1,
		EdgeThreshold:            0.1,
		SurfaceThreshold:         0.1,
		LessFlatFilterSize:       0.2,
		MaxIterations:            25,
		CornerSqDistThreshold:    25,
		SurfSqDistThreshold:      25,
		DeltaRotConvergenceDeg:   0.1,
		DeltaTransConvergence:    1e-4,
		DegeneracyEigenThreshold: 10,
		UniformWeightIterations:  10,
		SystemDelay:              20,
		NScanRings:               16,
		LowerBoundDeg:            -15,
		UpperBoundDeg:            15,
		CorrespondenceStale:      5,
		TimestampEpsilon:         0.005,
	}
}

// Validate rejects nonsensical configuration values. Only programmer errors
// (negative scan count, nonpositive scanPeriod, and similar) are surfaced;
// everything data-dependent is handled at the data path per spec section 7.
func (c Config) Validate() error {
	if c.ScanPeriod <= 0 {
		return errors.Errorf("scanPeriod must be positive, got %v", c.ScanPeriod)
	}
	if c.NScanRings <= 0 {
		return errors.Errorf("nScanRings must be positive, got %v", c.NScanRings)
	}
	if c.UpperBoundDeg <= c.LowerBoundDeg {
		return errors.Errorf("upperBound (%v) must exceed lowerBound (%v)", c.UpperBoundDeg, c.LowerBoundDeg)
	}
	if c.MaxIterations <= 0 {
		return errors.Errorf("maxIterations must be positive, got %v", c.MaxIterations)
	}
	if c.LessFlatFilterSize <= 0 {
		return errors.Errorf("lessFlatFilterSize must be positive, got %v", c.LessFlatFilterSize)
	}
	if c.CornerSqDistThreshold <= 0 || c.SurfSqDistThreshold <= 0 {
		return errors.New("correspondence squared-distance thresholds must be positive")
	}
	if c.CorrespondenceStale <= 0 {
		return errors.Errorf("correspondenceStale must be positive, got %v", c.CorrespondenceStale)
	}
	if c.TimestampEpsilon < 0 {
		return errors.New("timestampEpsilon must be non-negative")
	}
	return nil
}
