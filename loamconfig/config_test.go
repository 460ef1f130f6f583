package loamconfig

import (
	"testing"

	"go.viam.com/test"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
}

func TestValidateRejectsNonPositiveScanPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScanPeriod = 0
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}

func TestValidateRejectsBadBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpperBoundDeg = cfg.LowerBoundDeg
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}

func TestValidateRejectsZeroRings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NScanRings = 0
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}

func TestValidateRejectsNonPositiveMaxIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 0
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}

func TestValidateRejectsNegativeTimestampEpsilon(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimestampEpsilon = -0.1
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}
