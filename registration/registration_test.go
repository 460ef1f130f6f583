package registration

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/loamconfig"
	"github.com/viam-labs/loam-core/logging"
	"github.com/viam-labs/loam-core/pointcloud"
	"github.com/viam-labs/loam-core/scanmapper"
)

// syntheticRing builds a synthetic sweep: one point per beam per azimuth
// step, sampling a half-cylinder of horizontal radius wallDist around the
// sensor, in the original x-forward/y-left/z-up sensor
// frame registration.Process expects.
func syntheticRing(nBeams, nAzimuth int, wallDist float64) []geometry.Vector {
	points := make([]geometry.Vector, 0, nBeams*nAzimuth)
	for b := 0; b < nBeams; b++ {
		elevDeg := -15 + float64(b)*(30.0/float64(nBeams-1))
		elev := elevDeg * math.Pi / 180
		for a := 0; a < nAzimuth; a++ {
			az := -math.Pi/2 + float64(a)*(math.Pi/float64(nAzimuth-1))
			r := wallDist / math.Cos(elev)
			x := r * math.Cos(elev) * math.Cos(az)
			y := r * math.Cos(elev) * math.Sin(az)
			z := r * math.Sin(elev)
			points = append(points, geometry.Vector{X: x, Y: y, Z: z})
		}
	}
	return points
}

func newTestRegistrar(t *testing.T) *Registrar {
	cfg := loamconfig.DefaultConfig()
	mapper := scanmapper.NewVLP16Mapper()
	reg, err := New(cfg, mapper, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return reg
}

func TestProcessRejectsTinyInput(t *testing.T) {
	reg := newTestRegistrar(t)
	_, err := reg.Process([]geometry.Vector{{X: 1}})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProcessScanIndicesTileFullResCloud(t *testing.T) {
	reg := newTestRegistrar(t)
	raw := syntheticRing(16, 90, 5.0)

	result, err := reg.Process(raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pointcloud.TileRanges(result.ScanIndices, len(result.FullResInt)), test.ShouldBeTrue)
}

func TestProcessPointIntensityInvariant(t *testing.T) {
	reg := newTestRegistrar(t)
	raw := syntheticRing(16, 90, 5.0)

	result, err := reg.Process(raw)
	test.That(t, err, test.ShouldBeNil)

	for beamID, rng := range result.ScanIndices {
		for i := rng.First; i < rng.Last; i++ {
			p := result.FullResInt[i]
			test.That(t, p.BeamID(), test.ShouldEqual, beamID)
			test.That(t, p.RelativeTime(), test.ShouldBeGreaterThanOrEqualTo, 0.0)
			test.That(t, p.RelativeTime(), test.ShouldBeLessThan, reg.cfg.ScanPeriod+1e-9)
		}
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	reg := newTestRegistrar(t)
	raw := syntheticRing(16, 90, 5.0)

	first, err := reg.Process(raw)
	test.That(t, err, test.ShouldBeNil)
	second, err := reg.Process(raw)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, len(first.Features.CornerSharp), test.ShouldEqual, len(second.Features.CornerSharp))
	test.That(t, len(first.Features.SurfLessFlat), test.ShouldEqual, len(second.Features.SurfLessFlat))
	test.That(t, first.FullResInt, test.ShouldResemble, second.FullResInt)
}

func TestUnwrapOrientationBeforeHalfPassed(t *testing.T) {
	startOri, endOri := 0.0, math.Pi*2.2
	ori, halfPassed := unwrapOrientation(0.1, startOri, endOri, false)
	test.That(t, halfPassed, test.ShouldBeFalse)
	test.That(t, ori, test.ShouldAlmostEqual, 0.1, 1e-9)
}

func TestSweepOrientationBoundsOrdering(t *testing.T) {
	first := geometry.NewVector(1, 0, 0)
	last := geometry.NewVector(0, -1, 0)
	startOri, endOri := sweepOrientationBounds(first, last)
	test.That(t, endOri, test.ShouldBeGreaterThan, startOri)
}
