package odometry

import (
	"testing"

	"go.viam.com/test"

	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/imu"
	"github.com/viam-labs/loam-core/pointcloud"
)

func TestTransformToStartAtPhaseZero(t *testing.T) {
	p := pointcloud.NewPoint(1, 2, 3, 5.0) // beamID 5, relativeTime 0
	transform := geometry.Transform{RX: 0.1, TX: 1}
	got := TransformToStart(p, transform, 0.1, imu.Snapshot{})
	test.That(t, got, test.ShouldResemble, p.Position)
}

func TestTransformToEndAtPhaseOne(t *testing.T) {
	scanPeriod := 0.1
	p := pointcloud.NewPoint(1, 2, 3, 5.0+scanPeriod-1e-9) // relativeTime ~scanPeriod, phase ~1
	transform := geometry.Transform{RX: 0.05, RY: -0.02, TX: 0.3, TY: -0.1, TZ: 0.2}

	end := TransformToEnd(p, transform, scanPeriod, imu.Snapshot{})
	// At phase 1, TransformToStart ~ ApplyInverse(p), and TransformToEnd then
	// re-applies the full forward transform, so it should land back near p.
	test.That(t, end.X, test.ShouldAlmostEqual, p.Position.X, 1e-6)
	test.That(t, end.Y, test.ShouldAlmostEqual, p.Position.Y, 1e-6)
	test.That(t, end.Z, test.ShouldAlmostEqual, p.Position.Z, 1e-6)
}

func TestUndistortCloudToEndPreservesIntensity(t *testing.T) {
	c := pointcloud.Cloud{
		pointcloud.NewPoint(1, 0, 0, 0.02),
		pointcloud.NewPoint(0, 1, 0, 1.05),
	}
	out := undistortCloudToEnd(c, geometry.Transform{TX: 0.1}, 0.1, imu.Snapshot{})
	test.That(t, len(out), test.ShouldEqual, len(c))
	test.That(t, out[0].Intensity, test.ShouldAlmostEqual, c[0].Intensity)
	test.That(t, out[1].Intensity, test.ShouldAlmostEqual, c[1].Intensity)
}

func TestTransformToStartIMUShiftVanishesAtPhaseZero(t *testing.T) {
	p := pointcloud.NewPoint(1, 2, 3, 5.0) // phase 0, so scale(0) is identity
	transform := geometry.Transform{}
	snap := imu.Snapshot{Present: true, ShiftFromStart: geometry.NewVector(0.5, 0, 0)}

	got := TransformToStart(p, transform, 0.1, snap)
	// Phase is 0, so the shift term (scaled by phase) also vanishes.
	test.That(t, got, test.ShouldResemble, p.Position)
}

func TestTransformToStartAppliesIMUShiftMidSweep(t *testing.T) {
	scanPeriod := 0.1
	p := pointcloud.NewPoint(1, 2, 3, scanPeriod/2) // phase 0.5
	transform := geometry.Transform{}
	snap := imu.Snapshot{Present: true, ShiftFromStart: geometry.NewVector(1.0, 0, 0)}

	got := TransformToStart(p, transform, scanPeriod, snap)
	// Half the shift should have been removed from X at phase 0.5.
	test.That(t, got.X, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, got.Y, test.ShouldAlmostEqual, p.Position.Y, 1e-9)
	test.That(t, got.Z, test.ShouldAlmostEqual, p.Position.Z, 1e-9)
}
