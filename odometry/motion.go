package odometry

import (
	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/imu"
	"github.com/viam-labs/loam-core/pointcloud"
)

// phaseFraction returns a point's in-sweep phase as a fraction of scanPeriod
// in [0, 1), used to scale the twist for motion undistortion.
func phaseFraction(p pointcloud.Point, scanPeriod float64) float64 {
	if scanPeriod <= 0 {
		return 0
	}
	return p.RelativeTime() / scanPeriod
}

// imuDriftAtPhase returns the linear drift to remove from a point captured at
// phase s of the sweep, derived from the IMU snapshot's shift and velocity
// relative to the sweep start. The shift term scales linearly with phase,
// matching the same phase-scaling convention Transform.Scale applies to the
// LM-estimated twist, and the velocity term adds the drift accumulated over
// the elapsed time within the sweep (s*scanPeriod). Present being false (the
// default, IMU-off path) yields zero drift.
func imuDriftAtPhase(snap imu.Snapshot, s, scanPeriod float64) geometry.Vector {
	if !snap.Present {
		return geometry.Vector{}
	}
	elapsed := s * scanPeriod
	return snap.ShiftFromStart.Mul(s).Add(snap.VeloFromStart.Mul(elapsed))
}

// TransformToStart projects p from its own capture instant back to the
// start of the sweep, first removing any IMU-supplied linear drift and then
// undoing a linear interpolation of transform scaled by the point's phase,
// per spec section 4.3 step 1.
func TransformToStart(p pointcloud.Point, transform geometry.Transform, scanPeriod float64, snap imu.Snapshot) geometry.Vector {
	s := phaseFraction(p, scanPeriod)
	pos := p.Position.Sub(imuDriftAtPhase(snap, s, scanPeriod))
	return transform.Scale(s).ApplyInverse(pos)
}

// TransformToEnd projects p to the end of the sweep: first undistort to the
// start (as TransformToStart), then apply the full (s=1) transform forward
// to reach the end-of-sweep frame. Used when swapping the "last" feature
// clouds for the next sweep.
func TransformToEnd(p pointcloud.Point, transform geometry.Transform, scanPeriod float64, snap imu.Snapshot) geometry.Vector {
	start := TransformToStart(p, transform, scanPeriod, snap)
	return transform.Apply(start)
}

// undistortCloudToEnd applies TransformToEnd to every point in c, preserving
// intensity (and thus beam/phase) so the result can still be beam-indexed.
func undistortCloudToEnd(c pointcloud.Cloud, transform geometry.Transform, scanPeriod float64, snap imu.Snapshot) pointcloud.Cloud {
	out := make(pointcloud.Cloud, len(c))
	for i, p := range c {
		out[i] = pointcloud.Point{Position: TransformToEnd(p, transform, scanPeriod, snap), Intensity: p.Intensity}
	}
	return out
}
