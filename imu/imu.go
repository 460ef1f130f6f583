// Package imu specifies the optional external provider of per-point
// orientation and linear drift used to pre-compensate motion distortion.
// Per the design note on the original's shared-mutable IMU state, this
// package exposes only a value-typed snapshot: the orchestrator owns
// whatever live buffer feeds it, and odometry never reaches back into that
// buffer. Preintegration internals are out of scope (spec section 1
// non-goals); only the interface is specified here.
package imu

import "github.com/viam-labs/loam-core/geometry"

// Snapshot is the IMU state associated with one sweep: orientation at the
// start and end of the sweep, plus the linear shift and velocity that have
// accumulated relative to the sweep start. All fields are zero-valued (and
// Present is false) when no IMU is wired, which is the default path.
type Snapshot struct {
	Present bool

	// StartOrientation / EndOrientation carry roll, pitch, yaw only; TX/TY/TZ
	// are unused and left at zero.
	StartOrientation geometry.Transform
	EndOrientation   geometry.Transform

	ShiftFromStart geometry.Vector
	VeloFromStart  geometry.Vector
}

// Provider supplies the IMU snapshot for a given sweep timestamp. Nothing in
// this module calls it; a driver that holds a Provider queries it once per
// sweep and forwards the value (for example to the orchestrator's SubmitIMU),
// so odometry only ever sees the resulting value.
type Provider interface {
	SnapshotAt(sweepTime float64) Snapshot
}

// NoopProvider is a Provider that never has IMU data, making IMU-based
// undistortion an opt-in path as specified (IMU-off is the default).
type NoopProvider struct{}

// SnapshotAt always returns the zero, not-present snapshot.
func (NoopProvider) SnapshotAt(float64) Snapshot {
	return Snapshot{}
}
