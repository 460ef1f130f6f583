// Package geometry provides the primitive types shared by scan registration and
// laser odometry: 3-vectors, angle normalization, and the six-DoF rigid
// transform (Twist) used throughout the pipeline under LOAM's Z-X-Y Euler
// convention.
package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vector is a 3D point or direction. It is a thin alias over r3.Vector so the
// package can use r3's dot/cross/normalize helpers directly, mirroring how
// go.viam.com/rdk/pointcloud and go.viam.com/rdk/spatialmath build their
// geometry on top of github.com/golang/geo/r3.
type Vector = r3.Vector

// NewVector is a convenience constructor, matching pointcloud.NewVector.
func NewVector(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// SquaredNorm returns |v|^2 without the square root, used pervasively in
// nearest-neighbor and threshold comparisons where the root is unnecessary.
func SquaredNorm(v Vector) float64 {
	return v.Dot(v)
}

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b Vector) float64 {
	return SquaredNorm(a.Sub(b))
}

// IsFinite reports whether every component of v is finite (not NaN or Inf).
func IsFinite(v Vector) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// RemapToInternalFrame applies the ingest coordinate remap described by the
// registration component: the internal frame used by feature extraction and
// odometry rotates axes as (xInt, yInt, zInt) = (yIn, zIn, xIn). Callers must
// apply this exactly once, at ingest, and never again.
func RemapToInternalFrame(v Vector) Vector {
	return Vector{X: v.Y, Y: v.Z, Z: v.X}
}
