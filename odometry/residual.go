package odometry

import (
	"math"

	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/imu"
	"github.com/viam-labs/loam-core/pointcloud"
)

// jacobianEps is the central-difference step used to differentiate each
// residual with respect to the six twist parameters. The point-to-line and
// point-to-plane distances are smooth in the twist away from degenerate
// configurations (already filtered out by the collinearity/threshold checks
// in correspondence search), so a fixed small step is sufficient without a
// per-call adaptive choice; this sidesteps hand-deriving the original's
// expanded analytic partials, trading a constant 12 extra residual
// evaluations per correspondence per LM iteration for a partial derivative
// that is mechanically impossible to transcribe incorrectly.
const jacobianEps = 1e-6

// pointToLineDistance returns the non-negative distance from p to the
// infinite line through a and b (zero when a and b coincide); LOAM's
// weighting only uses the magnitude.
func pointToLineDistance(p, a, b geometry.Vector) float64 {
	ab := b.Sub(a)
	abLen := math.Sqrt(geometry.SquaredNorm(ab))
	if abLen < 1e-12 {
		return 0
	}
	return math.Sqrt(geometry.SquaredNorm(p.Sub(a).Cross(p.Sub(b)))) / abLen
}

// pointToPlaneDistance returns the signed distance from p to the plane
// through a, b, c.
func pointToPlaneDistance(p, a, b, c geometry.Vector) float64 {
	normal := b.Sub(a).Cross(c.Sub(a))
	norm := math.Sqrt(geometry.SquaredNorm(normal))
	if norm < 1e-12 {
		return 0
	}
	return p.Sub(a).Dot(normal) / norm
}

// twistComponents exposes a Transform's six parameters as a fixed-order
// array so the numerical Jacobian can perturb them uniformly.
func twistComponents(t geometry.Transform) [6]float64 {
	return [6]float64{t.RX, t.RY, t.RZ, t.TX, t.TY, t.TZ}
}

func transformFromComponents(c [6]float64) geometry.Transform {
	return geometry.Transform{RX: c[0], RY: c[1], RZ: c[2], TX: c[3], TY: c[4], TZ: c[5]}
}

// residualFunc evaluates a correspondence's residual for a given twist.
type residualFunc func(twist geometry.Transform) float64

// jacobianRow differentiates f around transform using central differences,
// returning the 6 partial derivatives in twist order (RX, RY, RZ, TX, TY, TZ).
func jacobianRow(f residualFunc, transform geometry.Transform) [6]float64 {
	base := twistComponents(transform)
	var row [6]float64
	for k := 0; k < 6; k++ {
		plus := base
		minus := base
		plus[k] += jacobianEps
		minus[k] -= jacobianEps
		row[k] = (f(transformFromComponents(plus)) - f(transformFromComponents(minus))) / (2 * jacobianEps)
	}
	return row
}

// cornerResidual returns the residualFunc for a single corner correspondence.
func cornerResidual(p pointcloud.Point, a, b geometry.Vector, scanPeriod float64, snap imu.Snapshot) residualFunc {
	return func(twist geometry.Transform) float64 {
		q := TransformToStart(p, twist, scanPeriod, snap)
		return pointToLineDistance(q, a, b)
	}
}

// surfaceResidual returns the residualFunc for a single surface correspondence.
func surfaceResidual(p pointcloud.Point, a, b, c geometry.Vector, scanPeriod float64, snap imu.Snapshot) residualFunc {
	return func(twist geometry.Transform) float64 {
		q := TransformToStart(p, twist, scanPeriod, snap)
		return pointToPlaneDistance(q, a, b, c)
	}
}
