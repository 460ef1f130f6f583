package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is a six-DoF rigid-body pose (a "Twist" in LOAM terminology),
// expressed as (roll, pitch, yaw, tx, ty, tz). It is applied to a point as
// rotation Rz(RZ)*Rx(RX)*Ry(RY) followed by translation (TX, TY, TZ) -- the
// legacy LOAM convention, preserved exactly per the data model contract.
type Transform struct {
	RX, RY, RZ float64
	TX, TY, TZ float64
}

// Translation returns the translation component as a Vector.
func (t Transform) Translation() Vector {
	return Vector{X: t.TX, Y: t.TY, Z: t.TZ}
}

// RotationMatrix returns the 3x3 rotation matrix Rz(RZ)*Rx(RX)*Ry(RY).
func (t Transform) RotationMatrix() *mat.Dense {
	sx, cx := math.Sincos(t.RX)
	sy, cy := math.Sincos(t.RY)
	sz, cz := math.Sincos(t.RZ)

	r := mat.NewDense(3, 3, []float64{
		cz*cy - sz*sx*sy, -sz * cx, cz*sy + sz*sx*cy,
		sz*cy + cz*sx*sy, cz * cx, sz*sy - cz*sx*cy,
		-cx * sy, sx, cx * cy,
	})
	return r
}

// eulerFromRotationMatrix recovers (rx, ry, rz) from a rotation matrix built
// by RotationMatrix, i.e. it is RotationMatrix's inverse on the domain
// rx in (-pi/2, pi/2). This is the matrix-based equivalent of LOAM's
// AccumulateRotation trigonometric expansion.
func eulerFromRotationMatrix(r *mat.Dense) (rx, ry, rz float64) {
	sx := clamp(r.At(2, 1), -1, 1)
	rx = math.Asin(sx)
	ry = math.Atan2(-r.At(2, 0), r.At(2, 2))
	rz = math.Atan2(-r.At(0, 1), r.At(1, 1))
	return rx, ry, rz
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Apply transforms p by this transform: Rz*Rx*Ry*p + t.
func (t Transform) Apply(p Vector) Vector {
	r := t.RotationMatrix()
	pv := mat.NewVecDense(3, []float64{p.X, p.Y, p.Z})
	var out mat.VecDense
	out.MulVec(r, pv)
	return Vector{X: out.AtVec(0) + t.TX, Y: out.AtVec(1) + t.TY, Z: out.AtVec(2) + t.TZ}
}

// ApplyInverse applies the inverse transform: Ry(-RY)Rx(-RX)Rz(-RZ)*(p - t).
func (t Transform) ApplyInverse(p Vector) Vector {
	r := t.RotationMatrix()
	var rt mat.Dense
	rt.CloneFrom(r.T())
	shifted := mat.NewVecDense(3, []float64{p.X - t.TX, p.Y - t.TY, p.Z - t.TZ})
	var out mat.VecDense
	out.MulVec(&rt, shifted)
	return Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Scale scales rotation and translation components by s, used for the linear
// phase interpolation performed during motion undistortion.
func (t Transform) Scale(s float64) Transform {
	return Transform{
		RX: s * t.RX, RY: s * t.RY, RZ: s * t.RZ,
		TX: s * t.TX, TY: s * t.TY, TZ: s * t.TZ,
	}
}

// Compose returns the pose obtained by composing delta onto t: it represents
// "first move by t, then by delta expressed in t's frame", i.e.
// RotationMatrix(result) = RotationMatrix(t) * RotationMatrix(delta) and
// Translation(result) = Translation(t) + RotationMatrix(t)*Translation(delta).
// This is the matrix-composition equivalent of LOAM's AccumulateRotation,
// used to fold the per-sweep delta into the accumulated world pose.
func (t Transform) Compose(delta Transform) Transform {
	rt := t.RotationMatrix()
	rd := delta.RotationMatrix()
	var rOut mat.Dense
	rOut.Mul(rt, rd)

	dv := mat.NewVecDense(3, []float64{delta.TX, delta.TY, delta.TZ})
	var rotatedD mat.VecDense
	rotatedD.MulVec(rt, dv)

	rx, ry, rz := eulerFromRotationMatrix(&rOut)
	return Transform{
		RX: rx, RY: ry, RZ: rz,
		TX: t.TX + rotatedD.AtVec(0),
		TY: t.TY + rotatedD.AtVec(1),
		TZ: t.TZ + rotatedD.AtVec(2),
	}
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() Transform {
	r := t.RotationMatrix()
	var rt mat.Dense
	rt.CloneFrom(r.T())
	tv := mat.NewVecDense(3, []float64{-t.TX, -t.TY, -t.TZ})
	var out mat.VecDense
	out.MulVec(&rt, tv)
	rx, ry, rz := eulerFromRotationMatrix(&rt)
	return Transform{RX: rx, RY: ry, RZ: rz, TX: out.AtVec(0), TY: out.AtVec(1), TZ: out.AtVec(2)}
}

// RotationOnly returns the rotation-only part of t (translation zeroed),
// used when composing pure orientations such as IMU start/end frames.
func (t Transform) RotationOnly() Transform {
	return Transform{RX: t.RX, RY: t.RY, RZ: t.RZ}
}

// Quaternion returns the rotation component of t as a quaternion, an
// auxiliary representation (mirroring spatialmath.Orientation.Quaternion)
// used by callers that need a gimbal-lock-free handle on the rotation; the
// primary math throughout this package stays in the LOAM Euler convention.
func (t Transform) Quaternion() quat.Number {
	r := t.RotationMatrix()
	tr := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)
	if tr > 0 {
		s := 0.5 / math.Sqrt(tr+1.0)
		return quat.Number{
			Real: 0.25 / s,
			Imag: (r.At(2, 1) - r.At(1, 2)) * s,
			Jmag: (r.At(0, 2) - r.At(2, 0)) * s,
			Kmag: (r.At(1, 0) - r.At(0, 1)) * s,
		}
	}
	// Fall back to a numerically stable branch for large-angle rotations.
	if r.At(0, 0) > r.At(1, 1) && r.At(0, 0) > r.At(2, 2) {
		s := 2.0 * math.Sqrt(1.0+r.At(0, 0)-r.At(1, 1)-r.At(2, 2))
		return quat.Number{
			Real: (r.At(2, 1) - r.At(1, 2)) / s,
			Imag: 0.25 * s,
			Jmag: (r.At(0, 1) + r.At(1, 0)) / s,
			Kmag: (r.At(0, 2) + r.At(2, 0)) / s,
		}
	} else if r.At(1, 1) > r.At(2, 2) {
		s := 2.0 * math.Sqrt(1.0+r.At(1, 1)-r.At(0, 0)-r.At(2, 2))
		return quat.Number{
			Real: (r.At(0, 2) - r.At(2, 0)) / s,
			Imag: (r.At(0, 1) + r.At(1, 0)) / s,
			Jmag: 0.25 * s,
			Kmag: (r.At(1, 2) + r.At(2, 1)) / s,
		}
	}
	s := 2.0 * math.Sqrt(1.0+r.At(2, 2)-r.At(0, 0)-r.At(1, 1))
	return quat.Number{
		Real: (r.At(1, 0) - r.At(0, 1)) / s,
		Imag: (r.At(0, 2) + r.At(2, 0)) / s,
		Jmag: (r.At(1, 2) + r.At(2, 1)) / s,
		Kmag: 0.25 * s,
	}
}

// PluginIMURotation combines the IMU orientation change over a sweep with
// the estimated LM delta: RotationMatrix(result) = R(delta) * R(imuStart) *
// R(imuEnd)^-1, so equal start and end orientations leave delta unchanged.
// All three arguments and the result carry rotation only; translation
// fields are ignored/zeroed.
func PluginIMURotation(imuStart, delta, imuEnd Transform) Transform {
	rStart := imuStart.RotationOnly().RotationMatrix()
	rDelta := delta.RotationOnly().RotationMatrix()
	rEndInv := imuEnd.RotationOnly().Inverse().RotationMatrix()

	var tmp, out mat.Dense
	tmp.Mul(rDelta, rStart)
	out.Mul(&tmp, rEndInv)

	rx, ry, rz := eulerFromRotationMatrix(&out)
	return Transform{RX: rx, RY: ry, RZ: rz}
}
