package geometry

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func almostVector(t *testing.T, got, want Vector, tol float64) {
	t.Helper()
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, tol)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, tol)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, tol)
}

func TestIdentityTransformIsNoop(t *testing.T) {
	var identity Transform
	p := NewVector(1, -2, 3.5)
	almostVector(t, identity.Apply(p), p, 1e-9)
	almostVector(t, identity.ApplyInverse(p), p, 1e-9)
}

func TestApplyInverseRoundTrip(t *testing.T) {
	tr := Transform{RX: 0.1, RY: -0.2, RZ: 0.05, TX: 1, TY: -0.5, TZ: 2}
	p := NewVector(3, 4, 5)
	forward := tr.Apply(p)
	back := tr.ApplyInverse(forward)
	almostVector(t, back, p, 1e-9)
}

func TestScaleZeroIsIdentity(t *testing.T) {
	tr := Transform{RX: 0.3, RY: 0.2, RZ: 0.1, TX: 5, TY: 5, TZ: 5}
	scaled := tr.Scale(0)
	test.That(t, scaled, test.ShouldResemble, Transform{})
}

func TestComposeWithIdentity(t *testing.T) {
	var identity Transform
	tr := Transform{RX: 0.1, RY: 0.2, RZ: 0.3, TX: 1, TY: 2, TZ: 3}

	composed := identity.Compose(tr)
	test.That(t, composed.RX, test.ShouldAlmostEqual, tr.RX, 1e-9)
	test.That(t, composed.RY, test.ShouldAlmostEqual, tr.RY, 1e-9)
	test.That(t, composed.RZ, test.ShouldAlmostEqual, tr.RZ, 1e-9)
	test.That(t, composed.TX, test.ShouldAlmostEqual, tr.TX, 1e-9)
	test.That(t, composed.TY, test.ShouldAlmostEqual, tr.TY, 1e-9)
	test.That(t, composed.TZ, test.ShouldAlmostEqual, tr.TZ, 1e-9)
}

func TestComposeMatchesSequentialApply(t *testing.T) {
	a := Transform{RX: 0.1, RY: -0.15, RZ: 0.2, TX: 1, TY: -2, TZ: 0.5}
	b := Transform{RX: -0.05, RY: 0.1, RZ: -0.2, TX: 0.2, TY: 0.4, TZ: -0.1}

	composed := a.Compose(b)
	// Applying the composed transform to an arbitrary point must match
	// applying b first and then a.
	p := NewVector(2, -1, 3)
	viaCompose := composed.Apply(p)
	viaSequential := a.Apply(b.Apply(p))
	almostVector(t, viaCompose, viaSequential, 1e-6)
}

func TestPluginIMURotationIdentityWhenOrientationsMatch(t *testing.T) {
	imuOrientation := Transform{RX: 0.1, RY: 0.2, RZ: 0.3}
	delta := Transform{RX: 0.02, RY: -0.01, RZ: 0.03}

	out := PluginIMURotation(imuOrientation, delta, imuOrientation)
	test.That(t, out.RX, test.ShouldAlmostEqual, delta.RX, 1e-9)
	test.That(t, out.RY, test.ShouldAlmostEqual, delta.RY, 1e-9)
	test.That(t, out.RZ, test.ShouldAlmostEqual, delta.RZ, 1e-9)
}

func TestQuaternionOfIdentityIsUnit(t *testing.T) {
	var identity Transform
	q := identity.Quaternion()
	test.That(t, math.Abs(q.Real-1), test.ShouldBeLessThan, 1e-9)
	test.That(t, math.Abs(q.Imag), test.ShouldBeLessThan, 1e-9)
	test.That(t, math.Abs(q.Jmag), test.ShouldBeLessThan, 1e-9)
	test.That(t, math.Abs(q.Kmag), test.ShouldBeLessThan, 1e-9)
}
