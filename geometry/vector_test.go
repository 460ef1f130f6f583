package geometry

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestRemapToInternalFrame(t *testing.T) {
	v := NewVector(1, 2, 3)
	remapped := RemapToInternalFrame(v)
	test.That(t, remapped, test.ShouldResemble, NewVector(2, 3, 1))
}

func TestSquaredDistance(t *testing.T) {
	a := NewVector(0, 0, 0)
	b := NewVector(3, 4, 0)
	test.That(t, SquaredDistance(a, b), test.ShouldAlmostEqual, 25.0)
}

func TestIsFinite(t *testing.T) {
	test.That(t, IsFinite(NewVector(1, 2, 3)), test.ShouldBeTrue)
	test.That(t, IsFinite(NewVector(math.NaN(), 0, 0)), test.ShouldBeFalse)
	test.That(t, IsFinite(NewVector(math.Inf(1), 0, 0)), test.ShouldBeFalse)
}
