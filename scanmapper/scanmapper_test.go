package scanmapper

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func TestVLP16MapperNumRings(t *testing.T) {
	m := NewVLP16Mapper()
	test.That(t, m.NumRings(), test.ShouldEqual, 16)
}

func TestVLP16MapperSegment1(t *testing.T) {
	m := NewVLP16Mapper()
	test.That(t, m.RingForAngle(degToRad(5.0)), test.ShouldEqual, 2)
}

func TestVLP16MapperSegment2AtBoundary(t *testing.T) {
	m := NewVLP16Mapper()
	// 1.8 degrees is pi/100 radians. degToRad(1.8) rounds one ulp above that,
	// which converts back to 1.8000000000000003 degrees (segment 1).
	test.That(t, m.RingForAngle(math.Pi/100), test.ShouldEqual, 6)
}

func TestVLP16MapperSegment3AtBoundary(t *testing.T) {
	m := NewVLP16Mapper()
	test.That(t, m.RingForAngle(degToRad(-5.8)), test.ShouldEqual, 29)
}

func TestVLP16MapperOutOfTable(t *testing.T) {
	m := NewVLP16Mapper()
	test.That(t, m.RingForAngle(degToRad(10)), test.ShouldEqual, -1)
	test.That(t, m.RingForAngle(degToRad(-20)), test.ShouldEqual, -1)
}

func TestLinearMapperValidation(t *testing.T) {
	_, err := NewLinearMapper(0, 10, 0)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewLinearMapper(10, 5, 4)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLinearMapperBoundaries(t *testing.T) {
	m, err := NewLinearMapper(-15, 15, 16)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumRings(), test.ShouldEqual, 16)
	test.That(t, m.RingForAngle(degToRad(-15)), test.ShouldEqual, 0)
	test.That(t, m.RingForAngle(degToRad(15)), test.ShouldEqual, 15)
	test.That(t, m.RingForAngle(degToRad(100)), test.ShouldEqual, -1)
}
