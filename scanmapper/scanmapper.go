// Package scanmapper maps a point's vertical inclination angle to a
// discrete beam (scan ring) index for a specific lidar device. It follows
// go.viam.com/rdk/octree's constructor-validates-then-returns-error idiom
// for the general linear mapper, and preserves the VLP-16 piecewise formula
// from the original LOAM MultiScanMapper::getRingForAngle bit-for-bit, per
// the spec's requirement that scan-mapping arithmetic be exact.
package scanmapper

import (
	"math"

	"github.com/pkg/errors"
)

// Mapper maps a vertical angle (radians) to a beam index, or -1 if the
// angle falls outside the device's table.
type Mapper interface {
	RingForAngle(angleRadians float64) int
	NumRings() int
}

// LinearMapper is the general device model: a piecewise-linear mapping from
// angle (degrees) to ring index, parameterized by the device's lower/upper
// bound and ring count, matching the spec's device-specific config fields
// (nScanRings, lowerBound, upperBound). It is used for devices other than
// the VLP-16, whose exact three-segment table is preserved separately in
// VLP16Mapper.
type LinearMapper struct {
	lowerBoundDeg, upperBoundDeg float64
	nRings                       int
	factor                       float64
}

// NewLinearMapper constructs a LinearMapper. nRings must be positive and
// upperBoundDeg must exceed lowerBoundDeg; violating either is a programmer
// error surfaced at construction, per spec section 7.
func NewLinearMapper(lowerBoundDeg, upperBoundDeg float64, nRings int) (*LinearMapper, error) {
	if nRings <= 0 {
		return nil, errors.Errorf("invalid ring count (%d) for scan mapper", nRings)
	}
	if upperBoundDeg <= lowerBoundDeg {
		return nil, errors.Errorf("invalid angle bounds [%.3f, %.3f] for scan mapper", lowerBoundDeg, upperBoundDeg)
	}
	return &LinearMapper{
		lowerBoundDeg: lowerBoundDeg,
		upperBoundDeg: upperBoundDeg,
		nRings:        nRings,
		factor:        float64(nRings-1) / (upperBoundDeg - lowerBoundDeg),
	}, nil
}

// NumRings returns the number of scan rings this device exposes.
func (m *LinearMapper) NumRings() int {
	return m.nRings
}

// RingForAngle returns the ring index for angleRadians, or -1 if out of
// range.
func (m *LinearMapper) RingForAngle(angleRadians float64) int {
	deg := angleRadians * 180 / math.Pi
	if deg < m.lowerBoundDeg || deg > m.upperBoundDeg {
		return -1
	}
	ring := int((deg-m.lowerBoundDeg)*m.factor + 0.5)
	if ring < 0 || ring >= m.nRings {
		return -1
	}
	return ring
}

// VLP16Mapper is the exact three-segment piecewise mapping for the Velodyne
// VLP-16, preserved verbatim (including the boundary treatment at the 1.8
// degree seam, which the original leaves ambiguous -- see DESIGN.md).
type VLP16Mapper struct{}

// NewVLP16Mapper returns the VLP-16 device mapper.
func NewVLP16Mapper() *VLP16Mapper {
	return &VLP16Mapper{}
}

// NumRings returns the VLP-16's 16 scan rings.
func (m *VLP16Mapper) NumRings() int {
	return 16
}

// RingForAngle implements the exact VLP-16 piecewise formula:
//
//	angle in (1.8, 7.5):    ring = round(8 - angle) - 1
//	angle in (-5.8, 1.8]:   ring = round(30 - (angle+6)*3) - 1
//	angle in [-16.5, -5.8]: ring = round((-6 - angle) + 30) - 1
//	else: -1
//
// The boundary at 1.8 degrees is treated conservatively: it belongs to the
// second segment (angle <= 1.8), matching the original C++'s
// `angle_ <= 1.8 && angle_ > -5.8` condition.
func (m *VLP16Mapper) RingForAngle(angleRadians float64) int {
	deg := angleRadians * 180 / math.Pi
	switch {
	case deg < 7.5 && deg > 1.8:
		return int(math.Round(8-deg)) - 1
	case deg <= 1.8 && deg > -5.8:
		return int(math.Round(30-(deg+6)*3)) - 1
	case deg <= -5.8 && deg >= -16.5:
		return int(math.Round((-6-deg)+30)) - 1
	default:
		return -1
	}
}
