package pointcloud

import (
	"testing"

	"go.viam.com/test"

	"github.com/viam-labs/loam-core/geometry"
)

func TestPointBeamAndRelativeTime(t *testing.T) {
	p := NewPoint(1, 2, 3, 4.75)
	test.That(t, p.BeamID(), test.ShouldEqual, 4)
	test.That(t, p.RelativeTime(), test.ShouldAlmostEqual, 0.75)
}

func TestPointBeamZeroIntensity(t *testing.T) {
	p := NewPoint(0, 0, 0, 0)
	test.That(t, p.BeamID(), test.ShouldEqual, 0)
	test.That(t, p.RelativeTime(), test.ShouldAlmostEqual, 0)
}

func TestPositions(t *testing.T) {
	c := Cloud{NewPoint(1, 0, 0, 0), NewPoint(0, 1, 0, 1)}
	positions := c.Positions()
	test.That(t, positions, test.ShouldResemble, []geometry.Vector{
		geometry.NewVector(1, 0, 0),
		geometry.NewVector(0, 1, 0),
	})
}

func TestTileRangesValid(t *testing.T) {
	ranges := []IndexRange{{First: 0, Last: 3}, {First: 3, Last: 3}, {First: 3, Last: 7}}
	test.That(t, TileRanges(ranges, 7), test.ShouldBeTrue)
}

func TestTileRangesGap(t *testing.T) {
	ranges := []IndexRange{{First: 0, Last: 3}, {First: 4, Last: 7}}
	test.That(t, TileRanges(ranges, 7), test.ShouldBeFalse)
}

func TestTileRangesShortOfTotal(t *testing.T) {
	ranges := []IndexRange{{First: 0, Last: 3}}
	test.That(t, TileRanges(ranges, 7), test.ShouldBeFalse)
}

func TestIndexRangeLen(t *testing.T) {
	r := IndexRange{First: 2, Last: 9}
	test.That(t, r.Len(), test.ShouldEqual, 7)
}
