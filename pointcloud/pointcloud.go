// Package pointcloud defines the Point/Cloud/IndexRange data model shared by
// scan registration and laser odometry, along with the voxel-grid
// downsampling used to build the less-flat surface feature class. Its
// layout mirrors go.viam.com/rdk/pointcloud's point/cloud split, trimmed to
// the ordered-per-beam sweep representation this pipeline needs.
package pointcloud

import (
	"math"

	"github.com/viam-labs/loam-core/geometry"
)

// Point is a single lidar return: a 3D position plus a packed intensity
// field. For points emitted by scan registration (feature clouds and the
// full-resolution cloud alike), Intensity packs scanID + relativeTime per
// the external contract between registration and odometry:
// floor(Intensity) is the beam index and Intensity-floor(Intensity) is the
// in-sweep phase in [0,1) scaled by scanPeriod.
type Point struct {
	Position  geometry.Vector
	Intensity float64
}

// NewPoint constructs a Point from coordinates and a packed intensity.
func NewPoint(x, y, z, intensity float64) Point {
	return Point{Position: geometry.Vector{X: x, Y: y, Z: z}, Intensity: intensity}
}

// BeamID returns the beam index packed into Intensity.
func (p Point) BeamID() int {
	return int(math.Floor(p.Intensity))
}

// RelativeTime returns the in-sweep phase packed into Intensity.
func (p Point) RelativeTime() float64 {
	return p.Intensity - math.Floor(p.Intensity)
}

// Cloud is an ordered sequence of points. Feature clouds are ordered within
// each beam; the full-resolution cloud is ordered by beam then by capture
// order within the beam.
type Cloud []Point

// Positions returns the position component of every point, used by the
// KD-tree which indexes on geometry only.
func (c Cloud) Positions() []geometry.Vector {
	out := make([]geometry.Vector, len(c))
	for i, p := range c {
		out[i] = p.Position
	}
	return out
}

// IndexRange gives the half-inclusive [First, Last) offsets of one beam's
// sub-cloud inside a concatenated full-resolution cloud.
type IndexRange struct {
	First, Last int
}

// Len returns the number of points covered by the range.
func (r IndexRange) Len() int {
	return r.Last - r.First
}

// TileRanges reports whether ranges, in order, tile [0, total) without gaps
// or overlaps -- the invariant required of scan registration's output.
func TileRanges(ranges []IndexRange, total int) bool {
	next := 0
	for _, r := range ranges {
		if r.First != next || r.Last < r.First {
			return false
		}
		next = r.Last
	}
	return next == total
}
