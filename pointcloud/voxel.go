package pointcloud

import (
	"math"

	"github.com/viam-labs/loam-core/geometry"
)

// VoxelCoords identifies a cell of a voxel grid, mirroring
// go.viam.com/rdk/pointcloud's VoxelCoords.
type VoxelCoords struct {
	I, J, K int64
}

// voxelCoordsForPoint returns the grid cell containing p for a grid whose
// origin is at the given minimum corner and whose cells have the given
// (cubic) leaf size, the same bucketing go.viam.com/rdk/pointcloud's
// GetVoxelCoordinates performs.
func voxelCoordsForPoint(p, minCorner geometry.Vector, leafSize float64) VoxelCoords {
	return VoxelCoords{
		I: int64(math.Floor((p.X - minCorner.X) / leafSize)),
		J: int64(math.Floor((p.Y - minCorner.Y) / leafSize)),
		K: int64(math.Floor((p.Z - minCorner.Z) / leafSize)),
	}
}

// DownsampleVoxelGrid buckets points into cubic voxels of the given leaf
// size and replaces each occupied voxel's points with their centroid,
// preserving the first point's intensity for the representative. It is used
// to build the less-flat surface class from all remaining non-corner points
// in a beam.
func DownsampleVoxelGrid(points Cloud, leafSize float64) Cloud {
	if len(points) == 0 {
		return nil
	}

	minCorner := points[0].Position
	for _, p := range points[1:] {
		if p.Position.X < minCorner.X {
			minCorner.X = p.Position.X
		}
		if p.Position.Y < minCorner.Y {
			minCorner.Y = p.Position.Y
		}
		if p.Position.Z < minCorner.Z {
			minCorner.Z = p.Position.Z
		}
	}

	type bucket struct {
		sum   geometry.Vector
		count int
		inten float64
	}
	buckets := make(map[VoxelCoords]*bucket)
	order := make([]VoxelCoords, 0)

	for _, p := range points {
		key := voxelCoordsForPoint(p.Position, minCorner, leafSize)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{inten: p.Intensity}
			buckets[key] = b
			order = append(order, key)
		}
		b.sum.X += p.Position.X
		b.sum.Y += p.Position.Y
		b.sum.Z += p.Position.Z
		b.count++
	}

	out := make(Cloud, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		n := float64(b.count)
		out = append(out, Point{
			Position:  geometry.Vector{X: b.sum.X / n, Y: b.sum.Y / n, Z: b.sum.Z / n},
			Intensity: b.inten,
		})
	}
	return out
}
