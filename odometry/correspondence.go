package odometry

import (
	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/imu"
	"github.com/viam-labs/loam-core/kdtree"
	"github.com/viam-labs/loam-core/pointcloud"
)

// candidateFanout bounds how many nearest neighbors are pulled from the
// KD-tree before filtering by beam adjacency, standing in for the original's
// index-space walk outward from the closest point (our cloud is not
// guaranteed contiguous in beam order the way the original's scan buffer is,
// so the filter runs over a KD-tree shortlist instead of a linear scan).
const candidateFanout = 25

// cornerCorrespondence pairs one current-sweep corner feature with a line
// (j, l) in the previous sweep's corner cloud, j being the nearest point and
// l a second point from an adjacent beam.
type cornerCorrespondence struct {
	srcIdx int
	j, l   int
}

// surfaceCorrespondence pairs one current-sweep surface feature with a plane
// (j, l, m) in the previous sweep's surface cloud: j the nearest point, l a
// second point on j's own beam, m a third point from a different beam.
type surfaceCorrespondence struct {
	srcIdx  int
	j, l, m int
}

// findCornerCorrespondences searches, for every point in sharp, the nearest
// neighbor in lastCorner and a second-best neighbor from an adjacent beam,
// per spec section 4.3's corner correspondence search. Points with no
// acceptable match are dropped.
func findCornerCorrespondences(
	sharp pointcloud.Cloud,
	lastCorner pointcloud.Cloud,
	tree *kdtree.KDTree,
	transform geometry.Transform,
	scanPeriod float64,
	sqDistThreshold float64,
	snap imu.Snapshot,
) []cornerCorrespondence {
	if tree.Size() == 0 {
		return nil
	}
	var out []cornerCorrespondence
	for i, p := range sharp {
		query := TransformToStart(p, transform, scanPeriod, snap)
		idxs, sqDists, err := tree.NearestK(query, min(candidateFanout, tree.Size()))
		if err != nil || len(idxs) == 0 || sqDists[0] > sqDistThreshold {
			continue
		}
		j := idxs[0]
		beamJ := lastCorner[j].BeamID()

		l := -1
		bestSq := sqDistThreshold
		for k := 1; k < len(idxs); k++ {
			beamL := lastCorner[idxs[k]].BeamID()
			if beamL != beamJ-1 && beamL != beamJ+1 {
				continue
			}
			if sqDists[k] < bestSq {
				bestSq = sqDists[k]
				l = idxs[k]
			}
		}
		if l == -1 {
			continue
		}
		out = append(out, cornerCorrespondence{srcIdx: i, j: j, l: l})
	}
	return out
}

// findSurfaceCorrespondences searches, for every point in flat, three
// non-collinear points (j, l, m) in lastSurface spanning at least two beams,
// per spec section 4.3's surface correspondence search.
func findSurfaceCorrespondences(
	flat pointcloud.Cloud,
	lastSurface pointcloud.Cloud,
	tree *kdtree.KDTree,
	transform geometry.Transform,
	scanPeriod float64,
	sqDistThreshold float64,
	snap imu.Snapshot,
) []surfaceCorrespondence {
	if tree.Size() == 0 {
		return nil
	}
	var out []surfaceCorrespondence
	for i, p := range flat {
		query := TransformToStart(p, transform, scanPeriod, snap)
		idxs, sqDists, err := tree.NearestK(query, min(candidateFanout, tree.Size()))
		if err != nil || len(idxs) == 0 || sqDists[0] > sqDistThreshold {
			continue
		}
		j := idxs[0]
		beamJ := lastSurface[j].BeamID()

		l, m := -1, -1
		bestL, bestM := sqDistThreshold, sqDistThreshold
		for k := 1; k < len(idxs); k++ {
			beamK := lastSurface[idxs[k]].BeamID()
			if beamK == beamJ {
				if sqDists[k] < bestL {
					bestL = sqDists[k]
					l = idxs[k]
				}
			} else if sqDists[k] < bestM {
				bestM = sqDists[k]
				m = idxs[k]
			}
		}
		if l == -1 || m == -1 {
			continue
		}

		pj, pl, pm := lastSurface[j].Position, lastSurface[l].Position, lastSurface[m].Position
		normal := pl.Sub(pj).Cross(pm.Sub(pj))
		if geometry.SquaredNorm(normal) < 1e-8 {
			continue // near-collinear, reject
		}

		out = append(out, surfaceCorrespondence{srcIdx: i, j: j, l: l, m: m})
	}
	return out
}
