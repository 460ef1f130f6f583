// Package registration partitions a raw unordered sweep into per-beam
// ordered scans, recovers per-point sweep-relative time, and extracts
// feature points by a locally-ranked curvature measure with spatial
// de-clustering. It is grounded on go.viam.com/rdk/pointcloud's voxel-grid
// downsampling (for the less-flat class) and on
// original_source/loam_velodyne/MultiScanRegistration.cpp for the exact
// sweep-orientation unwrap arithmetic the spec requires bit-for-bit.
package registration

import (
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/loamconfig"
	"github.com/viam-labs/loam-core/logging"
	"github.com/viam-labs/loam-core/pointcloud"
	"github.com/viam-labs/loam-core/scanmapper"
)

// Point label values, mirroring the original's cloudLabel classification.
const (
	labelNone      = 0
	labelLessSharp = 1
	labelSharp     = 2
	labelFlat      = -1
)

const neighborWindow = 5 // points on each side used for curvature and de-clustering

// FeaturePartition is the four-class output of one sweep's feature
// extraction, per spec section 3.
type FeaturePartition struct {
	CornerSharp     pointcloud.Cloud
	CornerLessSharp pointcloud.Cloud
	SurfFlat        pointcloud.Cloud
	SurfLessFlat    pointcloud.Cloud
}

// Result is the complete output of Process.
type Result struct {
	Features    FeaturePartition
	FullResInt  pointcloud.Cloud // full-resolution cloud, internal frame, beam-concatenated order
	ScanIndices []pointcloud.IndexRange
}

// Registrar performs scan registration for one lidar device.
type Registrar struct {
	cfg    loamconfig.Config
	mapper scanmapper.Mapper
	logger logging.Logger
}

// New constructs a Registrar. cfg is validated; mapper must report the same
// ring count as cfg.NScanRings.
func New(cfg loamconfig.Config, mapper scanmapper.Mapper, logger logging.Logger) (*Registrar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid registration config")
	}
	if mapper.NumRings() != cfg.NScanRings {
		return nil, errors.Errorf("scan mapper reports %d rings, config expects %d", mapper.NumRings(), cfg.NScanRings)
	}
	return &Registrar{cfg: cfg, mapper: mapper, logger: logger}, nil
}

// Process partitions inputCloud (in the original x-forward,y-left,z-up
// sensor frame) into per-beam scans, assigns relative time, and extracts
// the four feature classes.
func (r *Registrar) Process(inputCloud []geometry.Vector) (Result, error) {
	if len(inputCloud) < 2 {
		return Result{}, errors.New("input cloud too small to determine sweep orientation")
	}

	startOri, endOri := sweepOrientationBounds(inputCloud[0], inputCloud[len(inputCloud)-1])

	beams := make([]pointcloud.Cloud, r.cfg.NScanRings)
	halfPassed := false

	for _, raw := range inputCloud {
		p := geometry.RemapToInternalFrame(raw)
		if !geometry.IsFinite(p) {
			continue
		}
		if geometry.SquaredNorm(p) < 1e-4 {
			continue
		}

		alpha := math.Atan(p.Y / math.Sqrt(p.X*p.X+p.Z*p.Z))
		beamID := r.mapper.RingForAngle(alpha)
		if beamID < 0 || beamID >= r.cfg.NScanRings {
			continue
		}

		ori := -math.Atan2(p.X, p.Z)
		ori, halfPassed = unwrapOrientation(ori, startOri, endOri, halfPassed)

		tau := r.cfg.ScanPeriod * (ori - startOri) / (endOri - startOri)
		beams[beamID] = append(beams[beamID], pointcloud.Point{
			Position:  p,
			Intensity: float64(beamID) + tau,
		})
	}

	fullRes := make(pointcloud.Cloud, 0)
	scanIndices := make([]pointcloud.IndexRange, r.cfg.NScanRings)
	for i, beam := range beams {
		first := len(fullRes)
		fullRes = append(fullRes, beam...)
		scanIndices[i] = pointcloud.IndexRange{First: first, Last: len(fullRes)}
	}

	partition := r.extractFeatures(beams)

	return Result{Features: partition, FullResInt: fullRes, ScanIndices: scanIndices}, nil
}

// sweepOrientationBounds computes startOri/endOri from the sweep's raw
// (pre-remap) first and last points, per spec section 4.1. It deliberately
// uses the pre-remap points: -atan2(y,x) in the original frame equals
// -atan2(x,z) in the internal frame, so this establishes the same reference
// used per-point below without requiring a second remap.
func sweepOrientationBounds(first, last geometry.Vector) (startOri, endOri float64) {
	startOri = -math.Atan2(first.Y, first.X)
	endOri = -math.Atan2(last.Y, last.X) + 2*math.Pi
	if endOri-startOri > 3*math.Pi {
		endOri -= 2 * math.Pi
	} else if endOri-startOri < math.Pi {
		endOri += 2 * math.Pi
	}
	return startOri, endOri
}

// unwrapOrientation applies the half-passed unwrap rule from spec section
// 4.1, returning the adjusted orientation and updated halfPassed flag.
func unwrapOrientation(ori, startOri, endOri float64, halfPassed bool) (float64, bool) {
	if !halfPassed {
		if ori < startOri-math.Pi/2 {
			ori += 2 * math.Pi
		} else if ori > startOri+math.Pi*3/2 {
			ori -= 2 * math.Pi
		}
		if ori-startOri > math.Pi {
			halfPassed = true
		}
		return ori, halfPassed
	}
	ori += 2 * math.Pi
	if ori < endOri-math.Pi*3/2 {
		ori += 2 * math.Pi
	} else if ori > endOri+math.Pi/2 {
		ori -= 2 * math.Pi
	}
	return ori, halfPassed
}

// extractFeatures ranks curvature per beam in parallel (spec section 5:
// "curvature computation and per-beam feature ranking are embarrassingly
// parallel across beams"), then concatenates results in beam order for
// determinism.
func (r *Registrar) extractFeatures(beams []pointcloud.Cloud) FeaturePartition {
	results := make([]beamFeatures, len(beams))
	sparse := make([]int, 0)
	var mu sync.Mutex

	var g errgroup.Group
	for i := range beams {
		i := i
		g.Go(func() error {
			bf, warn := r.extractBeamFeatures(beams[i])
			results[i] = bf
			if warn != nil {
				mu.Lock()
				sparse = append(sparse, i)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // extractBeamFeatures never fails; warnings are collected above instead

	if len(sparse) > 0 {
		var warnErr error
		for _, beam := range sparse {
			warnErr = multierr.Append(warnErr, errors.Errorf("beam %d has too few points for curvature ranking", beam))
		}
		r.logger.Warnw("some beams skipped feature ranking", "err", warnErr)
	}

	var out FeaturePartition
	for _, bf := range results {
		out.CornerSharp = append(out.CornerSharp, bf.sharp...)
		out.CornerLessSharp = append(out.CornerLessSharp, bf.lessSharp...)
		out.SurfFlat = append(out.SurfFlat, bf.flat...)
		out.SurfLessFlat = append(out.SurfLessFlat, bf.lessFlat...)
	}
	return out
}

type beamFeatures struct {
	sharp, lessSharp, flat, lessFlat pointcloud.Cloud
}

// extractBeamFeatures computes curvature, applies occlusion/parallel
// masking, and runs the six-sextant ranking pass for a single beam.
func (r *Registrar) extractBeamFeatures(beam pointcloud.Cloud) (beamFeatures, error) {
	n := len(beam)
	if n < 2*neighborWindow+1 {
		// Too few points for any curvature window; everything is less-flat.
		lessFlat := pointcloud.DownsampleVoxelGrid(beam, r.cfg.LessFlatFilterSize)
		return beamFeatures{lessFlat: lessFlat}, errors.New("beam below minimum point count")
	}

	curvature := make([]float64, n)
	masked := make([]bool, n)
	label := make([]int, n)

	for i := neighborWindow; i < n-neighborWindow; i++ {
		var sum geometry.Vector
		for k := -neighborWindow; k <= neighborWindow; k++ {
			if k == 0 {
				continue
			}
			d := beam[i].Position.Sub(beam[i+k].Position)
			sum.X += d.X
			sum.Y += d.Y
			sum.Z += d.Z
		}
		curvature[i] = geometry.SquaredNorm(sum)
	}

	markOcclusionAndParallel(beam, masked)

	for j := 0; j < 6; j++ {
		sp, ep := sextantBounds(j, neighborWindow, n-neighborWindow-1)
		if sp > ep {
			continue
		}
		idxs := make([]int, 0, ep-sp+1)
		for i := sp; i <= ep; i++ {
			idxs = append(idxs, i)
		}
		sort.Slice(idxs, func(a, b int) bool { return curvature[idxs[a]] < curvature[idxs[b]] })

		sharpCount, lessSharpCount := 0, 0
		for k := len(idxs) - 1; k >= 0; k-- {
			i := idxs[k]
			if masked[i] || label[i] != labelNone {
				continue
			}
			if curvature[i] <= r.cfg.EdgeThreshold {
				break // ascending-sorted list; remaining are even smaller
			}
			if lessSharpCount >= 20 {
				break
			}
			if sharpCount < 2 {
				label[i] = labelSharp
				sharpCount++
			} else {
				label[i] = labelLessSharp
			}
			lessSharpCount++
			declusterAround(i, masked, n)
		}

		flatCount := 0
		for _, i := range idxs {
			if masked[i] || label[i] != labelNone {
				continue
			}
			if curvature[i] >= r.cfg.SurfaceThreshold {
				break
			}
			if flatCount >= 4 {
				break
			}
			label[i] = labelFlat
			flatCount++
			declusterAround(i, masked, n)
		}
	}

	var sharp, lessSharp, flat, lessFlatCandidates pointcloud.Cloud
	for i := 0; i < n; i++ {
		switch label[i] {
		case labelSharp:
			sharp = append(sharp, beam[i])
			lessSharp = append(lessSharp, beam[i])
		case labelLessSharp:
			lessSharp = append(lessSharp, beam[i])
		case labelFlat:
			flat = append(flat, beam[i])
			lessFlatCandidates = append(lessFlatCandidates, beam[i])
		default:
			lessFlatCandidates = append(lessFlatCandidates, beam[i])
		}
	}

	lessFlat := pointcloud.DownsampleVoxelGrid(lessFlatCandidates, r.cfg.LessFlatFilterSize)
	return beamFeatures{sharp: sharp, lessSharp: lessSharp, flat: flat, lessFlat: lessFlat}, nil
}

// sextantBounds divides [lo, hi] into 6 equal index-count segments and
// returns the bounds of segment j, following LOAM's scanStartInd/scanEndInd
// sextant split.
func sextantBounds(j, lo, hi int) (int, int) {
	total := hi - lo + 1
	if total <= 0 {
		return lo, lo - 1
	}
	sp := lo + j*total/6
	ep := lo + (j+1)*total/6 - 1
	return sp, ep
}

// declusterAround marks indices within neighborWindow positions of i as
// used, consuming them as spatial de-clustering, per spec section 4.1.
func declusterAround(i int, masked []bool, n int) {
	for l := 1; l <= neighborWindow; l++ {
		if i+l < n {
			masked[i+l] = true
		}
		if i-l >= 0 {
			masked[i-l] = true
		}
	}
}

// markOcclusionAndParallel flags points unusable for feature extraction
// when a neighbor's range indicates occlusion, or when the local depth
// gradient indicates a near-parallel scan, per spec section 4.1.
func markOcclusionAndParallel(beam pointcloud.Cloud, masked []bool) {
	n := len(beam)
	for i := neighborWindow; i < n-neighborWindow-1; i++ {
		cur := beam[i].Position
		next := beam[i+1].Position

		diff := geometry.SquaredDistance(cur, next)
		if diff > 0.1 {
			depth1 := math.Sqrt(geometry.SquaredNorm(cur))
			depth2 := math.Sqrt(geometry.SquaredNorm(next))

			if depth1 > depth2 {
				scaled := geometry.Vector{
					X: next.X*depth1/depth2 - cur.X,
					Y: next.Y*depth1/depth2 - cur.Y,
					Z: next.Z*depth1/depth2 - cur.Z,
				}
				if math.Sqrt(geometry.SquaredNorm(scaled))/depth1 < 0.1 {
					for l := 0; l <= neighborWindow; l++ {
						if i-l >= 0 {
							masked[i-l] = true
						}
					}
				}
			} else {
				scaled := geometry.Vector{
					X: cur.X*depth2/depth1 - next.X,
					Y: cur.Y*depth2/depth1 - next.Y,
					Z: cur.Z*depth2/depth1 - next.Z,
				}
				if math.Sqrt(geometry.SquaredNorm(scaled))/depth2 < 0.1 {
					for l := 1; l <= neighborWindow+1; l++ {
						if i+l < n {
							masked[i+l] = true
						}
					}
				}
			}
		}

		if i > 0 {
			prev := beam[i-1].Position
			diff2 := geometry.SquaredDistance(cur, prev)
			dis := geometry.SquaredNorm(cur)
			if diff > 2e-4*dis && diff2 > 2e-4*dis {
				masked[i] = true
			}
		}
	}
}

