// Package odometry implements frame-to-frame laser odometry: given the
// sharp/less-sharp corner and flat/less-flat surface feature clouds produced
// by scan registration, it estimates the six-DoF motion between consecutive
// sweeps by a Levenberg-Marquardt point-to-line/point-to-plane nonlinear
// least squares solve against the previous sweep's feature clouds, indexed
// with a KD-tree. Its structure mirrors the original's LaserOdometry class,
// adapted to an explicit State/Process split instead of a ROS node carrying
// the same fields as private members (go.viam.com/rdk/slam's orchestration
// style of a struct holding mutable pipeline state behind an exported
// Process-like entry point).
package odometry

import (
	"github.com/pkg/errors"

	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/imu"
	"github.com/viam-labs/loam-core/kdtree"
	"github.com/viam-labs/loam-core/loamconfig"
	"github.com/viam-labs/loam-core/logging"
	"github.com/viam-labs/loam-core/pointcloud"
)

// minCorrespondences is the floor below which a sweep's geometry is treated
// as too degenerate to optimize against, per spec section 7: the sweep's
// delta is reported as identity and transformSum is left unchanged.
const minCorrespondences = 10

// Sweep bundles the inputs laser odometry needs for one sweep, matching the
// four feature clouds and full-resolution cloud scan registration emits.
type Sweep struct {
	CornerSharp     pointcloud.Cloud
	CornerLessSharp pointcloud.Cloud
	SurfFlat        pointcloud.Cloud
	SurfLessFlat    pointcloud.Cloud
	FullRes         pointcloud.Cloud

	IMU       imu.Snapshot
	SweepTime float64
}

// Result is what Process reports for one sweep.
type Result struct {
	// Transform is this sweep's estimated delta pose (previous sweep's frame
	// relative to this one), in the internal coordinate frame.
	Transform geometry.Transform
	// TransformSum is the accumulated pose from the first processed sweep.
	TransformSum geometry.Transform
	// Degenerate is true when the sweep had too few correspondences to
	// optimize; Transform is then the identity and TransformSum is left at
	// its prior value.
	Degenerate bool
}

// state holds the mutable pipeline state carried between sweeps.
type state struct {
	inited bool

	lastCorner     pointcloud.Cloud
	lastSurface    pointcloud.Cloud
	lastCornerTree *kdtree.KDTree
	lastSurfTree   *kdtree.KDTree

	transform    geometry.Transform
	transformSum geometry.Transform

	frameCount int
}

// Odometry runs the per-sweep LM solve and carries state across calls to
// Process. It is not safe for concurrent use by multiple goroutines; callers
// that need to process sweeps from multiple streams should construct
// separate Odometry values.
type Odometry struct {
	cfg    loamconfig.Config
	logger logging.Logger
	st     state

	// degenerateCount is the running total of sweeps reported as Degenerate,
	// a countable metric for the too-few-correspondences drop path per spec
	// section 7 ("mismatched timestamps... drop sweep, increment a counter,
	// continue"), the odometry-side analogue of orchestration's droppedCount.
	// Not cleared by Reset, matching a monotonic metric rather than per-run
	// state.
	degenerateCount uint64
}

// New constructs an Odometry with the given configuration.
func New(cfg loamconfig.Config, logger logging.Logger) (*Odometry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid odometry configuration")
	}
	return &Odometry{cfg: cfg, logger: logger}, nil
}

// Reset clears all carried state, equivalent to encountering a fresh first
// sweep on the next call to Process. Used on halt/reconnect per spec
// section 5's cancellation semantics.
func (o *Odometry) Reset() {
	o.st = state{}
}

// LatestResult returns the most recently computed transform and
// transformSum, without advancing any state.
func (o *Odometry) LatestResult() Result {
	return Result{Transform: o.st.transform, TransformSum: o.st.transformSum}
}

// DegenerateCount returns the running total of sweeps Process has reported
// as Degenerate since construction.
func (o *Odometry) DegenerateCount() uint64 {
	return o.degenerateCount
}

// LastFeatureClouds returns the corner and surface clouds Process will match
// the next sweep against.
func (o *Odometry) LastFeatureClouds() (corner, surface pointcloud.Cloud) {
	return o.st.lastCorner, o.st.lastSurface
}

// Process estimates the motion for one sweep and folds it into the
// accumulated pose. The first call only initializes the "last" feature
// clouds and their KD-trees and reports the identity transform, matching
// spec section 4.3's initialization step.
func (o *Odometry) Process(sweep Sweep) (Result, error) {
	if !o.st.inited {
		o.st.lastCorner = sweep.CornerLessSharp
		o.st.lastSurface = sweep.SurfLessFlat
		o.st.lastCornerTree = kdtree.BuildFromCloud(sweep.CornerLessSharp.Positions())
		o.st.lastSurfTree = kdtree.BuildFromCloud(sweep.SurfLessFlat.Positions())
		o.st.inited = true
		o.st.frameCount++
		return Result{}, nil
	}

	transform := o.st.transform // warm-start from the previous sweep's converged delta

	var cornerCorrs []cornerCorrespondence
	var surfCorrs []surfaceCorrespondence
	degenerate := false

	for iter := 0; iter < o.cfg.MaxIterations; iter++ {
		if iter%o.cfg.CorrespondenceStale == 0 {
			cornerCorrs = findCornerCorrespondences(
				sweep.CornerSharp, o.st.lastCorner, o.st.lastCornerTree,
				transform, o.cfg.ScanPeriod, o.cfg.CornerSqDistThreshold, sweep.IMU)
			surfCorrs = findSurfaceCorrespondences(
				sweep.SurfFlat, o.st.lastSurface, o.st.lastSurfTree,
				transform, o.cfg.ScanPeriod, o.cfg.SurfSqDistThreshold, sweep.IMU)
		}

		total := len(cornerCorrs) + len(surfCorrs)
		if total < minCorrespondences {
			o.logger.Warnw("too few correspondences for this sweep, skipping optimization",
				"frame", o.st.frameCount, "count", total)
			degenerate = true
			transform = geometry.Transform{}
			break
		}

		rows := o.assembleRows(sweep, cornerCorrs, surfCorrs, transform, iter)
		if len(rows) < minCorrespondences {
			o.logger.Warnw("too few surviving weighted correspondences for this sweep, skipping optimization",
				"frame", o.st.frameCount, "count", len(rows))
			degenerate = true
			transform = geometry.Transform{}
			break
		}

		delta := lmStep(rows, o.cfg.DegeneracyEigenThreshold)
		transform = transformFromComponents(addDelta(twistComponents(transform), delta))

		if converged(delta, o.cfg.DeltaRotConvergenceDeg, o.cfg.DeltaTransConvergence) {
			break
		}
	}

	result := Result{Degenerate: degenerate}
	if degenerate {
		o.degenerateCount++
		result.Transform = geometry.Transform{}
		result.TransformSum = o.st.transformSum
		o.st.transform = geometry.Transform{}
	} else {
		if sweep.IMU.Present {
			imuPlugged := geometry.PluginIMURotation(sweep.IMU.StartOrientation, transform, sweep.IMU.EndOrientation)
			transform.RX, transform.RY, transform.RZ = imuPlugged.RX, imuPlugged.RY, imuPlugged.RZ
		}
		o.st.transform = transform
		o.st.transformSum = o.st.transformSum.Compose(transform)
		result.Transform = transform
		result.TransformSum = o.st.transformSum
	}

	if len(sweep.CornerLessSharp) > 0 && len(sweep.SurfLessFlat) > 0 {
		newCorner := undistortCloudToEnd(sweep.CornerLessSharp, transform, o.cfg.ScanPeriod, sweep.IMU)
		newSurface := undistortCloudToEnd(sweep.SurfLessFlat, transform, o.cfg.ScanPeriod, sweep.IMU)
		o.st.lastCorner = newCorner
		o.st.lastSurface = newSurface
		o.st.lastCornerTree = kdtree.BuildFromCloud(newCorner.Positions())
		o.st.lastSurfTree = kdtree.BuildFromCloud(newSurface.Positions())
	}
	o.st.frameCount++

	return result, nil
}

// converged reports whether delta (in twist-component order) is small
// enough to stop iterating, per spec section 4.3's termination condition.
func converged(delta [6]float64, rotDegThreshold, transThreshold float64) bool {
	rotThresholdRad := geometry.DegToRad(rotDegThreshold)
	maxRot := maxAbs(delta[0], delta[1], delta[2])
	maxTrans := maxAbs(delta[3], delta[4], delta[5])
	return maxRot < rotThresholdRad && maxTrans < transThreshold
}

func maxAbs(vs ...float64) float64 {
	m := 0.0
	for _, v := range vs {
		if a := absf(v); a > m {
			m = a
		}
	}
	return m
}

// assembleRows builds the weighted residual rows for the current estimate of
// transform from the cached correspondences, dropping rows whose computed
// weight falls at or below the spec's rejection threshold.
func (o *Odometry) assembleRows(
	sweep Sweep,
	cornerCorrs []cornerCorrespondence,
	surfCorrs []surfaceCorrespondence,
	transform geometry.Transform,
	iter int,
) []residualRow {
	rows := make([]residualRow, 0, len(cornerCorrs)+len(surfCorrs))

	for _, c := range cornerCorrs {
		p := sweep.CornerSharp[c.srcIdx]
		a, b := o.st.lastCorner[c.j].Position, o.st.lastCorner[c.l].Position
		f := cornerResidual(p, a, b, o.cfg.ScanPeriod, sweep.IMU)
		d := f(transform)
		jac := jacobianRow(f, transform)
		if row, ok := weightRow(jac, d, iter, o.cfg.UniformWeightIterations); ok {
			rows = append(rows, row)
		}
	}

	for _, c := range surfCorrs {
		p := sweep.SurfFlat[c.srcIdx]
		a := o.st.lastSurface[c.j].Position
		b := o.st.lastSurface[c.l].Position
		cc := o.st.lastSurface[c.m].Position
		f := surfaceResidual(p, a, b, cc, o.cfg.ScanPeriod, sweep.IMU)
		d := f(transform)
		jac := jacobianRow(f, transform)
		if row, ok := weightRow(jac, d, iter, o.cfg.UniformWeightIterations); ok {
			rows = append(rows, row)
		}
	}

	return rows
}
