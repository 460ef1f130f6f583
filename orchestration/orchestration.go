// Package orchestration synchronizes the independently-produced outputs of
// scan registration (four feature clouds plus the full-resolution cloud)
// with an optional, independently-arriving IMU snapshot, and drives laser
// odometry once a sweep's inputs have all arrived and agree on timestamp.
// It mirrors the original system's message_filters-style approximate-time
// sync of six topics, re-expressed as six explicit Submit calls on a single
// mutex-guarded struct rather than a subscriber callback graph -- matching
// the same "single mutex around small buffered state" idiom the teacher
// uses for its own server/client synchronization points.
package orchestration

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/viam-labs/loam-core/imu"
	"github.com/viam-labs/loam-core/loamconfig"
	"github.com/viam-labs/loam-core/logging"
	"github.com/viam-labs/loam-core/odometry"
	"github.com/viam-labs/loam-core/pointcloud"
)

// slot holds one buffered input, keyed by the sweep timestamp it was
// submitted under.
type slot struct {
	present bool
	ts      float64
	cloud   pointcloud.Cloud
}

type imuSlot struct {
	present bool
	ts      float64
	snap    imu.Snapshot
}

// Orchestrator buffers one in-flight sweep's worth of inputs and hands the
// assembled set to odometry as soon as it is complete. It is not safe for
// concurrent calls from multiple goroutines beyond the synchronization its
// own mutex provides across the Submit* methods.
type Orchestrator struct {
	cfg        loamconfig.Config
	logger     logging.Logger
	odom       *odometry.Odometry
	requireIMU bool

	mu sync.Mutex

	haveTarget bool
	targetTS   float64

	cornerSharp, cornerLessSharp slot
	surfFlat, surfLessFlat       slot
	fullRes                      slot
	imuInput                     imuSlot

	hasEmitted  bool
	lastEmitted float64

	// droppedCount counts every input dropped by acceptLocked: out-of-order
	// arrivals, duplicates of an already-emitted timestamp, and inputs that
	// never align with the in-flight sweep, plus one per stale partial sweep
	// evicted by a far-future timestamp. Exposed via DroppedCount for
	// callers that need a countable drop metric per spec section 7.
	droppedCount uint64
}

// New constructs an Orchestrator around an Odometry instance. requireIMU
// gates whether a sweep can complete without an IMU submission; the default
// (IMU-off) deployment passes false.
func New(cfg loamconfig.Config, odom *odometry.Odometry, requireIMU bool, logger logging.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid orchestration configuration")
	}
	if odom == nil {
		return nil, errors.New("orchestration requires a non-nil odometry.Odometry")
	}
	return &Orchestrator{cfg: cfg, logger: logger, odom: odom, requireIMU: requireIMU}, nil
}

// Reset discards any in-flight partial sweep and the record of the last
// emitted timestamp, used on halt/reconnect per spec section 5.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resetPendingLocked()
	o.hasEmitted = false
	o.lastEmitted = 0
}

func (o *Orchestrator) resetPendingLocked() {
	o.haveTarget = false
	o.targetTS = 0
	o.cornerSharp = slot{}
	o.cornerLessSharp = slot{}
	o.surfFlat = slot{}
	o.surfLessFlat = slot{}
	o.fullRes = slot{}
	o.imuInput = imuSlot{}
}

// inputKind names one of the six buffered inputs, used only for log
// messages.
type inputKind string

const (
	kindCornerSharp     inputKind = "cornerSharp"
	kindCornerLessSharp inputKind = "cornerLessSharp"
	kindSurfFlat        inputKind = "surfFlat"
	kindSurfLessFlat    inputKind = "surfLessFlat"
	kindFullRes         inputKind = "fullRes"
	kindIMU             inputKind = "imu"
)

// SubmitCornerSharp buffers the sharp corner feature cloud for timestamp ts.
func (o *Orchestrator) SubmitCornerSharp(ts float64, c pointcloud.Cloud) (odometry.Result, bool, error) {
	return o.submitCloud(kindCornerSharp, ts, c, func(s *slot) { o.cornerSharp = *s })
}

// SubmitCornerLessSharp buffers the less-sharp corner feature cloud.
func (o *Orchestrator) SubmitCornerLessSharp(ts float64, c pointcloud.Cloud) (odometry.Result, bool, error) {
	return o.submitCloud(kindCornerLessSharp, ts, c, func(s *slot) { o.cornerLessSharp = *s })
}

// SubmitSurfFlat buffers the flat surface feature cloud.
func (o *Orchestrator) SubmitSurfFlat(ts float64, c pointcloud.Cloud) (odometry.Result, bool, error) {
	return o.submitCloud(kindSurfFlat, ts, c, func(s *slot) { o.surfFlat = *s })
}

// SubmitSurfLessFlat buffers the less-flat surface feature cloud.
func (o *Orchestrator) SubmitSurfLessFlat(ts float64, c pointcloud.Cloud) (odometry.Result, bool, error) {
	return o.submitCloud(kindSurfLessFlat, ts, c, func(s *slot) { o.surfLessFlat = *s })
}

// SubmitFullRes buffers the full-resolution cloud.
func (o *Orchestrator) SubmitFullRes(ts float64, c pointcloud.Cloud) (odometry.Result, bool, error) {
	return o.submitCloud(kindFullRes, ts, c, func(s *slot) { o.fullRes = *s })
}

// SubmitIMU buffers an IMU snapshot for timestamp ts. Deployments that never
// call this (the IMU-off default) complete sweeps from the five feature/full
// -res inputs alone, as long as the Orchestrator was constructed with
// requireIMU false.
func (o *Orchestrator) SubmitIMU(ts float64, snap imu.Snapshot) (odometry.Result, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.acceptLocked(kindIMU, ts) {
		return odometry.Result{}, false, nil
	}
	o.imuInput = imuSlot{present: true, ts: ts, snap: snap}
	return o.tryEmitLocked()
}

func (o *Orchestrator) submitCloud(kind inputKind, ts float64, c pointcloud.Cloud, store func(*slot)) (odometry.Result, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.acceptLocked(kind, ts) {
		return odometry.Result{}, false, nil
	}
	store(&slot{present: true, ts: ts, cloud: c})
	return o.tryEmitLocked()
}

// acceptLocked implements the timestamp discipline shared by all six
// inputs: strict ordering against the last emitted sweep (including
// duplicates of that exact timestamp), epsilon-based membership in the
// in-flight sweep, and staleness-driven eviction of a partial set that a
// new, far-future timestamp has outrun. It returns false when the
// submission should be dropped (already logged and counted).
func (o *Orchestrator) acceptLocked(kind inputKind, ts float64) bool {
	if o.hasEmitted && ts <= o.lastEmitted+o.cfg.TimestampEpsilon {
		o.logger.Warnw("dropping out-of-order or duplicate input at or before last emitted sweep",
			"input", kind, "ts", ts, "lastEmitted", o.lastEmitted)
		o.droppedCount++
		return false
	}

	if !o.haveTarget {
		o.haveTarget = true
		o.targetTS = ts
		return true
	}

	if math.Abs(ts-o.targetTS) <= o.cfg.TimestampEpsilon {
		return true
	}

	if ts > o.targetTS && ts-o.targetTS > o.cfg.ScanPeriod {
		o.logger.Warnw("discarding stale partial sweep", "target", o.targetTS, "newInput", kind, "newTs", ts)
		o.droppedCount++
		o.resetPendingLocked()
		o.haveTarget = true
		o.targetTS = ts
		return true
	}

	o.logger.Warnw("dropping input that does not align with in-flight sweep",
		"input", kind, "ts", ts, "target", o.targetTS)
	o.droppedCount++
	return false
}

// DroppedCount returns the running total of inputs dropped by acceptLocked
// since construction (Reset does not clear it, matching a monotonic metric
// counter rather than per-sweep state).
func (o *Orchestrator) DroppedCount() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.droppedCount
}

// tryEmitLocked checks whether every required slot has arrived and, if so,
// assembles the sweep, runs odometry, and clears the pending state.
func (o *Orchestrator) tryEmitLocked() (odometry.Result, bool, error) {
	if !o.cornerSharp.present || !o.cornerLessSharp.present ||
		!o.surfFlat.present || !o.surfLessFlat.present || !o.fullRes.present {
		return odometry.Result{}, false, nil
	}
	if o.requireIMU && !o.imuInput.present {
		return odometry.Result{}, false, nil
	}

	sweep := odometry.Sweep{
		CornerSharp:     o.cornerSharp.cloud,
		CornerLessSharp: o.cornerLessSharp.cloud,
		SurfFlat:        o.surfFlat.cloud,
		SurfLessFlat:    o.surfLessFlat.cloud,
		FullRes:         o.fullRes.cloud,
		SweepTime:       o.targetTS,
	}
	if o.imuInput.present {
		sweep.IMU = o.imuInput.snap
	}

	result, err := o.odom.Process(sweep)
	if err != nil {
		return odometry.Result{}, false, errors.Wrap(err, "odometry processing failed")
	}

	o.hasEmitted = true
	o.lastEmitted = o.targetTS
	o.resetPendingLocked()

	return result, true, nil
}
