// Package kdtree implements a static, balanced KD-tree over 3D points, used
// by laser odometry to find nearest-neighbor correspondences in the
// previous sweep's feature clouds. Its recursive node layout follows the
// same "build once, query many, read-only after construction" idiom as
// go.viam.com/rdk/octree's basicOctree, adapted from an octant split to a
// median-of-axis binary split since the spec calls for KD-tree semantics
// (nearestK / nearestWithinRadius) rather than octree bucketing.
package kdtree

import (
	"container/heap"
	"sort"

	"github.com/pkg/errors"

	"github.com/viam-labs/loam-core/geometry"
)

// KDTree is a static nearest-neighbor index. It owns a snapshot of the point
// array it was built from; queries never mutate the tree and are safe to
// call concurrently once Build has returned.
type KDTree struct {
	points []geometry.Vector // owned copy, snapshot at construction
	root   *node
}

type node struct {
	idx         int // index into points
	axis        int // 0=x, 1=y, 2=z
	left, right *node
}

// Build constructs a balanced KD-tree over a copy of points. An empty input
// yields a valid, empty tree rather than an error.
func Build(points []geometry.Vector) *KDTree {
	owned := make([]geometry.Vector, len(points))
	copy(owned, points)

	t := &KDTree{points: owned}
	idx := make([]int, len(owned))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.buildNode(idx, 0)
	return t
}

// BuildFromCloud is a convenience wrapper for building over a cloud's
// positions, used by the odometry component to index lastCornerCloud and
// lastSurfaceCloud.
func BuildFromCloud(positions []geometry.Vector) *KDTree {
	return Build(positions)
}

func (t *KDTree) buildNode(idx []int, depth int) *node {
	if len(idx) == 0 {
		return nil
	}
	axis := depth % 3
	sort.Slice(idx, func(i, j int) bool {
		return axisValue(t.points[idx[i]], axis) < axisValue(t.points[idx[j]], axis)
	})
	mid := len(idx) / 2
	n := &node{idx: idx[mid], axis: axis}
	n.left = t.buildNode(idx[:mid], depth+1)
	n.right = t.buildNode(idx[mid+1:], depth+1)
	return n
}

func axisValue(v geometry.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Size returns the number of points the tree was built from.
func (t *KDTree) Size() int {
	return len(t.points)
}

// PointAt returns the underlying point at the given index, letting callers
// resolve indices returned by queries back to positions without holding
// their own copy of the source cloud.
func (t *KDTree) PointAt(idx int) geometry.Vector {
	return t.points[idx]
}

// neighbor is one candidate in the bounded max-heap used by NearestK.
type neighbor struct {
	idx    int
	sqDist float64
}

type maxHeap []neighbor

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].sqDist > h[j].sqDist } // max at root
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(neighbor)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NearestK returns up to k nearest neighbor indices and their squared
// distances to query, sorted by increasing distance.
func (t *KDTree) NearestK(query geometry.Vector, k int) ([]int, []float64, error) {
	if k <= 0 {
		return nil, nil, errors.Errorf("invalid k (%d) for NearestK", k)
	}
	if t.root == nil {
		return nil, nil, nil
	}
	h := &maxHeap{}
	heap.Init(h)
	t.searchK(t.root, query, k, h)

	sort.Sort(sort.Reverse(*h)) // Less is "greater than" so this sorts ascending
	idxs := make([]int, h.Len())
	sqDists := make([]float64, h.Len())
	for i, n := range *h {
		idxs[i] = n.idx
		sqDists[i] = n.sqDist
	}
	return idxs, sqDists, nil
}

func (t *KDTree) searchK(n *node, query geometry.Vector, k int, h *maxHeap) {
	if n == nil {
		return
	}
	p := t.points[n.idx]
	d := geometry.SquaredDistance(p, query)

	if h.Len() < k {
		heap.Push(h, neighbor{idx: n.idx, sqDist: d})
	} else if d < (*h)[0].sqDist {
		heap.Pop(h)
		heap.Push(h, neighbor{idx: n.idx, sqDist: d})
	}

	diff := axisValue(query, n.axis) - axisValue(p, n.axis)
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	t.searchK(near, query, k, h)

	worst := diff * diff
	if h.Len() < k || worst < (*h)[0].sqDist {
		t.searchK(far, query, k, h)
	}
}

// NearestWithinRadius returns all point indices within radius of query
// (squared distance <= radius^2), along with their squared distances,
// sorted by increasing distance.
func (t *KDTree) NearestWithinRadius(query geometry.Vector, radius float64) ([]int, []float64) {
	if t.root == nil || radius < 0 {
		return nil, nil
	}
	var matches []neighbor
	sq := radius * radius
	t.searchRadius(t.root, query, sq, &matches)
	sort.Slice(matches, func(i, j int) bool { return matches[i].sqDist < matches[j].sqDist })

	idxs := make([]int, len(matches))
	sqDists := make([]float64, len(matches))
	for i, m := range matches {
		idxs[i] = m.idx
		sqDists[i] = m.sqDist
	}
	return idxs, sqDists
}

func (t *KDTree) searchRadius(n *node, query geometry.Vector, sqRadius float64, out *[]neighbor) {
	if n == nil {
		return
	}
	p := t.points[n.idx]
	d := geometry.SquaredDistance(p, query)
	if d <= sqRadius {
		*out = append(*out, neighbor{idx: n.idx, sqDist: d})
	}

	diff := axisValue(query, n.axis) - axisValue(p, n.axis)
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	t.searchRadius(near, query, sqRadius, out)
	if diff*diff <= sqRadius {
		t.searchRadius(far, query, sqRadius, out)
	}
}
