package kdtree

import (
	"testing"

	"go.viam.com/test"

	"github.com/viam-labs/loam-core/geometry"
)

func samplePoints() []geometry.Vector {
	return []geometry.Vector{
		geometry.NewVector(0, 0, 0),
		geometry.NewVector(1, 0, 0),
		geometry.NewVector(0, 1, 0),
		geometry.NewVector(5, 5, 5),
		geometry.NewVector(-1, -1, -1),
	}
}

func TestNearestKReturnsClosestFirst(t *testing.T) {
	tree := Build(samplePoints())
	idxs, sqDists, err := tree.NearestK(geometry.NewVector(0.1, 0.1, 0), 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(idxs), test.ShouldEqual, 2)
	test.That(t, idxs[0], test.ShouldEqual, 0)
	test.That(t, sqDists[0], test.ShouldBeLessThanOrEqualTo, sqDists[1])
}

func TestNearestKInvalidK(t *testing.T) {
	tree := Build(samplePoints())
	_, _, err := tree.NearestK(geometry.NewVector(0, 0, 0), 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNearestKOnEmptyTree(t *testing.T) {
	tree := Build(nil)
	idxs, sqDists, err := tree.NearestK(geometry.NewVector(0, 0, 0), 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idxs, test.ShouldBeEmpty)
	test.That(t, sqDists, test.ShouldBeEmpty)
}

func TestNearestWithinRadius(t *testing.T) {
	tree := Build(samplePoints())
	idxs, _ := tree.NearestWithinRadius(geometry.NewVector(0, 0, 0), 1.5)
	// origin, (1,0,0), (0,1,0) lie within radius 1.5 of the origin; (-1,-1,-1)
	// (squared distance 3) and (5,5,5) do not.
	test.That(t, len(idxs), test.ShouldEqual, 3)
}

func TestNearestWithinRadiusNegative(t *testing.T) {
	tree := Build(samplePoints())
	idxs, sqDists := tree.NearestWithinRadius(geometry.NewVector(0, 0, 0), -1)
	test.That(t, idxs, test.ShouldBeEmpty)
	test.That(t, sqDists, test.ShouldBeEmpty)
}

func TestPointAtMatchesInput(t *testing.T) {
	points := samplePoints()
	tree := Build(points)
	test.That(t, tree.Size(), test.ShouldEqual, len(points))
	for i := range points {
		found := false
		for j := 0; j < tree.Size(); j++ {
			if tree.PointAt(j) == points[i] {
				found = true
				break
			}
		}
		test.That(t, found, test.ShouldBeTrue)
	}
}
