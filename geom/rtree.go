package geom

import (
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// RTree wraps tidwall/rtree for spatial indexing of line geometries keyed by
// an arbitrary id type. Coordinates are in the caller's working plane.
type RTree[T any] struct {
	tree *rtree.RTreeG[T]
}

// NewRTree creates a new RTree
func NewRTree[T any]() *RTree[T] {
	return &RTree[T]{
		tree: &rtree.RTreeG[T]{},
	}
}

// InsertLine adds an item to the RTree using the bounding box of the geometry.
func (r *RTree[T]) InsertLine(id T, line orb.LineString) {
	if len(line) == 0 {
		return
	}
	b := line.Bound()
	r.tree.Insert(
		[2]float64{b.Min[0], b.Min[1]},
		[2]float64{b.Max[0], b.Max[1]},
		id,
	)
}

// Search returns all items whose bounding boxes intersect the query bbox.
func (r *RTree[T]) Search(minX, minY, maxX, maxY float64) []T {
	result := make([]T, 0)
	r.tree.Search(
		[2]float64{minX, minY},
		[2]float64{maxX, maxY},
		func(min, max [2]float64, item T) bool {
			result = append(result, item)
			return true // continue searching
		},
	)
	return result
}

// SearchNearPoint returns all items within radius (working-plane units) of a point.
func (r *RTree[T]) SearchNearPoint(p orb.Point, radius float64) []T {
	return r.Search(p[0]-radius, p[1]-radius, p[0]+radius, p[1]+radius)
}

// Size returns the number of items in the RTree
func (r *RTree[T]) Size() int {
	return r.tree.Len()
}
