package georef

import (
	"georef/pkg/geometry"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// vertex is a point tagged with its position in the input slice.
type vertex struct {
	geometry.Point2D
	id int
}

// Compare implements the kdtree.Comparable interface
func (v vertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(vertex)
	switch d {
	case 0:
		return v.X - q.X
	case 1:
		return v.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

func (v vertex) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two vertices
func (v vertex) Distance(c kdtree.Comparable) float64 {
	q := c.(vertex)
	dx := v.X - q.X
	dy := v.Y - q.Y
	return dx*dx + dy*dy
}

// vertices satisfies kdtree.Interface
type vertices []vertex

func (p vertices) Index(i int) kdtree.Comparable         { return p[i] }
func (p vertices) Len() int                              { return len(p) }
func (p vertices) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p vertices) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(vertexPlane{vertices: p, Dim: d}, kdtree.MedianOfRandoms(vertexPlane{vertices: p, Dim: d}, 100))
}

// vertexPlane implements sort.Interface and kdtree.SortSlicer for vertices
type vertexPlane struct {
	vertices
	kdtree.Dim
}

func (p vertexPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.vertices[i].X < p.vertices[j].X
	case 1:
		return p.vertices[i].Y < p.vertices[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p vertexPlane) Slice(start, end int) kdtree.SortSlicer {
	return vertexPlane{vertices: p.vertices[start:end], Dim: p.Dim}
}

func (p vertexPlane) Swap(i, j int) {
	p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
}

// pointIndex answers nearest-neighbour queries over a fixed point set.
type pointIndex struct {
	points []geometry.Point2D
	tree   *kdtree.Tree
}

func newPointIndex(points []geometry.Point2D) *pointIndex {
	if len(points) == 0 {
		return &pointIndex{}
	}
	vs := make(vertices, len(points))
	for i, p := range points {
		vs[i] = vertex{Point2D: p, id: i}
	}
	// kdtree.New reorders vs, ids keep the link to points
	return &pointIndex{points: points, tree: kdtree.New(vs, false)}
}

// nearest returns the index of the point closest to q, or -1 if the index
// is empty.
func (x *pointIndex) nearest(q geometry.Point2D) int {
	if x.tree == nil {
		return -1
	}
	c, _ := x.tree.Nearest(vertex{Point2D: q, id: -1})
	if c == nil {
		return -1
	}
	return c.(vertex).id
}

// duplicate returns the first pair of indices whose points coincide.
func (x *pointIndex) duplicate() (a, b int, found bool) {
	for i, p := range x.points {
		keeper := kdtree.NewDistKeeper(0)
		x.tree.NearestSet(keeper, vertex{Point2D: p, id: -1})
		for _, c := range keeper.Heap {
			if c.Comparable == nil {
				continue
			}
			if id := c.Comparable.(vertex).id; id != i {
				if id < i {
					return id, i, true
				}
				return i, id, true
			}
		}
	}
	return 0, 0, false
}
