package georef

import (
	"math"
	"sort"

	"georef/pkg/geometry"
)

// superScale sets how far the enclosing super-triangle reaches beyond the
// point set, in multiples of the largest point radius.
const superScale = 1e3

// onEdgeTolerance absorbs round-off when deciding on which side of an edge
// a point lies, in normalised coordinates.
const onEdgeTolerance = 1e-12

// triangle holds vertex indices in counter-clockwise order. Edge e runs from
// v[e] to v[(e+1)%3] and n[e] is the triangle across it, or -1 on the hull.
type triangle struct {
	v [3]int
	n [3]int
}

// triangulation interpolates linearly inside a Delaunay triangulation whose
// vertices carry the target coordinates as two scalar attributes.
type triangulation struct {
	frame     frame
	points    []geometry.Point2D // normalised vertex positions
	values    []geometry.Point2D
	tris      []triangle
	vertexTri []int // one triangle incident to each vertex
	index     *pointIndex
}

func (t *triangulation) method() Method { return Triangulation }

func fitTriangulation(points, values []geometry.Point2D, idx *pointIndex) (*triangulation, error) {
	if len(points) < 3 {
		return nil, newError(InsufficientPoints,
			"triangulation needs at least 3 references, have %d", len(points))
	}

	f, err := newFrame(points)
	if err != nil {
		return nil, err
	}
	norm := f.applyAll(points)

	tris := delaunay(norm)
	if len(tris) == 0 {
		return nil, newError(DegenerateConfiguration, "reference points do not span any triangle")
	}
	tris = linkNeighbours(tris)
	tris = fillConcavities(norm, tris)
	if err := checkMesh(norm, tris); err != nil {
		return nil, err
	}

	vertexTri := make([]int, len(norm))
	for i := range vertexTri {
		vertexTri[i] = -1
	}
	for ti, tri := range tris {
		for _, v := range tri.v {
			if vertexTri[v] < 0 {
				vertexTri[v] = ti
			}
		}
	}

	// idx covers the unnormalised points, locate queries it with q
	return &triangulation{
		frame:     f,
		points:    norm,
		values:    append([]geometry.Point2D(nil), values...),
		tris:      tris,
		vertexTri: vertexTri,
		index:     idx,
	}, nil
}

// inCircle is positive when d lies strictly inside the circumcircle of the
// counter-clockwise triangle a, b, c.
func inCircle(a, b, c, d geometry.Point2D) float64 {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y
	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy
	return ad*(bdx*cdy-cdx*bdy) - bd*(adx*cdy-cdx*ady) + cd*(adx*bdy-bdx*ady)
}

type edge struct{ a, b int }

// delaunay runs Bowyer-Watson insertion inside a super-triangle and returns
// the triangles that do not touch it. Neighbour links are not set.
//
// The cavity of each inserted point is grown from the triangle containing it
// across edges whose far triangle has the point in its circumcircle, then
// enlarged until the point sees every cavity edge strictly from inside.
// Cocircular and collinear ties therefore never produce overlapping or
// inverted triangles.
func delaunay(points []geometry.Point2D) []triangle {
	n := len(points)
	var radius float64
	for _, p := range points {
		radius = math.Max(radius, math.Hypot(p.X, p.Y))
	}
	m := superScale * math.Max(radius, 1)

	// points are centred on the origin, so this triangle encloses them all
	pts := make([]geometry.Point2D, n, n+3)
	copy(pts, points)
	pts = append(pts,
		geometry.Point2D{X: -m * math.Sqrt(3), Y: -m},
		geometry.Point2D{X: m * math.Sqrt(3), Y: -m},
		geometry.Point2D{X: 0, Y: 2 * m},
	)

	tris := [][3]int{{n, n + 1, n + 2}}
	for i := 0; i < n; i++ {
		p := pts[i]

		owner := make(map[edge]int, 3*len(tris))
		for ti, t := range tris {
			for e := 0; e < 3; e++ {
				owner[edge{t[e], t[(e+1)%3]}] = ti
			}
		}

		start := enclosing(pts, tris, p)
		cavity := map[int]bool{start: true}
		queue := []int{start}
		for len(queue) > 0 {
			t := tris[queue[0]]
			queue = queue[1:]
			for e := 0; e < 3; e++ {
				nb, ok := owner[edge{t[(e+1)%3], t[e]}]
				if !ok || cavity[nb] {
					continue
				}
				u := tris[nb]
				if inCircle(pts[u[0]], pts[u[1]], pts[u[2]], p) > 0 {
					cavity[nb] = true
					queue = append(queue, nb)
				}
			}
		}

		boundary := starShape(pts, tris, owner, cavity, p)

		keep := make([][3]int, 0, len(tris)+2)
		for ti, t := range tris {
			if !cavity[ti] {
				keep = append(keep, t)
			}
		}
		for _, ed := range boundary {
			keep = append(keep, [3]int{ed.a, ed.b, i})
		}
		tris = keep
	}

	var out []triangle
	for _, t := range tris {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			continue
		}
		out = append(out, triangle{v: t, n: [3]int{-1, -1, -1}})
	}
	return out
}

// enclosing returns the triangle whose smallest barycentric weight for p is
// largest, which is the triangle containing p when there is one.
func enclosing(pts []geometry.Point2D, tris [][3]int, p geometry.Point2D) int {
	best, bestWeight := 0, math.Inf(-1)
	for ti, t := range tris {
		wa, wb, wc, ok := geometry.Barycentric(p, pts[t[0]], pts[t[1]], pts[t[2]])
		if !ok {
			continue
		}
		if w := math.Min(wa, math.Min(wb, wc)); w > bestWeight {
			best, bestWeight = ti, w
		}
	}
	return best
}

// starShape adds triangles to cavity until p lies strictly left of every
// boundary edge and returns those edges, oriented counter-clockwise around
// the cavity.
func starShape(pts []geometry.Point2D, tris [][3]int, owner map[edge]int, cavity map[int]bool, p geometry.Point2D) []edge {
	for {
		members := make([]int, 0, len(cavity))
		for ti := range cavity {
			members = append(members, ti)
		}
		sort.Ints(members)

		var boundary []edge
		grown := false
		for _, ti := range members {
			t := tris[ti]
			for e := 0; e < 3; e++ {
				a, b := t[e], t[(e+1)%3]
				nb, ok := owner[edge{b, a}]
				if ok && cavity[nb] {
					continue
				}
				if ok && geometry.Cross(pts[a], pts[b], p) <= onEdgeTolerance*dist2(pts[a], pts[b]) {
					cavity[nb] = true
					grown = true
					break
				}
				boundary = append(boundary, edge{a, b})
			}
			if grown {
				break
			}
		}
		if !grown {
			return boundary
		}
	}
}

// checkMesh verifies that tris are counter-clockwise and tile the convex hull
// of points exactly.
func checkMesh(points []geometry.Point2D, tris []triangle) error {
	var area float64
	for ti, t := range tris {
		a := geometry.Cross(points[t.v[0]], points[t.v[1]], points[t.v[2]])
		if !(a > 0) {
			return newError(DegenerateConfiguration, "triangle %d of the triangulation is not counter-clockwise", ti)
		}
		area += a / 2
	}

	hull := geometry.PolygonArea(geometry.ConvexHull(points))
	if math.Abs(area-hull) > 1e-9*hull {
		return newError(DegenerateConfiguration,
			"triangles cover area %g of a convex hull of area %g", area, hull)
	}
	return nil
}

// linkNeighbours sets the n fields from shared edges.
func linkNeighbours(tris []triangle) []triangle {
	owner := make(map[edge]int, 3*len(tris))
	for ti, t := range tris {
		for e := 0; e < 3; e++ {
			owner[edge{t.v[e], t.v[(e+1)%3]}] = ti
		}
	}
	for ti := range tris {
		for e := 0; e < 3; e++ {
			t := &tris[ti]
			if other, ok := owner[edge{t.v[(e+1)%3], t.v[e]}]; ok {
				t.n[e] = other
			}
		}
	}
	return tris
}

// fillConcavities adds triangles across reflex hull vertices until the
// triangulated region is convex. A finite super-triangle can leave a few
// slivers along the convex hull uncovered.
func fillConcavities(points []geometry.Point2D, tris []triangle) []triangle {
	for {
		// boundary edges keyed by start vertex; interior lies to the left
		type side struct{ tri, e int }
		next := make(map[int]side)
		for ti, t := range tris {
			for e := 0; e < 3; e++ {
				if t.n[e] < 0 {
					next[t.v[e]] = side{ti, e}
				}
			}
		}

		starts := make([]int, 0, len(next))
		for a := range next {
			starts = append(starts, a)
		}
		sort.Ints(starts)

		added := false
		for _, a := range starts {
			ab := next[a]
			b := tris[ab.tri].v[(ab.e+1)%3]
			bc, ok := next[b]
			if !ok {
				continue
			}
			c := tris[bc.tri].v[(bc.e+1)%3]
			if c == a || geometry.Cross(points[a], points[b], points[c]) >= -onEdgeTolerance {
				continue
			}
			if containsAny(points, a, c, b) {
				continue
			}

			ti := len(tris)
			tris = append(tris, triangle{v: [3]int{a, c, b}, n: [3]int{-1, bc.tri, ab.tri}})
			tris[ab.tri].n[ab.e] = ti
			tris[bc.tri].n[bc.e] = ti
			added = true
			break
		}
		if !added {
			return tris
		}
	}
}

// containsAny reports whether any point other than the corners lies inside
// the triangle a, b, c.
func containsAny(points []geometry.Point2D, a, b, c int) bool {
	for i, p := range points {
		if i == a || i == b || i == c {
			continue
		}
		wa, wb, wc, ok := geometry.Barycentric(p, points[a], points[b], points[c])
		if ok && wa > 0 && wb > 0 && wc > 0 {
			return true
		}
	}
	return false
}

// locate finds the triangle containing u by walking from a triangle at the
// nearest vertex towards u. It returns -1 when u is outside the hull.
func (t *triangulation) locate(q, u geometry.Point2D) int {
	cur := -1
	if v := t.index.nearest(q); v >= 0 {
		cur = t.vertexTri[v]
	}
	if cur < 0 {
		return t.scan(u)
	}

	for steps := 0; steps <= len(t.tris); steps++ {
		tri := t.tris[cur]
		moved := false
		for e := 0; e < 3; e++ {
			a, b := t.points[tri.v[e]], t.points[tri.v[(e+1)%3]]
			if geometry.Cross(a, b, u) < -onEdgeTolerance {
				if tri.n[e] < 0 {
					return t.scan(u)
				}
				cur = tri.n[e]
				moved = true
				break
			}
		}
		if !moved {
			return cur
		}
	}
	return t.scan(u)
}

// scan tests every triangle. Used when the walk cannot settle.
func (t *triangulation) scan(u geometry.Point2D) int {
	for ti, tri := range t.tris {
		wa, wb, wc, ok := geometry.Barycentric(u, t.points[tri.v[0]], t.points[tri.v[1]], t.points[tri.v[2]])
		if ok && wa >= -onEdgeTolerance && wb >= -onEdgeTolerance && wc >= -onEdgeTolerance {
			return ti
		}
	}
	return -1
}

func (t *triangulation) convert(q geometry.Point2D) (geometry.Point2D, error) {
	u := t.frame.apply(q)
	ti := t.locate(q, u)
	if ti < 0 {
		return geometry.Point2D{}, newError(OutsideCoverage,
			"(%g, %g) is outside the triangulated reference points", q.X, q.Y)
	}

	tri := t.tris[ti]
	wa, wb, wc, _ := geometry.Barycentric(u, t.points[tri.v[0]], t.points[tri.v[1]], t.points[tri.v[2]])
	a, b, c := t.values[tri.v[0]], t.values[tri.v[1]], t.values[tri.v[2]]
	return geometry.Point2D{
		X: wa*a.X + wb*b.X + wc*c.X,
		Y: wa*a.Y + wb*b.Y + wc*c.Y,
	}, nil
}
