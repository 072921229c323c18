package geometry

import (
	"math"
	"sort"
)

// collinearTolerance is the largest perpendicular distance, relative to the
// spread of the point set, that still counts as lying on a common line.
const collinearTolerance = 1e-9

// Cross returns the z component of (a-o) x (b-o). It is positive when o, a, b
// turn counter-clockwise, negative for clockwise, and zero when collinear.
func Cross(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Collinear reports whether all points lie on one straight line. Fewer than
// three points, or points that all coincide, are collinear.
func Collinear(points []Point2D) bool {
	if len(points) < 3 {
		return true
	}

	origin := points[0]
	far, farDist := origin, 0.0
	for _, p := range points[1:] {
		if d := distSq(origin, p); d > farDist {
			far, farDist = p, d
		}
	}
	if farDist == 0 {
		return true
	}

	length := math.Sqrt(farDist)
	for _, p := range points {
		// perpendicular distance of p from the line origin-far
		if math.Abs(Cross(origin, far, p))/length > collinearTolerance*length {
			return false
		}
	}
	return true
}

// ConvexHull computes the convex hull of a set of points using the monotone
// chain algorithm. The hull is returned in counter-clockwise order without
// collinear boundary points. Degenerate input yields fewer than three points.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		return append([]Point2D(nil), points...)
	}

	// Make a copy to avoid modifying the input
	pts := make([]Point2D, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]Point2D, 0, 2*len(pts))
	// lower hull
	for _, p := range pts {
		for len(hull) >= 2 && Cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// upper hull
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && Cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull[:len(hull)-1]
}

// HullContains reports whether p lies inside or on the border of a convex
// polygon given in counter-clockwise order, such as one from ConvexHull.
func HullContains(hull []Point2D, p Point2D) bool {
	if len(hull) < 3 {
		return false
	}

	extent := BoundingBox(hull).Diagonal()
	eps := 1e-12 * extent * extent
	n := len(hull)
	for i := 0; i < n; i++ {
		if Cross(hull[i], hull[(i+1)%n], p) < -eps {
			return false
		}
	}
	return true
}

// Barycentric returns the barycentric weights of p relative to the triangle
// a, b, c. The weights sum to one and are all non-negative when p lies inside
// the triangle. ok is false for a degenerate triangle.
func Barycentric(p, a, b, c Point2D) (wa, wb, wc float64, ok bool) {
	area := Cross(a, b, c)
	if area == 0 {
		return 0, 0, 0, false
	}

	wa = Cross(p, b, c) / area
	wb = Cross(a, p, c) / area
	wc = 1 - wa - wb
	return wa, wb, wc, true
}

// distSq computes the squared distance between two points.
func distSq(a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// PolygonArea returns the signed area of a polygon, positive when its
// vertices run counter-clockwise.
func PolygonArea(poly []Point2D) float64 {
	var sum float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}
