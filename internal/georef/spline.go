package georef

import (
	"math"

	"georef/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// spline is a pair of thin-plate spline surfaces, one per output axis.
type spline struct {
	frame frame
	nodes []geometry.Point2D
	// kernel weights per node followed by the affine terms a0, a1, a2
	wx, wy []float64
}

func (s *spline) method() Method { return Spline }

// thinPlate is the radial basis U(r) = r² ln r written in terms of r², so
// no square root is needed. U(0) = 0.
func thinPlate(r2 float64) float64 {
	if r2 == 0 {
		return 0
	}
	return 0.5 * r2 * math.Log(r2)
}

func dist2(a, b geometry.Point2D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// fitSpline solves
//
//	[K  P] [w]   [v]
//	[Pᵀ 0] [a] = [0]
//
// with K the kernel matrix of the nodes and P rows of [1 x y], for both
// axes at once.
func fitSpline(points, values []geometry.Point2D) (*spline, error) {
	n := len(points)
	if n < 3 {
		return nil, newError(InsufficientPoints, "spline needs at least 3 references, have %d", n)
	}

	f, err := newFrame(points)
	if err != nil {
		return nil, err
	}
	nodes := f.applyAll(points)

	size := n + 3
	L := mat.NewDense(size, size, nil)
	rhs := mat.NewDense(size, 2, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			u := thinPlate(dist2(nodes[i], nodes[j]))
			L.Set(i, j, u)
			L.Set(j, i, u)
		}
		L.Set(i, n, 1)
		L.Set(i, n+1, nodes[i].X)
		L.Set(i, n+2, nodes[i].Y)
		L.Set(n, i, 1)
		L.Set(n+1, i, nodes[i].X)
		L.Set(n+2, i, nodes[i].Y)

		rhs.Set(i, 0, values[i].X)
		rhs.Set(i, 1, values[i].Y)
	}

	var lu mat.LU
	lu.Factorize(L)
	if c := lu.Cond(); c > maxCondition || math.IsNaN(c) {
		return nil, newError(DegenerateConfiguration, "spline system is singular (condition %.3g)", c)
	}

	var sol mat.Dense
	if err := lu.SolveTo(&sol, false, rhs); err != nil {
		return nil, newError(DegenerateConfiguration, "spline solve: %v", err)
	}

	return &spline{
		frame: f,
		nodes: nodes,
		wx:    mat.Col(nil, 0, &sol),
		wy:    mat.Col(nil, 1, &sol),
	}, nil
}

func (s *spline) convert(q geometry.Point2D) (geometry.Point2D, error) {
	u := s.frame.apply(q)
	n := len(s.nodes)

	x := s.wx[n] + s.wx[n+1]*u.X + s.wx[n+2]*u.Y
	y := s.wy[n] + s.wy[n+1]*u.X + s.wy[n+2]*u.Y
	for i, node := range s.nodes {
		k := thinPlate(dist2(u, node))
		x += s.wx[i] * k
		y += s.wy[i] * k
	}
	return geometry.Point2D{X: x, Y: y}, nil
}
