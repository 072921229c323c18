package georef

import (
	"math"

	"georef/pkg/geometry"
)

// Residual returns the distance between the forward model applied to the
// source of pair i and the recorded target of pair i.
func (e *Engine) Residual(i int) (float64, error) {
	if err := e.checkReady(); err != nil {
		return 0, err
	}
	ref, err := e.Reference(i)
	if err != nil {
		return 0, err
	}

	got, err := e.Convert(ref.Source, false)
	if err != nil {
		return 0, err
	}
	return got.Distance(ref.Target), nil
}

// Residuals returns the residual of every pair in insertion order.
func (e *Engine) Residuals() ([]float64, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}

	res := make([]float64, len(e.refs))
	for i := range e.refs {
		r, err := e.Residual(i)
		if err != nil {
			return nil, err
		}
		res[i] = r
	}
	return res, nil
}

// RMSError returns the root mean square of all residuals.
func (e *Engine) RMSError() (float64, error) {
	res, err := e.Residuals()
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, r := range res {
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(res))), nil
}

// Extent returns the bounding rectangle of the source points, or of the
// target points when inverse is set.
func (e *Engine) Extent(inverse bool) geometry.Rect {
	return geometry.BoundingBox(e.points(inverse))
}

// Covers reports whether p lies inside the convex hull of the source points,
// or of the target points when inverse is set. Points outside are
// extrapolated by splines and polynomials and rejected by triangulation.
func (e *Engine) Covers(p geometry.Point2D, inverse bool) bool {
	return geometry.HullContains(geometry.ConvexHull(e.points(inverse)), p)
}
