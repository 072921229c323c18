package georef

import (
	"math"

	"georef/pkg/geometry"
)

// maxCondition is the largest condition number accepted for a fitting
// system before it is treated as singular.
const maxCondition = 1e12

// model is a fitted mapping in one direction. The set of implementations is
// closed: *triangulation, *spline and *polynomial. A nil model means no
// transform has been fitted.
type model interface {
	method() Method
	convert(p geometry.Point2D) (geometry.Point2D, error)
}

// frame maps points into a centred, unit-spread coordinate system private to
// one model, so the conditioning of a fit does not depend on where the
// reference points sit or how large their coordinates are.
type frame struct {
	origin geometry.Point2D
	spread float64
}

func newFrame(points []geometry.Point2D) (frame, error) {
	origin := geometry.Centroid(points)
	var sum float64
	for _, p := range points {
		d := p.Distance(origin)
		sum += d * d
	}
	spread := math.Sqrt(sum / float64(len(points)))
	if spread == 0 || math.IsNaN(spread) || math.IsInf(spread, 0) {
		return frame{}, newError(DegenerateConfiguration, "reference points have no spread")
	}
	return frame{origin: origin, spread: spread}, nil
}

func (f frame) apply(p geometry.Point2D) geometry.Point2D {
	return p.Sub(f.origin).Scale(1 / f.spread)
}

func (f frame) applyAll(points []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(points))
	for i, p := range points {
		out[i] = f.apply(p)
	}
	return out
}

// checkConfiguration rejects point sets no fitter can resolve: non-finite
// coordinates, coincident points and points that all lie on one line. label
// names the point set in messages. The returned index is reused by fitters
// that need nearest-neighbour queries.
func checkConfiguration(points []geometry.Point2D, label string) (*pointIndex, error) {
	for i, p := range points {
		if !p.IsFinite() {
			return nil, newError(InvalidInput, "%s point %d is not finite", label, i)
		}
	}

	idx := newPointIndex(points)
	if i, j, found := idx.duplicate(); found {
		return nil, newError(DegenerateConfiguration,
			"%s points %d and %d coincide at (%g, %g)", label, i, j, points[i].X, points[i].Y)
	}
	if geometry.Collinear(points) {
		return nil, newError(DegenerateConfiguration,
			"all %d %s points are collinear", len(points), label)
	}
	return idx, nil
}

// fitModel fits one direction of the transform from points to values.
func fitModel(m Method, order int, points, values []geometry.Point2D, label string) (model, error) {
	idx, err := checkConfiguration(points, label)
	if err != nil {
		return nil, err
	}

	switch m {
	case Triangulation:
		return fitTriangulation(points, values, idx)
	case Spline:
		return fitSpline(points, values)
	case Affine, Polynomial1, Polynomial2, Polynomial3, Polynomial:
		p, err := fitPolynomial(points, values, order)
		if err != nil {
			return nil, err
		}
		p.kind = m
		return p, nil
	}
	return nil, newError(InvalidInput, "method %s cannot be fitted", m)
}
