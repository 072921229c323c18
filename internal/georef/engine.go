// Package georef fits coordinate transforms between two planar reference
// systems from corresponding point pairs and applies them to query points.
//
// An Engine collects reference pairs, fits a forward (source to target) and
// an independent inverse (target to source) model with Evaluate, and then
// converts points with Convert. Three families of models are available:
// linear interpolation inside a Delaunay triangulation, thin-plate splines,
// and least-squares polynomials (affine being the first order case).
//
// An Engine is not safe for concurrent use while it is being modified.
// Convert only reads the fitted models and may be called from several
// goroutines once fitting is done.
package georef

import (
	"log/slog"
	"math"

	"georef/pkg/geometry"
)

// ReferencePair matches a point in the source system with its counterpart
// in the target system.
type ReferencePair struct {
	Source geometry.Point2D `json:"source"`
	Target geometry.Point2D `json:"target"`
}

// Engine holds reference pairs and the transform fitted from them.
type Engine struct {
	refs    []ReferencePair
	scaling float64

	method  Method
	order   int
	forward model
	inverse model
	stale   bool

	log *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger fits are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an empty engine with scaling 1 and no fitted transform.
func New(opts ...Option) *Engine {
	e := &Engine{scaling: 1, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset drops all references and the fitted transform and restores the
// default scaling.
func (e *Engine) Reset() {
	e.refs = nil
	e.scaling = 1
	e.method, e.order = Automatic, 0
	e.forward, e.inverse = nil, nil
	e.stale = false
}

// AddReference appends a reference pair. A transform fitted earlier
// becomes stale until Evaluate is called again.
func (e *Engine) AddReference(source, target geometry.Point2D) {
	e.refs = append(e.refs, ReferencePair{Source: source, Target: target})
	e.invalidate()
}

// setReferences replaces the store.
func (e *Engine) setReferences(pairs []ReferencePair) {
	e.refs = pairs
	e.invalidate()
}

func (e *Engine) invalidate() {
	if e.forward != nil {
		e.stale = true
	}
}

// Count returns the number of reference pairs.
func (e *Engine) Count() int {
	return len(e.refs)
}

// Reference returns pair i in insertion order.
func (e *Engine) Reference(i int) (ReferencePair, error) {
	if i < 0 || i >= len(e.refs) {
		return ReferencePair{}, newError(InvalidInput, "reference %d out of range [0, %d)", i, len(e.refs))
	}
	return e.refs[i], nil
}

// References returns a copy of all pairs in insertion order.
func (e *Engine) References() []ReferencePair {
	return append([]ReferencePair(nil), e.refs...)
}

func (e *Engine) points(inverse bool) []geometry.Point2D {
	pts := make([]geometry.Point2D, len(e.refs))
	for i, r := range e.refs {
		if inverse {
			pts[i] = r.Target
		} else {
			pts[i] = r.Source
		}
	}
	return pts
}

// SetScaling sets the factor all coordinates are multiplied by before
// fitting and evaluation. It never shows in returned coordinates.
func (e *Engine) SetScaling(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return newError(InvalidScaling, "scaling must be a positive finite number, got %g", factor)
	}
	if factor != e.scaling {
		e.scaling = factor
		e.invalidate()
	}
	return nil
}

// Scaling returns the current scaling factor.
func (e *Engine) Scaling() float64 {
	return e.scaling
}

// IsReady reports whether Convert can be used: a fit succeeded and no
// references or scaling changed since.
func (e *Engine) IsReady() bool {
	return e.forward != nil && !e.stale
}

// IsStale reports whether the store changed after the last successful fit.
func (e *Engine) IsStale() bool {
	return e.stale
}

// Method returns the fitted method and polynomial order. Automatic is
// reported as the method it resolved to.
func (e *Engine) Method() (Method, int) {
	return e.method, e.order
}

// Evaluate fits forward and inverse models with the given method. order is
// only used by Polynomial. On failure the previous fit is left in place.
func (e *Engine) Evaluate(method Method, order int) error {
	n := len(e.refs)

	switch method {
	case Automatic:
		m, o, err := chooseAutomatic(n)
		if err != nil {
			return err
		}
		method, order = m, o
	case Polynomial:
		if order < 1 {
			return newError(InvalidInput, "polynomial order must be at least 1, got %d", order)
		}
	case Triangulation, Spline:
		order = 0
	case Affine, Polynomial1, Polynomial2, Polynomial3:
		order = method.polynomialOrder(0)
	default:
		return newError(InvalidInput, "unknown method %s", method)
	}

	if need := MinPoints(method, order); n < need {
		return newError(InsufficientPoints, "%s needs at least %d references, have %d", method, need, n)
	}

	src := make([]geometry.Point2D, n)
	dst := make([]geometry.Point2D, n)
	for i, r := range e.refs {
		src[i] = r.Source.Scale(e.scaling)
		dst[i] = r.Target.Scale(e.scaling)
	}

	forward, err := fitModel(method, order, src, dst, "source")
	if err != nil {
		return err
	}
	inverse, err := fitModel(method, order, dst, src, "target")
	if err != nil {
		return err
	}

	e.method, e.order = method, order
	e.forward, e.inverse = forward, inverse
	e.stale = false

	e.log.Debug("georef: transform fitted",
		"method", forward.method().String(), "order", order, "references", n, "scaling", e.scaling)
	return nil
}

// Convert maps p from source to target coordinates, or from target to
// source when inverse is set.
func (e *Engine) Convert(p geometry.Point2D, inverse bool) (geometry.Point2D, error) {
	if err := e.checkReady(); err != nil {
		return geometry.Point2D{}, err
	}

	m := e.forward
	if inverse {
		m = e.inverse
	}
	out, err := m.convert(p.Scale(e.scaling))
	if err != nil {
		return geometry.Point2D{}, err
	}
	return out.Scale(1 / e.scaling), nil
}

func (e *Engine) checkReady() error {
	switch {
	case e.forward == nil:
		return newError(NotReady, "no transform has been fitted")
	case e.stale:
		return newError(NotReady, "references changed since the last fit")
	}
	return nil
}

// AffineTransform returns the fitted model as an affine transform. It is
// only available for Affine and Polynomial1, or Polynomial of order 1.
func (e *Engine) AffineTransform(inverse bool) (geometry.AffineTransform, error) {
	if err := e.checkReady(); err != nil {
		return geometry.AffineTransform{}, err
	}

	m := e.forward
	if inverse {
		m = e.inverse
	}
	if p, ok := m.(*polynomial); ok {
		if t, ok := p.affine(e.scaling); ok {
			return t, nil
		}
	}
	return geometry.AffineTransform{}, newError(InvalidInput, "%s transform of order %d is not affine", e.method, e.order)
}
