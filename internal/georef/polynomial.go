package georef

import (
	"math"

	"georef/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// polynomial is a least-squares polynomial regression per output axis.
type polynomial struct {
	kind  Method
	order int
	frame frame
	// coefficients, one per monomial, see monomials for the term order
	cx, cy []float64
}

func (p *polynomial) method() Method { return p.kind }

// monomials fills row with x^i*y^j for i+j <= order, grouped by total
// degree: 1, x, y, x², xy, y², x³, ...
func monomials(u geometry.Point2D, order int, row []float64) {
	px := make([]float64, order+1)
	py := make([]float64, order+1)
	px[0], py[0] = 1, 1
	for k := 1; k <= order; k++ {
		px[k] = px[k-1] * u.X
		py[k] = py[k-1] * u.Y
	}

	i := 0
	for d := 0; d <= order; d++ {
		for j := 0; j <= d; j++ {
			row[i] = px[d-j] * py[j]
			i++
		}
	}
}

// fitPolynomial solves the regression of the given order. With exactly
// termCount(order) points the fit is exact; with more it minimises the sum
// of squared residuals.
func fitPolynomial(points, values []geometry.Point2D, order int) (*polynomial, error) {
	n := len(points)
	terms := termCount(order)
	if n < terms {
		return nil, newError(InsufficientPoints,
			"order %d polynomial needs at least %d references, have %d", order, terms, n)
	}

	f, err := newFrame(points)
	if err != nil {
		return nil, err
	}

	// Build (possibly overdetermined) system A * coef = B, one column per axis
	A := mat.NewDense(n, terms, nil)
	B := mat.NewDense(n, 2, nil)
	row := make([]float64, terms)
	for i := range points {
		monomials(f.apply(points[i]), order, row)
		A.SetRow(i, row)
		B.Set(i, 0, values[i].X)
		B.Set(i, 1, values[i].Y)
	}

	// Solve using QR decomposition
	var qr mat.QR
	qr.Factorize(A)
	if c := qr.Cond(); c > maxCondition || math.IsNaN(c) {
		return nil, newError(DegenerateConfiguration,
			"order %d design matrix is singular (condition %.3g)", order, c)
	}

	var coef mat.Dense
	if err := qr.SolveTo(&coef, false, B); err != nil {
		return nil, newError(DegenerateConfiguration, "order %d solve: %v", order, err)
	}

	return &polynomial{
		kind:  Polynomial,
		order: order,
		frame: f,
		cx:    mat.Col(nil, 0, &coef),
		cy:    mat.Col(nil, 1, &coef),
	}, nil
}

func (p *polynomial) convert(q geometry.Point2D) (geometry.Point2D, error) {
	row := make([]float64, len(p.cx))
	monomials(p.frame.apply(q), p.order, row)

	var out geometry.Point2D
	for i, m := range row {
		out.X += p.cx[i] * m
		out.Y += p.cy[i] * m
	}
	return out, nil
}

// affine returns a first order fit as an affine transform acting on
// coordinates that were multiplied by scaling before fitting, with the
// result divided by scaling again.
func (p *polynomial) affine(scaling float64) (geometry.AffineTransform, bool) {
	if p.order != 1 {
		return geometry.AffineTransform{}, false
	}

	// u = (scaling*x - origin) / spread and out = (c0 + c1*ux + c2*uy) / scaling
	s, o := p.frame.spread, p.frame.origin
	t := geometry.AffineTransform{
		A:  p.cx[1] / s,
		B:  p.cx[2] / s,
		TX: (p.cx[0] - (p.cx[1]*o.X+p.cx[2]*o.Y)/s) / scaling,
		C:  p.cy[1] / s,
		D:  p.cy[2] / s,
		TY: (p.cy[0] - (p.cy[1]*o.X+p.cy[2]*o.Y)/s) / scaling,
	}
	return t, true
}
