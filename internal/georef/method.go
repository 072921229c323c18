package georef

import (
	"fmt"
	"math"
	"strings"
)

// Method selects the fitting algorithm.
type Method int

const (
	// Automatic picks the highest polynomial order the point count supports.
	Automatic Method = iota
	// Triangulation interpolates linearly inside a Delaunay triangulation.
	Triangulation
	// Spline interpolates with a thin-plate spline.
	Spline
	// Affine is a first order polynomial regression.
	Affine
	Polynomial1
	Polynomial2
	Polynomial3
	// Polynomial is a regression of the order passed to Evaluate.
	Polynomial
)

var methodNames = []string{
	Automatic:     "automatic",
	Triangulation: "triangulation",
	Spline:        "spline",
	Affine:        "affine",
	Polynomial1:   "polynomial1",
	Polynomial2:   "polynomial2",
	Polynomial3:   "polynomial3",
	Polynomial:    "polynomial",
}

func (m Method) String() string {
	if m >= 0 && int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a method name, as returned by Method.String, back to
// a Method. Matching ignores case and surrounding space.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range methodNames {
		if n == name {
			return Method(m), nil
		}
	}
	return Automatic, newError(InvalidInput, "unknown method %q", s)
}

// polynomialOrder returns the regression order for a polynomial method, or
// 0 for the interpolating methods.
func (m Method) polynomialOrder(order int) int {
	switch m {
	case Affine, Polynomial1:
		return 1
	case Polynomial2:
		return 2
	case Polynomial3:
		return 3
	case Polynomial:
		return order
	}
	return 0
}

// maxTermOrder bounds the orders whose term count is computed exactly; it
// keeps (order+1)*(order+2) within a 32-bit int.
const maxTermOrder = 1 << 15

// termCount is the number of monomials x^i*y^j with i+j <= order. Orders
// above maxTermOrder report math.MaxInt, more references than any caller
// can supply.
func termCount(order int) int {
	if order > maxTermOrder {
		return math.MaxInt
	}
	return (order + 1) * (order + 2) / 2
}

// MinPoints returns the number of references the method needs. order is only
// used by Polynomial. Automatic reports the minimum of its weakest choice.
func MinPoints(m Method, order int) int {
	switch m {
	case Automatic, Triangulation, Spline:
		return 3
	}
	if o := m.polynomialOrder(order); o > 0 {
		return termCount(o)
	}
	return 0
}

// chooseAutomatic maps a reference count to the method Automatic resolves to.
func chooseAutomatic(n int) (Method, int, error) {
	switch {
	case n >= MinPoints(Polynomial3, 0):
		return Polynomial3, 3, nil
	case n >= MinPoints(Polynomial2, 0):
		return Polynomial2, 2, nil
	case n >= MinPoints(Affine, 0):
		return Affine, 1, nil
	}
	return Automatic, 0, newError(InsufficientPoints,
		"automatic selection needs at least %d references, have %d", MinPoints(Affine, 0), n)
}
