package georef

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an engine operation failed.
type ErrorKind int

const (
	// InsufficientPoints means fewer references than the method needs.
	InsufficientPoints ErrorKind = iota + 1
	// DegenerateConfiguration means duplicate or collinear points, or a
	// fitting system that turned out to be singular.
	DegenerateConfiguration
	// OutsideCoverage means a triangulated model was queried outside the
	// convex hull of its reference points.
	OutsideCoverage
	// NotReady means no current fit exists.
	NotReady
	// InvalidScaling means a non-positive or non-finite scaling factor.
	InvalidScaling
	// InvalidInput covers malformed arguments such as mismatched
	// collections or out-of-range indices.
	InvalidInput
)

var kindNames = map[ErrorKind]string{
	InsufficientPoints:      "insufficient points",
	DegenerateConfiguration: "degenerate configuration",
	OutsideCoverage:         "outside coverage",
	NotReady:                "not ready",
	InvalidScaling:          "invalid scaling",
	InvalidInput:            "invalid input",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by every fallible engine operation.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "georef: " + e.Kind.String()
	}
	return "georef: " + e.Kind.String() + ": " + e.Msg
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInsufficientPoints      = &Error{Kind: InsufficientPoints}
	ErrDegenerateConfiguration = &Error{Kind: DegenerateConfiguration}
	ErrOutsideCoverage         = &Error{Kind: OutsideCoverage}
	ErrNotReady                = &Error{Kind: NotReady}
	ErrInvalidScaling          = &Error{Kind: InvalidScaling}
	ErrInvalidInput            = &Error{Kind: InvalidInput}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an engine error anywhere in err's chain, or 0
// if err did not come from the engine.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
