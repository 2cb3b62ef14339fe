package fit

import (
	"errors"
	"fmt"
)

// ErrDegenerate is matched by every *DegenerateInputError via errors.Is.
var ErrDegenerate = errors.New("degenerate input")

// DegenerateInputError reports a fit that was given too few points, or
// points in a configuration that cannot define the primitive (coincident,
// collinear, coplanar).
type DegenerateInputError struct {
	Op       string // e.g. "sphere"
	Required int    // minimum number of points the fit needs
	Got      int    // number of points supplied
	Reason   string // empty when the count alone was insufficient
}

func (e *DegenerateInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("fit %s: %s (%d points, need at least %d)", e.Op, e.Reason, e.Got, e.Required)
	}
	return fmt.Sprintf("fit %s: need at least %d points, got %d", e.Op, e.Required, e.Got)
}

func (e *DegenerateInputError) Unwrap() error { return ErrDegenerate }

func tooFew(op string, required, got int) error {
	return &DegenerateInputError{Op: op, Required: required, Got: got}
}

func degenerate(op string, required, got int, reason string) error {
	return &DegenerateInputError{Op: op, Required: required, Got: got, Reason: reason}
}
