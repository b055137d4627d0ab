package hdr

import (
	"errors"
	"fmt"
)

// Error kinds returned by the package. Callers should match them with
// errors.Is; the returned errors carry a more specific message.
var (
	ErrDimensionMismatch   = errors.New("hdr: dimension mismatch")
	ErrEmptyInput          = errors.New("hdr: empty input")
	ErrInvalidAlpha        = errors.New("hdr: alpha level must be in (0, 1)")
	ErrNotConfigured       = errors.New("hdr: classifier is not configured")
	ErrNotRun              = errors.New("hdr: classifier has not been run")
	ErrUnsupportedShape    = errors.New("hdr: only scalar-valued trajectories are supported")
	ErrCollaboratorFailure = errors.New("hdr: density collaborator failed")
	ErrInvalidConfig       = errors.New("hdr: invalid config")
	ErrDecomposition       = errors.New("hdr: singular value decomposition failed")
	ErrNonFinite           = errors.New("hdr: values must be finite")

	// ErrTooFewTrajectories is returned when fewer than two trajectories are
	// reduced. It matches ErrEmptyInput.
	ErrTooFewTrajectories = fmt.Errorf("%w: at least 2 trajectories are required", ErrEmptyInput)
)

// CollaboratorError wraps an error surfaced by a DensityFitter or
// DensityModel. Op names the collaborator call that failed.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("hdr: %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCollaboratorFailure, so that every
// collaborator failure matches the kind regardless of the wrapped cause.
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaboratorFailure
}

func collaboratorError(op string, err error) error {
	return &CollaboratorError{Op: op, Err: err}
}
