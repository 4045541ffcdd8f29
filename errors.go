package consensus

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports malformed input: no observations, or
	// observations of unequal length.
	ErrInvalidInput = errors.New("consensus: invalid input")

	// ErrNoCommonAtoms reports that two observations share no
	// corresponding points at any position.
	ErrNoCommonAtoms = errors.New("consensus: no common atoms")

	// ErrDegenerateInput reports an empty or mismatched point list handed
	// to the superimposer.
	ErrDegenerateInput = errors.New("consensus: degenerate input")

	// ErrSuperimposition reports that no candidate leaf permutation could
	// be superimposed in ideal mode.
	ErrSuperimposition = errors.New("consensus: superimposition failed")

	// ErrInconsistentDendrogram reports a violated internal invariant of the
	// merge bookkeeping. It indicates a bug, not bad input.
	ErrInconsistentDendrogram = errors.New("consensus: inconsistent dendrogram")
)

// PairError records which pair of observations could not be superimposed.
type PairError struct {
	Reference int
	Candidate int
	Err       error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("consensus: superimposing observation %d onto %d: %v", e.Candidate, e.Reference, e.Err)
}

func (e *PairError) Unwrap() error { return e.Err }

func fmtInvalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
