package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Retryable errors. The whole run may be re-attempted later.

	// ErrTransientRemote indicates the catalog service or the transfer tool
	// failed for network or service reasons and the retry budget ran out.
	ErrTransientRemote = errors.New("transient remote error")

	// ErrIncompleteBatch indicates some items of a transfer batch did not
	// produce their expected artifact.
	ErrIncompleteBatch = errors.New("incomplete batch")

	// Fatal errors. These need operator intervention.

	// ErrStateConflict indicates a workspace or processing directory
	// is in a state that would mix the outputs of two runs.
	ErrStateConflict = errors.New("state conflict")

	// ErrSnapshotNotFound indicates resume was requested for a snapshot
	// that has no workspace.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrValidationMismatch indicates the merged output does not hold
	// exactly the distinct coordinates of its inputs.
	ErrValidationMismatch = errors.New("validation mismatch")

	// ErrPublishFailed indicates the validated result could not be uploaded.
	ErrPublishFailed = errors.New("publish failed")
)

// UnresolvedError reports the items still missing after the transfer
// retry budget is exhausted.
type UnresolvedError struct {
	Accessions []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%d analyses not transferred: %s", len(e.Accessions), strings.Join(e.Accessions, ","))
}

// Is reports UnresolvedError as an incomplete batch.
func (e *UnresolvedError) Is(target error) bool {
	return target == ErrIncompleteBatch
}

// Retryable reports whether err leaves state consistent so that re-running
// the whole command is safe. Fatal kinds return false.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStateConflict) || errors.Is(err, ErrValidationMismatch) ||
		errors.Is(err, ErrInvalidInput) {
		return false
	}
	return errors.Is(err, ErrTransientRemote) || errors.Is(err, ErrIncompleteBatch)
}
