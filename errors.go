package cloudantstore

import (
	"fmt"
	"strings"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
)

var (
	// ErrSessionNotFound reports an explicit Touch or Destroy against a
	// session that does not exist. Get never returns it; an absent session
	// reads as (nil, nil).
	ErrSessionNotFound = docstore.NewStoreError("CS-SESS-4040", "session not found")

	// ErrRevisionConflict reports a write that lost a race with a
	// concurrent writer. Never retried automatically.
	ErrRevisionConflict = docstore.NewStoreError("CS-SESS-4090", "session revision conflict")

	// ErrStoreUnavailable reports that the session database could not be
	// reached.
	ErrStoreUnavailable = docstore.NewStoreError("CS-SESS-5030", "session store unavailable")
)

// CleanupFailure is one rejected deletion within a cleanup batch.
type CleanupFailure struct {
	ID  string
	Err error
}

// PartialCleanupError aggregates the rejected deletions of a cleanup run.
// Deletions that succeeded in the same batch stand; the next run
// re-discovers whatever is still expired.
type PartialCleanupError struct {
	Failures []CleanupFailure
}

// Error implements the error interface.
func (e *PartialCleanupError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ID)
	}
	return fmt.Sprintf("cleanup rejected %d of batch: %s", len(e.Failures), strings.Join(ids, ", "))
}

// mapStoreErr translates docstore errors into the session-level taxonomy,
// keeping the original error as the cause.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case docstore.IsNotFound(err):
		return ErrSessionNotFound.WithCause(err)
	case docstore.IsConflict(err):
		return ErrRevisionConflict.WithCause(err)
	default:
		return ErrStoreUnavailable.WithCause(err)
	}
}
