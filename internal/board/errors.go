package board

import "errors"

// Domain errors surfaced through the gateway. NotFound comes from the
// store layer; deletes are idempotent and never raise it.
var (
	// ErrBusy means the gateway lock was not acquired within its wait
	// window. The action was never attempted.
	ErrBusy = errors.New("another operation is in progress, please retry")

	// ErrUnknownAction means the dispatch key is not recognized.
	ErrUnknownAction = errors.New("unknown action")

	// ErrNoActiveSprint means completeSprint found no single active sprint.
	ErrNoActiveSprint = errors.New("no active sprint")
)
