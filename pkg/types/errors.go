package types

import "errors"

// Validation errors: the caller supplied a value the store cannot accept.
var (
	ErrInvalidTitle       = errors.New("title must be 1-500 characters without control characters")
	ErrInvalidDescription = errors.New("description exceeds 65536 characters")
	ErrInvalidPriority    = errors.New("priority must be between 0 and 4")
	ErrInvalidLabel       = errors.New("label must be 1-64 characters without control characters or commas")
	ErrInvalidStatus      = errors.New("unrecognized status")
	ErrInvalidEdgeKind    = errors.New("unrecognized edge kind")
)

// Reference errors: the caller named something that does not exist.
var (
	ErrUnknownItem = errors.New("no such item")
	ErrUnknownEdge = errors.New("no such edge")
)

// Graph errors: the operation would violate a structural rule.
var (
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrWouldCreateCycle  = errors.New("edge would create a blocking cycle")
	ErrSelfEdge          = errors.New("an item cannot relate to itself")
)

// Environment errors: the store or daemon is not in a usable state.
var (
	ErrLocked             = errors.New("store is locked by another process")
	ErrAlreadyInitialized = errors.New("store already initialized")
	ErrNotInitialized     = errors.New("store not initialized")
	ErrDaemonUnreachable  = errors.New("daemon not reachable")
	ErrTimeout            = errors.New("operation deadline exceeded")
	ErrCorrupted          = errors.New("journal is corrupted")
	ErrSessionFailed      = errors.New("session failed, reopen required")
)

// userErrors are the failures caused by the request rather than the
// environment. The CLI exits 1 for these and 2 for everything else.
var userErrors = []error{
	ErrInvalidTitle,
	ErrInvalidDescription,
	ErrInvalidPriority,
	ErrInvalidLabel,
	ErrInvalidStatus,
	ErrInvalidEdgeKind,
	ErrUnknownItem,
	ErrUnknownEdge,
	ErrInvalidTransition,
	ErrWouldCreateCycle,
	ErrSelfEdge,
}

// IsUserError reports whether err is (or wraps) a user error.
func IsUserError(err error) bool {
	for _, ue := range userErrors {
		if errors.Is(err, ue) {
			return true
		}
	}
	return false
}
