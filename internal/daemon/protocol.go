// Package daemon runs an Engram store behind a unix socket so many
// short-lived clients can share one session. The wire protocol is one
// JSON object per line in each direction; requests execute on a single
// serial queue, so the daemon provides the same one-writer guarantee as
// the directory lock.
package daemon

import (
	"errors"

	"github.com/mesh-intelligence/engram/pkg/types"
)

// Operation names.
const (
	OpPing       = "ping"
	OpShutdown   = "shutdown"
	OpCreate     = "create"
	OpGet        = "get"
	OpUpdate     = "update"
	OpSetStatus  = "set_status"
	OpClose      = "close"
	OpReopen     = "reopen"
	OpAddEdge    = "add_edge"
	OpRemoveEdge = "remove_edge"
	OpList       = "list"
	OpReady      = "ready"
	OpBlocked    = "blocked"
	OpChildren   = "children"
	OpParents    = "parents"
	OpBlockers   = "blockers"
	OpBlockedBy  = "blocked_by"
	OpRelated    = "related"
)

// Request is one operation submitted to the daemon. Only the parameter
// fields relevant to the op are set.
type Request struct {
	ID string `json:"id"`
	Op string `json:"op"`

	ItemID      string              `json:"item_id,omitempty"`
	Title       string              `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Priority    int                 `json:"priority,omitempty"`
	Labels      []string            `json:"labels,omitempty"`
	Status      string              `json:"status,omitempty"`
	Reason      *string             `json:"reason,omitempty"`
	Fields      *types.UpdateFields `json:"fields,omitempty"`
	FromID      string              `json:"from_id,omitempty"`
	ToID        string              `json:"to_id,omitempty"`
	Kind        string              `json:"kind,omitempty"`
	Filter      *types.Filter       `json:"filter,omitempty"`

	// DeadlineMillis is a unix-millisecond deadline. A request whose
	// deadline has passed when it reaches the front of the queue is
	// rejected without executing.
	DeadlineMillis int64 `json:"deadline_millis,omitempty"`
}

// Response codes. CodeOK means the op succeeded; every other code names
// the sentinel error class so the client can rehydrate a typed error.
const (
	CodeOK                 = "ok"
	CodeInvalidTitle       = "invalid_title"
	CodeInvalidDescription = "invalid_description"
	CodeInvalidPriority    = "invalid_priority"
	CodeInvalidLabel       = "invalid_label"
	CodeInvalidStatus      = "invalid_status"
	CodeInvalidEdgeKind    = "invalid_edge_kind"
	CodeUnknownItem        = "unknown_item"
	CodeUnknownEdge        = "unknown_edge"
	CodeInvalidTransition  = "invalid_transition"
	CodeCycle              = "cycle"
	CodeSelfEdge           = "self_edge"
	CodeTimeout            = "timeout"
	CodeCorrupted          = "corrupted"
	CodeSessionFailed      = "session_failed"
	CodeInternal           = "internal"
)

// Response answers one request, matched by ID.
type Response struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`

	Item  *types.Item  `json:"item,omitempty"`
	Items []types.Item `json:"items,omitempty"`
	Edge  *types.Edge  `json:"edge,omitempty"`
}

// codeSentinels pairs each response code with the sentinel it transports.
var codeSentinels = []struct {
	code     string
	sentinel error
}{
	{CodeInvalidTitle, types.ErrInvalidTitle},
	{CodeInvalidDescription, types.ErrInvalidDescription},
	{CodeInvalidPriority, types.ErrInvalidPriority},
	{CodeInvalidLabel, types.ErrInvalidLabel},
	{CodeInvalidStatus, types.ErrInvalidStatus},
	{CodeInvalidEdgeKind, types.ErrInvalidEdgeKind},
	{CodeUnknownItem, types.ErrUnknownItem},
	{CodeUnknownEdge, types.ErrUnknownEdge},
	{CodeInvalidTransition, types.ErrInvalidTransition},
	{CodeCycle, types.ErrWouldCreateCycle},
	{CodeSelfEdge, types.ErrSelfEdge},
	{CodeTimeout, types.ErrTimeout},
	{CodeCorrupted, types.ErrCorrupted},
	{CodeSessionFailed, types.ErrSessionFailed},
}

// codeForError maps an operation error to its wire code.
func codeForError(err error) string {
	for _, cs := range codeSentinels {
		if errors.Is(err, cs.sentinel) {
			return cs.code
		}
	}
	return CodeInternal
}

// wireError carries the server's message while unwrapping to the
// sentinel the code names.
type wireError struct {
	sentinel error
	message  string
}

func (e *wireError) Error() string { return e.message }

func (e *wireError) Unwrap() error { return e.sentinel }

// errorForCode rebuilds a typed error from a response, so errors.Is works
// the same against a daemon as against a direct session.
func errorForCode(code, message string) error {
	if code == CodeOK {
		return nil
	}
	for _, cs := range codeSentinels {
		if code == cs.code {
			if message == "" || message == cs.sentinel.Error() {
				return cs.sentinel
			}
			return &wireError{sentinel: cs.sentinel, message: message}
		}
	}
	if message == "" {
		message = "internal daemon error"
	}
	return errors.New(message)
}
