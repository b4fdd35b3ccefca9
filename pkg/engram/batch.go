package engram

import "github.com/mesh-intelligence/engram/pkg/types"

// CreateSpec is one item in a batch creation.
type CreateSpec struct {
	Title       string
	Description *string
	Priority    int
	Labels      []string
}

// BatchError reports one failed entry of a batch, keyed by its position
// in the input.
type BatchError struct {
	Index int
	Err   error
}

func (e BatchError) Error() string { return e.Err.Error() }

func (e BatchError) Unwrap() error { return e.Err }

// CreateMany creates the given items in order. Entries fail
// independently: the returned slice holds one item per successful entry
// and the errors carry the input index of each failure.
func (s *Session) CreateMany(specs []CreateSpec) ([]types.Item, []BatchError) {
	created := make([]types.Item, 0, len(specs))
	var failures []BatchError
	for i, spec := range specs {
		item, err := s.Create(spec.Title, spec.Description, spec.Priority, spec.Labels)
		if err != nil {
			failures = append(failures, BatchError{Index: i, Err: err})
			continue
		}
		created = append(created, *item)
	}
	return created, failures
}

// CloseMany closes the given items in order with one shared reason.
// Entries fail independently.
func (s *Session) CloseMany(ids []string, reason *string) ([]types.Item, []BatchError) {
	closed := make([]types.Item, 0, len(ids))
	var failures []BatchError
	for i, id := range ids {
		item, err := s.CloseItem(id, reason)
		if err != nil {
			failures = append(failures, BatchError{Index: i, Err: err})
			continue
		}
		closed = append(closed, *item)
	}
	return closed, failures
}
