package engram

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/engram/internal/ident"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// Create validates the fields, derives a deterministic id from the title
// and creation time, and appends the new item. The item starts open.
func (s *Session) Create(title string, description *string, priority int, labels []string) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := types.NowUTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Millisecond)
	}
	item := &types.Item{
		Title:       title,
		Description: description,
		Status:      types.StatusOpen,
		Priority:    priority,
		Labels:      types.NormalizeLabels(labels),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	// Collisions perturb the creation time, so the stamped created_at is
	// whatever timestamp the id was actually derived from.
	var lookupErr error
	id, createdAt := ident.NewUnique(title, now, func(candidate string) bool {
		ok, err := s.index.Exists(candidate)
		if err != nil {
			lookupErr = err
		}
		return ok
	})
	if lookupErr != nil {
		return nil, lookupErr
	}
	item.ID = id
	item.CreatedAt = createdAt
	item.UpdatedAt = createdAt

	if err := s.writeItem(item); err != nil {
		return nil, err
	}
	s.lastStamp = createdAt
	return item, nil
}

// Get returns one item by id.
func (s *Session) Get(id string) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mustGet(id)
}

// Update applies a partial update to an item. Closed items stay
// updatable; only the status machine restricts them.
func (s *Session) Update(id string, fields types.UpdateFields) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if fields.Empty() {
		return item, nil
	}

	if fields.Title != nil {
		item.Title = *fields.Title
	}
	if fields.Description != nil {
		item.Description = fields.Description
	}
	if fields.Priority != nil {
		item.Priority = *fields.Priority
	}
	if fields.Labels != nil {
		item.Labels = types.NormalizeLabels(fields.Labels)
	}
	item.UpdatedAt = types.NowUTC()

	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.writeItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetStatus moves an item through the status machine. Setting the current
// status again succeeds without writing a record. Closing this way leaves
// no close reason; reopening clears closed-at and the reason.
func (s *Session) SetStatus(id string, status types.Status) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(id, status, nil)
}

// CloseItem closes an item with an optional reason.
func (s *Session) CloseItem(id string, reason *string) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(id, types.StatusClosed, reason)
}

// Reopen returns a closed item to open.
func (s *Session) Reopen(id string) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(id, types.StatusOpen, nil)
}

// setStatusLocked holds the single status-change write path so closed-at
// and close-reason can never drift from the status.
func (s *Session) setStatusLocked(id string, status types.Status, reason *string) (*types.Item, error) {
	if _, err := types.ParseStatus(string(status)); err != nil {
		return nil, err
	}

	item, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if item.Status == status {
		return item, nil
	}
	if !item.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", types.ErrInvalidTransition, item.Status, status)
	}

	now := types.NowUTC()
	item.Status = status
	item.UpdatedAt = now
	if status == types.StatusClosed {
		item.ClosedAt = &now
		item.CloseReason = reason
	} else {
		item.ClosedAt = nil
		item.CloseReason = nil
	}

	if err := s.writeItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// AddEdge links two existing items. Self-edges are rejected for every
// kind; a blocking edge is additionally rejected when it would close a
// cycle over the live blocking edges. Re-adding an identical live edge
// returns it unchanged.
func (s *Session) AddEdge(fromID, toID string, kind types.EdgeKind) (*types.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := types.ParseEdgeKind(string(kind)); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, types.ErrSelfEdge
	}
	if _, err := s.mustGet(fromID); err != nil {
		return nil, err
	}
	if _, err := s.mustGet(toID); err != nil {
		return nil, err
	}

	existing, err := s.index.GetEdge(fromID, toID, kind)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if kind.Blocking() {
		cyclic, err := s.reaches(toID, fromID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, fmt.Errorf("%w: %s blocks %s", types.ErrWouldCreateCycle, toID, fromID)
		}
	}

	edge := &types.Edge{
		FromID:    fromID,
		ToID:      toID,
		Kind:      kind,
		CreatedAt: types.NowUTC(),
	}
	if err := s.writeEdge(edge); err != nil {
		return nil, err
	}
	return edge, nil
}

// RemoveEdge tombstones a live edge. Removing an edge that does not exist
// succeeds without writing a record.
func (s *Session) RemoveEdge(fromID, toID string, kind types.EdgeKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := types.ParseEdgeKind(string(kind)); err != nil {
		return err
	}

	existing, err := s.index.GetEdge(fromID, toID, kind)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	tomb := &types.Edge{
		FromID:    fromID,
		ToID:      toID,
		Kind:      kind,
		CreatedAt: types.NowUTC(),
		Deleted:   true,
	}
	return s.writeEdge(tomb)
}

// reaches reports whether dst is reachable from src over live blocking
// edges. BFS over the index's one-hop frontier.
func (s *Session) reaches(src, dst string) (bool, error) {
	visited := map[string]bool{src: true}
	frontier := []string{src}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		if current == dst {
			return true, nil
		}
		next, err := s.index.BlockerIDs(current)
		if err != nil {
			return false, err
		}
		for _, id := range next {
			if !visited[id] {
				visited[id] = true
				frontier = append(frontier, id)
			}
		}
	}
	return false, nil
}

// List returns items matching the filter.
func (s *Session) List(filter types.Filter) ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.List(filter)
}

// Ready returns open or in-progress items whose every blocker is closed.
func (s *Session) Ready() ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Ready()
}

// Blocked returns open or in-progress items with at least one open
// blocker.
func (s *Session) Blocked() ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Blocked()
}

// Children returns the items declaring id as their parent.
func (s *Session) Children(id string) ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mustGet(id); err != nil {
		return nil, err
	}
	return s.index.Children(id)
}

// Parents returns the items id declares as parents.
func (s *Session) Parents(id string) ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mustGet(id); err != nil {
		return nil, err
	}
	return s.index.Parents(id)
}

// Blockers returns the items blocking id.
func (s *Session) Blockers(id string) ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mustGet(id); err != nil {
		return nil, err
	}
	return s.index.Blockers(id)
}

// BlockedBy returns the items id blocks.
func (s *Session) BlockedBy(id string) ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mustGet(id); err != nil {
		return nil, err
	}
	return s.index.BlockedBy(id)
}

// Related returns items linked to id by a related edge in either
// direction.
func (s *Session) Related(id string) ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mustGet(id); err != nil {
		return nil, err
	}
	return s.index.Related(id)
}
