// Package engram is the public facade over an Engram store: an exclusive
// session that owns the journal, the derived index, and the directory
// lock, and enforces every graph invariant on the write path.
package engram

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mesh-intelligence/engram/internal/index"
	"github.com/mesh-intelligence/engram/internal/journal"
	"github.com/mesh-intelligence/engram/internal/lock"
	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// Handle is the operation surface shared by a direct Session and the
// daemon client, so callers never need to know which one they hold.
type Handle interface {
	Create(title string, description *string, priority int, labels []string) (*types.Item, error)
	Get(id string) (*types.Item, error)
	Update(id string, fields types.UpdateFields) (*types.Item, error)
	SetStatus(id string, status types.Status) (*types.Item, error)
	CloseItem(id string, reason *string) (*types.Item, error)
	Reopen(id string) (*types.Item, error)
	AddEdge(fromID, toID string, kind types.EdgeKind) (*types.Edge, error)
	RemoveEdge(fromID, toID string, kind types.EdgeKind) error
	List(filter types.Filter) ([]types.Item, error)
	Ready() ([]types.Item, error)
	Blocked() ([]types.Item, error)
	Children(id string) ([]types.Item, error)
	Parents(id string) ([]types.Item, error)
	Blockers(id string) ([]types.Item, error)
	BlockedBy(id string) ([]types.Item, error)
	Related(id string) ([]types.Item, error)
	Close() error
}

// Session is an exclusive handle on one store. All writes go through a
// single mutex: validate, check invariants against the index, append to
// the journal, then apply to the index. A journal append failure marks
// the session fail-stop; further writes return ErrSessionFailed.
type Session struct {
	mu      sync.Mutex
	dir     string
	lock    *lock.Lock
	journal *journal.Journal
	index   *index.Index
	failed  bool

	// lastStamp is the newest created_at handed out. Creation times are
	// strictly increasing within a session so ordering ties never depend
	// on clock resolution.
	lastStamp time.Time
}

// Init creates the store directory and empty logs under root. Returns
// types.ErrAlreadyInitialized when the store directory already exists.
func Init(root string) error {
	dir := paths.StoreDir(root)
	if _, err := os.Stat(dir); err == nil {
		return types.ErrAlreadyInitialized
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking store directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	for _, name := range []string{paths.ItemsFile, paths.EdgesFile} {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", name, err)
		}
	}
	return nil
}

// Open acquires the store lock under root, opens the journal, and rebuilds
// the index from a full replay. Returns types.ErrNotInitialized when no
// store exists and types.ErrLocked when another process holds the lock.
func Open(root string) (*Session, error) {
	dir := paths.StoreDir(root)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNotInitialized
		}
		return nil, fmt.Errorf("checking store directory: %w", err)
	}

	lk, err := lock.Acquire(filepath.Join(dir, paths.LockFile))
	if err != nil {
		return nil, err
	}

	s := &Session{dir: dir, lock: lk}
	if err := s.load(); err != nil {
		lk.Release()
		return nil, err
	}
	return s, nil
}

// load opens the journal and rebuilds the index from a replay. Called at
// open and again after a compaction rotates the logs.
func (s *Session) load() error {
	j, err := journal.Open(s.dir)
	if err != nil {
		return err
	}

	ix, err := index.Open(filepath.Join(s.dir, paths.CacheFile))
	if err != nil {
		j.Close()
		return err
	}

	if err := replayInto(j, ix); err != nil {
		ix.Close()
		j.Close()
		return err
	}

	s.journal = j
	s.index = ix
	return nil
}

// replayInto streams both logs into the index. Items first, so edge
// blocker counts see their endpoint statuses.
func replayInto(j *journal.Journal, ix *index.Index) error {
	if err := j.ReplayItems(func(item types.Item) error {
		return ix.ApplyItem(&item)
	}); err != nil {
		return err
	}
	return j.ReplayEdges(func(edge types.Edge) error {
		return ix.ApplyEdge(&edge)
	})
}

// Close releases the index, journal, and lock. The session is unusable
// afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			first = err
		}
		s.index = nil
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil && first == nil {
			first = err
		}
		s.journal = nil
	}
	if s.lock != nil {
		if err := s.lock.Release(); err != nil && first == nil {
			first = err
		}
		s.lock = nil
	}
	return first
}

// Dir returns the store directory this session owns.
func (s *Session) Dir() string {
	return s.dir
}

// writeItem appends the item to the journal and applies it to the index.
// Caller holds the mutex. An append failure is fail-stop: the index may
// no longer match the log, so the session refuses further writes.
func (s *Session) writeItem(item *types.Item) error {
	if s.failed {
		return types.ErrSessionFailed
	}
	if err := s.journal.AppendItem(item); err != nil {
		s.failed = true
		return fmt.Errorf("%w: %v", types.ErrSessionFailed, err)
	}
	if err := s.index.ApplyItem(item); err != nil {
		s.failed = true
		return fmt.Errorf("%w: %v", types.ErrSessionFailed, err)
	}
	return nil
}

// writeEdge is writeItem for edge records, tombstones included.
func (s *Session) writeEdge(edge *types.Edge) error {
	if s.failed {
		return types.ErrSessionFailed
	}
	if err := s.journal.AppendEdge(edge); err != nil {
		s.failed = true
		return fmt.Errorf("%w: %v", types.ErrSessionFailed, err)
	}
	if err := s.index.ApplyEdge(edge); err != nil {
		s.failed = true
		return fmt.Errorf("%w: %v", types.ErrSessionFailed, err)
	}
	return nil
}

// mustGet returns the item or types.ErrUnknownItem. Caller holds the
// mutex.
func (s *Session) mustGet(id string) (*types.Item, error) {
	item, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownItem, id)
	}
	return item, nil
}

var _ Handle = (*Session)(nil)
