package engram

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// CompactConfig controls which closed items a compaction strips.
type CompactConfig struct {
	// OlderThanDays selects closed items whose closed-at is at least this
	// many days in the past. Zero selects every closed item.
	OlderThanDays int

	// MaxDescriptionLen, when set, truncates long descriptions of selected
	// items instead of removing them entirely.
	MaxDescriptionLen *int
}

// CompactResult summarizes one compaction.
type CompactResult struct {
	// CompactedCount is the number of items whose description was removed
	// or truncated.
	CompactedCount int

	// BytesSaved is the journal size reduction across both logs.
	BytesSaved int64

	// CompactedIDs lists the affected items.
	CompactedIDs []string
}

// Compact rewrites both logs as snapshots: one record per live item, live
// edges only, with descriptions of old closed items removed or truncated.
// Item identity records are never dropped, so every id stays resolvable.
// The index is rebuilt from the rotated logs before Compact returns.
func (s *Session) Compact(cfg CompactConfig) (*CompactResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed {
		return nil, types.ErrSessionFailed
	}

	sizeBefore, err := s.journalSize()
	if err != nil {
		return nil, err
	}

	items, err := s.index.AllItems()
	if err != nil {
		return nil, err
	}
	edges, err := s.index.AllEdges()
	if err != nil {
		return nil, err
	}

	cutoff := types.NowUTC().Add(-time.Duration(cfg.OlderThanDays) * 24 * time.Hour)
	result := &CompactResult{CompactedIDs: []string{}}
	for i := range items {
		item := &items[i]
		if item.Status != types.StatusClosed || item.ClosedAt == nil || item.ClosedAt.After(cutoff) {
			continue
		}
		if !stripDescription(item, cfg.MaxDescriptionLen) {
			continue
		}
		result.CompactedCount++
		result.CompactedIDs = append(result.CompactedIDs, item.ID)
	}

	if err := s.journal.Rotate(items, edges); err != nil {
		s.failed = true
		return nil, fmt.Errorf("%w: %v", types.ErrSessionFailed, err)
	}

	// The rotated logs are the new source of truth; rebuild the index from
	// them rather than patching it in place.
	if err := s.reload(); err != nil {
		return nil, err
	}

	sizeAfter, err := s.journalSize()
	if err != nil {
		return nil, err
	}
	result.BytesSaved = sizeBefore - sizeAfter
	return result, nil
}

// stripDescription removes or truncates the description and reports
// whether anything changed.
func stripDescription(item *types.Item, maxLen *int) bool {
	if item.Description == nil {
		return false
	}
	if maxLen == nil {
		item.Description = nil
		return true
	}
	desc := *item.Description
	if utf8.RuneCountInString(desc) <= *maxLen {
		return false
	}
	runes := []rune(desc)
	truncated := string(runes[:*maxLen]) + "..."
	item.Description = &truncated
	return true
}

// reload closes and reopens the journal and index. Caller holds the
// mutex.
func (s *Session) reload() error {
	s.index.Close()
	s.journal.Close()
	s.index = nil
	s.journal = nil

	if err := s.load(); err != nil {
		s.failed = true
		return fmt.Errorf("%w: %v", types.ErrSessionFailed, err)
	}
	return nil
}

// journalSize returns the combined size of both logs.
func (s *Session) journalSize() (int64, error) {
	var total int64
	for _, name := range []string{paths.ItemsFile, paths.EdgesFile} {
		info, err := os.Stat(filepath.Join(s.dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("sizing %s: %w", name, err)
		}
		total += info.Size()
	}
	return total, nil
}
