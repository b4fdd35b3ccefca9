package engram

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/engram/internal/paths"
)

// VacuumResult summarizes one cache vacuum.
type VacuumResult struct {
	// SizeBefore and SizeAfter are the cache file sizes in bytes.
	SizeBefore int64
	SizeAfter  int64

	// ItemCount and EdgeCount are the live record counts after the vacuum.
	ItemCount int
	EdgeCount int
}

// Vacuum reclaims free pages in the cache file. The journal and all
// observable state are untouched.
func (s *Session) Vacuum() (*VacuumResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cachePath := filepath.Join(s.dir, paths.CacheFile)
	sizeBefore, err := fileSize(cachePath)
	if err != nil {
		return nil, err
	}

	if err := s.index.Vacuum(); err != nil {
		return nil, err
	}

	sizeAfter, err := fileSize(cachePath)
	if err != nil {
		return nil, err
	}
	itemCount, err := s.index.ItemCount()
	if err != nil {
		return nil, err
	}
	edgeCount, err := s.index.EdgeCount()
	if err != nil {
		return nil, err
	}

	return &VacuumResult{
		SizeBefore: sizeBefore,
		SizeAfter:  sizeAfter,
		ItemCount:  itemCount,
		EdgeCount:  edgeCount,
	}, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("sizing %s: %w", path, err)
	}
	return info.Size(), nil
}
