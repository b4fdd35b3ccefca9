// Package journal implements the append-only record logs that are the
// source of truth for a store: one JSONL file for items, one for edges.
//
// Records are single lines of JSON so the logs stay human-diffable. Replay
// applies last-write-wins per item id; for edges, a later record with
// deleted set retires an earlier creation.
package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// Journal owns the two log files of one store directory. All writes are
// serialized by the session's lock; the journal itself does no locking.
type Journal struct {
	dir       string
	itemsPath string
	edgesPath string
	items     *os.File
	edges     *os.File
}

// Open opens (creating if absent) the item and edge logs under dir. A
// partial final line left by an interrupted append is truncated away and
// reported; complete earlier lines are authoritative. A malformed interior
// line means the log cannot be trusted and yields types.ErrCorrupted.
func Open(dir string) (*Journal, error) {
	j := &Journal{
		dir:       dir,
		itemsPath: filepath.Join(dir, paths.ItemsFile),
		edgesPath: filepath.Join(dir, paths.EdgesFile),
	}

	for _, path := range []string{j.itemsPath, j.edgesPath} {
		if err := repairTail(path); err != nil {
			return nil, err
		}
	}

	var err error
	if j.items, err = os.OpenFile(j.itemsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
		return nil, fmt.Errorf("opening items log: %w", err)
	}
	if j.edges, err = os.OpenFile(j.edgesPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
		j.items.Close()
		return nil, fmt.Errorf("opening edges log: %w", err)
	}

	if err := syncDir(dir); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

// Close releases the log file handles.
func (j *Journal) Close() error {
	var first error
	if j.items != nil {
		if err := j.items.Close(); err != nil && first == nil {
			first = err
		}
		j.items = nil
	}
	if j.edges != nil {
		if err := j.edges.Close(); err != nil && first == nil {
			first = err
		}
		j.edges = nil
	}
	return first
}

// AppendItem writes one item record and syncs it to disk.
func (j *Journal) AppendItem(item *types.Item) error {
	return appendLine(j.items, j.itemsPath, item)
}

// AppendEdge writes one edge record and syncs it to disk. Tombstones are
// appended the same way, with Deleted set.
func (j *Journal) AppendEdge(edge *types.Edge) error {
	return appendLine(j.edges, j.edgesPath, edge)
}

// ReplayItems streams every item record in insertion order.
func (j *Journal) ReplayItems(sink func(types.Item) error) error {
	return replay(j.itemsPath, func(line []byte) error {
		var item types.Item
		if err := json.Unmarshal(line, &item); err != nil {
			return fmt.Errorf("%w: item record: %v", types.ErrCorrupted, err)
		}
		return sink(item)
	})
}

// ReplayEdges streams every edge record in insertion order.
func (j *Journal) ReplayEdges(sink func(types.Edge) error) error {
	return replay(j.edgesPath, func(line []byte) error {
		var edge types.Edge
		if err := json.Unmarshal(line, &edge); err != nil {
			return fmt.Errorf("%w: edge record: %v", types.ErrCorrupted, err)
		}
		return sink(edge)
	})
}

// Rotate atomically replaces both logs with compacted snapshots using the
// temp-file, fsync, rename pattern. The open append handles are reopened
// on the new files.
func (j *Journal) Rotate(items []types.Item, edges []types.Edge) error {
	itemLines := make([]json.RawMessage, 0, len(items))
	for i := range items {
		raw, err := json.Marshal(&items[i])
		if err != nil {
			return fmt.Errorf("marshaling item snapshot: %w", err)
		}
		itemLines = append(itemLines, raw)
	}
	edgeLines := make([]json.RawMessage, 0, len(edges))
	for i := range edges {
		raw, err := json.Marshal(&edges[i])
		if err != nil {
			return fmt.Errorf("marshaling edge snapshot: %w", err)
		}
		edgeLines = append(edgeLines, raw)
	}

	if err := writeSnapshot(j.itemsPath, itemLines); err != nil {
		return err
	}
	if err := writeSnapshot(j.edgesPath, edgeLines); err != nil {
		return err
	}
	if err := syncDir(j.dir); err != nil {
		return err
	}

	// Reopen append handles on the renamed files.
	j.items.Close()
	j.edges.Close()
	var err error
	if j.items, err = os.OpenFile(j.itemsPath, os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
		return fmt.Errorf("reopening items log: %w", err)
	}
	if j.edges, err = os.OpenFile(j.edgesPath, os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
		return fmt.Errorf("reopening edges log: %w", err)
	}
	return nil
}

// appendLine marshals v, appends it as one newline-terminated line, and
// fsyncs the file. The record is either fully present with its newline or
// repaired away at the next open.
func appendLine(f *os.File, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := f.Write(raw); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return nil
}

// replay streams each non-empty line of path to sink.
func replay(path string, sink func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := sink(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	return nil
}

// repairTail truncates a partial final line (no trailing newline, or
// trailing bytes that are not valid JSON). Complete lines that fail to
// parse as JSON are corruption and are left for replay to diagnose.
func repairTail(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}

	keep := 0
	if idx := bytes.LastIndexByte(data, '\n'); idx >= 0 {
		keep = idx + 1
	}
	glog.Warningf("truncating partial final line in %s (%d bytes)", path, len(data)-keep)

	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for repair: %w", path, err)
	}
	defer f.Close()
	if err := f.Truncate(int64(keep)); err != nil {
		return fmt.Errorf("truncating %s: %w", path, err)
	}
	return f.Sync()
}

// writeSnapshot atomically replaces path with the given records using a
// temp file in the same directory, fsync, then rename.
func writeSnapshot(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// syncDir fsyncs the directory entry so created or renamed files survive a
// crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", dir, err)
	}
	return nil
}
