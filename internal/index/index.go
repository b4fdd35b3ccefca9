// Package index implements the SQLite query cache derived from the
// journal. It answers every read the session serves; the journal is only
// consulted during the startup replay.
//
// The cache file is deleted and rebuilt on every open, which keeps it
// trivially coherent with the logs: the index is, by construction, the
// replay of the journal.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/engram/pkg/types"
)

// timeLayout is the fixed-width RFC3339 form stored in the cache. Fixed
// width keeps lexicographic ORDER BY equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Index is the queryable snapshot of one store.
type Index struct {
	db *sql.DB
}

// Open creates a fresh cache at path. Any existing cache file is discarded
// first; its absence is never an error.
func Open(path string) (*Index, error) {
	_ = os.Remove(path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing cache schema: %w", err)
		}
	}
	return &Index{db: db}, nil
}

// Close releases the cache connection.
func (ix *Index) Close() error {
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// ApplyItem upserts one item record, replacing any earlier version of the
// same id (last-write-wins, matching journal replay semantics).
func (ix *Index) ApplyItem(item *types.Item) error {
	_, err := ix.db.Exec(
		`INSERT OR REPLACE INTO items
		 (id, title, description, status, priority, created_at, updated_at, closed_at, close_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Description, string(item.Status), item.Priority,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
		formatTimePtr(item.ClosedAt), item.CloseReason,
	)
	if err != nil {
		return fmt.Errorf("upserting item %s: %w", item.ID, err)
	}

	if _, err := ix.db.Exec(`DELETE FROM labels WHERE item_id = ?`, item.ID); err != nil {
		return fmt.Errorf("clearing labels for %s: %w", item.ID, err)
	}
	for ord, label := range item.Labels {
		if _, err := ix.db.Exec(
			`INSERT INTO labels (item_id, ordinal, label) VALUES (?, ?, ?)`,
			item.ID, ord, label,
		); err != nil {
			return fmt.Errorf("inserting label for %s: %w", item.ID, err)
		}
	}

	// A status change moves this item in or out of the open-blocker count
	// of everything it blocks.
	if err := ix.refreshBlockerCount(item.ID); err != nil {
		return err
	}
	return ix.refreshBlockedBy(item.ID)
}

// ApplyEdge upserts a live edge or, for a tombstone record, removes the
// edge from the cache.
func (ix *Index) ApplyEdge(edge *types.Edge) error {
	if edge.Deleted {
		_, err := ix.db.Exec(
			`DELETE FROM edges WHERE from_id = ? AND to_id = ? AND kind = ?`,
			edge.FromID, edge.ToID, string(edge.Kind),
		)
		if err != nil {
			return fmt.Errorf("removing edge: %w", err)
		}
	} else {
		_, err := ix.db.Exec(
			`INSERT OR REPLACE INTO edges (from_id, to_id, kind, created_at) VALUES (?, ?, ?, ?)`,
			edge.FromID, edge.ToID, string(edge.Kind), formatTime(edge.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("upserting edge: %w", err)
		}
	}
	if edge.Kind.Blocking() {
		return ix.refreshBlockerCount(edge.FromID)
	}
	return nil
}

// refreshBlockerCount recomputes the cached open-blocker count for one
// item from the edge and item tables.
func (ix *Index) refreshBlockerCount(itemID string) error {
	_, err := ix.db.Exec(
		`INSERT OR REPLACE INTO blocker_counts (item_id, open_blockers)
		 SELECT ?, COUNT(*)
		 FROM edges e JOIN items b ON e.to_id = b.id
		 WHERE e.from_id = ? AND e.kind = 'blocks' AND b.status != 'closed'`,
		itemID, itemID,
	)
	if err != nil {
		return fmt.Errorf("refreshing blocker count for %s: %w", itemID, err)
	}
	return nil
}

// refreshBlockedBy refreshes the counts of every item that itemID blocks.
func (ix *Index) refreshBlockedBy(itemID string) error {
	rows, err := ix.db.Query(
		`SELECT from_id FROM edges WHERE to_id = ? AND kind = 'blocks'`, itemID,
	)
	if err != nil {
		return fmt.Errorf("listing items blocked by %s: %w", itemID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning blocked id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating blocked ids: %w", err)
	}
	for _, id := range ids {
		if err := ix.refreshBlockerCount(id); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeBlockerCounts computes every item's open-blocker count from
// scratch. Tests compare this against the cached table to prove the cache
// never drifts.
func (ix *Index) RecomputeBlockerCounts() (map[string]int, error) {
	rows, err := ix.db.Query(
		`SELECT i.id, COUNT(b.id)
		 FROM items i
		 LEFT JOIN edges e ON e.from_id = i.id AND e.kind = 'blocks'
		 LEFT JOIN items b ON b.id = e.to_id AND b.status != 'closed'
		 GROUP BY i.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("recomputing blocker counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning blocker count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// CachedBlockerCounts returns the incrementally maintained counts.
func (ix *Index) CachedBlockerCounts() (map[string]int, error) {
	rows, err := ix.db.Query(`SELECT item_id, open_blockers FROM blocker_counts`)
	if err != nil {
		return nil, fmt.Errorf("reading blocker counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning cached count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ItemCount returns the number of items in the cache.
func (ix *Index) ItemCount() (int, error) {
	var n int
	if err := ix.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// EdgeCount returns the number of live edges in the cache.
func (ix *Index) EdgeCount() (int, error) {
	var n int
	if err := ix.db.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting edges: %w", err)
	}
	return n, nil
}

// Vacuum reclaims free pages in the cache file. Purely a space operation;
// observable state is unchanged.
func (ix *Index) Vacuum() error {
	if _, err := ix.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuuming cache: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Tolerate records written with more or less sub-second precision.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}
