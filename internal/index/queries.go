// Read-side queries over the cache: point lookup, filtered listing, the
// ready/blocked sets, and neighbour enumeration by edge kind.
package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/engram/pkg/types"
)

// itemColumns is the SELECT list shared by every item query.
const itemColumns = `id, title, description, status, priority, created_at, updated_at, closed_at, close_reason`

// defaultOrder is the ordering applied when a query does not specify one.
const defaultOrder = ` ORDER BY priority ASC, created_at ASC, id ASC`

// Get returns the item with the given id, or nil when absent.
func (ix *Index) Get(id string) (*types.Item, error) {
	row := ix.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := hydrateItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}
	if err := ix.loadLabels(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Exists reports whether an item with the given id is present.
func (ix *Index) Exists(id string) (bool, error) {
	var one int
	err := ix.db.QueryRow(`SELECT 1 FROM items WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking item %s: %w", id, err)
	}
	return true, nil
}

// List returns items matching the filter, ordered by ascending priority
// then ascending creation time.
func (ix *Index) List(filter types.Filter) ([]types.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var conditions []string
	var args []any

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.MinPriority != nil {
		conditions = append(conditions, "priority >= ?")
		args = append(args, *filter.MinPriority)
	}
	if filter.MaxPriority != nil {
		conditions = append(conditions, "priority <= ?")
		args = append(args, *filter.MaxPriority)
	}
	if filter.Label != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM labels l WHERE l.item_id = items.id AND l.label = ?)")
		args = append(args, filter.Label)
	}
	if filter.TitleContains != "" {
		conditions = append(conditions, "instr(lower(title), lower(?)) > 0")
		args = append(args, filter.TitleContains)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += defaultOrder

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1 // SQLite: no limit, offset still applies.
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, filter.Offset)
	}

	return ix.queryItems(query, args...)
}

// Ready returns items that are not closed and whose every direct blocker
// is closed, using the cached open-blocker counts.
func (ix *Index) Ready() ([]types.Item, error) {
	return ix.queryItems(
		`SELECT ` + itemColumns + ` FROM items
		 WHERE status IN ('open', 'in_progress')
		 AND COALESCE((SELECT open_blockers FROM blocker_counts bc WHERE bc.item_id = items.id), 0) = 0` +
			defaultOrder,
	)
}

// Blocked returns items that are not closed and have at least one direct
// blocker that is not closed.
func (ix *Index) Blocked() ([]types.Item, error) {
	return ix.queryItems(
		`SELECT ` + itemColumns + ` FROM items
		 WHERE status IN ('open', 'in_progress')
		 AND COALESCE((SELECT open_blockers FROM blocker_counts bc WHERE bc.item_id = items.id), 0) > 0` +
			defaultOrder,
	)
}

// Children returns the items that declare id as their parent.
func (ix *Index) Children(id string) ([]types.Item, error) {
	return ix.neighbours(`e.to_id = ? AND e.kind = 'child' AND items.id = e.from_id`, id)
}

// Parents returns the items id declares as parents.
func (ix *Index) Parents(id string) ([]types.Item, error) {
	return ix.neighbours(`e.from_id = ? AND e.kind = 'child' AND items.id = e.to_id`, id)
}

// Blockers returns the items that block id.
func (ix *Index) Blockers(id string) ([]types.Item, error) {
	return ix.neighbours(`e.from_id = ? AND e.kind = 'blocks' AND items.id = e.to_id`, id)
}

// BlockedBy returns the items whose start is blocked by id.
func (ix *Index) BlockedBy(id string) ([]types.Item, error) {
	return ix.neighbours(`e.to_id = ? AND e.kind = 'blocks' AND items.id = e.from_id`, id)
}

// Related returns the items linked to id by a related edge, in either
// direction.
func (ix *Index) Related(id string) ([]types.Item, error) {
	return ix.queryItems(
		`SELECT `+itemColumns+` FROM items
		 WHERE EXISTS (SELECT 1 FROM edges e WHERE e.kind = 'related'
		   AND ((e.from_id = ? AND e.to_id = items.id) OR (e.to_id = ? AND e.from_id = items.id)))`+
			defaultOrder,
		id, id,
	)
}

// neighbours lists the items on the far end of edges matching the given
// condition, with ? bound to id.
func (ix *Index) neighbours(condition string, id string) ([]types.Item, error) {
	return ix.queryItems(
		`SELECT `+itemColumns+` FROM items
		 WHERE EXISTS (SELECT 1 FROM edges e WHERE `+condition+`)`+defaultOrder,
		id,
	)
}

// BlockerIDs returns the ids of the direct blockers of id: the frontier
// the cycle check expands one hop at a time.
func (ix *Index) BlockerIDs(id string) ([]string, error) {
	rows, err := ix.db.Query(
		`SELECT to_id FROM edges WHERE from_id = ? AND kind = 'blocks'`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing blockers of %s: %w", id, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var out string
		if err := rows.Scan(&out); err != nil {
			return nil, fmt.Errorf("scanning blocker id: %w", err)
		}
		ids = append(ids, out)
	}
	return ids, rows.Err()
}

// GetEdge returns the live edge with the given triple, or nil when absent.
func (ix *Index) GetEdge(fromID, toID string, kind types.EdgeKind) (*types.Edge, error) {
	row := ix.db.QueryRow(
		`SELECT from_id, to_id, kind, created_at FROM edges
		 WHERE from_id = ? AND to_id = ? AND kind = ?`,
		fromID, toID, string(kind),
	)
	var e types.Edge
	var kindStr, createdAt string
	if err := row.Scan(&e.FromID, &e.ToID, &kindStr, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting edge: %w", err)
	}
	e.Kind = types.EdgeKind(kindStr)
	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// AllItems returns every item, ordered for a deterministic snapshot.
func (ix *Index) AllItems() ([]types.Item, error) {
	return ix.queryItems(`SELECT ` + itemColumns + ` FROM items ORDER BY created_at ASC, id ASC`)
}

// AllEdges returns every live edge, ordered for a deterministic snapshot.
func (ix *Index) AllEdges() ([]types.Edge, error) {
	rows, err := ix.db.Query(
		`SELECT from_id, to_id, kind, created_at FROM edges
		 ORDER BY created_at ASC, from_id ASC, to_id ASC, kind ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing edges: %w", err)
	}
	defer rows.Close()

	var edges []types.Edge
	for rows.Next() {
		var e types.Edge
		var kindStr, createdAt string
		if err := rows.Scan(&e.FromID, &e.ToID, &kindStr, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Kind = types.EdgeKind(kindStr)
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// queryItems runs an item query and hydrates labels for each result.
func (ix *Index) queryItems(query string, args ...any) ([]types.Item, error) {
	rows, err := ix.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		item, err := hydrateItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("hydrating item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	for i := range items {
		if err := ix.loadLabels(&items[i]); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []types.Item{}
	}
	return items, nil
}

// hydrateItem converts one row into an Item. scan is row.Scan or
// rows.Scan, which share a shape but not an interface.
func hydrateItem(scan func(...any) error) (*types.Item, error) {
	var item types.Item
	var status, createdAt, updatedAt string
	var closedAt sql.NullString
	if err := scan(
		&item.ID, &item.Title, &item.Description, &status, &item.Priority,
		&createdAt, &updatedAt, &closedAt, &item.CloseReason,
	); err != nil {
		return nil, err
	}
	item.Status = types.Status(status)

	var err error
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t, err := parseTime(closedAt.String)
		if err != nil {
			return nil, err
		}
		item.ClosedAt = &t
	}
	return &item, nil
}

// loadLabels fills the item's label slice in insertion order.
func (ix *Index) loadLabels(item *types.Item) error {
	rows, err := ix.db.Query(
		`SELECT label FROM labels WHERE item_id = ? ORDER BY ordinal ASC`, item.ID,
	)
	if err != nil {
		return fmt.Errorf("loading labels for %s: %w", item.ID, err)
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return fmt.Errorf("scanning label: %w", err)
		}
		labels = append(labels, l)
	}
	item.Labels = labels
	return rows.Err()
}
