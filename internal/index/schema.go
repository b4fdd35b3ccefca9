// Schema DDL for the derived query cache. The cache is disposable: it is
// rebuilt from the journal on every session open, so the schema can change
// freely between versions.
package index

// Table DDL.
const (
	createItems = `CREATE TABLE items (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL CHECK (status IN ('open', 'in_progress', 'blocked', 'closed')),
    priority INTEGER NOT NULL CHECK (priority BETWEEN 0 AND 4),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    closed_at TEXT,
    close_reason TEXT
);`

	createLabels = `CREATE TABLE labels (
    item_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    label TEXT NOT NULL,
    PRIMARY KEY (item_id, ordinal)
);`

	createEdges = `CREATE TABLE edges (
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('blocks', 'child', 'related')),
    created_at TEXT NOT NULL,
    PRIMARY KEY (from_id, to_id, kind)
);`

	// blocker_counts caches, per item, how many of its direct blockers are
	// not closed. Ready/blocked queries read it instead of re-joining the
	// edge table; it must always agree with a fresh recomputation.
	createBlockerCounts = `CREATE TABLE blocker_counts (
    item_id TEXT PRIMARY KEY,
    open_blockers INTEGER NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxItemsStatus   = `CREATE INDEX idx_items_status ON items(status);`
	idxItemsOrder    = `CREATE INDEX idx_items_order ON items(priority, created_at);`
	idxLabelsLabel   = `CREATE INDEX idx_labels_label ON labels(label);`
	idxEdgesTo       = `CREATE INDEX idx_edges_to ON edges(to_id, kind);`
	idxEdgesFromKind = `CREATE INDEX idx_edges_from_kind ON edges(from_id, kind);`
)

// schemaDDL lists all statements in creation order.
var schemaDDL = []string{
	createItems,
	createLabels,
	createEdges,
	createBlockerCounts,
	idxItemsStatus,
	idxItemsOrder,
	idxLabelsLabel,
	idxEdgesTo,
	idxEdgesFromKind,
}
