package engram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/engram/pkg/types"
)

func newStore(t *testing.T) (string, *Session) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, Init(root))
	s, err := Open(root)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return root, s
}

func mustCreate(t *testing.T, s *Session, title string, priority int, labels ...string) *types.Item {
	t.Helper()
	item, err := s.Create(title, nil, priority, labels)
	require.NoError(t, err)
	return item
}

func ids(items []types.Item) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func TestInitAndOpen(t *testing.T) {
	root := t.TempDir()

	_, err := Open(root)
	assert.ErrorIs(t, err, types.ErrNotInitialized)

	require.NoError(t, Init(root))
	assert.ErrorIs(t, Init(root), types.ErrAlreadyInitialized)

	s, err := Open(root)
	require.NoError(t, err)

	// The lock excludes a second session.
	_, err = Open(root)
	assert.ErrorIs(t, err, types.ErrLocked)

	require.NoError(t, s.Close())

	// Released lock admits a new session.
	s, err = Open(root)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCreateAndGet(t *testing.T) {
	_, s := newStore(t)

	desc := "details"
	item, err := s.Create("write tests", &desc, 1, []string{"dev", "dev", "urgent"})
	require.NoError(t, err)

	assert.Regexp(t, `^eg-[a-z2-7]{13}$`, item.ID)
	assert.Equal(t, types.StatusOpen, item.Status)
	assert.Equal(t, []string{"dev", "urgent"}, item.Labels)
	assert.Nil(t, item.ClosedAt)

	got, err := s.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "write tests", got.Title)
	assert.Equal(t, "details", *got.Description)

	_, err = s.Get("eg-nonexistent77")
	assert.ErrorIs(t, err, types.ErrUnknownItem)
}

func TestCreateValidation(t *testing.T) {
	_, s := newStore(t)

	_, err := s.Create("", nil, 2, nil)
	assert.ErrorIs(t, err, types.ErrInvalidTitle)

	_, err = s.Create("ok", nil, 5, nil)
	assert.ErrorIs(t, err, types.ErrInvalidPriority)

	_, err = s.Create("ok", nil, 2, []string{"a,b"})
	assert.ErrorIs(t, err, types.ErrInvalidLabel)

	// Failed creates leave nothing behind.
	items, err := s.List(types.Filter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateDeterministicIDs(t *testing.T) {
	// Same titles created at the same instants produce the same ids; a
	// same-millisecond duplicate title perturbs instead of failing.
	_, s := newStore(t)

	a, err := s.Create("same title", nil, 2, nil)
	require.NoError(t, err)
	b, err := s.Create("same title", nil, 2, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	// Both remain individually addressable.
	gotA, err := s.Get(a.ID)
	require.NoError(t, err)
	gotB, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, gotA.CreatedAt, gotB.CreatedAt)
}

func TestUpdate(t *testing.T) {
	_, s := newStore(t)
	item := mustCreate(t, s, "original", 2, "old")

	newTitle := "revised"
	newPriority := 0
	updated, err := s.Update(item.ID, types.UpdateFields{
		Title:    &newTitle,
		Priority: &newPriority,
		Labels:   []string{"new"},
	})
	require.NoError(t, err)
	assert.Equal(t, "revised", updated.Title)
	assert.Equal(t, 0, updated.Priority)
	assert.Equal(t, []string{"new"}, updated.Labels)

	// Empty update is a no-op.
	same, err := s.Update(item.ID, types.UpdateFields{})
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, same.UpdatedAt)

	// Closed items stay updatable.
	_, err = s.CloseItem(item.ID, nil)
	require.NoError(t, err)
	closedTitle := "revised again"
	updated, err = s.Update(item.ID, types.UpdateFields{Title: &closedTitle})
	require.NoError(t, err)
	assert.Equal(t, "revised again", updated.Title)
	assert.Equal(t, types.StatusClosed, updated.Status)

	bad := ""
	_, err = s.Update(item.ID, types.UpdateFields{Title: &bad})
	assert.ErrorIs(t, err, types.ErrInvalidTitle)

	_, err = s.Update("eg-nonexistent77", types.UpdateFields{Title: &newTitle})
	assert.ErrorIs(t, err, types.ErrUnknownItem)
}

func TestStatusMachine(t *testing.T) {
	_, s := newStore(t)
	item := mustCreate(t, s, "lifecycle", 2)

	got, err := s.SetStatus(item.ID, types.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, got.Status)

	// Same-status transition is an idempotent success.
	again, err := s.SetStatus(item.ID, types.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, got.UpdatedAt, again.UpdatedAt)

	reason := "shipped"
	closed, err := s.CloseItem(item.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, "shipped", *closed.CloseReason)

	// Scenario: closed items only reopen.
	_, err = s.SetStatus(item.ID, types.StatusInProgress)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	reopened, err := s.Reopen(item.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)
	assert.Nil(t, reopened.CloseReason)

	_, err = s.SetStatus(item.ID, types.StatusInProgress)
	require.NoError(t, err)

	_, err = s.SetStatus(item.ID, types.Status("weird"))
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestReopenTimestamps(t *testing.T) {
	_, s := newStore(t)
	item := mustCreate(t, s, "T", 2)

	reason := "done"
	closed, err := s.CloseItem(item.ID, &reason)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	reopened, err := s.Reopen(item.ID)
	require.NoError(t, err)

	assert.Equal(t, types.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)
	assert.Nil(t, reopened.CloseReason)
	assert.True(t, reopened.UpdatedAt.After(closed.UpdatedAt))
}

func TestDiamond(t *testing.T) {
	_, s := newStore(t)

	a := mustCreate(t, s, "A", 1)
	b := mustCreate(t, s, "B", 2)
	c := mustCreate(t, s, "C", 2)
	d := mustCreate(t, s, "D", 2)

	for _, pair := range [][2]string{
		{b.ID, a.ID}, {c.ID, a.ID}, {d.ID, b.ID}, {d.ID, c.ID},
	} {
		_, err := s.AddEdge(pair[0], pair[1], types.EdgeBlocks)
		require.NoError(t, err)
	}

	ready, err := s.Ready()
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(ready))

	_, err = s.CloseItem(a.ID, nil)
	require.NoError(t, err)
	ready, err = s.Ready()
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID}, ids(ready))

	_, err = s.CloseItem(b.ID, nil)
	require.NoError(t, err)
	ready, err = s.Ready()
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(ready))

	_, err = s.CloseItem(c.ID, nil)
	require.NoError(t, err)
	ready, err = s.Ready()
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID}, ids(ready))
}

func TestCycleRejection(t *testing.T) {
	_, s := newStore(t)

	x := mustCreate(t, s, "X", 2)
	y := mustCreate(t, s, "Y", 2)
	z := mustCreate(t, s, "Z", 2)

	_, err := s.AddEdge(x.ID, y.ID, types.EdgeBlocks)
	require.NoError(t, err)
	_, err = s.AddEdge(y.ID, z.ID, types.EdgeBlocks)
	require.NoError(t, err)

	_, err = s.AddEdge(z.ID, x.ID, types.EdgeBlocks)
	assert.ErrorIs(t, err, types.ErrWouldCreateCycle)

	// The store is unchanged: z is still the only ready item.
	ready, err := s.Ready()
	require.NoError(t, err)
	assert.Equal(t, []string{z.ID}, ids(ready))

	edges, err := s.index.AllEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestEdgeValidation(t *testing.T) {
	_, s := newStore(t)
	a := mustCreate(t, s, "a", 2)
	b := mustCreate(t, s, "b", 2)

	_, err := s.AddEdge(a.ID, a.ID, types.EdgeBlocks)
	assert.ErrorIs(t, err, types.ErrSelfEdge)
	_, err = s.AddEdge(a.ID, a.ID, types.EdgeChild)
	assert.ErrorIs(t, err, types.ErrSelfEdge)

	_, err = s.AddEdge(a.ID, "eg-nonexistent77", types.EdgeBlocks)
	assert.ErrorIs(t, err, types.ErrUnknownItem)
	_, err = s.AddEdge("eg-nonexistent77", b.ID, types.EdgeBlocks)
	assert.ErrorIs(t, err, types.ErrUnknownItem)

	_, err = s.AddEdge(a.ID, b.ID, types.EdgeKind("depends"))
	assert.ErrorIs(t, err, types.ErrInvalidEdgeKind)
}

func TestEdgeIdempotence(t *testing.T) {
	_, s := newStore(t)
	a := mustCreate(t, s, "a", 2)
	b := mustCreate(t, s, "b", 2)

	first, err := s.AddEdge(a.ID, b.ID, types.EdgeBlocks)
	require.NoError(t, err)
	second, err := s.AddEdge(a.ID, b.ID, types.EdgeBlocks)
	require.NoError(t, err)

	// Same edge identity, no second record.
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	edges, err := s.index.AllEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestTombstoneIdempotence(t *testing.T) {
	_, s := newStore(t)
	a := mustCreate(t, s, "a", 2)
	b := mustCreate(t, s, "b", 2)

	_, err := s.AddEdge(a.ID, b.ID, types.EdgeBlocks)
	require.NoError(t, err)

	require.NoError(t, s.RemoveEdge(a.ID, b.ID, types.EdgeBlocks))
	require.NoError(t, s.RemoveEdge(a.ID, b.ID, types.EdgeBlocks))

	// Removing an edge that never existed is also a no-op.
	require.NoError(t, s.RemoveEdge(b.ID, a.ID, types.EdgeBlocks))

	ready, err := s.Ready()
	require.NoError(t, err)
	assert.Len(t, ready, 2)

	// Removed means re-addable, in the opposite direction too.
	_, err = s.AddEdge(b.ID, a.ID, types.EdgeBlocks)
	require.NoError(t, err)
}

func TestNeighbourQueries(t *testing.T) {
	_, s := newStore(t)
	parent := mustCreate(t, s, "parent", 1)
	child := mustCreate(t, s, "child", 2)
	other := mustCreate(t, s, "other", 3)

	_, err := s.AddEdge(child.ID, parent.ID, types.EdgeChild)
	require.NoError(t, err)
	_, err = s.AddEdge(parent.ID, other.ID, types.EdgeRelated)
	require.NoError(t, err)

	children, err := s.Children(parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, ids(children))

	parents, err := s.Parents(child.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{parent.ID}, ids(parents))

	// Related edges resolve from both ends.
	related, err := s.Related(parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, ids(related))
	related, err = s.Related(other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{parent.ID}, ids(related))

	_, err = s.Children("eg-nonexistent77")
	assert.ErrorIs(t, err, types.ErrUnknownItem)
}

func TestFilterScenario(t *testing.T) {
	_, s := newStore(t)

	mustCreate(t, s, "p0", 0, "infra")
	mustCreate(t, s, "p1", 1, "infra")
	mustCreate(t, s, "p2", 2)
	mustCreate(t, s, "p3", 3, "docs")
	mustCreate(t, s, "p4", 4)

	maxPriority := 1
	items, err := s.List(types.Filter{
		Statuses:    []types.Status{types.StatusOpen},
		MaxPriority: &maxPriority,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p0", items[0].Title)
	assert.Equal(t, "p1", items[1].Title)
}

func TestReplayEquivalence(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Init(root))
	s, err := Open(root)
	require.NoError(t, err)

	a := mustCreate(t, s, "a", 1, "x")
	b := mustCreate(t, s, "b", 2)
	c := mustCreate(t, s, "c", 3)
	_, err = s.AddEdge(b.ID, a.ID, types.EdgeBlocks)
	require.NoError(t, err)
	_, err = s.AddEdge(c.ID, a.ID, types.EdgeChild)
	require.NoError(t, err)
	_, err = s.CloseItem(c.ID, nil)
	require.NoError(t, err)
	require.NoError(t, s.RemoveEdge(c.ID, a.ID, types.EdgeChild))

	before, err := s.List(types.Filter{})
	require.NoError(t, err)
	readyBefore, err := s.Ready()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// A fresh session rebuilt from the logs observes identical state.
	s, err = Open(root)
	require.NoError(t, err)
	defer s.Close()

	after, err := s.List(types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)

	readyAfter, err := s.Ready()
	require.NoError(t, err)
	assert.Equal(t, ids(readyBefore), ids(readyAfter))

	parents, err := s.Parents(c.ID)
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestBatchCreateMany(t *testing.T) {
	_, s := newStore(t)

	created, failures := s.CreateMany([]CreateSpec{
		{Title: "first", Priority: 1},
		{Title: "", Priority: 2},
		{Title: "third", Priority: 6},
		{Title: "fourth", Priority: 2, Labels: []string{"batch"}},
	})

	require.Len(t, created, 2)
	assert.Equal(t, "first", created[0].Title)
	assert.Equal(t, "fourth", created[1].Title)

	require.Len(t, failures, 2)
	assert.Equal(t, 1, failures[0].Index)
	assert.ErrorIs(t, failures[0], types.ErrInvalidTitle)
	assert.Equal(t, 2, failures[1].Index)
	assert.ErrorIs(t, failures[1], types.ErrInvalidPriority)
}

func TestBatchCloseMany(t *testing.T) {
	_, s := newStore(t)
	a := mustCreate(t, s, "a", 2)
	b := mustCreate(t, s, "b", 2)

	reason := "batch done"
	closed, failures := s.CloseMany([]string{a.ID, "eg-nonexistent77", b.ID}, &reason)

	require.Len(t, closed, 2)
	assert.Equal(t, types.StatusClosed, closed[0].Status)
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.ErrorIs(t, failures[0], types.ErrUnknownItem)
}

func TestItemBuilder(t *testing.T) {
	_, s := newStore(t)

	item, err := s.NewItem("built item").
		Description("from the builder").
		Priority(1).
		Label("a").
		Labels("b", "a").
		Create()
	require.NoError(t, err)

	assert.Equal(t, "built item", item.Title)
	assert.Equal(t, "from the builder", *item.Description)
	assert.Equal(t, 1, item.Priority)
	assert.Equal(t, []string{"a", "b"}, item.Labels)
}
