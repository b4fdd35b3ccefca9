package lock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/engram/pkg/types"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engram.lock")

	l, err := Acquire(path)
	require.NoError(t, err)

	require.NoError(t, l.Release())
	// Release is idempotent.
	require.NoError(t, l.Release())

	// Released locks can be retaken.
	l2, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestAcquireHeldLock(t *testing.T) {
	// flock is per file description, so a second open descriptor in the
	// same process contends like another process would.
	path := filepath.Join(t.TempDir(), "engram.lock")

	l, err := Acquire(path)
	require.NoError(t, err)
	defer l.Release()

	_, err = Acquire(path)
	assert.ErrorIs(t, err, types.ErrLocked)
}
