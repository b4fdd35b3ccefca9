package ident

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFormat(t *testing.T) {
	id := New("write the report", time.UnixMilli(1700000000000))

	assert.True(t, strings.HasPrefix(id, "eg-"))
	assert.Len(t, id, len("eg-")+13)
	for _, r := range id[len("eg-"):] {
		assert.Contains(t, "abcdefghijklmnopqrstuvwxyz234567", string(r))
	}
}

func TestNewDeterministic(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	assert.Equal(t, New("same title", at), New("same title", at))
	assert.NotEqual(t, New("same title", at), New("other title", at))
	assert.NotEqual(t, New("same title", at), New("same title", at.Add(time.Millisecond)))
}

func TestNewIgnoresSubMillisecond(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	assert.Equal(t, New("t", at), New("t", at.Add(100*time.Microsecond)))
}

func TestNewUniquePerturbsOnCollision(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	first := New("dup", at)

	taken := map[string]bool{first: true}
	id, createdAt := NewUnique("dup", at, func(candidate string) bool {
		return taken[candidate]
	})

	assert.NotEqual(t, first, id)
	assert.Equal(t, at.Add(time.Millisecond), createdAt)
	// The returned id must be derivable from the returned timestamp.
	assert.Equal(t, New("dup", createdAt), id)
}

func TestNewUniqueNoCollision(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	id, createdAt := NewUnique("free", at, func(string) bool { return false })

	assert.Equal(t, New("free", at), id)
	assert.Equal(t, at, createdAt)
}

func TestNewUniqueMultipleCollisions(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	taken := map[string]bool{
		New("busy", at):                         true,
		New("busy", at.Add(time.Millisecond)):   true,
		New("busy", at.Add(2*time.Millisecond)): true,
	}

	id, createdAt := NewUnique("busy", at, func(candidate string) bool {
		return taken[candidate]
	})
	assert.Equal(t, at.Add(3*time.Millisecond), createdAt)
	assert.Equal(t, New("busy", createdAt), id)
}
