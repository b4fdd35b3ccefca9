package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "open to in_progress", from: StatusOpen, to: StatusInProgress, allowed: true},
		{name: "open to blocked", from: StatusOpen, to: StatusBlocked, allowed: true},
		{name: "open to closed", from: StatusOpen, to: StatusClosed, allowed: true},
		{name: "in_progress to closed", from: StatusInProgress, to: StatusClosed, allowed: true},
		{name: "blocked to in_progress", from: StatusBlocked, to: StatusInProgress, allowed: true},
		{name: "closed to open", from: StatusClosed, to: StatusOpen, allowed: true},
		{name: "closed to in_progress", from: StatusClosed, to: StatusInProgress, allowed: false},
		{name: "closed to blocked", from: StatusClosed, to: StatusBlocked, allowed: false},
		{name: "same status is idempotent", from: StatusClosed, to: StatusClosed, allowed: true},
		{name: "open to open", from: StatusOpen, to: StatusOpen, allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("in_progress")
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)

	_, err = ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseStatus("Open")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParseEdgeKind(t *testing.T) {
	kind, err := ParseEdgeKind("blocks")
	assert.NoError(t, err)
	assert.Equal(t, EdgeBlocks, kind)
	assert.True(t, kind.Blocking())

	kind, err = ParseEdgeKind("child")
	assert.NoError(t, err)
	assert.False(t, kind.Blocking())

	_, err = ParseEdgeKind("depends")
	assert.ErrorIs(t, err, ErrInvalidEdgeKind)
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{name: "simple title", title: "fix the parser"},
		{name: "unicode title", title: "résumé überarbeiten"},
		{name: "max length", title: strings.Repeat("x", 500)},
		{name: "empty", title: "", wantErr: ErrInvalidTitle},
		{name: "too long", title: strings.Repeat("x", 501), wantErr: ErrInvalidTitle},
		{name: "embedded newline", title: "line one\nline two", wantErr: ErrInvalidTitle},
		{name: "embedded tab", title: "a\tb", wantErr: ErrInvalidTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr error
	}{
		{name: "simple label", label: "backend"},
		{name: "max length", label: strings.Repeat("y", 64)},
		{name: "empty", label: "", wantErr: ErrInvalidLabel},
		{name: "too long", label: strings.Repeat("y", 65), wantErr: ErrInvalidLabel},
		{name: "comma", label: "a,b", wantErr: ErrInvalidLabel},
		{name: "control character", label: "a\x01b", wantErr: ErrInvalidLabel},
		{name: "whitespace only", label: "   ", wantErr: ErrInvalidLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.label)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestItemValidate(t *testing.T) {
	valid := func() *Item {
		return &Item{
			ID:        "eg-abcdefghijklm",
			Title:     "a task",
			Status:    StatusOpen,
			Priority:  2,
			Labels:    []string{"one", "two"},
			CreatedAt: NowUTC(),
			UpdatedAt: NowUTC(),
		}
	}

	assert.NoError(t, valid().Validate())

	item := valid()
	item.Priority = 5
	assert.ErrorIs(t, item.Validate(), ErrInvalidPriority)

	item = valid()
	item.Priority = -1
	assert.ErrorIs(t, item.Validate(), ErrInvalidPriority)

	item = valid()
	long := strings.Repeat("d", MaxDescriptionLen+1)
	item.Description = &long
	assert.ErrorIs(t, item.Validate(), ErrInvalidDescription)

	item = valid()
	ok := strings.Repeat("d", 10000)
	item.Description = &ok
	assert.NoError(t, item.Validate())

	// closed_at must be present exactly when the status is closed.
	item = valid()
	now := time.Now().UTC()
	item.ClosedAt = &now
	assert.ErrorIs(t, item.Validate(), ErrInvalidTransition)

	item = valid()
	item.Status = StatusClosed
	assert.ErrorIs(t, item.Validate(), ErrInvalidTransition)

	item = valid()
	item.Status = StatusClosed
	item.ClosedAt = &now
	assert.NoError(t, item.Validate())
}

func TestNormalizeLabels(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeLabels(nil))
	assert.Equal(t, []string{"a", "b"}, NormalizeLabels([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, NormalizeLabels([]string{"a", "b", "a", "b", "a"}))
	assert.Equal(t, []string{"b", "a"}, NormalizeLabels([]string{"b", "a", "b"}))
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(ErrInvalidTitle))
	assert.True(t, IsUserError(ErrUnknownItem))
	assert.True(t, IsUserError(ErrWouldCreateCycle))
	assert.False(t, IsUserError(ErrLocked))
	assert.False(t, IsUserError(ErrCorrupted))
	assert.False(t, IsUserError(ErrDaemonUnreachable))
}

func TestNowUTCMillisecondPrecision(t *testing.T) {
	now := NowUTC()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Millisecond))
}
