package types

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Item statuses. An item starts Open and moves through these states during
// its lifecycle.
const (
	StatusOpen       = Status("open")
	StatusInProgress = Status("in_progress")
	StatusBlocked    = Status("blocked")
	StatusClosed     = Status("closed")
)

// Status is the lifecycle state of an item.
type Status string

// validStatuses is the set of recognized status values.
var validStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusBlocked:    true,
	StatusClosed:     true,
}

// ParseStatus converts a wire/CLI string into a Status.
// Returns ErrInvalidStatus for unrecognized values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// CanTransitionTo reports whether the status machine allows moving from s
// to target. Closed items can only be reopened; setting the current status
// again is an idempotent no-op and always allowed.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked:
		return validStatuses[target]
	case StatusClosed:
		return target == StatusOpen
	}
	return false
}

// Field limits for Item validation.
const (
	MaxTitleLen       = 500
	MaxLabelLen       = 64
	MaxDescriptionLen = 65536
	MaxPriority       = 4
)

// Item is the unit of work in an Engram store.
type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Priority    int        `json:"priority"`
	Labels      []string   `json:"labels"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	CloseReason *string    `json:"close_reason"`
}

// Validate checks the item's fields against the store limits. It returns a
// sentinel error from this package on the first violation.
func (i *Item) Validate() error {
	if err := ValidateTitle(i.Title); err != nil {
		return err
	}
	if i.Priority < 0 || i.Priority > MaxPriority {
		return ErrInvalidPriority
	}
	for _, label := range i.Labels {
		if err := ValidateLabel(label); err != nil {
			return err
		}
	}
	if i.Description != nil && utf8.RuneCountInString(*i.Description) > MaxDescriptionLen {
		return ErrInvalidDescription
	}
	if (i.ClosedAt != nil) != (i.Status == StatusClosed) {
		return ErrInvalidTransition
	}
	return nil
}

// ValidateTitle enforces 1..500 code points and no control characters.
// Spaces are fine; tabs and newlines are not.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 || n > MaxTitleLen {
		return ErrInvalidTitle
	}
	for _, r := range title {
		if unicode.IsControl(r) {
			return ErrInvalidTitle
		}
	}
	return nil
}

// ValidateLabel enforces 1..64 code points, no control characters, no
// commas, and at least one non-whitespace character.
func ValidateLabel(label string) error {
	n := utf8.RuneCountInString(label)
	if n == 0 || n > MaxLabelLen {
		return ErrInvalidLabel
	}
	if strings.TrimSpace(label) == "" {
		return ErrInvalidLabel
	}
	for _, r := range label {
		if unicode.IsControl(r) || r == ',' {
			return ErrInvalidLabel
		}
	}
	return nil
}

// NormalizeLabels collapses duplicate labels to the first occurrence,
// preserving order. A nil or empty input yields an empty, non-nil slice so
// items always serialize labels as an array.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// NowUTC returns the current time in UTC truncated to millisecond
// resolution, the precision stored in the log.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
