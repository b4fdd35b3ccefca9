package types

// Filter narrows the result set of a list query. Zero values mean "no
// constraint". Results are always ordered by ascending priority, then
// ascending creation time.
type Filter struct {
	// Statuses restricts results to items in any of the given statuses.
	Statuses []Status `json:"statuses,omitempty"`

	// MinPriority / MaxPriority bound the priority range inclusively.
	MinPriority *int `json:"min_priority,omitempty"`
	MaxPriority *int `json:"max_priority,omitempty"`

	// Label requires the item to carry this label.
	Label string `json:"label,omitempty"`

	// TitleContains requires the title to contain this substring,
	// case-insensitively.
	TitleContains string `json:"title_contains,omitempty"`

	// Limit caps the number of results; 0 means unlimited.
	Limit int `json:"limit,omitempty"`

	// Offset skips the first N results.
	Offset int `json:"offset,omitempty"`
}

// WithStatus returns a copy of the filter restricted to one status.
func (f Filter) WithStatus(s Status) Filter {
	f.Statuses = []Status{s}
	return f
}

// UpdateFields carries a partial item update. Nil fields are left
// unchanged; a nil Labels slice keeps the current labels while an empty
// one clears them.
type UpdateFields struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u UpdateFields) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.Labels == nil
}
