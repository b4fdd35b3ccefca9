package engram

import "github.com/mesh-intelligence/engram/pkg/types"

// ItemBuilder accumulates the fields of one item and creates it in a
// single call. Validation happens at Create, not while building.
type ItemBuilder struct {
	session     *Session
	title       string
	description *string
	priority    int
	labels      []string
}

// NewItem starts building an item with the given title.
func (s *Session) NewItem(title string) *ItemBuilder {
	return &ItemBuilder{session: s, title: title}
}

// Description sets the item description.
func (b *ItemBuilder) Description(desc string) *ItemBuilder {
	b.description = &desc
	return b
}

// Priority sets the item priority.
func (b *ItemBuilder) Priority(p int) *ItemBuilder {
	b.priority = p
	return b
}

// Label appends one label. Duplicates collapse at creation.
func (b *ItemBuilder) Label(label string) *ItemBuilder {
	b.labels = append(b.labels, label)
	return b
}

// Labels appends several labels.
func (b *ItemBuilder) Labels(labels ...string) *ItemBuilder {
	b.labels = append(b.labels, labels...)
	return b
}

// Create validates and persists the item.
func (b *ItemBuilder) Create() (*types.Item, error) {
	return b.session.Create(b.title, b.description, b.priority, b.labels)
}
