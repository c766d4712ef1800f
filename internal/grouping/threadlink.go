package grouping

import "github.com/nixo/fdebot/internal/models"

// ThreadLinker resolves a message's thread identifier to an existing
// ticket with a single indexed lookup. The authoritative cheap path: a
// reply in a known thread never goes through similarity matching.
type ThreadLinker struct {
	store Store
}

// NewThreadLinker creates a linker over the store.
func NewThreadLinker(store Store) *ThreadLinker {
	return &ThreadLinker{store: store}
}

// Link returns the ticket owning the message whose slack timestamp equals
// threadTS. A missing or unknown thread id returns nil, nil; that is "no
// link", not an error.
func (l *ThreadLinker) Link(threadTS string) (*models.Ticket, error) {
	if threadTS == "" {
		return nil, nil
	}
	msg, err := l.store.MessageByTimestamp(threadTS)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.Ticket == nil {
		return nil, nil
	}
	return msg.Ticket, nil
}
