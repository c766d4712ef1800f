// Package models defines the GORM data model for tickets and their
// messages.
package models

import "time"

// Ticket categories assigned by the classifier.
const (
	CategoryBug      = "BUG"
	CategoryFeature  = "FEATURE_REQUEST"
	CategorySupport  = "SUPPORT"
	CategoryQuestion = "QUESTION"
	CategoryNone     = "NONE"
)

// Ticket statuses.
const (
	StatusOpen     = "OPEN"
	StatusResolved = "RESOLVED"
)

// Ticket is a grouped customer issue. UpdatedAt moves on every attach,
// including absorbed duplicates, so it doubles as last-activity time.
type Ticket struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"size:500;not null" json:"title"`
	Category  string    `gorm:"size:50;not null;index" json:"category"`
	Status    string    `gorm:"size:20;not null;default:OPEN;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
}

// MessageCount returns the number of loaded messages. It is only
// meaningful when Messages has been preloaded.
func (t *Ticket) MessageCount() int {
	return len(t.Messages)
}
