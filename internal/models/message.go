package models

import "time"

// Message is a single Slack message attached to a ticket. SlackTimestamp is
// the Slack event's ts value, globally unique per source event; the unique
// index is what rejects webhook re-deliveries under concurrency.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketID       uint      `gorm:"not null;index" json:"ticket_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	Sender         string    `gorm:"size:50;not null" json:"sender"`
	Channel        string    `gorm:"size:50;not null;index" json:"channel"`
	ChannelType    string    `gorm:"size:50" json:"channel_type"`
	SlackTimestamp string    `gorm:"size:50;uniqueIndex" json:"slack_timestamp"`
	ThreadTS       string    `gorm:"size:50;index" json:"thread_ts,omitempty"`
	Embedding      string    `gorm:"type:text" json:"-"`
	EventTime      time.Time `gorm:"not null;index" json:"event_time"`
	CreatedAt      time.Time `json:"created_at"`

	Ticket *Ticket `gorm:"foreignKey:TicketID" json:"-"`
}

// HasEmbedding reports whether the message carries a serialized vector.
func (m *Message) HasEmbedding() bool {
	return m.Embedding != ""
}
