// Package store provides ticket and message persistence over GORM.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/nixo/fdebot/internal/models"
	"gorm.io/gorm"
)

// Store wraps a GORM database with the queries fdebot needs. The grouping
// engine consumes a narrow interface over this; the API handlers use the
// rest.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an open GORM database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// MessageByTimestamp returns the message whose slack_timestamp equals ts,
// with its owning ticket preloaded, or nil if none exists.
func (s *Store) MessageByTimestamp(ts string) (*models.Message, error) {
	if ts == "" {
		return nil, nil
	}
	var msg models.Message
	err := s.db.Preload("Ticket").Where("slack_timestamp = ?", ts).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: message by timestamp %s: %w", ts, err)
	}
	return &msg, nil
}

// ExistsByTimestamp reports whether a message with the given slack
// timestamp has already been stored.
func (s *Store) ExistsByTimestamp(ts string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Message{}).
		Where("slack_timestamp = ?", ts).Count(&count).Error; err != nil {
		return false, fmt.Errorf("store: exists by timestamp %s: %w", ts, err)
	}
	return count > 0, nil
}

// MessagesWithEmbeddingsSince returns messages newer than since that carry
// an embedding, each with its owning ticket preloaded. This is the
// similarity matcher's candidate set.
func (s *Store) MessagesWithEmbeddingsSince(since time.Time) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.Preload("Ticket").
		Where("event_time >= ? AND embedding IS NOT NULL AND embedding != ''", since).
		Order("event_time ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: messages with embeddings since %s: %w", since.Format(time.RFC3339), err)
	}
	return msgs, nil
}

// MessagesByTicket returns a ticket's messages in arrival order.
func (s *Store) MessagesByTicket(ticketID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.Where("ticket_id = ?", ticketID).
		Order("id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: messages for ticket %d: %w", ticketID, err)
	}
	return msgs, nil
}

// CreateTicket inserts a new ticket.
func (s *Store) CreateTicket(t *models.Ticket) error {
	if err := s.db.Create(t).Error; err != nil {
		return fmt.Errorf("store: create ticket: %w", err)
	}
	return nil
}

// SaveTicket persists updates to an existing ticket.
func (s *Store) SaveTicket(t *models.Ticket) error {
	if err := s.db.Save(t).Error; err != nil {
		return fmt.Errorf("store: save ticket %d: %w", t.ID, err)
	}
	return nil
}

// CreateMessage inserts a new message. The unique index on slack_timestamp
// makes concurrent re-delivery of the same event fail here rather than
// silently duplicate.
func (s *Store) CreateMessage(m *models.Message) error {
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("store: create message %s: %w", m.SlackTimestamp, err)
	}
	return nil
}
