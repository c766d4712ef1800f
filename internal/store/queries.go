package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nixo/fdebot/internal/models"
	"gorm.io/gorm"
)

// Stats holds ticket counts for the stats endpoint.
type Stats struct {
	Total int64 `json:"total"`
	Open  int64 `json:"open"`
}

// Tickets returns all tickets ordered by most recently updated.
func (s *Store) Tickets() ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Order("updated_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("store: list tickets: %w", err)
	}
	return tickets, nil
}

// TicketWithMessages returns a ticket and its messages in arrival order,
// or nil if it does not exist.
func (s *Store) TicketWithMessages(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("messages.id ASC")
	}).First(&ticket, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: ticket %d: %w", id, err)
	}
	return &ticket, nil
}

// TicketsByStatus returns tickets with the given status, newest first.
func (s *Store) TicketsByStatus(status string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Where("status = ?", strings.ToUpper(status)).
		Order("updated_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("store: tickets by status %s: %w", status, err)
	}
	return tickets, nil
}

// TicketsByCategory returns tickets in the given category, newest first.
func (s *Store) TicketsByCategory(category string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.Where("category = ?", strings.ToUpper(category)).
		Order("updated_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("store: tickets by category %s: %w", category, err)
	}
	return tickets, nil
}

// UpdateTicketStatus sets a ticket's status and returns the updated row,
// or nil if the ticket does not exist.
func (s *Store) UpdateTicketStatus(id uint, status string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.First(&ticket, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: ticket %d: %w", id, err)
	}
	ticket.Status = strings.ToUpper(status)
	if err := s.db.Save(&ticket).Error; err != nil {
		return nil, fmt.Errorf("store: update ticket %d status: %w", id, err)
	}
	return &ticket, nil
}

// TicketStats returns total and open ticket counts.
func (s *Store) TicketStats() (Stats, error) {
	var stats Stats
	if err := s.db.Model(&models.Ticket{}).Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("store: count tickets: %w", err)
	}
	if err := s.db.Model(&models.Ticket{}).
		Where("status = ?", models.StatusOpen).Count(&stats.Open).Error; err != nil {
		return stats, fmt.Errorf("store: count open tickets: %w", err)
	}
	return stats, nil
}
