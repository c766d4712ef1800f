package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nixo/fdebot/internal/directory"
	"github.com/nixo/fdebot/internal/models"
	"github.com/nixo/fdebot/internal/store"
)

// ticketResponse is the API shape for a ticket.
type ticketResponse struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Category     string            `json:"category"`
	Status       string            `json:"status"`
	MessageCount int               `json:"message_count"`
	CustomerName string            `json:"customer_name,omitempty"`
	Channel      string            `json:"channel,omitempty"`
	Messages     []messageResponse `json:"messages,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// messageResponse is the API shape for a message.
type messageResponse struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Channel   string    `json:"channel"`
	EventTime time.Time `json:"event_time"`
	CreatedAt time.Time `json:"created_at"`
}

func toTicketResponse(t *models.Ticket) ticketResponse {
	return ticketResponse{
		ID:           t.ID,
		Title:        t.Title,
		Category:     t.Category,
		Status:       t.Status,
		MessageCount: t.MessageCount(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toTicketResponses(tickets []models.Ticket) []ticketResponse {
	out := make([]ticketResponse, len(tickets))
	for i := range tickets {
		out[i] = toTicketResponse(&tickets[i])
	}
	return out
}

func handleListTickets(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := s.Tickets()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, toTicketResponses(tickets))
	}
}

// handleGetTicket returns one ticket with its conversation history,
// resolving Slack IDs to display names when a directory is available.
func handleGetTicket(s *store.Store, dir *directory.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
			return
		}
		ticket, err := s.TicketWithMessages(uint(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if ticket == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}

		resp := toTicketResponse(ticket)
		resp.Messages = make([]messageResponse, len(ticket.Messages))
		for i := range ticket.Messages {
			m := &ticket.Messages[i]
			mr := messageResponse{
				ID:        m.ID,
				Text:      m.Text,
				Sender:    m.Sender,
				Channel:   m.Channel,
				EventTime: m.EventTime,
				CreatedAt: m.CreatedAt,
			}
			if dir != nil {
				if directory.LooksLikeUserID(m.Sender) {
					mr.Sender = dir.UserName(m.Sender)
				}
				if directory.LooksLikeChannelID(m.Channel) {
					mr.Channel = dir.ChannelName(m.Channel)
				}
			}
			resp.Messages[i] = mr
		}
		if len(ticket.Messages) > 0 && dir != nil {
			first := &ticket.Messages[0]
			resp.CustomerName = dir.UserName(first.Sender)
			resp.Channel = dir.ChannelName(first.Channel)
		}

		c.JSON(http.StatusOK, resp)
	}
}

func handleTicketsByStatus(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := s.TicketsByStatus(c.Param("status"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, toTicketResponses(tickets))
	}
}

func handleTicketsByCategory(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := s.TicketsByCategory(c.Param("category"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, toTicketResponses(tickets))
	}
}

func handleUpdateStatus(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
			return
		}
		status := c.Query("status")
		if status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		ticket, err := s.UpdateTicketStatus(uint(id), status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if ticket == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusOK, toTicketResponse(ticket))
	}
}

func handleStats(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := s.TicketStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
