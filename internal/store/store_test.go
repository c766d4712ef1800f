package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/nixo/fdebot/internal/db"
	"github.com/nixo/fdebot/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	gormDB, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(gormDB)
}

func seedTicket(t *testing.T, s *Store, title, category, status string) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{Title: title, Category: category, Status: status}
	if err := s.CreateTicket(ticket); err != nil {
		t.Fatal(err)
	}
	return ticket
}

func seedMessage(t *testing.T, s *Store, ticketID uint, text, slackTS, embedding string, eventTime time.Time) *models.Message {
	t.Helper()
	msg := &models.Message{
		TicketID:       ticketID,
		Text:           text,
		Sender:         "U1",
		Channel:        "C1",
		SlackTimestamp: slackTS,
		Embedding:      embedding,
		EventTime:      eventTime,
	}
	if err := s.CreateMessage(msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestMessageByTimestamp(t *testing.T) {
	s := testStore(t)
	ticket := seedTicket(t, s, "Login bug", "BUG", models.StatusOpen)
	seedMessage(t, s, ticket.ID, "login broken", "100.1", "", time.Now().UTC())

	msg, err := s.MessageByTimestamp("100.1")
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil {
		t.Fatal("MessageByTimestamp returned nil for stored message")
	}
	if msg.Ticket == nil || msg.Ticket.ID != ticket.ID {
		t.Error("owning ticket should be preloaded")
	}
}

func TestMessageByTimestamp_Missing(t *testing.T) {
	s := testStore(t)
	msg, err := s.MessageByTimestamp("999.9")
	if err != nil {
		t.Fatal(err)
	}
	if msg != nil {
		t.Errorf("MessageByTimestamp = %+v, want nil", msg)
	}
}

func TestMessageByTimestamp_Empty(t *testing.T) {
	s := testStore(t)
	msg, err := s.MessageByTimestamp("")
	if err != nil || msg != nil {
		t.Errorf("empty timestamp: msg=%v err=%v, want nil, nil", msg, err)
	}
}

func TestExistsByTimestamp(t *testing.T) {
	s := testStore(t)
	ticket := seedTicket(t, s, "T", "BUG", models.StatusOpen)
	seedMessage(t, s, ticket.ID, "text", "100.2", "", time.Now().UTC())

	seen, err := s.ExistsByTimestamp("100.2")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("stored timestamp reported as unseen")
	}
	seen, err = s.ExistsByTimestamp("100.3")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("fresh timestamp reported as seen")
	}
}

func TestCreateMessage_DuplicateTimestampFails(t *testing.T) {
	s := testStore(t)
	ticket := seedTicket(t, s, "T", "BUG", models.StatusOpen)
	seedMessage(t, s, ticket.ID, "first", "100.4", "", time.Now().UTC())

	dup := &models.Message{
		TicketID:       ticket.ID,
		Text:           "second delivery",
		Sender:         "U2",
		Channel:        "C1",
		SlackTimestamp: "100.4",
		EventTime:      time.Now().UTC(),
	}
	if err := s.CreateMessage(dup); err == nil {
		t.Fatal("duplicate slack timestamp should violate the unique index")
	}
}

func TestMessagesWithEmbeddingsSince(t *testing.T) {
	s := testStore(t)
	ticket := seedTicket(t, s, "T", "BUG", models.StatusOpen)
	now := time.Now().UTC()

	seedMessage(t, s, ticket.ID, "recent embedded", "200.1", "[1,0]", now.Add(-time.Hour))
	seedMessage(t, s, ticket.ID, "recent plain", "200.2", "", now.Add(-time.Hour))
	seedMessage(t, s, ticket.ID, "stale embedded", "200.3", "[0,1]", now.Add(-48*time.Hour))

	msgs, err := s.MessagesWithEmbeddingsSince(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d candidates, want 1", len(msgs))
	}
	if msgs[0].Text != "recent embedded" {
		t.Errorf("candidate = %q", msgs[0].Text)
	}
	if msgs[0].Ticket == nil {
		t.Error("candidate ticket should be preloaded")
	}
}

func TestMessagesByTicket_Order(t *testing.T) {
	s := testStore(t)
	ticket := seedTicket(t, s, "T", "BUG", models.StatusOpen)
	for i := 0; i < 3; i++ {
		seedMessage(t, s, ticket.ID, fmt.Sprintf("msg %d", i),
			fmt.Sprintf("300.%d", i), "", time.Now().UTC())
	}

	msgs, err := s.MessagesByTicket(ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("msg %d", i); m.Text != want {
			t.Errorf("msgs[%d] = %q, want %q", i, m.Text, want)
		}
	}
}

func TestTickets_NewestFirst(t *testing.T) {
	s := testStore(t)
	older := seedTicket(t, s, "older", "BUG", models.StatusOpen)
	newer := seedTicket(t, s, "newer", "SUPPORT", models.StatusOpen)

	older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	newer.UpdatedAt = time.Now().UTC()
	if err := s.SaveTicket(older); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTicket(newer); err != nil {
		t.Fatal(err)
	}

	tickets, err := s.Tickets()
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 2 {
		t.Fatalf("got %d tickets, want 2", len(tickets))
	}
	if tickets[0].Title != "newer" {
		t.Errorf("first ticket = %q, want most recently updated", tickets[0].Title)
	}
}

func TestTicketWithMessages(t *testing.T) {
	s := testStore(t)
	ticket := seedTicket(t, s, "T", "BUG", models.StatusOpen)
	seedMessage(t, s, ticket.ID, "a", "400.1", "", time.Now().UTC())
	seedMessage(t, s, ticket.ID, "b", "400.2", "", time.Now().UTC())

	got, err := s.TicketWithMessages(ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("TicketWithMessages returned nil for existing ticket")
	}
	if got.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", got.MessageCount())
	}
	if got.Messages[0].Text != "a" || got.Messages[1].Text != "b" {
		t.Error("messages should preload in arrival order")
	}
}

func TestTicketWithMessages_Missing(t *testing.T) {
	s := testStore(t)
	got, err := s.TicketWithMessages(42)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("TicketWithMessages = %+v, want nil", got)
	}
}

func TestTicketsByStatus(t *testing.T) {
	s := testStore(t)
	seedTicket(t, s, "open one", "BUG", models.StatusOpen)
	seedTicket(t, s, "done one", "BUG", models.StatusResolved)

	open, err := s.TicketsByStatus("open")
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].Title != "open one" {
		t.Errorf("TicketsByStatus(open) = %+v", open)
	}
}

func TestTicketsByCategory(t *testing.T) {
	s := testStore(t)
	seedTicket(t, s, "bug", "BUG", models.StatusOpen)
	seedTicket(t, s, "feature", "FEATURE_REQUEST", models.StatusOpen)

	bugs, err := s.TicketsByCategory("bug")
	if err != nil {
		t.Fatal(err)
	}
	if len(bugs) != 1 || bugs[0].Title != "bug" {
		t.Errorf("TicketsByCategory(bug) = %+v", bugs)
	}
}

func TestUpdateTicketStatus(t *testing.T) {
	s := testStore(t)
	ticket := seedTicket(t, s, "T", "BUG", models.StatusOpen)

	updated, err := s.UpdateTicketStatus(ticket.ID, "resolved")
	if err != nil {
		t.Fatal(err)
	}
	if updated == nil || updated.Status != models.StatusResolved {
		t.Errorf("updated = %+v, want status RESOLVED", updated)
	}

	reloaded, err := s.TicketWithMessages(ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Status != models.StatusResolved {
		t.Errorf("persisted status = %s, want RESOLVED", reloaded.Status)
	}
}

func TestUpdateTicketStatus_Missing(t *testing.T) {
	s := testStore(t)
	updated, err := s.UpdateTicketStatus(42, "resolved")
	if err != nil {
		t.Fatal(err)
	}
	if updated != nil {
		t.Errorf("UpdateTicketStatus on missing id = %+v, want nil", updated)
	}
}

func TestTicketStats(t *testing.T) {
	s := testStore(t)
	seedTicket(t, s, "a", "BUG", models.StatusOpen)
	seedTicket(t, s, "b", "BUG", models.StatusOpen)
	seedTicket(t, s, "c", "BUG", models.StatusResolved)

	stats, err := s.TicketStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Open != 2 {
		t.Errorf("stats = %+v, want total 3 open 2", stats)
	}
}
