package grouping

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nixo/fdebot/internal/models"
)

// Store is the persistence contract the engine consumes. *store.Store
// satisfies it.
type Store interface {
	MessageByTimestamp(ts string) (*models.Message, error)
	MessagesWithEmbeddingsSince(since time.Time) ([]models.Message, error)
	MessagesByTicket(ticketID uint) ([]models.Message, error)
	CreateTicket(t *models.Ticket) error
	SaveTicket(t *models.Ticket) error
	CreateMessage(m *models.Message) error
}

// Outcome says how the engine resolved a message to a ticket.
type Outcome string

const (
	// OutcomeLinked means the message's thread id pointed at an existing
	// ticket.
	OutcomeLinked Outcome = "linked"
	// OutcomeMatched means embedding similarity found an existing ticket.
	OutcomeMatched Outcome = "matched"
	// OutcomeCreated means no existing ticket matched and a new one was
	// created.
	OutcomeCreated Outcome = "created"
)

// Result is the engine's decision for one message. When Absorbed is true
// the text duplicated an existing message: the ticket's UpdatedAt moved
// but no Message was appended, and Message is nil. Callers should suppress
// outward notifications of new content for absorbed results.
type Result struct {
	Ticket   *models.Ticket
	Message  *models.Message
	Outcome  Outcome
	Absorbed bool
}

// Inbound is one classified message entering the engine.
type Inbound struct {
	Text           string
	ThreadTS       string
	Sender         string
	Channel        string
	ChannelType    string
	SlackTimestamp string
	Category       string
	Title          string
}

// Engine groups incoming messages into tickets: thread linkage first, then
// embedding similarity, then ticket creation; duplicates are absorbed
// silently. Safe for concurrent use; the caches tolerate racing misses.
type Engine struct {
	store   Store
	linker  *ThreadLinker
	embeds  *TextEmbeddingCache
	matcher Matcher
	window  time.Duration
}

// NewEngine creates an Engine. window bounds the similarity candidate
// scan; zero means 24 hours.
func NewEngine(store Store, embeds *TextEmbeddingCache, matcher Matcher, window time.Duration) *Engine {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Engine{
		store:   store,
		linker:  NewThreadLinker(store),
		embeds:  embeds,
		matcher: matcher,
		window:  window,
	}
}

// Process runs the grouping decision for one message. Each message is
// processed exactly once per delivery; there is no retry state.
func (e *Engine) Process(ctx context.Context, in Inbound) (*Result, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("grouping: text is required")
	}
	if in.SlackTimestamp == "" {
		return nil, fmt.Errorf("grouping: slack timestamp is required")
	}

	var (
		ticket    *models.Ticket
		embedding []float64
		outcome   Outcome
	)

	// Fast path: a reply in a known thread is definitionally part of the
	// same issue. No similarity computation on this path.
	if in.ThreadTS != "" {
		linked, err := e.linker.Link(in.ThreadTS)
		if err != nil {
			return nil, err
		}
		if linked != nil {
			ticket = linked
			outcome = OutcomeLinked
		}
	}

	// Slow path: embed and scan recent candidates in the same category.
	if ticket == nil {
		embedding = e.embeds.Resolve(ctx, in.Text)

		if len(embedding) > 0 {
			candidates, err := e.store.MessagesWithEmbeddingsSince(time.Now().UTC().Add(-e.window))
			if err != nil {
				return nil, err
			}
			if match := e.matcher.FindMatch(embedding, in.Category, candidates); match != nil {
				ticket = match
				outcome = OutcomeMatched
			}
		}

		if ticket == nil {
			ticket = &models.Ticket{
				Title:    ticketTitle(in),
				Category: strings.ToUpper(in.Category),
				Status:   models.StatusOpen,
			}
			if err := e.store.CreateTicket(ticket); err != nil {
				return nil, err
			}
			outcome = OutcomeCreated
		}
	}

	// Dedup: identical text on the resolved ticket is absorbed without a
	// new message row.
	existing, err := e.store.MessagesByTicket(ticket.ID)
	if err != nil {
		return nil, err
	}
	if IsDuplicate(existing, in.Text) {
		ticket.UpdatedAt = time.Now().UTC()
		if err := e.store.SaveTicket(ticket); err != nil {
			return nil, err
		}
		return &Result{Ticket: ticket, Outcome: outcome, Absorbed: true}, nil
	}

	msg := &models.Message{
		TicketID:       ticket.ID,
		Text:           in.Text,
		Sender:         in.Sender,
		Channel:        in.Channel,
		ChannelType:    in.ChannelType,
		SlackTimestamp: in.SlackTimestamp,
		ThreadTS:       in.ThreadTS,
		Embedding:      encodeVector(embedding),
		EventTime:      EventTime(in.SlackTimestamp),
	}
	if err := e.store.CreateMessage(msg); err != nil {
		return nil, err
	}

	ticket.UpdatedAt = time.Now().UTC()
	if err := e.store.SaveTicket(ticket); err != nil {
		return nil, err
	}

	return &Result{Ticket: ticket, Message: msg, Outcome: outcome}, nil
}

// IsDuplicate reports whether text matches any existing message under
// case-insensitive, whitespace-trimmed comparison.
func IsDuplicate(messages []models.Message, text string) bool {
	trimmed := strings.TrimSpace(text)
	for i := range messages {
		if strings.EqualFold(strings.TrimSpace(messages[i].Text), trimmed) {
			return true
		}
	}
	return false
}

// EventTime derives a message's event time from the epoch-seconds prefix
// of a Slack timestamp ("1700000000.123456"), falling back to now.
func EventTime(slackTS string) time.Time {
	secs, _, _ := strings.Cut(slackTS, ".")
	n, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(n, 0).UTC()
}

// ticketTitle falls back to a trimmed slice of the message text when the
// classifier produced no title.
func ticketTitle(in Inbound) string {
	if in.Title != "" {
		return in.Title
	}
	title := strings.TrimSpace(in.Text)
	if len(title) > 80 {
		title = title[:80]
	}
	return title
}

// encodeVector serializes a vector for the embedding column; empty vectors
// store as the empty string so the candidate query can exclude them.
func encodeVector(vec []float64) string {
	if len(vec) == 0 {
		return ""
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return ""
	}
	return string(data)
}
