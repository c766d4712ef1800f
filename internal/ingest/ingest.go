// Package ingest runs the per-message pipeline: re-delivery check,
// classification, grouping, notification.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/nixo/fdebot/internal/ai"
	"github.com/nixo/fdebot/internal/grouping"
	"github.com/nixo/fdebot/internal/notify"
)

// Event is one inbound Slack message, already unwrapped from the Events
// API envelope.
type Event struct {
	Text        string
	User        string
	Channel     string
	ChannelType string
	Timestamp   string
	ThreadTS    string
	BotID       string
}

// Deduper answers whether a slack timestamp has already been stored.
// *store.Store satisfies it.
type Deduper interface {
	ExistsByTimestamp(ts string) (bool, error)
}

// Processor wires the collaborators around the grouping engine.
type Processor struct {
	store      Deduper
	classifier ai.Service
	engine     *grouping.Engine
	hub        *notify.Hub
}

// New creates a Processor. hub may be nil when no one listens for events.
func New(store Deduper, classifier ai.Service, engine *grouping.Engine, hub *notify.Hub) *Processor {
	return &Processor{store: store, classifier: classifier, engine: engine, hub: hub}
}

// Process handles one event end to end. Messages that should be ignored
// (bot echoes, re-deliveries, irrelevant chatter) return nil; only store
// failures surface as errors. Processing is at-most-once: the caller logs
// a returned error and drops the event, never retries.
func (p *Processor) Process(ctx context.Context, ev Event) error {
	if ev.BotID != "" || ev.Text == "" {
		return nil
	}
	if ev.Timestamp == "" {
		return fmt.Errorf("ingest: event has no timestamp")
	}

	seen, err := p.store.ExistsByTimestamp(ev.Timestamp)
	if err != nil {
		return err
	}
	if seen {
		log.Printf("ingest: message %s already processed", ev.Timestamp)
		return nil
	}

	classification, err := p.classifier.Classify(ctx, ev.Text)
	if err != nil {
		// Classifier failure reads as irrelevant; the message is dropped.
		log.Printf("ingest: classify failed, dropping message %s: %v", ev.Timestamp, err)
		return nil
	}
	if !classification.Relevant {
		return nil
	}

	result, err := p.engine.Process(ctx, grouping.Inbound{
		Text:           ev.Text,
		ThreadTS:       ev.ThreadTS,
		Sender:         ev.User,
		Channel:        ev.Channel,
		ChannelType:    ev.ChannelType,
		SlackTimestamp: ev.Timestamp,
		Category:       classification.Category,
		Title:          classification.Title,
	})
	if err != nil {
		return fmt.Errorf("ingest: group message %s: %w", ev.Timestamp, err)
	}

	log.Printf("ingest: message %s -> ticket %d (%s, absorbed=%t)",
		ev.Timestamp, result.Ticket.ID, result.Outcome, result.Absorbed)

	p.publish(result)
	return nil
}

// publish emits a created/updated event for dashboard streams.
func (p *Processor) publish(result *grouping.Result) {
	if p.hub == nil {
		return
	}
	ev := notify.Event{
		Type:     notify.TicketUpdated,
		Ticket:   result.Ticket,
		Absorbed: result.Absorbed,
	}
	if result.Outcome == grouping.OutcomeCreated {
		ev.Type = notify.TicketCreated
	}
	p.hub.Publish(ev)
}
