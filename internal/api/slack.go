package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nixo/fdebot/internal/ingest"
	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// handleSlackEvents terminates the Slack Events API webhook: verifies the
// request signature, answers URL verification challenges, and hands
// message events to the processor. Slack requires an ack within 3 seconds,
// so processing runs on its own goroutine and the handler returns
// immediately.
func handleSlackEvents(processor *ingest.Processor, signingSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		if signingSecret != "" {
			verifier, err := slackapi.NewSecretsVerifier(c.Request.Header, signingSecret)
			if err != nil {
				c.Status(http.StatusBadRequest)
				return
			}
			if _, err := verifier.Write(body); err != nil {
				c.Status(http.StatusInternalServerError)
				return
			}
			if err := verifier.Ensure(); err != nil {
				c.Status(http.StatusUnauthorized)
				return
			}
		}

		event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		switch event.Type {
		case slackevents.URLVerification:
			var challenge slackevents.ChallengeResponse
			if err := json.Unmarshal(body, &challenge); err != nil {
				c.Status(http.StatusBadRequest)
				return
			}
			c.JSON(http.StatusOK, gin.H{"challenge": challenge.Challenge})

		case slackevents.CallbackEvent:
			if ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
				dispatchMessage(processor, ev)
			}
			c.Status(http.StatusOK)

		default:
			log.Printf("api: unknown slack event type %q", event.Type)
			c.Status(http.StatusOK)
		}
	}
}

// dispatchMessage maps the Slack event and runs the pipeline off the
// request goroutine. Edits, deletes and other subtypes are skipped; bot
// messages are filtered again downstream.
func dispatchMessage(processor *ingest.Processor, ev *slackevents.MessageEvent) {
	if ev.SubType != "" {
		return
	}

	msg := ingest.Event{
		Text:        ev.Text,
		User:        ev.User,
		Channel:     ev.Channel,
		ChannelType: ev.ChannelType,
		Timestamp:   ev.TimeStamp,
		ThreadTS:    ev.ThreadTimeStamp,
		BotID:       ev.BotID,
	}

	go func() {
		if err := processor.Process(context.Background(), msg); err != nil {
			log.Printf("api: process slack event %s: %v", msg.Timestamp, err)
		}
	}()
}
