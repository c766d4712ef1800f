// Package directory resolves Slack user and channel IDs to display names.
package directory

import (
	"strings"
	"sync"

	slackapi "github.com/slack-go/slack"
)

// fallbackUserName is shown when a user ID cannot be resolved.
const fallbackUserName = "Customer"

// slackClient abstracts the Slack Web API methods we use, enabling test
// mocks.
type slackClient interface {
	GetUserInfo(userID string) (*slackapi.User, error)
	GetConversationInfo(input *slackapi.GetConversationInfoInput) (*slackapi.Channel, error)
}

// Directory caches name lookups so rendering a ticket doesn't hammer the
// Slack API with one call per message.
type Directory struct {
	client slackClient

	mu    sync.RWMutex
	names map[string]string
}

// New creates a Directory over a Slack client. A nil client resolves
// nothing and returns fallbacks.
func New(client slackClient) *Directory {
	return &Directory{client: client, names: make(map[string]string)}
}

// NewFromToken creates a Directory backed by the real Slack Web API.
func NewFromToken(botToken string) *Directory {
	return New(slackapi.New(botToken))
}

// UserName resolves a Slack user ID to the user's real name, falling back
// to the display name and then to "Customer".
func (d *Directory) UserName(userID string) string {
	if userID == "" || d.client == nil {
		return fallbackUserName
	}
	if name, ok := d.cached(userID); ok {
		return name
	}

	user, err := d.client.GetUserInfo(userID)
	if err != nil || user == nil {
		return fallbackUserName
	}
	name := user.RealName
	if name == "" {
		name = user.Name
	}
	if name == "" {
		name = fallbackUserName
	}
	d.store(userID, name)
	return name
}

// ChannelName resolves a channel ID to "#name", falling back to the raw
// ID.
func (d *Directory) ChannelName(channelID string) string {
	if channelID == "" || d.client == nil {
		return channelID
	}
	if name, ok := d.cached(channelID); ok {
		return name
	}

	ch, err := d.client.GetConversationInfo(&slackapi.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil || ch == nil || ch.Name == "" {
		return channelID
	}
	name := "#" + ch.Name
	d.store(channelID, name)
	return name
}

// LooksLikeUserID reports whether id has Slack's user-ID shape.
func LooksLikeUserID(id string) bool {
	return strings.HasPrefix(id, "U") || strings.HasPrefix(id, "W")
}

// LooksLikeChannelID reports whether id has Slack's channel-ID shape.
func LooksLikeChannelID(id string) bool {
	return strings.HasPrefix(id, "C") || strings.HasPrefix(id, "G")
}

func (d *Directory) cached(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[id]
	return name, ok
}

func (d *Directory) store(id, name string) {
	d.mu.Lock()
	d.names[id] = name
	d.mu.Unlock()
}
