// Package slack implements the messaging gateway: a hand-rolled client for
// the handful of Slack Web API methods the bridge needs.
package slack

import (
	"context"
	"fmt"

	"github.com/soyeahso/slackbridge/internal/domain"
)

// Message is an outbound Slack message.
type Message struct {
	Channel  string  // channel ID or "#name"
	Text     string  // fallback text for notifications
	Blocks   []Block // rich content; optional
	ThreadTS string  // parent message ts; empty posts to the channel
}

// Client is the messaging gateway interface. PostMessage returns the
// delivered message's ts, which doubles as a thread root for replies.
type Client interface {
	PostMessage(ctx context.Context, msg Message) (string, error)
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	History(ctx context.Context, channelID string, limit int, oldest, latest string) ([]domain.ChannelMessage, error)
}

// APIError is a Slack Web API level failure (ok: false in the envelope).
type APIError struct {
	Method string // e.g. "chat.postMessage"
	Code   string // Slack error code, e.g. "channel_not_found"
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack api %s: %s", e.Method, e.Code)
}
