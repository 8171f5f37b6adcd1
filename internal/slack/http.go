package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/slackbridge/internal/domain"
	"github.com/soyeahso/slackbridge/internal/logging"
)

const defaultBaseURL = "https://slack.com/api"

// HTTPClient talks to the Slack Web API over HTTPS.
type HTTPClient struct {
	token   string
	baseURL string
	client  *http.Client
	log     *logging.Logger

	mu    sync.Mutex
	users map[string]string // user ID -> display name cache
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *HTTPClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// NewHTTPClient creates a Slack Web API client using the given bot token.
func NewHTTPClient(token string, log *logging.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.Sub("slack"),
		users:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common Slack API response wrapper.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PostMessage posts a message, optionally as a thread reply, and returns
// the delivered message's ts.
func (c *HTTPClient) PostMessage(ctx context.Context, msg Message) (string, error) {
	payload := map[string]any{
		"channel":      normalizeChannel(msg.Channel),
		"text":         msg.Text,
		"unfurl_links": false,
		"unfurl_media": false,
	}
	if blocks := MarshalBlocks(msg.Blocks); blocks != nil {
		payload["blocks"] = blocks
	}
	if msg.ThreadTS != "" {
		payload["thread_ts"] = msg.ThreadTS
	}

	var resp struct {
		envelope
		TS string `json:"ts"`
	}
	if err := c.postJSON(ctx, "chat.postMessage", payload, &resp); err != nil {
		return "", err
	}

	c.log.Debug().Str("channel", msg.Channel).Str("ts", resp.TS).Msg("message posted")
	return resp.TS, nil
}

// ListChannels returns all public and private channels the bot can see.
func (c *HTTPClient) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	var resp struct {
		envelope
		Channels []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			IsPrivate  bool   `json:"is_private"`
			NumMembers int    `json:"num_members"`
		} `json:"channels"`
	}

	params := url.Values{"types": {"public_channel,private_channel"}}
	if err := c.get(ctx, "conversations.list", params, &resp); err != nil {
		return nil, err
	}

	channels := make([]domain.Channel, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		channels = append(channels, domain.Channel{
			ID:          ch.ID,
			Name:        ch.Name,
			IsPrivate:   ch.IsPrivate,
			MemberCount: ch.NumMembers,
		})
	}
	return channels, nil
}

// History fetches up to limit messages from a channel, oldest first.
// The channel may be given by ID or as "#name".
func (c *HTTPClient) History(ctx context.Context, channelID string, limit int, oldest, latest string) ([]domain.ChannelMessage, error) {
	id, err := c.resolveChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	params := url.Values{
		"channel": {id},
		"limit":   {strconv.Itoa(limit)},
	}
	if oldest != "" {
		params.Set("oldest", oldest)
	}
	if latest != "" {
		params.Set("latest", latest)
	}

	var resp struct {
		envelope
		Messages []struct {
			User  string `json:"user"`
			Text  string `json:"text"`
			TS    string `json:"ts"`
			Files []any  `json:"files,omitempty"`
		} `json:"messages"`
	}
	if err := c.get(ctx, "conversations.history", params, &resp); err != nil {
		return nil, err
	}

	// Slack returns newest first; flip to chronological order.
	out := make([]domain.ChannelMessage, 0, len(resp.Messages))
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		m := resp.Messages[i]
		if m.User == "" || m.Text == "" {
			continue
		}
		out = append(out, domain.ChannelMessage{
			Author:         c.userName(ctx, m.User),
			Text:           m.Text,
			Timestamp:      m.TS,
			When:           formatTS(m.TS),
			HasAttachments: len(m.Files) > 0,
		})
	}

	c.log.Debug().Str("channel", id).Int("count", len(out)).Msg("history fetched")
	return out, nil
}

// resolveChannel maps "#name" to a channel ID; IDs pass through.
func (c *HTTPClient) resolveChannel(ctx context.Context, channel string) (string, error) {
	if !strings.HasPrefix(channel, "#") {
		return normalizeChannel(channel), nil
	}
	name := strings.TrimPrefix(channel, "#")

	channels, err := c.ListChannels(ctx)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Name == name {
			return ch.ID, nil
		}
	}
	return "", &APIError{Method: "conversations.list", Code: "channel_not_found"}
}

// userName resolves a user ID to a display name, caching results. Lookup
// failures fall back to the raw ID.
func (c *HTTPClient) userName(ctx context.Context, userID string) string {
	c.mu.Lock()
	if name, ok := c.users[userID]; ok {
		c.mu.Unlock()
		return name
	}
	c.mu.Unlock()

	var resp struct {
		envelope
		User struct {
			Name     string `json:"name"`
			RealName string `json:"real_name"`
		} `json:"user"`
	}
	err := c.get(ctx, "users.info", url.Values{"user": {userID}}, &resp)
	name := userID
	if err == nil {
		if resp.User.RealName != "" {
			name = resp.User.RealName
		} else if resp.User.Name != "" {
			name = resp.User.Name
		}
	} else {
		c.log.Warn().Err(err).Str("user", userID).Msg("user lookup failed")
	}

	c.mu.Lock()
	c.users[userID] = name
	c.mu.Unlock()
	return name
}

// postJSON issues a POST with a JSON body to the given API method.
func (c *HTTPClient) postJSON(ctx context.Context, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshaling request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method, out)
}

// get issues a GET with query parameters to the given API method.
func (c *HTTPClient) get(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method, out)
}

// do executes the request, checks the Slack ok/error envelope, and decodes
// the response into out.
func (c *HTTPClient) do(req *http.Request, method string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d: %s", method, resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: parsing response: %w", method, err)
	}
	if !env.OK {
		return &APIError{Method: method, Code: env.Error}
	}

	return json.Unmarshal(body, out)
}

// normalizeChannel strips the prefixes users habitually paste in.
func normalizeChannel(channel string) string {
	return strings.TrimLeft(channel, "@")
}

// formatTS renders a Slack ts ("1714549200.000100") as local time.
func formatTS(ts string) string {
	sec, _, _ := strings.Cut(ts, ".")
	n, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return ts
	}
	return time.Unix(n, 0).Format("2006-01-02 15:04:05")
}
