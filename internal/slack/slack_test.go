package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/slackbridge/internal/logging"
)

func newTestLogger() *logging.Logger {
	return logging.New(os.Stderr, "silent")
}

func TestMarshalBlocks(t *testing.T) {
	blocks := MarshalBlocks([]Block{
		SectionBlock{Text: "hello *world*"},
		DividerBlock{},
		ContextBlock{Elements: []string{"model | 2024-05-01"}},
	})
	require.Len(t, blocks, 3)

	assert.Equal(t, "section", blocks[0]["type"])
	text, ok := blocks[0]["text"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mrkdwn", text["type"])
	assert.Equal(t, "hello *world*", text["text"])

	assert.Equal(t, "divider", blocks[1]["type"])

	assert.Equal(t, "context", blocks[2]["type"])
	elements, ok := blocks[2]["elements"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, elements, 1)
	assert.Equal(t, "model | 2024-05-01", elements[0]["text"])
}

func TestMarshalBlocksEmpty(t *testing.T) {
	assert.Nil(t, MarshalBlocks(nil))
	assert.Nil(t, MarshalBlocks([]Block{}))
}

func TestPostMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat.postMessage", r.URL.Path)
		require.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true,"ts":"1714549200.000100"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("xoxb-test", newTestLogger(), WithBaseURL(srv.URL))
	ts, err := c.PostMessage(context.Background(), Message{
		Channel:  "#general",
		Text:     "hello",
		ThreadTS: "1714549100.000001",
	})
	require.NoError(t, err)
	assert.Equal(t, "1714549200.000100", ts)

	assert.Equal(t, "#general", got["channel"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "1714549100.000001", got["thread_ts"])
	assert.Equal(t, false, got["unfurl_links"])
	_, hasBlocks := got["blocks"]
	assert.False(t, hasBlocks)
}

func TestPostMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("xoxb-test", newTestLogger(), WithBaseURL(srv.URL))
	_, err := c.PostMessage(context.Background(), Message{Channel: "C0MISSING", Text: "hi"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "chat.postMessage", apiErr.Method)
	assert.Equal(t, "channel_not_found", apiErr.Code)
}

func TestPostMessageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient("xoxb-test", newTestLogger(), WithBaseURL(srv.URL))
	_, err := c.PostMessage(context.Background(), Message{Channel: "C1", Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestListChannels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations.list", r.URL.Path)
		require.Equal(t, "public_channel,private_channel", r.URL.Query().Get("types"))
		w.Write([]byte(`{"ok":true,"channels":[
			{"id":"C1","name":"general","is_private":false,"num_members":42},
			{"id":"C2","name":"secrets","is_private":true,"num_members":3}
		]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("xoxb-test", newTestLogger(), WithBaseURL(srv.URL))
	channels, err := c.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "C1", channels[0].ID)
	assert.Equal(t, "general", channels[0].Name)
	assert.False(t, channels[0].IsPrivate)
	assert.Equal(t, 42, channels[0].MemberCount)
	assert.True(t, channels[1].IsPrivate)
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conversations.history":
			require.Equal(t, "C1", r.URL.Query().Get("channel"))
			require.Equal(t, "2", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"ok":true,"messages":[
				{"user":"U2","text":"second","ts":"1714549300.000002"},
				{"user":"U1","text":"first","ts":"1714549200.000001","files":[{"id":"F1"}]},
				{"text":"channel joined","ts":"1714549100.000000"}
			]}`))
		case "/users.info":
			w.Write([]byte(`{"ok":true,"user":{"name":"alice","real_name":"Alice Example"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient("xoxb-test", newTestLogger(), WithBaseURL(srv.URL))
	msgs, err := c.History(context.Background(), "C1", 2, "", "")
	require.NoError(t, err)

	// The subtype message without a user is skipped, and order is
	// flipped to oldest first.
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "Alice Example", msgs[0].Author)
	assert.True(t, msgs[0].HasAttachments)
	assert.Equal(t, "second", msgs[1].Text)
	assert.False(t, msgs[1].HasAttachments)
}

func TestHistoryResolvesChannelName(t *testing.T) {
	var historyChannel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conversations.list":
			w.Write([]byte(`{"ok":true,"channels":[{"id":"C77","name":"ops"}]}`))
		case "/conversations.history":
			historyChannel = r.URL.Query().Get("channel")
			w.Write([]byte(`{"ok":true,"messages":[]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient("xoxb-test", newTestLogger(), WithBaseURL(srv.URL))
	_, err := c.History(context.Background(), "#ops", 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, "C77", historyChannel)

	_, err = c.History(context.Background(), "#nope", 10, "", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "channel_not_found", apiErr.Code)
}

func TestUserNameCaching(t *testing.T) {
	lookups := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users.info", r.URL.Path)
		lookups++
		w.Write([]byte(`{"ok":true,"user":{"name":"bob"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("xoxb-test", newTestLogger(), WithBaseURL(srv.URL))
	assert.Equal(t, "bob", c.userName(context.Background(), "U9"))
	assert.Equal(t, "bob", c.userName(context.Background(), "U9"))
	assert.Equal(t, 1, lookups)
}

func TestFakeFailOnPost(t *testing.T) {
	f := &Fake{FailOnPost: 2}
	ctx := context.Background()

	_, err := f.PostMessage(ctx, Message{Channel: "C1", Text: "one"})
	require.NoError(t, err)
	_, err = f.PostMessage(ctx, Message{Channel: "C1", Text: "two"})
	require.Error(t, err)
	_, err = f.PostMessage(ctx, Message{Channel: "C1", Text: "three"})
	require.NoError(t, err)

	assert.Equal(t, 3, f.PostCount())
	require.Len(t, f.Posts, 2)
	assert.Equal(t, "one", f.Posts[0].Text)
	assert.Equal(t, "three", f.Posts[1].Text)
}
