package slack

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/slackbridge/internal/domain"
)

// Fake is an in-memory Client for tests. It records every posted
// message and can be told to fail specific calls.
type Fake struct {
	mu sync.Mutex

	// Posts holds every message passed to PostMessage, in order.
	Posts []Message

	// FailOnPost makes the Nth call to PostMessage (1-based) return
	// an error. Zero disables failure injection.
	FailOnPost int

	// Channels and Messages back ListChannels and History.
	Channels []domain.Channel
	Messages []domain.ChannelMessage

	calls int
}

func (f *Fake) PostMessage(_ context.Context, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.FailOnPost != 0 && f.calls == f.FailOnPost {
		return "", &APIError{Method: "chat.postMessage", Code: "fatal_error"}
	}
	f.Posts = append(f.Posts, msg)
	return fmt.Sprintf("1700000000.%06d", f.calls), nil
}

func (f *Fake) ListChannels(context.Context) ([]domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Channel(nil), f.Channels...), nil
}

func (f *Fake) History(context.Context, string, int, string, string) ([]domain.ChannelMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ChannelMessage(nil), f.Messages...), nil
}

// PostCount reports how many times PostMessage was called, including
// calls that were made to fail.
func (f *Fake) PostCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
