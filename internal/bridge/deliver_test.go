package bridge

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/slackbridge/internal/slack"
	"github.com/soyeahso/slackbridge/internal/splitter"
)

func testClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
}

func newTestDeliverer(fake *slack.Fake, opts ...DeliverOption) *Deliverer {
	base := []DeliverOption{WithChunkDelay(0), WithClock(testClock())}
	return NewDeliverer(fake, newTestLogger(), append(base, opts...)...)
}

// sectionTexts flattens a post's section blocks for assertions.
func sectionTexts(msg slack.Message) []string {
	var out []string
	for _, b := range msg.Blocks {
		if s, ok := b.(slack.SectionBlock); ok {
			out = append(out, s.Text)
		}
	}
	return out
}

func hasFooter(msg slack.Message) bool {
	for _, b := range msg.Blocks {
		if _, ok := b.(slack.ContextBlock); ok {
			return true
		}
	}
	return false
}

func TestDeliverShortAnswer(t *testing.T) {
	fake := &slack.Fake{}
	d := newTestDeliverer(fake)

	answer := strings.Repeat("a", 2000)
	root, err := d.Deliver(context.Background(), DeliveryRequest{
		Answer:   answer,
		Channel:  "C1",
		Model:    "test-model",
		Question: "short one?",
	})
	require.NoError(t, err)
	require.Len(t, fake.Posts, 1)

	post := fake.Posts[0]
	assert.Equal(t, "C1", post.Channel)
	assert.Empty(t, post.ThreadTS)
	assert.Equal(t, root, "1700000000.000001")

	texts := sectionTexts(post)
	assert.Contains(t, texts, answer)
	for _, s := range texts {
		assert.NotContains(t, s, "answer 1/")
	}
	assert.True(t, hasFooter(post))
	assert.Contains(t, post.Blocks[len(post.Blocks)-1].(slack.ContextBlock).Elements[0],
		"test-model | 2024-05-01 12:00:00")
}

func TestDeliverLongAnswer(t *testing.T) {
	fake := &slack.Fake{}
	d := newTestDeliverer(fake)

	para := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	var parts []string
	for len(strings.Join(parts, "\n\n")) < 9000 {
		parts = append(parts, para)
	}
	answer := strings.Join(parts, "\n\n")
	chunks := splitter.Split(answer, DefaultTextLimit)
	require.Greater(t, len(chunks), 1)

	root, err := d.Deliver(context.Background(), DeliveryRequest{
		Answer:   answer,
		Channel:  "C1",
		Model:    "test-model",
		Question: "long one?",
	})
	require.NoError(t, err)

	// Placeholder root plus one post per chunk.
	require.Len(t, fake.Posts, 1+len(chunks))
	assert.Equal(t, fake.Posts[0].Channel, "C1")
	assert.Empty(t, fake.Posts[0].ThreadTS)
	assert.Equal(t, root, "1700000000.000001")
	assert.False(t, hasFooter(fake.Posts[0]))

	for i, chunk := range chunks {
		post := fake.Posts[1+i]
		assert.Equal(t, root, post.ThreadTS)
		assert.LessOrEqual(t, len(chunk), DefaultTextLimit)

		texts := sectionTexts(post)
		require.Len(t, texts, 2)
		assert.Equal(t, fmt.Sprintf("*answer %d/%d*", i+1, len(chunks)), texts[0])
		assert.Equal(t, chunk, texts[1])

		last := i == len(chunks)-1
		assert.Equal(t, last, hasFooter(post))
	}
}

func TestDeliverContinuesExistingThread(t *testing.T) {
	fake := &slack.Fake{}
	d := newTestDeliverer(fake, WithTextLimit(40))

	root, err := d.Deliver(context.Background(), DeliveryRequest{
		Answer:   strings.Repeat("word ", 30),
		Channel:  "C1",
		ThreadTS: "1690000000.000123",
		Model:    "test-model",
		Question: "threaded?",
	})
	require.NoError(t, err)

	// The caller's parent stays the root; chunk replies never re-parent
	// onto the placeholder.
	assert.Equal(t, "1690000000.000123", root)
	for _, post := range fake.Posts {
		assert.Equal(t, "1690000000.000123", post.ThreadTS)
	}
}

func TestDeliverFailureMidChunks(t *testing.T) {
	// Placeholder and first chunk succeed, second chunk fails, the error
	// notification succeeds.
	fake := &slack.Fake{FailOnPost: 3}
	d := newTestDeliverer(fake, WithTextLimit(40))

	answer := strings.Repeat("word ", 30)
	require.Greater(t, len(splitter.Split(answer, 40)), 2)

	_, err := d.Deliver(context.Background(), DeliveryRequest{
		Answer:   answer,
		Channel:  "C1",
		Model:    "test-model",
		Question: "doomed?",
	})

	var delErr *DeliveryError
	require.ErrorAs(t, err, &delErr)
	assert.Equal(t, "C1", delErr.Channel)

	// Two successful posts, one failed attempt, one notification.
	assert.Equal(t, 4, fake.PostCount())
	require.Len(t, fake.Posts, 3)
	notice := fake.Posts[2]
	assert.Contains(t, notice.Text, "an error occurred")
}

func TestDeliverFirstPostFails(t *testing.T) {
	fake := &slack.Fake{FailOnPost: 1}
	d := newTestDeliverer(fake)

	_, err := d.Deliver(context.Background(), DeliveryRequest{
		Answer:   "hi",
		Channel:  "C1",
		Model:    "test-model",
		Question: "q",
	})

	var delErr *DeliveryError
	require.ErrorAs(t, err, &delErr)
	assert.Equal(t, 2, fake.PostCount())
	require.Len(t, fake.Posts, 1)
	assert.Contains(t, fake.Posts[0].Text, "an error occurred")
}

func TestDisplayQuestionTruncation(t *testing.T) {
	long := strings.Repeat("q", 350)
	got := displayQuestion(long)
	assert.Equal(t, 303, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))

	short := "why?"
	assert.Equal(t, short, displayQuestion(short))
}

func TestDeliverSourceInfoHeader(t *testing.T) {
	fake := &slack.Fake{}
	d := newTestDeliverer(fake)

	_, err := d.Deliver(context.Background(), DeliveryRequest{
		Answer:        "short",
		Channel:       "C1",
		Model:         "test-model",
		Question:      "q",
		SourceChannel: "#ops",
		SourceCount:   12,
	})
	require.NoError(t, err)

	texts := sectionTexts(fake.Posts[0])
	assert.Contains(t, texts, "_context: #ops (12 messages)_")
}
