package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/slackbridge/internal/logging"
	"github.com/soyeahso/slackbridge/internal/slack"
	"github.com/soyeahso/slackbridge/internal/splitter"
)

const (
	// DefaultTextLimit keeps each posted message safely under Slack's
	// documented 3000-character block limit.
	DefaultTextLimit = 2900

	// defaultChunkDelay spaces chunk posts out to stay under the Web API
	// rate limit. It is an operational constraint, not cosmetics.
	defaultChunkDelay = 500 * time.Millisecond

	// maxQuestionDisplay bounds the question echoed in the message header.
	maxQuestionDisplay = 300
)

// DeliveryError reports a failed attempt to relay an answer into chat.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering to %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// DeliveryRequest is one answer to relay.
type DeliveryRequest struct {
	Answer   string
	Channel  string
	ThreadTS string // continue an existing thread; empty starts a new one
	Model    string
	Question string

	// SourceChannel and SourceCount describe where channel context was
	// fetched from, shown as a small header line when set.
	SourceChannel string
	SourceCount   int
}

// Deliverer posts answers to chat, splitting anything over the text limit
// into a placeholder root followed by numbered thread replies.
type Deliverer struct {
	client slack.Client
	log    *logging.Logger
	limit  int
	delay  time.Duration
	now    func() time.Time
}

// DeliverOption configures a Deliverer.
type DeliverOption func(*Deliverer)

// WithTextLimit overrides the per-message size limit.
func WithTextLimit(limit int) DeliverOption {
	return func(d *Deliverer) { d.limit = limit }
}

// WithChunkDelay overrides the pause between chunk posts. Zero disables it.
func WithChunkDelay(delay time.Duration) DeliverOption {
	return func(d *Deliverer) { d.delay = delay }
}

// WithClock overrides the timestamp source (used by tests).
func WithClock(now func() time.Time) DeliverOption {
	return func(d *Deliverer) { d.now = now }
}

// NewDeliverer creates a delivery engine posting through client.
func NewDeliverer(client slack.Client, log *logging.Logger, opts ...DeliverOption) *Deliverer {
	d := &Deliverer{
		client: client,
		log:    log.Sub("deliver"),
		limit:  DefaultTextLimit,
		delay:  defaultChunkDelay,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver relays one answer and returns the thread root ts: the caller's
// ThreadTS when continuing a thread, otherwise the ts of the first posted
// message. Short answers go out as one message with the metadata footer;
// long answers get a placeholder root followed by "answer i/n" replies,
// with the footer on the last reply only. On a send failure Deliver makes
// one best-effort error post to the same thread and returns a
// *DeliveryError; partially sent chunks are not retried or resumed.
func (d *Deliverer) Deliver(ctx context.Context, req DeliveryRequest) (string, error) {
	header := d.headerBlocks(req)

	if len(req.Answer) <= d.limit {
		blocks := append(header,
			slack.SectionBlock{Text: req.Answer},
			d.footerBlock(req.Model),
		)
		ts, err := d.post(ctx, req.Channel, displayQuestion(req.Question), blocks, req.ThreadTS)
		if err != nil {
			return "", d.fail(ctx, req, err)
		}
		return rootTS(req.ThreadTS, ts), nil
	}

	placeholder := append(header, slack.SectionBlock{
		Text: "_The answer is long and will be split across multiple messages._",
	})
	ts, err := d.post(ctx, req.Channel, displayQuestion(req.Question), placeholder, req.ThreadTS)
	if err != nil {
		return "", d.fail(ctx, req, err)
	}
	root := rootTS(req.ThreadTS, ts)

	chunks := splitter.Split(req.Answer, d.limit)
	for i, chunk := range chunks {
		if err := d.pause(ctx); err != nil {
			return "", d.fail(ctx, req, err)
		}
		label := fmt.Sprintf("*answer %d/%d*", i+1, len(chunks))
		blocks := []slack.Block{
			slack.SectionBlock{Text: label},
			slack.SectionBlock{Text: chunk},
		}
		if i == len(chunks)-1 {
			blocks = append(blocks, d.footerBlock(req.Model))
		}
		if _, err := d.post(ctx, req.Channel, label, blocks, root); err != nil {
			return "", d.fail(ctx, req, err)
		}
	}

	d.log.Info().Str("channel", req.Channel).Int("chunks", len(chunks)).Msg("answer delivered")
	return root, nil
}

func (d *Deliverer) headerBlocks(req DeliveryRequest) []slack.Block {
	blocks := []slack.Block{
		slack.SectionBlock{Text: "*Q:* " + displayQuestion(req.Question)},
	}
	if req.SourceChannel != "" {
		blocks = append(blocks, slack.SectionBlock{
			Text: fmt.Sprintf("_context: %s (%d messages)_", req.SourceChannel, req.SourceCount),
		})
	}
	return append(blocks, slack.DividerBlock{})
}

func (d *Deliverer) footerBlock(model string) slack.Block {
	return slack.ContextBlock{
		Elements: []string{
			fmt.Sprintf("%s | %s", model, d.now().Format("2006-01-02 15:04:05")),
		},
	}
}

func (d *Deliverer) post(ctx context.Context, channel, fallback string, blocks []slack.Block, threadTS string) (string, error) {
	return d.client.PostMessage(ctx, slack.Message{
		Channel:  channel,
		Text:     fallback,
		Blocks:   blocks,
		ThreadTS: threadTS,
	})
}

// fail makes the single best-effort error announcement and wraps the cause.
func (d *Deliverer) fail(ctx context.Context, req DeliveryRequest, cause error) error {
	d.log.Error().Err(cause).Str("channel", req.Channel).Msg("delivery failed")
	notice := slack.Message{
		Channel:  req.Channel,
		Text:     fmt.Sprintf("an error occurred: %v", cause),
		ThreadTS: req.ThreadTS,
	}
	if _, err := d.client.PostMessage(ctx, notice); err != nil {
		d.log.Warn().Err(err).Msg("error notification failed")
	}
	return &DeliveryError{Channel: req.Channel, Err: cause}
}

// pause waits the inter-chunk delay, honoring cancellation.
func (d *Deliverer) pause(ctx context.Context) error {
	if d.delay <= 0 {
		return nil
	}
	t := time.NewTimer(d.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func rootTS(parent, first string) string {
	if parent != "" {
		return parent
	}
	return first
}

func displayQuestion(q string) string {
	runes := []rune(q)
	if len(runes) <= maxQuestionDisplay {
		return q
	}
	return string(runes[:maxQuestionDisplay]) + "..."
}
