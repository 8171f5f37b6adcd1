package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/slackbridge/internal/llm"
	"github.com/soyeahso/slackbridge/internal/logging"
	"github.com/soyeahso/slackbridge/internal/session"
	"github.com/soyeahso/slackbridge/internal/slack"
)

// DefaultSystemPrompt is used when a request does not supply its own.
const DefaultSystemPrompt = "You are a helpful assistant answering questions " +
	"relayed from a team chat. Answer in the language the question was asked in, " +
	"be concrete, and prefer short paragraphs over long walls of text."

// ErrQueueFull is returned by Submit when the job queue is saturated.
var ErrQueueFull = errors.New("job queue full")

const defaultQueueSize = 16

// Job is one question to answer and deliver.
type Job struct {
	ID       string
	Question string
	Channel  string
	ThreadTS string

	// ContextChannel, when set, is read for recent messages that are fed
	// into the prompt as channel context. ContextLimit bounds the read.
	ContextChannel string
	ContextLimit   int

	Model       string
	System      string
	MaxTokens   int
	Temperature *float64
}

// Event states published to subscribers.
const (
	EventAccepted  = "accepted"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Event is one pipeline lifecycle notification.
type Event struct {
	JobID    string    `json:"jobId"`
	State    string    `json:"state"`
	Channel  string    `json:"channel"`
	ThreadTS string    `json:"threadTs,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// Pipeline runs the compose, complete, deliver sequence for submitted jobs
// on a single background worker. Submit is fire and forget; callers observe
// outcomes through the event stream.
type Pipeline struct {
	llm     llm.Client
	slack   slack.Client
	store   session.Store
	deliver *Deliverer
	log     *logging.Logger

	recentTurns int
	jobs        chan Job
	wg          sync.WaitGroup

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRecentTurns sets how many history turns feed the prompt.
func WithRecentTurns(k int) PipelineOption {
	return func(p *Pipeline) { p.recentTurns = k }
}

// WithQueueSize sets the job queue capacity.
func WithQueueSize(n int) PipelineOption {
	return func(p *Pipeline) { p.jobs = make(chan Job, n) }
}

// NewPipeline wires the injected collaborators into a pipeline. Run must be
// started before submitted jobs make progress.
func NewPipeline(llmClient llm.Client, slackClient slack.Client, store session.Store, deliver *Deliverer, log *logging.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		llm:         llmClient,
		slack:       slackClient,
		store:       store,
		deliver:     deliver,
		log:         log.Sub("pipeline"),
		recentTurns: 3,
		jobs:        make(chan Job, defaultQueueSize),
		subs:        make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit enqueues a job and returns its id. The job runs in the background;
// Submit never waits for it.
func (p *Pipeline) Submit(job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	p.wg.Add(1)
	// Publish before enqueueing so subscribers always see accepted first.
	p.publish(Event{JobID: job.ID, State: EventAccepted, Channel: job.Channel, Time: time.Now()})
	select {
	case p.jobs <- job:
	default:
		p.wg.Done()
		p.publish(Event{JobID: job.ID, State: EventFailed, Channel: job.Channel, Error: ErrQueueFull.Error(), Time: time.Now()})
		return "", ErrQueueFull
	}
	p.log.Info().Str("job", job.ID).Str("channel", job.Channel).Msg("job accepted")
	return job.ID, nil
}

// Run consumes jobs until ctx is canceled.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.process(ctx, job)
			p.wg.Done()
		}
	}
}

// Wait blocks until every submitted job has finished. Tests use it to make
// fire-and-forget work deterministic.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Subscribe registers an event listener. The returned cancel func must be
// called when the listener goes away. Slow listeners drop events rather
// than stall the worker.
func (p *Pipeline) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		delete(p.subs, ch)
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *Pipeline) publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (p *Pipeline) process(ctx context.Context, job Job) {
	contextMsgs := p.fetchContext(ctx, job)

	prompt := ComposePrompt(job.Question, p.store.Recent(p.recentTurns), contextMsgs)

	system := job.System
	if system == "" {
		system = DefaultSystemPrompt
	}
	resp, err := p.llm.Complete(ctx, llm.CompletionRequest{
		Model:       job.Model,
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   job.MaxTokens,
		Temperature: job.Temperature,
	})
	if err != nil {
		p.log.Error().Err(err).Str("job", job.ID).Msg("completion failed")
		p.notify(ctx, job, err)
		p.publish(Event{JobID: job.ID, State: EventFailed, Channel: job.Channel, Error: err.Error(), Time: time.Now()})
		return
	}

	model := resp.Model
	if model == "" {
		model = p.llm.Name()
	}
	root, err := p.deliver.Deliver(ctx, DeliveryRequest{
		Answer:        resp.Content,
		Channel:       job.Channel,
		ThreadTS:      job.ThreadTS,
		Model:         model,
		Question:      job.Question,
		SourceChannel: job.ContextChannel,
		SourceCount:   len(contextMsgs),
	})
	if err != nil {
		// Deliver already announced the failure in the thread.
		p.publish(Event{JobID: job.ID, State: EventFailed, Channel: job.Channel, Error: err.Error(), Time: time.Now()})
		return
	}

	p.store.RecordTurn(job.Question, resp.Content)
	p.publish(Event{JobID: job.ID, State: EventCompleted, Channel: job.Channel, ThreadTS: root, Time: time.Now()})
	p.log.Info().Str("job", job.ID).Str("thread", root).Msg("job completed")
}

// fetchContext reads recent channel messages for the prompt. A read failure
// degrades to an empty context instead of failing the job.
func (p *Pipeline) fetchContext(ctx context.Context, job Job) []string {
	if job.ContextChannel == "" {
		return nil
	}
	msgs, err := p.slack.History(ctx, job.ContextChannel, job.ContextLimit, "", "")
	if err != nil {
		p.log.Warn().Err(err).Str("channel", job.ContextChannel).Msg("context fetch failed")
		return nil
	}
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fmt.Sprintf("[%s] %s: %s", m.When, m.Author, m.Text))
	}
	return out
}

// notify posts a best-effort failure announcement for errors that happen
// before delivery starts.
func (p *Pipeline) notify(ctx context.Context, job Job, cause error) {
	msg := slack.Message{
		Channel:  job.Channel,
		Text:     fmt.Sprintf("an error occurred: %v", cause),
		ThreadTS: job.ThreadTS,
	}
	if _, err := p.slack.PostMessage(ctx, msg); err != nil {
		p.log.Warn().Err(err).Msg("error notification failed")
	}
}
