// Package convo turns admitted inbound events into model exchanges and Slack
// replies. Work is serialized per user: one worker goroutine per canonical
// user id, so two rapid messages from the same person never interleave their
// history read-modify-write cycles.
package convo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quailyquaily/slackmate/internal/admission"
	"github.com/quailyquaily/slackmate/internal/events"
	"github.com/quailyquaily/slackmate/internal/history"
	"github.com/quailyquaily/slackmate/internal/mrkdwn"
	"github.com/quailyquaily/slackmate/internal/names"
	"github.com/quailyquaily/slackmate/internal/slackid"
	"github.com/quailyquaily/slackmate/internal/threadgate"
	"github.com/quailyquaily/slackmate/llm"
)

const (
	// clarificationFallback is sent when the model returns an empty reply.
	clarificationFallback = "¿Puedes repetir tu mensaje?"

	greetingNamed     = "Hola %s, ¿cómo te puedo ayudar hoy?"
	greetingAnonymous = "¡Hola! ¿Cómo estás? ¿En qué puedo ayudarte hoy?"

	defaultMaxConcurrent = 4
	defaultTaskTimeout   = 120 * time.Second
)

// Replier is the slice of the Slack client the orchestrator posts through.
type Replier interface {
	PostMessage(ctx context.Context, channelID, text, threadTS string) (string, error)
	OpenConversation(ctx context.Context, userID string) (string, error)
}

type Options struct {
	LLM       llm.Client
	History   history.Store
	Slack     Replier
	Names     *names.Resolver
	Admission *admission.Filter
	Gate      *threadgate.Gate

	Model         string
	SystemPrompt  string
	MaxConcurrent int
	TaskTimeout   time.Duration
	Logger        *slog.Logger
}

type Orchestrator struct {
	llm       llm.Client
	history   history.Store
	slack     Replier
	names     *names.Resolver
	admission *admission.Filter
	gate      *threadgate.Gate

	model        string
	systemPrompt string
	taskTimeout  time.Duration
	logger       *slog.Logger

	workersCtx  context.Context
	stopWorkers context.CancelFunc
	sem         chan struct{}

	mu      sync.Mutex
	workers map[string]chan events.Inbound

	greetMu  sync.Mutex
	greeting map[threadgate.Key]struct{}
}

func New(opts Options) (*Orchestrator, error) {
	if opts.LLM == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if opts.History == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if opts.Slack == nil {
		return nil, fmt.Errorf("slack replier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	taskTimeout := opts.TaskTimeout
	if taskTimeout <= 0 {
		taskTimeout = defaultTaskTimeout
	}
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	return &Orchestrator{
		llm:          opts.LLM,
		history:      opts.History,
		slack:        opts.Slack,
		names:        opts.Names,
		admission:    opts.Admission,
		gate:         opts.Gate,
		model:        strings.TrimSpace(opts.Model),
		systemPrompt: strings.TrimSpace(opts.SystemPrompt),
		taskTimeout:  taskTimeout,
		logger:       logger,
		workersCtx:   workersCtx,
		stopWorkers:  stopWorkers,
		sem:          make(chan struct{}, maxConcurrent),
		workers:      make(map[string]chan events.Inbound),
		greeting:     make(map[threadgate.Key]struct{}),
	}, nil
}

// Close stops all workers. In-flight exchanges are interrupted through their
// contexts.
func (o *Orchestrator) Close() {
	o.stopWorkers()
}

// Enqueue hands an admitted event to the sender's worker, starting the worker
// on first use.
func (o *Orchestrator) Enqueue(ctx context.Context, ev events.Inbound) error {
	userID := slackid.Normalize(ev.UserID)
	if userID == "" {
		return fmt.Errorf("event has no sender")
	}
	jobs := o.workerFor(userID)
	return enqueueJob(ctx, o.workersCtx, jobs, ev)
}

func (o *Orchestrator) workerFor(userID string) chan events.Inbound {
	o.mu.Lock()
	defer o.mu.Unlock()
	if jobs, ok := o.workers[userID]; ok {
		return jobs
	}
	jobs := make(chan events.Inbound, 16)
	o.workers[userID] = jobs
	startWorker(workerOptions[events.Inbound]{
		ctx:  o.workersCtx,
		sem:  o.sem,
		jobs: jobs,
		handle: func(ctx context.Context, ev events.Inbound) {
			runCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
			defer cancel()
			o.handleExchange(runCtx, ev)
		},
	})
	return jobs
}

// handleExchange runs one user message through the model and posts the reply.
// The transcript is saved before the reply is posted, so a crash between the
// two loses a Slack message but never a remembered turn.
func (o *Orchestrator) handleExchange(ctx context.Context, ev events.Inbound) {
	userID := slackid.Normalize(ev.UserID)
	text := strings.TrimSpace(ev.Text)
	if userID == "" || text == "" {
		return
	}
	logger := o.logger.With("exchange_id", uuid.NewString(), "user_id", userID)

	turns, err := o.history.Load(ctx, userID)
	if err != nil {
		// A degraded store means a fresh conversation, not a dead bot.
		logger.Warn("history_load_failed", "error", err)
		turns = nil
	}

	result, err := o.llm.Chat(ctx, llm.Request{
		Model:    o.model,
		Messages: o.buildMessages(turns, text),
	})
	if err != nil {
		logger.Error("llm_chat_failed", "error", err)
		return
	}

	replyRaw := strings.TrimSpace(result.Text)
	if replyRaw == "" {
		replyRaw = clarificationFallback
	}

	turns = append(turns,
		history.Turn{Role: history.RoleUser, Text: text},
		history.Turn{Role: history.RoleAssistant, Text: replyRaw},
	)
	if err := o.history.Save(ctx, userID, turns); err != nil {
		// An unpersisted exchange is abandoned whole: no reply goes out
		// and no replied-timestamp is recorded.
		logger.Error("history_save_failed", "error", err)
		return
	}

	replyTS, err := o.slack.PostMessage(ctx, ev.ChannelID, mrkdwn.Normalize(replyRaw), ev.ThreadToken())
	if err != nil {
		logger.Error("reply_post_failed", "channel_id", ev.ChannelID, "error", err)
		return
	}
	logger.Info("reply_posted",
		"channel_id", ev.ChannelID, "ts", replyTS,
		"duration", result.Duration.String())

	if o.admission != nil {
		o.admission.MarkReplied(ev.TS)
		if ev.IsMention() {
			o.admission.MarkMentionReplied(ev.ClientMsgID)
		}
	}
}

func (o *Orchestrator) buildMessages(turns []history.Turn, text string) []llm.Message {
	messages := make([]llm.Message, 0, len(turns)+2)
	if o.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: o.systemPrompt})
	}
	for _, turn := range turns {
		role := "user"
		if turn.Role == history.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: "user", Content: text})
	return messages
}

// Greet posts the thread-opening greeting and marks the thread greeted. It is
// idempotent per (channel, thread) and only marks after a delivered post, so
// a failed greeting is retried on the next event for the same thread.
func (o *Orchestrator) Greet(ctx context.Context, ev events.Inbound) {
	userID := slackid.Normalize(ev.UserID)
	channelID := strings.TrimSpace(ev.ChannelID)
	threadTS := strings.TrimSpace(ev.ThreadTS)

	if channelID == "" && userID != "" {
		// Some thread-started payloads arrive without a channel. Opening
		// the DM recovers it.
		opened, err := o.slack.OpenConversation(ctx, userID)
		if err != nil {
			o.logger.Warn("greeting_channel_recovery_failed", "user_id", userID, "error", err)
			return
		}
		channelID = opened
	}
	if channelID == "" || threadTS == "" {
		o.logger.Warn("greeting_skipped_incomplete_event",
			"channel_id", channelID, "thread_ts", threadTS)
		return
	}

	key := threadgate.Key{ChannelID: channelID, ThreadTS: threadTS}
	if o.gate != nil && o.gate.Greeted(key) {
		return
	}
	// Transport redelivery can carry the same thread start under distinct
	// event ids; only one greeting may be in flight per thread.
	if !o.beginGreeting(key) {
		return
	}
	defer o.endGreeting(key)
	if o.gate != nil && o.gate.Greeted(key) {
		return
	}

	greeting := greetingAnonymous
	if o.names != nil {
		if name := o.names.Resolve(ctx, userID); name != "" {
			greeting = fmt.Sprintf(greetingNamed, name)
		}
	}

	if _, err := o.slack.PostMessage(ctx, channelID, greeting, threadTS); err != nil {
		o.logger.Error("greeting_post_failed",
			"channel_id", channelID, "thread_ts", threadTS, "error", err)
		return
	}
	if o.gate != nil {
		o.gate.MarkGreeted(key)
	}
	o.logger.Info("thread_greeted", "channel_id", channelID, "thread_ts", threadTS)
}

func (o *Orchestrator) beginGreeting(key threadgate.Key) bool {
	o.greetMu.Lock()
	defer o.greetMu.Unlock()
	if _, inflight := o.greeting[key]; inflight {
		return false
	}
	o.greeting[key] = struct{}{}
	return true
}

func (o *Orchestrator) endGreeting(key threadgate.Key) {
	o.greetMu.Lock()
	defer o.greetMu.Unlock()
	delete(o.greeting, key)
}
