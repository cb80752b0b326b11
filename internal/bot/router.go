// Package bot connects the event transports to the conversation pipeline:
// admission, thread gating, then dispatch to the orchestrator.
package bot

import (
	"context"
	"log/slog"

	"github.com/quailyquaily/slackmate/internal/admission"
	"github.com/quailyquaily/slackmate/internal/convo"
	"github.com/quailyquaily/slackmate/internal/events"
	"github.com/quailyquaily/slackmate/internal/threadgate"
)

type Router struct {
	admission *admission.Filter
	gate      *threadgate.Gate
	orch      *convo.Orchestrator
	logger    *slog.Logger
}

func NewRouter(filter *admission.Filter, gate *threadgate.Gate, orch *convo.Orchestrator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{admission: filter, gate: gate, orch: orch, logger: logger}
}

// Dispatch routes one inbound event. Every outcome is terminal here; nothing
// propagates back to the transport.
func (r *Router) Dispatch(ctx context.Context, ev events.Inbound) {
	if !r.admission.Admit(ev) {
		return
	}

	switch ev.Type {
	case events.TypeThreadStarted:
		r.orch.Greet(ctx, ev)
	case events.TypeMention:
		// Mentions address the bot explicitly, so they bypass the gate.
		if err := r.orch.Enqueue(ctx, ev); err != nil {
			r.logger.Warn("mention_enqueue_failed", "event_id", ev.EventID, "error", err)
		}
	case events.TypeMessage:
		key := threadgate.Key{ChannelID: ev.ChannelID, ThreadTS: ev.ThreadToken()}
		if !r.gate.Greeted(key) {
			r.logger.Debug("message_dropped_ungreeted_thread",
				"channel_id", key.ChannelID, "thread_ts", key.ThreadTS)
			return
		}
		if err := r.orch.Enqueue(ctx, ev); err != nil {
			r.logger.Warn("message_enqueue_failed", "event_id", ev.EventID, "error", err)
		}
	default:
		r.logger.Debug("event_ignored", "type", ev.Type)
	}
}
