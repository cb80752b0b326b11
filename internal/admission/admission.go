// Package admission decides exactly-once whether an inbound event is
// processed. Three independent token sets back the decision: transport-level
// delivery ids, replied-to timestamps, and replied-to mention message ids.
package admission

import (
	"log/slog"

	"github.com/quailyquaily/slackmate/internal/events"
	"github.com/quailyquaily/slackmate/internal/idempotency"
	"github.com/quailyquaily/slackmate/internal/slackid"
)

type Options struct {
	BotUserID string
	Capacity  int
	Logger    *slog.Logger
}

type Filter struct {
	botUserID string
	eventIDs  *idempotency.TokenSet
	replied   *idempotency.TokenSet
	mentions  *idempotency.TokenSet
	logger    *slog.Logger
}

func New(opts Options) *Filter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		botUserID: slackid.Normalize(opts.BotUserID),
		eventIDs:  idempotency.NewTokenSet(opts.Capacity),
		replied:   idempotency.NewTokenSet(opts.Capacity),
		mentions:  idempotency.NewTokenSet(opts.Capacity),
		logger:    logger,
	}
}

// Admit reports whether the event should be processed. The delivery event id
// is recorded here, before any reply is attempted, so a transport redelivery
// of the same event is rejected even if the first attempt later fails.
// Replied-timestamp and mention tokens are only recorded after a successful
// reply, via MarkReplied and MarkMentionReplied.
func (f *Filter) Admit(ev events.Inbound) bool {
	if f == nil {
		return false
	}
	if ev.EventID != "" && !f.eventIDs.Record(ev.EventID) {
		f.logger.Debug("admission_duplicate_event", "event_id", ev.EventID)
		return false
	}
	if ev.Type == events.TypeThreadStarted {
		return true
	}
	if ev.BotID != "" || ev.Subtype == "bot_message" {
		return false
	}
	if f.botUserID != "" && slackid.Normalize(ev.UserID) == f.botUserID {
		return false
	}
	if f.replied.Seen(ev.TS) {
		f.logger.Debug("admission_duplicate_timestamp", "ts", ev.TS)
		return false
	}
	if ev.IsMention() && f.mentions.Seen(ev.ClientMsgID) {
		f.logger.Debug("admission_duplicate_mention", "client_msg_id", ev.ClientMsgID)
		return false
	}
	return true
}

// MarkReplied records the inbound event's timestamp token once a reply for it
// has been delivered.
func (f *Filter) MarkReplied(ts string) {
	if f == nil {
		return
	}
	f.replied.Record(ts)
}

// MarkMentionReplied records a mention's message id once its reply has been
// delivered.
func (f *Filter) MarkMentionReplied(clientMsgID string) {
	if f == nil {
		return
	}
	f.mentions.Record(clientMsgID)
}
