// Package events models inbound Slack events and parses the two envelopes
// they arrive in: Events API webhook payloads and Socket Mode envelopes.
package events

import "strings"

type Type string

const (
	TypeThreadStarted Type = "assistant_thread_started"
	TypeMessage       Type = "message"
	TypeMention       Type = "app_mention"
)

// Inbound is one normalized inbound event. TS is an opaque, per-channel
// monotonic token; it is compared for equality only and never parsed.
type Inbound struct {
	EventID     string
	Type        Type
	Subtype     string
	ChannelID   string
	ChannelType string
	UserID      string
	Text        string
	TS          string
	ThreadTS    string
	BotID       string
	ClientMsgID string
}

// ThreadToken returns the token identifying the event's thread: the explicit
// thread_ts when present, else the event's own ts (a top-level message roots
// its own thread).
func (e Inbound) ThreadToken() string {
	if ts := strings.TrimSpace(e.ThreadTS); ts != "" {
		return ts
	}
	return strings.TrimSpace(e.TS)
}

func (e Inbound) IsMention() bool {
	return e.Type == TypeMention
}
