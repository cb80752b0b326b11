package events

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the decoded outcome of one webhook delivery: either a
// url_verification challenge to echo back, an event to route, or neither
// (event types the bot does not handle).
type Envelope struct {
	Challenge string
	Event     Inbound
	HasEvent  bool
}

type webhookPayload struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	EventID   string          `json:"event_id"`
	Event     json.RawMessage `json:"event"`
}

type rawAssistantThread struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	ThreadTS  string `json:"thread_ts"`
	Context   struct {
		ChannelID string `json:"channel_id"`
	} `json:"context"`
}

type rawEvent struct {
	Type            string              `json:"type"`
	Subtype         string              `json:"subtype"`
	User            string              `json:"user"`
	Text            string              `json:"text"`
	Channel         string              `json:"channel"`
	ChannelType     string              `json:"channel_type"`
	TS              string              `json:"ts"`
	ThreadTS        string              `json:"thread_ts"`
	BotID           string              `json:"bot_id"`
	ClientMsgID     string              `json:"client_msg_id"`
	AssistantThread *rawAssistantThread `json:"assistant_thread"`
}

// ParseWebhookPayload decodes one Events API delivery. Some deliveries wrap
// the event under "event", while assistant_thread_started can arrive as the
// top-level object itself; both shapes are accepted.
func ParseWebhookPayload(raw []byte) (Envelope, error) {
	if len(raw) == 0 {
		return Envelope{}, fmt.Errorf("empty payload")
	}
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Envelope{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	if strings.TrimSpace(payload.Type) == "url_verification" {
		return Envelope{Challenge: strings.TrimSpace(payload.Challenge)}, nil
	}

	eventRaw := payload.Event
	if len(eventRaw) == 0 {
		eventRaw = raw
	}
	var ev rawEvent
	if err := json.Unmarshal(eventRaw, &ev); err != nil {
		return Envelope{}, fmt.Errorf("decode event: %w", err)
	}

	inbound, ok := inboundFromRaw(ev, strings.TrimSpace(payload.EventID))
	if !ok {
		return Envelope{}, nil
	}
	return Envelope{Event: inbound, HasEvent: true}, nil
}

func inboundFromRaw(ev rawEvent, eventID string) (Inbound, bool) {
	switch Type(strings.TrimSpace(ev.Type)) {
	case TypeThreadStarted:
		at := ev.AssistantThread
		if at == nil {
			return Inbound{}, false
		}
		channelID := strings.TrimSpace(at.ChannelID)
		if channelID == "" {
			channelID = strings.TrimSpace(at.Context.ChannelID)
		}
		return Inbound{
			EventID:   eventID,
			Type:      TypeThreadStarted,
			ChannelID: channelID,
			UserID:    strings.TrimSpace(at.UserID),
			ThreadTS:  strings.TrimSpace(at.ThreadTS),
		}, true
	case TypeMessage, TypeMention:
		return Inbound{
			EventID:     eventID,
			Type:        Type(strings.TrimSpace(ev.Type)),
			Subtype:     strings.TrimSpace(ev.Subtype),
			ChannelID:   strings.TrimSpace(ev.Channel),
			ChannelType: strings.TrimSpace(ev.ChannelType),
			UserID:      strings.TrimSpace(ev.User),
			Text:        ev.Text,
			TS:          strings.TrimSpace(ev.TS),
			ThreadTS:    strings.TrimSpace(ev.ThreadTS),
			BotID:       strings.TrimSpace(ev.BotID),
			ClientMsgID: strings.TrimSpace(ev.ClientMsgID),
		}, true
	default:
		return Inbound{}, false
	}
}

// SocketEnvelope is one Socket Mode frame. Frames carrying an envelope_id
// must be acked before the payload is processed.
type SocketEnvelope struct {
	EnvelopeID string          `json:"envelope_id,omitempty"`
	Type       string          `json:"type,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ParseSocketPayload decodes the Events API payload carried by an events_api
// Socket Mode envelope. Other envelope types (hello, disconnect) yield an
// empty Envelope.
func ParseSocketPayload(envelope SocketEnvelope) (Envelope, error) {
	if strings.TrimSpace(envelope.Type) != "events_api" || len(envelope.Payload) == 0 {
		return Envelope{}, nil
	}
	return ParseWebhookPayload(envelope.Payload)
}
