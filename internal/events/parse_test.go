package events

import (
	"encoding/json"
	"testing"
)

func TestParseWebhookPayloadChallenge(t *testing.T) {
	t.Parallel()

	env, err := ParseWebhookPayload([]byte(`{"type":"url_verification","challenge":"ch-123"}`))
	if err != nil {
		t.Fatalf("ParseWebhookPayload() error = %v", err)
	}
	if env.Challenge != "ch-123" {
		t.Fatalf("challenge mismatch: got %q want %q", env.Challenge, "ch-123")
	}
	if env.HasEvent {
		t.Fatalf("HasEvent = true, want false")
	}
}

func TestParseWebhookPayloadMessage(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"type": "event_callback",
		"event_id": "Ev100",
		"event": {
			"type": "message",
			"channel": "D1",
			"channel_type": "im",
			"user": "U1",
			"text": "Hi",
			"ts": "100",
			"thread_ts": "T1"
		}
	}`)
	env, err := ParseWebhookPayload(raw)
	if err != nil {
		t.Fatalf("ParseWebhookPayload() error = %v", err)
	}
	if !env.HasEvent {
		t.Fatalf("HasEvent = false, want true")
	}
	ev := env.Event
	if ev.Type != TypeMessage {
		t.Fatalf("type mismatch: got %q want %q", ev.Type, TypeMessage)
	}
	if ev.EventID != "Ev100" {
		t.Fatalf("event_id mismatch: got %q want %q", ev.EventID, "Ev100")
	}
	if ev.ChannelID != "D1" || ev.UserID != "U1" || ev.Text != "Hi" {
		t.Fatalf("event fields mismatch: %+v", ev)
	}
	if ev.TS != "100" || ev.ThreadToken() != "T1" {
		t.Fatalf("timestamp fields mismatch: ts=%q thread=%q", ev.TS, ev.ThreadToken())
	}
}

func TestParseWebhookPayloadThreadStarted(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"type": "event_callback",
		"event_id": "Ev200",
		"event": {
			"type": "assistant_thread_started",
			"assistant_thread": {
				"user_id": "U1",
				"thread_ts": "T1",
				"context": {"channel_id": "D9"}
			}
		}
	}`)
	env, err := ParseWebhookPayload(raw)
	if err != nil {
		t.Fatalf("ParseWebhookPayload() error = %v", err)
	}
	if !env.HasEvent {
		t.Fatalf("HasEvent = false, want true")
	}
	ev := env.Event
	if ev.Type != TypeThreadStarted {
		t.Fatalf("type mismatch: got %q want %q", ev.Type, TypeThreadStarted)
	}
	if ev.ChannelID != "D9" {
		t.Fatalf("channel fallback mismatch: got %q want %q", ev.ChannelID, "D9")
	}
	if ev.UserID != "U1" || ev.ThreadTS != "T1" {
		t.Fatalf("event fields mismatch: %+v", ev)
	}
}

func TestParseWebhookPayloadTopLevelThreadStarted(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"type": "assistant_thread_started",
		"assistant_thread": {"user_id": "U1", "channel_id": "D1", "thread_ts": "T1"}
	}`)
	env, err := ParseWebhookPayload(raw)
	if err != nil {
		t.Fatalf("ParseWebhookPayload() error = %v", err)
	}
	if !env.HasEvent {
		t.Fatalf("HasEvent = false, want true")
	}
	if env.Event.ChannelID != "D1" {
		t.Fatalf("channel mismatch: got %q want %q", env.Event.ChannelID, "D1")
	}
}

func TestParseWebhookPayloadUnhandledType(t *testing.T) {
	t.Parallel()

	env, err := ParseWebhookPayload([]byte(`{"type":"event_callback","event":{"type":"reaction_added"}}`))
	if err != nil {
		t.Fatalf("ParseWebhookPayload() error = %v", err)
	}
	if env.HasEvent {
		t.Fatalf("HasEvent = true for unhandled event type")
	}
}

func TestParseSocketPayload(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"type":     "event_callback",
		"event_id": "Ev300",
		"event": map[string]any{
			"type":    "app_mention",
			"channel": "C1",
			"user":    "U2",
			"text":    "<@UBOT> hello",
			"ts":      "200",
		},
	}
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	env, err := ParseSocketPayload(SocketEnvelope{
		EnvelopeID: "env-1",
		Type:       "events_api",
		Payload:    rawPayload,
	})
	if err != nil {
		t.Fatalf("ParseSocketPayload() error = %v", err)
	}
	if !env.HasEvent {
		t.Fatalf("HasEvent = false, want true")
	}
	if env.Event.Type != TypeMention || env.Event.ChannelID != "C1" {
		t.Fatalf("event mismatch: %+v", env.Event)
	}

	hello, err := ParseSocketPayload(SocketEnvelope{Type: "hello"})
	if err != nil {
		t.Fatalf("ParseSocketPayload(hello) error = %v", err)
	}
	if hello.HasEvent {
		t.Fatalf("hello envelope produced an event")
	}
}

func TestThreadTokenFallsBackToTS(t *testing.T) {
	t.Parallel()

	ev := Inbound{TS: "100"}
	if got := ev.ThreadToken(); got != "100" {
		t.Fatalf("ThreadToken() = %q, want %q", got, "100")
	}
	ev.ThreadTS = "T1"
	if got := ev.ThreadToken(); got != "T1" {
		t.Fatalf("ThreadToken() = %q, want %q", got, "T1")
	}
}
