package admission

import (
	"io"
	"log/slog"
	"testing"

	"github.com/quailyquaily/slackmate/internal/events"
)

func newTestFilter(t *testing.T) *Filter {
	t.Helper()
	return New(Options{
		BotUserID: "UBOT",
		Capacity:  64,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func userMessage() events.Inbound {
	return events.Inbound{
		EventID:   "Ev1",
		Type:      events.TypeMessage,
		ChannelID: "D1",
		UserID:    "U1",
		Text:      "Hi",
		TS:        "100",
	}
}

func TestAdmitAcceptsOrdinaryMessage(t *testing.T) {
	t.Parallel()

	f := newTestFilter(t)
	if !f.Admit(userMessage()) {
		t.Fatalf("Admit() = false, want true")
	}
}

func TestAdmitRejectsBotOrigin(t *testing.T) {
	t.Parallel()

	f := newTestFilter(t)

	ev := userMessage()
	ev.UserID = "UBOT"
	if f.Admit(ev) {
		t.Fatalf("Admit() accepted the bot's own message")
	}

	ev = userMessage()
	ev.EventID = "Ev2"
	ev.UserID = "<@UBOT|assistant>"
	if f.Admit(ev) {
		t.Fatalf("Admit() accepted a non-canonical encoding of the bot id")
	}

	ev = userMessage()
	ev.EventID = "Ev3"
	ev.BotID = "B99"
	if f.Admit(ev) {
		t.Fatalf("Admit() accepted a bot_id message")
	}

	ev = userMessage()
	ev.EventID = "Ev4"
	ev.Subtype = "bot_message"
	if f.Admit(ev) {
		t.Fatalf("Admit() accepted a bot_message subtype")
	}
}

func TestAdmitRejectsRedeliveredEventID(t *testing.T) {
	t.Parallel()

	f := newTestFilter(t)
	ev := userMessage()
	if !f.Admit(ev) {
		t.Fatalf("Admit(first) = false, want true")
	}
	if f.Admit(ev) {
		t.Fatalf("Admit(redelivery) = true, want false")
	}
}

func TestAdmitRejectsRepliedTimestamp(t *testing.T) {
	t.Parallel()

	f := newTestFilter(t)
	ev := userMessage()
	if !f.Admit(ev) {
		t.Fatalf("Admit(first) = false, want true")
	}
	f.MarkReplied(ev.TS)

	ev.EventID = "Ev2"
	if f.Admit(ev) {
		t.Fatalf("Admit() accepted an already-replied timestamp")
	}
}

func TestAdmitRejectsRepliedMention(t *testing.T) {
	t.Parallel()

	f := newTestFilter(t)
	ev := events.Inbound{
		EventID:     "Ev1",
		Type:        events.TypeMention,
		ChannelID:   "C1",
		UserID:      "U1",
		Text:        "<@UBOT> hello",
		TS:          "200",
		ClientMsgID: "cm-1",
	}
	if !f.Admit(ev) {
		t.Fatalf("Admit(first) = false, want true")
	}
	f.MarkMentionReplied(ev.ClientMsgID)

	ev.EventID = "Ev2"
	ev.TS = "201"
	if f.Admit(ev) {
		t.Fatalf("Admit() accepted an already-replied mention")
	}
}

func TestAdmitThreadStartedSkipsSenderChecks(t *testing.T) {
	t.Parallel()

	f := newTestFilter(t)
	ev := events.Inbound{
		EventID:  "Ev1",
		Type:     events.TypeThreadStarted,
		UserID:   "U1",
		ThreadTS: "T1",
	}
	if !f.Admit(ev) {
		t.Fatalf("Admit(thread started) = false, want true")
	}
	if f.Admit(ev) {
		t.Fatalf("Admit(thread started redelivery) = true, want false")
	}
}
