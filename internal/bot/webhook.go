package bot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/quailyquaily/slackmate/internal/events"
)

const maxWebhookBody = 1 << 20

// WebhookHandler serves the Events API endpoint. Signature verification and
// the url_verification challenge are handled synchronously; everything else
// is acknowledged immediately and dispatched in the background, because Slack
// retries any delivery not answered within a few seconds.
type WebhookHandler struct {
	signingSecret string
	router        *Router
	logger        *slog.Logger
	dispatchCtx   context.Context
	now           func() time.Time
}

func NewWebhookHandler(ctx context.Context, signingSecret string, router *Router, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &WebhookHandler{
		signingSecret: signingSecret,
		router:        router,
		logger:        logger,
		dispatchCtx:   ctx,
		now:           time.Now,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}

	if err := events.VerifySignature(h.signingSecret, r.Header, body, h.now()); err != nil {
		h.logger.Warn("webhook_signature_rejected", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	envelope, err := events.ParseWebhookPayload(body)
	if err != nil {
		h.logger.Warn("webhook_payload_invalid", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if envelope.Challenge != "" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(envelope.Challenge))
		return
	}

	if envelope.HasEvent {
		ev := envelope.Event
		go h.router.Dispatch(h.dispatchCtx, ev)
	}
	w.WriteHeader(http.StatusOK)
}
