package events

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	signatureHeader = "X-Slack-Signature"
	timestampHeader = "X-Slack-Request-Timestamp"

	// Slack recommends rejecting requests older than five minutes to blunt
	// replay of captured deliveries.
	maxSignatureSkew = 5 * time.Minute
)

// VerifySignature checks the v0 request signature Slack attaches to every
// Events API delivery: HMAC-SHA256 of "v0:<timestamp>:<body>" under the app's
// signing secret.
func VerifySignature(signingSecret string, header http.Header, body []byte, now time.Time) error {
	signingSecret = strings.TrimSpace(signingSecret)
	if signingSecret == "" {
		return fmt.Errorf("signing secret is required")
	}

	timestamp := strings.TrimSpace(header.Get(timestampHeader))
	if timestamp == "" {
		return fmt.Errorf("missing %s header", timestampHeader)
	}
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s header", timestampHeader)
	}
	sentAt := time.Unix(unix, 0)
	skew := now.Sub(sentAt)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSignatureSkew {
		return fmt.Errorf("request timestamp outside allowed window")
	}

	given := strings.TrimSpace(header.Get(signatureHeader))
	if given == "" {
		return fmt.Errorf("missing %s header", signatureHeader)
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(given)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
