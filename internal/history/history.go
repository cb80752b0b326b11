// Package history persists per-user conversation transcripts. The model
// itself is stateless; whatever the store returns is the entire memory the
// next exchange is built from.
package history

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in a user's transcript.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Store loads and replaces a user's transcript. Save overwrites the previous
// transcript wholesale; there is no append primitive, so concurrent writers
// for the same user must be serialized by the caller.
type Store interface {
	// Load returns the transcript for a user. A missing user yields an
	// empty transcript and no error.
	Load(ctx context.Context, userID string) ([]Turn, error)
	// Save replaces the user's transcript.
	Save(ctx context.Context, userID string, turns []Turn) error
}
