package llm

import (
	"context"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

type Request struct {
	Model      string
	Messages   []Message
	ForceJSON  bool
	Parameters map[string]any
}

// Client is the stateless generation interface: every call carries the full
// message sequence it should answer from.
type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}
