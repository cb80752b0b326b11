package uniai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lyricat/goutils/structs"
	"github.com/quailyquaily/slackmate/llm"
	uniaiapi "github.com/quailyquaily/uniai"
	uniaichat "github.com/quailyquaily/uniai/chat"
)

type Config struct {
	Provider string
	Endpoint string
	APIKey   string
	Model    string

	RequestTimeout time.Duration

	Debug bool
}

type Client struct {
	provider       string
	requestTimeout time.Duration
	client         *uniaiapi.Client
}

func New(cfg Config) *Client {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "gemini"
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	endpoint := strings.TrimSpace(cfg.Endpoint)
	model := strings.TrimSpace(cfg.Model)

	uCfg := uniaiapi.Config{
		Provider:        provider,
		OpenAIAPIKey:    apiKey,
		OpenAIAPIBase:   normalizeOpenAIBase(endpoint),
		OpenAIModel:     model,
		AnthropicAPIKey: apiKey,
		AnthropicModel:  model,
		GeminiAPIKey:    apiKey,
		GeminiAPIBase:   endpoint,

		Debug: cfg.Debug,
	}

	return &Client{
		provider:       provider,
		requestTimeout: cfg.RequestTimeout,
		client:         uniaiapi.New(uCfg),
	}
}

func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	if c == nil || c.client == nil {
		return llm.Result{}, fmt.Errorf("uniai client is not initialized")
	}
	start := time.Now()
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	resp, err := c.client.Chat(ctx, buildChatOptions(req, c.provider)...)
	if err != nil {
		return llm.Result{}, err
	}
	if resp == nil {
		return llm.Result{}, fmt.Errorf("uniai: empty response")
	}

	return llm.Result{
		Text: resp.Text,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}, nil
}

func buildChatOptions(req llm.Request, provider string) []uniaiapi.ChatOption {
	msgs := make([]uniaiapi.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = uniaiapi.Message{Role: m.Role, Content: m.Content}
	}

	opts := []uniaiapi.ChatOption{uniaiapi.WithReplaceMessages(msgs...)}
	if provider != "" {
		opts = append(opts, uniaiapi.WithProvider(provider))
	}
	if strings.TrimSpace(req.Model) != "" {
		opts = append(opts, uniaiapi.WithModel(strings.TrimSpace(req.Model)))
	}

	appliedTemperature := false
	if req.Parameters != nil {
		if v, ok := floatFromAny(req.Parameters["temperature"]); ok {
			opts = append(opts, uniaiapi.WithTemperature(v))
			appliedTemperature = true
		}
		if v, ok := floatFromAny(req.Parameters["top_p"]); ok {
			opts = append(opts, uniaiapi.WithTopP(v))
		}
		if v, ok := intFromAny(req.Parameters["max_tokens"]); ok && v > 0 {
			opts = append(opts, uniaiapi.WithMaxTokens(v))
		}
	}
	if !appliedTemperature {
		opts = append(opts, uniaiapi.WithTemperature(0))
	}

	if req.ForceJSON {
		opts = append(opts, uniaichat.WithOpenAIOptions(structs.JSONMap{
			"response_format": "json_object",
		}))
	}

	return opts
}

func normalizeOpenAIBase(endpoint string) string {
	endpoint = strings.TrimSpace(strings.TrimRight(endpoint, "/"))
	if endpoint == "" {
		return ""
	}
	if strings.HasSuffix(endpoint, "/v1") {
		return endpoint
	}
	return endpoint + "/v1"
}

func floatFromAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func intFromAny(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}
