// Package slackclient is a thin Slack Web API client covering the handful of
// methods the assistant needs: auth.test, chat.postMessage, users.info,
// conversations.open and apps.connections.open.
package slackclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const DefaultBaseURL = "https://slack.com/api"

type Client struct {
	http     *http.Client
	baseURL  string
	botToken string
	appToken string
}

type Options struct {
	HTTPClient *http.Client
	BaseURL    string
	BotToken   string
	AppToken   string
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimSpace(strings.TrimRight(opts.BaseURL, "/"))
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		botToken: strings.TrimSpace(opts.BotToken),
		appToken: strings.TrimSpace(opts.AppToken),
	}
}

type AuthTestResult struct {
	TeamID string
	UserID string
	BotID  string
	Team   string
	User   string
}

type authTestResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	TeamID string `json:"team_id,omitempty"`
	UserID string `json:"user_id,omitempty"`
	BotID  string `json:"bot_id,omitempty"`
	Team   string `json:"team,omitempty"`
	User   string `json:"user,omitempty"`
}

// AuthTest resolves the bot's own identity. The returned UserID is what the
// admission filter compares senders against.
func (c *Client) AuthTest(ctx context.Context) (AuthTestResult, error) {
	if c == nil {
		return AuthTestResult{}, fmt.Errorf("slack client is not initialized")
	}
	body, status, _, err := c.postAuthJSON(ctx, c.botToken, "/auth.test", nil)
	if err != nil {
		return AuthTestResult{}, err
	}
	if status < 200 || status >= 300 {
		return AuthTestResult{}, fmt.Errorf("slack auth.test http %d", status)
	}
	var out authTestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return AuthTestResult{}, err
	}
	if !out.OK {
		return AuthTestResult{}, apiError("auth.test", out.Error)
	}
	return AuthTestResult{
		TeamID: strings.TrimSpace(out.TeamID),
		UserID: strings.TrimSpace(out.UserID),
		BotID:  strings.TrimSpace(out.BotID),
		Team:   strings.TrimSpace(out.Team),
		User:   strings.TrimSpace(out.User),
	}, nil
}

type postMessageRequest struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// PostMessage sends text to a channel, optionally inside a thread, and
// returns the delivered message's timestamp. Rate-limited and 5xx responses
// are retried up to three attempts.
func (c *Client) PostMessage(ctx context.Context, channelID, text, threadTS string) (string, error) {
	channelID = strings.TrimSpace(channelID)
	text = strings.TrimSpace(text)
	threadTS = strings.TrimSpace(threadTS)
	if channelID == "" {
		return "", fmt.Errorf("channel_id is required")
	}
	if text == "" {
		return "", fmt.Errorf("text is required")
	}
	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, status, headers, err := c.postAuthJSON(ctx, c.botToken, "/chat.postMessage", postMessageRequest{
			Channel:  channelID,
			Text:     text,
			ThreadTS: threadTS,
		})
		if err != nil {
			lastErr = err
		} else {
			var out postMessageResponse
			if parseErr := json.Unmarshal(body, &out); parseErr != nil {
				lastErr = parseErr
			} else if status < 200 || status >= 300 {
				lastErr = fmt.Errorf("slack chat.postMessage http %d", status)
			} else if out.OK {
				return strings.TrimSpace(out.TS), nil
			} else {
				lastErr = apiError("chat.postMessage", out.Error)
			}
		}

		if attempt >= maxAttempts {
			break
		}
		wait, retryable := retryDelay(status, headers, attempt)
		if !retryable {
			break
		}
		if err := sleepWithContext(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

type UserProfile struct {
	ID          string
	RealName    string
	DisplayName string
	FirstName   string
}

type usersInfoResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	User  struct {
		ID       string `json:"id"`
		RealName string `json:"real_name"`
		Profile  struct {
			RealName    string `json:"real_name"`
			DisplayName string `json:"display_name"`
			FirstName   string `json:"first_name"`
		} `json:"profile"`
	} `json:"user"`
}

func (c *Client) UsersInfo(ctx context.Context, userID string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("user_id is required")
	}
	body, status, _, err := c.postAuthForm(ctx, c.botToken, "/users.info", map[string]string{"user": userID})
	if err != nil {
		return UserProfile{}, err
	}
	if status < 200 || status >= 300 {
		return UserProfile{}, fmt.Errorf("slack users.info http %d", status)
	}
	var out usersInfoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return UserProfile{}, err
	}
	if !out.OK {
		return UserProfile{}, apiError("users.info", out.Error)
	}
	realName := strings.TrimSpace(out.User.Profile.RealName)
	if realName == "" {
		realName = strings.TrimSpace(out.User.RealName)
	}
	return UserProfile{
		ID:          strings.TrimSpace(out.User.ID),
		RealName:    realName,
		DisplayName: strings.TrimSpace(out.User.Profile.DisplayName),
		FirstName:   strings.TrimSpace(out.User.Profile.FirstName),
	}, nil
}

type openConversationRequest struct {
	Users string `json:"users"`
}

type openConversationResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

// OpenConversation opens (or resumes) a direct message with the user and
// returns its channel id.
func (c *Client) OpenConversation(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	body, status, _, err := c.postAuthJSON(ctx, c.botToken, "/conversations.open", openConversationRequest{Users: userID})
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("slack conversations.open http %d", status)
	}
	var out openConversationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", apiError("conversations.open", out.Error)
	}
	channelID := strings.TrimSpace(out.Channel.ID)
	if channelID == "" {
		return "", fmt.Errorf("slack conversations.open returned empty channel id")
	}
	return channelID, nil
}

type openConnectionResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (c *Client) openSocketURL(ctx context.Context) (string, error) {
	body, status, _, err := c.postAuthJSON(ctx, c.appToken, "/apps.connections.open", nil)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("slack apps.connections.open http %d", status)
	}
	var out openConnectionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", apiError("apps.connections.open", out.Error)
	}
	url := strings.TrimSpace(out.URL)
	if url == "" {
		return "", fmt.Errorf("slack apps.connections.open returned empty url")
	}
	return url, nil
}

// ConnectSocket opens a Socket Mode websocket using the app-level token.
func (c *Client) ConnectSocket(ctx context.Context) (*websocket.Conn, error) {
	url, err := c.openSocketURL(ctx)
	if err != nil {
		return nil, err
	}
	dialer := *websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func apiError(method, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		code = "unknown_error"
	}
	return fmt.Errorf("slack %s failed: %s", method, code)
}

func retryDelay(status int, headers http.Header, attempt int) (time.Duration, bool) {
	switch {
	case status == http.StatusTooManyRequests:
		retryAfter := strings.TrimSpace(headers.Get("Retry-After"))
		if retryAfter == "" {
			return 1 * time.Second, true
		}
		secs, err := strconv.Atoi(retryAfter)
		if err != nil || secs <= 0 {
			return 1 * time.Second, true
		}
		return time.Duration(secs) * time.Second, true
	case status >= 500 && status <= 599:
		switch attempt {
		case 1:
			return 300 * time.Millisecond, true
		case 2:
			return 1 * time.Second, true
		default:
			return 2 * time.Second, true
		}
	default:
		return 0, false
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) postAuthJSON(ctx context.Context, token, path string, payload any) ([]byte, int, http.Header, error) {
	if c == nil || c.http == nil {
		return nil, 0, nil, fmt.Errorf("slack client is not initialized")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, 0, nil, fmt.Errorf("slack token is required")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, 0, nil, fmt.Errorf("slack api path is required")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) postAuthForm(ctx context.Context, token, path string, fields map[string]string) ([]byte, int, http.Header, error) {
	if c == nil || c.http == nil {
		return nil, 0, nil, fmt.Errorf("slack client is not initialized")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, 0, nil, fmt.Errorf("slack token is required")
	}

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, http.Header, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp.StatusCode, resp.Header, readErr
	}
	return raw, resp.StatusCode, resp.Header, nil
}
