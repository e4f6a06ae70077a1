// Package llm is a small client for OpenAI-style chat-completion gateways.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stwalsh4118/proptax/internal/logger"
)

// Upstream failure conditions.
var (
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrQuotaExhausted = errors.New("AI credits exhausted")
	ErrEmptyResponse  = errors.New("no response from AI")
	ErrUnreachable    = errors.New("AI gateway unreachable")
)

// maxErrorBody bounds how much of an error response is kept for diagnostics.
const maxErrorBody = 1024

// UpstreamError reports a non-success status other than 429 and 402.
type UpstreamError struct {
	Body   string
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI gateway error: %d", e.Status)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the model for a particular output shape.
type ResponseFormat struct {
	Type string `json:"type"`
}

// JSONObject requests a single JSON object as the completion.
var JSONObject = &ResponseFormat{Type: "json_object"}

// ChatRequest is the body sent to /chat/completions.
// An empty Model is filled from the client configuration.
type ChatRequest struct {
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Stream         bool            `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Config holds the client settings. The API key is injected here rather than
// read from the environment.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxAttempts     int
	RetryInitial    time.Duration
	RetryMaxBackoff time.Duration
}

// Client talks to a chat-completion endpoint.
type Client interface {
	// Complete sends a non-streaming request and returns the first choice's content.
	Complete(ctx context.Context, req ChatRequest) (string, error)

	// Stream sends a streaming request and returns the raw event-stream body.
	// Status errors are reported before any byte is returned. The caller must
	// close the body.
	Stream(ctx context.Context, req ChatRequest) (io.ReadCloser, error)
}

type client struct {
	cfg          Config
	http         *http.Client
	streamClient *http.Client
	log          *logger.Logger
}

// NewClient creates a Client. Rate-limited requests are retried with
// exponential backoff up to cfg.MaxAttempts total attempts.
func NewClient(cfg Config, log *logger.Logger) Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		// Streams can run longer than any fixed timeout; the request context
		// bounds them instead.
		streamClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		log: log.With(map[string]interface{}{"component": "llm"}),
	}
}

func (c *client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	req.Stream = false

	resp, err := c.send(ctx, c.http, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return decoded.Choices[0].Message.Content, nil
}

func (c *client) Stream(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	req.Stream = true

	resp, err := c.send(ctx, c.streamClient, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// send posts req, retrying on 429. On success the caller owns resp.Body.
func (c *client) send(ctx context.Context, hc *http.Client, req ChatRequest) (*http.Response, error) {
	if req.Model == "" {
		req.Model = c.cfg.Model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	attempt := 0
	operation := func() (*http.Response, error) {
		attempt++
		resp, err := c.post(ctx, hc, body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		statusErr := statusError(resp)
		if errors.Is(statusErr, ErrRateLimited) {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn("AI gateway rate limited, retrying", map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": c.cfg.MaxAttempts,
			"wait_ms":      wait.Milliseconds(),
			"error":        err.Error(),
		})
	}

	resp, err := backoff.RetryNotifyWithData(operation, c.backoff(ctx), notify)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			c.log.Warn("AI gateway rate limit persisted", map[string]interface{}{
				"attempts": attempt,
			})
		}
		return nil, err
	}
	return resp, nil
}

func (c *client) post(ctx context.Context, hc *http.Client, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return resp, nil
}

func (c *client) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.cfg.RetryInitial > 0 {
		b.InitialInterval = c.cfg.RetryInitial
	}
	if c.cfg.RetryMaxBackoff > 0 {
		b.MaxInterval = c.cfg.RetryMaxBackoff
	}
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1)), ctx)
}

// statusError drains and closes resp and maps its status to an error.
// The body of a 429 is never inspected.
func statusError(resp *http.Response) error {
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrRateLimited
	case http.StatusPaymentRequired:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrQuotaExhausted
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{Status: resp.StatusCode, Body: string(snippet)}
	}
}
