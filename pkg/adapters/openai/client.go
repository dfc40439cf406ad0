package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("openai: api key is required")

// Config holds the connection settings. Nothing is read from the environment;
// callers pass the values explicitly.
type Config struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	APIKey      string        `yaml:"api_key" json:"api_key"`
	Model       string        `yaml:"model" json:"model"`
	Temperature *float64      `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// Client implements ports.ChatModel against an OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a client, filling defaults for empty fields.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate sends the conversation and returns the assistant's reply.
func (c *Client) Generate(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		Messages:    make([]wireMessage, 0, len(messages)),
		Temperature: c.cfg.Temperature,
	}
	for _, m := range messages {
		wm, err := toWire(m)
		if err != nil {
			return domain.Message{}, err
		}
		payload.Messages = append(payload.Messages, wm)
	}
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		payload.Tools = append(payload.Tools, wireTool{
			Type:     "function",
			Function: wireFunction{Name: t.Name, Description: t.Description, Parameters: params},
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Message{}, fmt.Errorf("openai: encode request: %w", err)
	}
	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return domain.Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Message{}, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Message{}, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Message{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return domain.Message{}, errors.New("openai: response has no choices")
	}
	return fromWire(parsed.ID, parsed.Choices[0].Message)
}

// APIError is a non-200 answer from the endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai error: status %d: %s", e.Status, e.Body)
}
