// Package llm talks to an OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"planner/pkg/config"
	"planner/pkg/metrics"
)

// ErrEmptyResponse is returned when the model produced no content.
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer sends one prompt and returns the model's text answer.
type Completer interface {
	Complete(ctx context.Context, purpose, prompt string) (string, error)
}

// Client is a Completer backed by go-openai.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient returns nil when no API key is configured.
func NewClient(cfg config.LLMConfig) *Client {
	if !cfg.Enabled() {
		return nil
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: cfg.Model, timeout: timeout}
}

func (c *Client) Complete(ctx context.Context, purpose, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		metrics.ObserveLLM(purpose, outcome(err), time.Since(start))
		return "", fmt.Errorf("llm %s: %w", purpose, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.ObserveLLM(purpose, "empty", time.Since(start))
		return "", ErrEmptyResponse
	}
	metrics.ObserveLLM(purpose, "ok", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}

func outcome(err error) string {
	var apiErr *openai.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("http_%d", apiErr.HTTPStatusCode)
	default:
		return "error"
	}
}
