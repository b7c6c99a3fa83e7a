// Package model provides the OpenRouter API client for cloud LLM access.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/quill-ai/quill/internal/errors"
)

// OpenRouterConfig configures the OpenRouter client.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string // Default: https://openrouter.ai/api/v1
	Model   string // e.g., "anthropic/claude-3.5-sonnet"
	Timeout time.Duration
}

// DefaultOpenRouterConfig returns default configuration.
func DefaultOpenRouterConfig(apiKey string) *OpenRouterConfig {
	return &OpenRouterConfig{
		APIKey:  apiKey,
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "anthropic/claude-3.5-sonnet",
		Timeout: 120 * time.Second,
	}
}

// OpenRouterClient implements Client using the OpenRouter API.
type OpenRouterClient struct {
	cfg    *OpenRouterConfig
	client *http.Client
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg *OpenRouterConfig) *OpenRouterClient {
	if cfg == nil {
		return nil
	}
	return &OpenRouterClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Chat sends the message list to OpenRouter and returns the first choice.
//
// A failed call is never retried here: the agent loop treats any transport
// failure as a hard stop for the current iteration.
func (c *OpenRouterClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("openrouter client not initialized")
	}
	if c.cfg.APIKey == "" {
		return nil, apperrors.Config(apperrors.CodeMissingAPIKey, "OpenRouter API key is not configured").
			WithSuggestion("Set openrouter.api_key in the config file").
			WithSuggestion("Or export OPENROUTER_API_KEY")
	}

	if req.Model == "" {
		req.Model = c.cfg.Model
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("HTTP-Referer", "https://github.com/quill-ai/quill")
	httpReq.Header.Set("X-Title", "Quill")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCompletionFailed, "completion request failed", apperrors.CategoryTransport)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCompletionFailed, "failed to read response", apperrors.CategoryTransport)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Transport(apperrors.CodeCompletionFailed,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCompletionParse, "failed to parse response", apperrors.CategoryTransport)
	}

	if len(orResp.Choices) == 0 {
		return nil, apperrors.Transport(apperrors.CodeCompletionEmpty, "no choices in response")
	}

	msg := orResp.Choices[0].Message
	if msg.Role == "" {
		msg.Role = RoleAssistant
	}

	return &ChatResponse{
		Message: msg,
		Model:   orResp.Model,
		Usage: Usage{
			PromptTokens:     orResp.Usage.PromptTokens,
			CompletionTokens: orResp.Usage.CompletionTokens,
			TotalTokens:      orResp.Usage.TotalTokens,
		},
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// IsAvailable checks if the client is configured.
func (c *OpenRouterClient) IsAvailable() bool {
	return c != nil && c.cfg != nil && c.cfg.APIKey != ""
}

// Name returns the model name.
func (c *OpenRouterClient) Name() string {
	if c.cfg != nil {
		return c.cfg.Model
	}
	return "openrouter"
}

// ============================================================
// OpenRouter API Types
// ============================================================

type openRouterResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
