package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quill-ai/quill/internal/errors"
)

func testClient(baseURL string) *OpenRouterClient {
	return NewOpenRouterClient(&OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test/model",
		Timeout: 5 * time.Second,
	})
}

func TestChatParsesFirstChoice(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"model": "test/model",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hello"}},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	resp, err := c.Chat(context.Background(), &ChatRequest{
		Messages: []Message{UserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, resp.Message.Role)
	assert.Equal(t, "hello", resp.Message.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	// The default model is filled in when the request leaves it empty.
	assert.Equal(t, "test/model", gotReq.Model)
}

func TestChatDecodesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{
						{
							"id":   "call_1",
							"type": "function",
							"function": map[string]any{
								"name":      "read_note",
								"arguments": `{"file_path":"Ideas.md"}`,
							},
						},
					},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	resp, err := c.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("read my ideas")}})
	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "read_note", resp.Message.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"file_path":"Ideas.md"}`, resp.Message.ToolCalls[0].Function.Arguments)
}

func TestChatNon2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("hi")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryTransport, apperrors.GetCategory(err))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestChatMissingKeyIsConfigErrorWithoutNetworkCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewOpenRouterClient(&OpenRouterConfig{BaseURL: srv.URL, Model: "test/model"})
	_, err := c.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("hi")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryConfig, apperrors.GetCategory(err))
	assert.False(t, called)
	assert.False(t, c.IsAvailable())
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("hi")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
