package model

import "context"

// Client represents a chat-completion service.
type Client interface {
	// Chat sends the full message list and returns the first choice.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// IsAvailable checks if the client is configured.
	IsAvailable() bool

	// Name returns the model identifier.
	Name() string
}
