package domain

import "context"

// Message is one turn of a chat exchange with the model.
type Message struct {
	Role    string
	Content string
}

// StreamChunk is one token-level delta from a streaming completion.
type StreamChunk struct {
	Delta string
	Done  bool
}

// LLMClient defines the capability to send chat messages to a completion
// provider and receive text back, either whole or as a token stream.
type LLMClient interface {
	Chat(ctx context.Context, messages []Message, maxTokens int) (string, error)

	// ChatStream returns a delta channel and an error channel. The delta
	// channel closes when generation finishes; at most one error is sent.
	ChatStream(ctx context.Context, messages []Message, maxTokens int) (<-chan StreamChunk, <-chan error, error)

	Version() string
}
