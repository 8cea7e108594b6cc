package providerapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campus-assist/internal/domain"

	"log/slog"
)

const generationTemperature = 0.3

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type chatCompletionStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Generator calls an OpenAI-compatible /v1/chat/completions endpoint,
// in both whole-response and server-sent-event streaming modes.
type Generator struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// NewGenerator constructs a Generator using the provided endpoint and model.
func NewGenerator(baseURL, apiKey, model string, timeoutSeconds int, client *http.Client) *Generator {
	if client == nil {
		timeout := 120 * time.Second
		if timeoutSeconds > 0 {
			timeout = time.Duration(timeoutSeconds) * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Generator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Client:  client,
	}
}

func (g *Generator) buildRequest(ctx context.Context, messages []domain.Message, maxTokens int, stream bool) (*http.Request, error) {
	msgs := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatCompletionRequest{
		Model:       g.Model,
		Messages:    msgs,
		Temperature: generationTemperature,
		Stream:      stream,
	}
	if maxTokens > 0 {
		reqBody.MaxTokens = maxTokens
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}
	return req, nil
}

// Chat sends the messages and returns the whole assistant reply.
func (g *Generator) Chat(ctx context.Context, messages []domain.Message, maxTokens int) (string, error) {
	start := time.Now()
	req, err := g.buildRequest(ctx, messages, maxTokens, false)
	if err != nil {
		return "", err
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		slog.Error("chat_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return "", fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat endpoint returned no choices")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)

	slog.Info("chat_completed",
		slog.Int("response_chars", len(content)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return content, nil
}

// ChatStream sends the messages with stream=true and forwards the SSE
// deltas. The chunk channel closes when the stream ends; a transport or
// parse failure is reported once on the error channel.
func (g *Generator) ChatStream(ctx context.Context, messages []domain.Message, maxTokens int) (<-chan domain.StreamChunk, <-chan error, error) {
	req, err := g.buildRequest(ctx, messages, maxTokens, true)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	chunks := make(chan domain.StreamChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				select {
				case chunks <- domain.StreamChunk{Done: true}:
				case <-ctx.Done():
				}
				return
			}

			var chunk chatCompletionStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				errs <- fmt.Errorf("failed to decode stream chunk: %w", err)
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			done := chunk.Choices[0].FinishReason != nil && *chunk.Choices[0].FinishReason != ""
			if delta == "" && !done {
				continue
			}
			select {
			case chunks <- domain.StreamChunk{Delta: delta, Done: done}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
			if done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("stream read error: %w", err)
		}
	}()

	return chunks, errs, nil
}

// Version returns the wrapped model name.
func (g *Generator) Version() string {
	return g.Model
}

var _ domain.LLMClient = (*Generator)(nil)
