// Package llm provides hand-rolled HTTP clients for hosted model providers:
// merchant classification, chat with tool use, and text embeddings.
package llm

import (
	"context"
	"encoding/json"

	"github.com/pennywise-app/pennywise/internal/service"
)

// retryOptions governs retry of provider HTTP calls. Transient failures
// (transport errors, 5xx, rate limits) are retried with backoff; client
// errors fail immediately.
var retryOptions = service.RetryOptions{MaxAttempts: 3}

// Classifier picks categories for normalized merchant strings.
type Classifier interface {
	// ClassifyMerchant returns a bare category name for one merchant.
	ClassifyMerchant(ctx context.Context, merchant string, categories []string) (string, error)
	// ClassifyMerchantBatch returns one category per merchant, in input order.
	ClassifyMerchantBatch(ctx context.Context, merchants []string, categories []string) ([]string, error)
}

// ChatClient runs one chat-completion turn, optionally offering tools.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Embedder converts text into fixed-dimension embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config holds provider configuration.
type Config struct {
	Provider       string
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	RateLimit      int // requests per minute, 0 = default
}

// Message is one turn of a conversation.
type Message struct {
	Role       string     `json:"role"` // user, assistant, or tool
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolDefinition declares one callable tool to the model.
type ToolDefinition struct {
	Parameters  map[string]any `json:"parameters"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ChatRequest is one planning turn: system prompt, history, tool palette.
type ChatRequest struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// ChatResponse carries either a final textual answer, tool invocation
// requests, or both.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}
