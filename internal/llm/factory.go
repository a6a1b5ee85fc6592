package llm

import (
	"fmt"
	"strings"
)

// NewClassifier creates a merchant classifier for the configured provider.
func NewClassifier(cfg Config) (Classifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewChatClient creates a tool-capable chat client for the configured provider.
func NewChatClient(cfg Config) (ChatClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewEmbedder creates an embedding client. Only OpenAI exposes an embedding
// endpoint here, regardless of the chat provider.
func NewEmbedder(cfg Config) (Embedder, error) {
	return newOpenAIClient(cfg)
}
