package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/common"
)

// openAIClient implements Classifier, ChatClient, and Embedder against the
// OpenAI API.
type openAIClient struct {
	httpClient     *http.Client
	limiter        *rateLimiter
	apiKey         string
	model          string
	embeddingModel string
	temperature    float64
	maxTokens      int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &openAIClient{
		apiKey:         cfg.APIKey,
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		limiter:        newRateLimiter(cfg.RateLimit),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// openAIResponse represents the chat completions response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Created int64 `json:"created"`
}

// post issues one API call, retrying transient failures.
func (c *openAIClient) post(ctx context.Context, url string, requestBody any) ([]byte, error) {
	var body []byte
	err := common.WithRetry(ctx, func() error {
		var postErr error
		body, postErr = c.postOnce(ctx, url, requestBody)
		return postErr
	}, retryOptions)
	return body, err
}

func (c *openAIClient) postOnce(ctx context.Context, url string, requestBody any) ([]byte, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Retryable: true, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.RetryableError{Retryable: true, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: OpenAI API (status 429)", common.ErrRateLimit)
	case resp.StatusCode >= 500:
		return nil, &common.RetryableError{Retryable: true, Err: fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))}
	default:
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func (c *openAIClient) completion(ctx context.Context, system, user string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	body, err := c.post(ctx, "https://api.openai.com/v1/chat/completions", requestBody)
	if err != nil {
		return "", err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

// ClassifyMerchant asks for a bare category name for one merchant.
func (c *openAIClient) ClassifyMerchant(ctx context.Context, merchant string, categories []string) (string, error) {
	content, err := c.completion(ctx,
		"You are a financial transaction classifier. Respond with the bare category name only, with no explanation or punctuation.",
		classifyPrompt(merchant, categories))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// ClassifyMerchantBatch classifies many merchants with one API call.
func (c *openAIClient) ClassifyMerchantBatch(ctx context.Context, merchants []string, categories []string) ([]string, error) {
	if len(merchants) == 0 {
		return nil, nil
	}

	content, err := c.completion(ctx,
		"You are a financial transaction classifier. You MUST respond with ONLY a valid JSON array of category names. Do not include any explanatory text or markdown formatting.",
		classifyBatchPrompt(merchants, categories))
	if err != nil {
		return nil, err
	}

	return parseCategoryList(content, len(merchants))
}

// Chat runs one chat-completion turn with an optional tool palette.
func (c *openAIClient) Chat(ctx context.Context, chatReq ChatRequest) (*ChatResponse, error) {
	messages := make([]map[string]any, 0, len(chatReq.Messages)+1)
	if chatReq.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": chatReq.System})
	}
	for _, msg := range chatReq.Messages {
		entry := map[string]any{"role": msg.Role, "content": msg.Content}
		if msg.Role == "tool" {
			entry["tool_call_id"] = msg.ToolCallID
		}
		if len(msg.ToolCalls) > 0 {
			calls := make([]map[string]any, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				calls[i] = map[string]any{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]any{
						"name":      tc.Name,
						"arguments": string(tc.Arguments),
					},
				}
			}
			entry["tool_calls"] = calls
		}
		messages = append(messages, entry)
	}

	requestBody := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	if len(chatReq.Tools) > 0 {
		tools := make([]map[string]any, len(chatReq.Tools))
		for i, tool := range chatReq.Tools {
			tools[i] = map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        tool.Name,
					"description": tool.Description,
					"parameters":  tool.Parameters,
				},
			}
		}
		requestBody["tools"] = tools
	}

	body, err := c.post(ctx, "https://api.openai.com/v1/chat/completions", requestBody)
	if err != nil {
		return nil, err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	msg := response.Choices[0].Message
	result := &ChatResponse{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	return result, nil
}

// openAIEmbeddingResponse represents the embeddings API response structure.
type openAIEmbeddingResponse struct {
	Object string `json:"object"`
	Model  string `json:"model"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed computes one embedding vector.
func (c *openAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch computes embeddings for many texts with one API call,
// preserving input order.
func (c *openAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requestBody := map[string]any{
		"model": c.embeddingModel,
		"input": texts,
	}

	body, err := c.post(ctx, "https://api.openai.com/v1/embeddings", requestBody)
	if err != nil {
		return nil, err
	}

	var response openAIEmbeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range response.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}

// Close releases the rate limiter.
func (c *openAIClient) Close() {
	c.limiter.Close()
}
