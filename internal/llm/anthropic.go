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

// anthropicClient implements Classifier and ChatClient against the Anthropic
// Messages API.
type anthropicClient struct {
	httpClient  *http.Client
	limiter     *rateLimiter
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		limiter:     newRateLimiter(cfg.RateLimit),
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

// anthropicResponse represents the Messages API response structure.
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Model   string `json:"model"`
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text,omitempty"`
		ID    string          `json:"id,omitempty"`
		Name  string          `json:"name,omitempty"`
		Input json.RawMessage `json:"input,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// post issues one Messages API call, retrying transient failures.
func (c *anthropicClient) post(ctx context.Context, requestBody any) (*anthropicResponse, error) {
	var response *anthropicResponse
	err := common.WithRetry(ctx, func() error {
		var postErr error
		response, postErr = c.postOnce(ctx, requestBody)
		return postErr
	}, retryOptions)
	return response, err
}

func (c *anthropicClient) postOnce(ctx context.Context, requestBody any) (*anthropicResponse, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

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
		return nil, fmt.Errorf("%w: anthropic API (status 429)", common.ErrRateLimit)
	case resp.StatusCode >= 500:
		return nil, &common.RetryableError{Retryable: true, Err: fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(body))}
	default:
		return nil, fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}

func (c *anthropicClient) completion(ctx context.Context, system, user string) (string, error) {
	response, err := c.post(ctx, map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"system":      system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", err
	}

	for _, block := range response.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// ClassifyMerchant asks for a bare category name for one merchant.
func (c *anthropicClient) ClassifyMerchant(ctx context.Context, merchant string, categories []string) (string, error) {
	content, err := c.completion(ctx,
		"You are a financial transaction classifier. Respond with the bare category name only, with no explanation or punctuation.",
		classifyPrompt(merchant, categories))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// ClassifyMerchantBatch classifies many merchants with one API call.
func (c *anthropicClient) ClassifyMerchantBatch(ctx context.Context, merchants []string, categories []string) ([]string, error) {
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

// Chat runs one chat turn with an optional tool palette.
func (c *anthropicClient) Chat(ctx context.Context, chatReq ChatRequest) (*ChatResponse, error) {
	messages := make([]map[string]any, 0, len(chatReq.Messages))
	for _, msg := range chatReq.Messages {
		switch {
		case msg.Role == "tool":
			messages = append(messages, map[string]any{
				"role": "user",
				"content": []map[string]any{{
					"type":        "tool_result",
					"tool_use_id": msg.ToolCallID,
					"content":     msg.Content,
				}},
			})
		case len(msg.ToolCalls) > 0:
			blocks := make([]map[string]any, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, map[string]any{"type": "text", "text": msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    tc.ID,
					"name":  tc.Name,
					"input": json.RawMessage(tc.Arguments),
				})
			}
			messages = append(messages, map[string]any{"role": msg.Role, "content": blocks})
		default:
			messages = append(messages, map[string]any{"role": msg.Role, "content": msg.Content})
		}
	}

	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"messages":    messages,
	}
	if chatReq.System != "" {
		requestBody["system"] = chatReq.System
	}

	if len(chatReq.Tools) > 0 {
		tools := make([]map[string]any, len(chatReq.Tools))
		for i, tool := range chatReq.Tools {
			tools[i] = map[string]any{
				"name":         tool.Name,
				"description":  tool.Description,
				"input_schema": tool.Parameters,
			}
		}
		requestBody["tools"] = tools
	}

	response, err := c.post(ctx, requestBody)
	if err != nil {
		return nil, err
	}

	result := &ChatResponse{}
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			result.Content += block.Text
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}

	return result, nil
}

// Close releases the rate limiter.
func (c *anthropicClient) Close() {
	c.limiter.Close()
}
