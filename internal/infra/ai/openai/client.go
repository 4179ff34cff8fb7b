package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/domain/ai"
)

const (
	defaultModel = "gpt-4o-mini"
	maxTokens    = 2048
)

// Client generates stage outputs with the chat completions API.
type Client struct {
	*openai.Client
	Model       string
	Temperature float32
}

// NewClient builds a client. baseURL may be empty for the public endpoint.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Generate implements ai.Generator. The stage schema is sent as a strict
// JSON schema response format.
func (c *Client) Generate(ctx context.Context, r ai.Request) ([]byte, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: r.UserPrompt},
		},
	}
	if r.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName(r.Stage),
				Schema: r.Schema,
				Strict: true,
			},
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = maxTokens
	}

	klog.V(6).Infof("[openai] stage=%s model=%s request system=%d bytes user=%d bytes",
		r.Stage, model, len(r.SystemPrompt), len(r.UserPrompt))

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, reqErr.Err)
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	klog.V(6).Infof("[openai] stage=%s finish=%s response=%d bytes", r.Stage, resp.Choices[0].FinishReason, len(content))
	if strings.TrimSpace(content) == "" {
		return nil, ai.ErrEmptyResponse
	}
	return []byte(ExtractJSON(content)), nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// schemaName maps a stage name onto the response format name charset.
func schemaName(stage string) string {
	if stage == "" {
		return "output"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, stage)
}

// ExtractJSON returns the first balanced JSON object in content, skipping
// any prose or code fences around it. Braces inside strings are ignored.
// content is returned unchanged when no object is found.
func ExtractJSON(content string) string {
	start, depth := -1, 0
	inString, escaped := false, false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return content
}
