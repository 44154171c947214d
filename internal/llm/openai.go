package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client against any OpenAI-compatible chat
// completions endpoint.
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIClient creates a client for the given base URL, API key,
// and default model. baseURL may be empty for the public OpenAI API.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:       openai.NewClientWithConfig(cfg),
		defaultModel: model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(req, nil))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) CompleteJSON(ctx context.Context, req Request, schema Schema, out any) error {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schema.Name,
			Schema: schema.Definition,
			Strict: true,
		},
	}
	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(req, format))
	if err != nil {
		return fmt.Errorf("constrained chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return ErrEmptyResponse
	}
	content := resp.Choices[0].Message.Content

	if err := json.Unmarshal([]byte(content), out); err == nil {
		return nil
	}
	// Some OpenAI-compatible backends ignore response_format and wrap
	// the JSON in markdown fences or prose.
	extracted := ExtractJSON(content)
	if err := json.Unmarshal([]byte(extracted), out); err != nil {
		slog.Warn("llm response did not conform to schema", "schema", schema.Name, "length", len(content))
		return fmt.Errorf("parsing %s response: %w", schema.Name, err)
	}
	return nil
}

func (c *OpenAIClient) chatRequest(req Request, format *openai.ChatCompletionResponseFormat) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})
	return openai.ChatCompletionRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: format,
	}
}

// Verify OpenAIClient implements Client at compile time.
var _ Client = (*OpenAIClient)(nil)
