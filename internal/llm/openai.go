package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider serves gpt- models through the OpenAI chat API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider builds a provider. An empty model falls back to
// gpt-4o; baseURL overrides the public endpoint for compatible
// gateways.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = "gpt-4o"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}
}

// GenerateChat runs one chat completion. Requests with a schema use
// the structured output API; array schemas are nested under an object
// root first because the API requires one.
func (p *OpenAIProvider) GenerateChat(ctx context.Context, req *ChatRequest) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: openai: nil request")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system := systemText(req); system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	r := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: 0,
	}

	schema := req.Schema
	wrapped := false
	if schema != nil {
		if schemaIsArray(schema) {
			schema = wrapArraySchema(schema)
			wrapped = true
		}
		r.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: jsonSchema(schema),
			},
		}
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("llm: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: openai: empty choices")
	}

	out := &Response{
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalMsec:        time.Since(start).Milliseconds(),
		},
	}

	raw := resp.Choices[0].Message.Content
	if req.Schema == nil {
		out.Text = raw
		return out, nil
	}
	if wrapped {
		if err := unwrapItems(raw, out); err != nil {
			return nil, fmt.Errorf("llm: openai: %w", err)
		}
		return out, nil
	}
	if err := decodeStructured(raw, req.Schema, out); err != nil {
		return nil, fmt.Errorf("llm: openai: %w", err)
	}
	return out, nil
}

// jsonSchema adapts a plain schema map to the marshaler the OpenAI
// response format field expects.
type jsonSchema map[string]any

func (s jsonSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(s))
}

func wrapArraySchema(schema map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"items": schema},
		"required":   []string{"items"},
	}
}

func unwrapItems(raw string, resp *Response) error {
	var wrapper struct {
		Items []map[string]any `json:"items"`
	}
	if err := ParseJSON(raw, &wrapper); err != nil {
		return err
	}
	resp.Items = wrapper.Items
	return nil
}
