package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verbalab/lingbench/internal/claude"
)

// ClaudeProvider serves claude- models through the Anthropic messages
// API. Structured output rides on a schema instruction in the system
// prompt since the API has no native response format parameter.
type ClaudeProvider struct {
	client *claude.Client
}

// NewClaudeProvider builds a provider over the shared Anthropic
// client, which reads its own defaults from the environment.
func NewClaudeProvider(apiKey, baseURL, model string) *ClaudeProvider {
	opts := make([]claude.Option, 0, 2)
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, claude.WithBaseURL(v))
	}
	if v := strings.TrimSpace(model); v != "" {
		opts = append(opts, claude.WithModel(v))
	}
	return &ClaudeProvider{
		client: claude.NewClient(strings.TrimSpace(apiKey), opts...),
	}
}

// GenerateChat runs one message exchange.
func (p *ClaudeProvider) GenerateChat(ctx context.Context, req *ChatRequest) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: claude: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}

	system := systemText(req)
	if req.Schema != nil {
		if system != "" {
			system += "\n\n"
		}
		system += schemaInstruction(req.Schema)
	}

	cReq := &claude.Request{
		Model:     strings.TrimSpace(req.Model),
		System:    system,
		Messages:  []claude.Message{{Role: "user", Content: req.Prompt}},
		MaxTokens: 1024,
	}

	start := time.Now()
	resp, err := p.client.Complete(ctx, cReq)
	if err != nil {
		return nil, fmt.Errorf("llm: claude: %w", err)
	}

	out := &Response{
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalMsec:        time.Since(start).Milliseconds(),
		},
	}

	raw := claude.Text(resp)
	if req.Schema == nil {
		out.Text = raw
		return out, nil
	}
	if err := decodeStructured(raw, req.Schema, out); err != nil {
		return nil, fmt.Errorf("llm: claude: %w", err)
	}
	return out, nil
}
