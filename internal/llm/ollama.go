package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaProvider serves locally hosted models through the Ollama chat
// API. Structured output uses the format parameter, which Ollama uses
// to constrain generation directly.
type OllamaProvider struct {
	httpClient *http.Client
	baseURL    string
}

// NewOllamaProvider builds a provider for the daemon at baseURL,
// defaulting to the standard local port. The generous timeout covers
// cold model loads.
func NewOllamaProvider(baseURL string) *OllamaProvider {
	v := strings.TrimSpace(baseURL)
	if v == "" {
		v = defaultOllamaBaseURL
	}
	return &OllamaProvider{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimSuffix(v, "/"),
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// GenerateChat runs one non-streaming chat exchange.
func (p *OllamaProvider) GenerateChat(ctx context.Context, req *ChatRequest) (*Response, error) {
	if p == nil || p.httpClient == nil {
		return nil, errors.New("llm: ollama: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: ollama: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: ollama: nil request")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("llm: ollama: empty model")
	}

	msgs := make([]ollamaMessage, 0, 2)
	if system := systemText(req); system != "" {
		msgs = append(msgs, ollamaMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, ollamaMessage{Role: "user", Content: req.Prompt})

	payload := ollamaChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
		Options:  map[string]any{"temperature": 0},
	}
	if req.Schema != nil {
		b, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("llm: ollama: marshal schema: %w", err)
		}
		payload.Format = b
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var chat ollamaChatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("llm: ollama: parse response: %w", err)
	}

	out := &Response{
		Usage: Usage{
			PromptTokens:     chat.PromptEvalCount,
			CompletionTokens: chat.EvalCount,
			TotalMsec:        time.Since(start).Milliseconds(),
		},
	}

	raw := chat.Message.Content
	if req.Schema == nil {
		out.Text = raw
		return out, nil
	}
	if err := decodeStructured(raw, req.Schema, out); err != nil {
		return nil, fmt.Errorf("llm: ollama: %w", err)
	}
	return out, nil
}
