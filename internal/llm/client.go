// Package llm routes chat generation across OpenAI, Anthropic and
// Ollama backed providers behind one interface.
package llm

import "context"

// ChatRequest is a single-turn generation request. Schema, when set,
// asks the provider for structured JSON output matching it; Brief asks
// for a minimal answer with no elaboration.
type ChatRequest struct {
	Prompt  string
	Model   string
	Context string
	Schema  map[string]any
	Brief   bool
}

// Usage reports what a generation cost.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalMsec        int64
}

// Response carries exactly one of Text, StructuredData or Items.
// Plain-text requests fill Text; requests with an object schema fill
// StructuredData; requests with an array schema fill Items.
type Response struct {
	Text           string
	StructuredData map[string]any
	Items          []map[string]any
	Usage          Usage
}

// StringField reads a string-valued field from the structured data.
func (r *Response) StringField(key string) (string, bool) {
	if r == nil || r.StructuredData == nil {
		return "", false
	}
	v, ok := r.StructuredData[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// FloatField reads a numeric field from the structured data. String
// values holding a number are parsed too, since some models quote
// their numbers.
func (r *Response) FloatField(key string) (float64, bool) {
	if r == nil || r.StructuredData == nil {
		return 0, false
	}
	return toFloat(r.StructuredData[key])
}

// IntField reads an integer field from the structured data.
func (r *Response) IntField(key string) (int, bool) {
	f, ok := r.FloatField(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Client generates chat completions. Implementations are safe for
// concurrent use.
type Client interface {
	GenerateChat(ctx context.Context, req *ChatRequest) (*Response, error)
}
