package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Router is a Client that picks the backing provider from the model
// name on every request: gpt- models go to openai, claude- models to
// claude, and everything else to the local ollama daemon.
type Router struct {
	reg *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// ProviderForModel names the provider responsible for a model.
func ProviderForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "gpt-"):
		return "openai"
	case strings.HasPrefix(m, "claude-"):
		return "claude"
	default:
		return "ollama"
	}
}

func (r *Router) GenerateChat(ctx context.Context, req *ChatRequest) (*Response, error) {
	if r == nil || r.reg == nil {
		return nil, errors.New("llm: nil router")
	}
	if req == nil {
		return nil, errors.New("llm: nil request")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("llm: empty model")
	}

	name := ProviderForModel(model)
	c, ok := r.reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("llm: no %s provider configured for model %q (available: %s)",
			name, model, strings.Join(r.reg.Names(), ", "))
	}
	return c.GenerateChat(ctx, req)
}
