package llm

import (
	"sort"
	"strings"
)

// Registry maps provider names to clients. Names are case-insensitive.
type Registry struct {
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Client),
	}
}

func (r *Registry) Register(name string, c Client) {
	if r == nil || c == nil {
		return
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	if r.clients == nil {
		r.clients = make(map[string]Client)
	}
	r.clients[name] = c
}

func (r *Registry) Get(name string) (Client, bool) {
	if r == nil || r.clients == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	c, ok := r.clients[name]
	return c, ok
}

// Names lists the registered providers, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
