package benchmark

import (
	"log/slog"
	"sort"
	"strings"
)

// GeneratorFactory builds a fresh generator bound to a question store.
// Called once per retrieval so callers never share mutable state.
type GeneratorFactory func(md Metadata, store QuestionStore) *Generator

// RunnerFactory builds a fresh runner for one model under test.
type RunnerFactory func(model string, md Metadata) Runner

// Registry holds benchmark metadata and factories. It is populated once
// during startup and read-only afterwards, so lookups take no lock.
type Registry struct {
	log        *slog.Logger
	metadata   map[string]Metadata
	generators map[string]GeneratorFactory
	runners    map[string]RunnerFactory
}

// NewRegistry returns an empty registry. A nil logger falls back to
// slog.Default.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:        log,
		metadata:   make(map[string]Metadata),
		generators: make(map[string]GeneratorFactory),
		runners:    make(map[string]RunnerFactory),
	}
}

// RegisterMetadata records benchmark metadata under its code. A repeat
// registration replaces the previous entry.
func (r *Registry) RegisterMetadata(md Metadata) {
	code := normalizeCode(md.Code)
	if code == "" {
		r.log.Error("benchmark metadata with empty code ignored", "name", md.Name)
		return
	}
	md.Code = code
	r.metadata[code] = md
}

// RegisterGenerator records a generator factory for a benchmark code.
func (r *Registry) RegisterGenerator(code string, factory GeneratorFactory) {
	code = normalizeCode(code)
	if code == "" || factory == nil {
		r.log.Error("invalid generator registration ignored", "code", code)
		return
	}
	r.generators[code] = factory
}

// RegisterRunner records a runner factory for a benchmark code.
func (r *Registry) RegisterRunner(code string, factory RunnerFactory) {
	code = normalizeCode(code)
	if code == "" || factory == nil {
		r.log.Error("invalid runner registration ignored", "code", code)
		return
	}
	r.runners[code] = factory
}

// Generator builds a fresh generator for code, or nil when either the
// factory or the metadata is missing. Missing entries are logged rather
// than returned as errors so callers can skip unknown codes.
func (r *Registry) Generator(code string, store QuestionStore) *Generator {
	code = normalizeCode(code)
	factory, ok := r.generators[code]
	if !ok {
		r.log.Error("no generator registered", "code", code)
		return nil
	}
	md, ok := r.metadata[code]
	if !ok {
		r.log.Error("no metadata registered", "code", code)
		return nil
	}
	return factory(md, store)
}

// Runner builds a fresh runner for code and model, or nil when either
// the factory or the metadata is missing.
func (r *Registry) Runner(code, model string) Runner {
	code = normalizeCode(code)
	factory, ok := r.runners[code]
	if !ok {
		r.log.Error("no runner registered", "code", code)
		return nil
	}
	md, ok := r.metadata[code]
	if !ok {
		r.log.Error("no metadata registered", "code", code)
		return nil
	}
	return factory(model, md)
}

// Metadata returns the registered metadata for code.
func (r *Registry) Metadata(code string) (Metadata, bool) {
	md, ok := r.metadata[normalizeCode(code)]
	return md, ok
}

// Codes lists every code with registered metadata, sorted.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.metadata))
	for code := range r.metadata {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
