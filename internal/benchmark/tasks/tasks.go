// Package tasks defines the shipped linguistic benchmarks and wires
// them into a registry. Each benchmark contributes metadata, a
// generator built from the question strategies it supports, and a
// runner that knows how to prompt for and judge its answers.
package tasks

import (
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/datafile"
	"github.com/verbalab/lingbench/internal/evaluator"
	"github.com/verbalab/lingbench/internal/llm"
)

// Deps carries the collaborators benchmarks draw on. Chat may be nil,
// in which case LLM-backed generation strategies are left out and the
// affected benchmarks fall back to their file or local tiers.
type Deps struct {
	Files    *datafile.Loader
	Chat     llm.Client
	GenModel string
	Log      *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Files == nil {
		d.Files = datafile.NewLoader("data")
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if strings.TrimSpace(d.GenModel) == "" {
		d.GenModel = "llama3.2"
	}
	return d
}

// RegisterAll wires every shipped benchmark into reg.
func RegisterAll(reg *benchmark.Registry, deps Deps) {
	deps = deps.withDefaults()
	registerWordLength(reg, deps)
	registerLetterCount(reg, deps)
	registerSpellCheck(reg, deps)
	registerDefinitions(reg, deps)
	registerUnitConversion(reg, deps)
	registerPartOfSpeech(reg, deps)
	registerPinyinLetters(reg, deps)
	registerEnglishToIPA(reg, deps)
}

// newRand builds the per-generator randomness source. Generators are
// single-worker objects, so each gets its own.
func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func intSchema(field string) map[string]any {
	return objectSchema(map[string]any{field: map[string]any{"type": "integer"}}, field)
}

func numberSchema(field string) map[string]any {
	return objectSchema(map[string]any{field: map[string]any{"type": "number"}}, field)
}

func stringSchema(field string) map[string]any {
	return objectSchema(map[string]any{field: map[string]any{"type": "string"}}, field)
}

// responseInt reads an integer answer from the structured field when
// present, falling back to the first number in the raw text.
func responseInt(resp *llm.Response, field string) (int, bool) {
	f, ok := responseFloat(resp, field)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func responseFloat(resp *llm.Response, field string) (float64, bool) {
	if resp == nil {
		return 0, false
	}
	if f, ok := resp.FloatField(field); ok {
		return f, true
	}
	return evaluator.ParseNumber(resp.Text)
}

// responseString reads a string answer from the structured field when
// present, falling back to the raw text.
func responseString(resp *llm.Response, field string) string {
	if resp == nil {
		return ""
	}
	if s, ok := resp.StringField(field); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(resp.Text)
}

// responseDump renders a response for debug records.
func responseDump(resp *llm.Response) any {
	if resp == nil {
		return nil
	}
	if resp.StructuredData != nil {
		return resp.StructuredData
	}
	if resp.Items != nil {
		return resp.Items
	}
	return resp.Text
}

func stringItem(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return strings.TrimSpace(s)
}

// sampleStrings picks n distinct entries from the slice in random
// order. n must not exceed len(from).
func sampleStrings(rng *rand.Rand, from []string, n int) []string {
	out := make([]string, 0, n)
	for _, idx := range rng.Perm(len(from))[:n] {
		out = append(out, from[idx])
	}
	return out
}
