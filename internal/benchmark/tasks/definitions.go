package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
)

const definitionsCode = "0020_definitions"

// definitionsChoiceCount is how many candidate words each question
// offers.
const definitionsChoiceCount = 10

func registerDefinitions(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(definitionsCode, "Word Definitions",
		"Tests ability to match definitions to correct words.")
	md.Tags = []string{"vocabulary"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		if deps.Chat == nil {
			return benchmark.NewGenerator(md, store, deps.Log)
		}
		return benchmark.NewGenerator(md, store, deps.Log,
			benchmark.NewLLMStrategy(deps.Log, newDefinitionsFetch(deps, newRand())))
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &definitionsRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

const definitionsGenContext = `You are a lexicographer writing dictionary definitions. For each word:
1. Give one concise definition of the word
2. Never use the word itself or its derivatives in the definition
3. Keep the definition under 30 words
4. Return the definition in the requested JSON format`

func definitionsGenSchema() map[string]any {
	return objectSchema(map[string]any{
		"definition":  map[string]any{"type": "string"},
		"explanation": map[string]any{"type": "string"},
	}, "definition")
}

// newDefinitionsFetch samples a fresh set of choices per question,
// asks for a definition of the first pick, then presents the choices
// sorted so the answer's position gives nothing away.
func newDefinitionsFetch(deps Deps, rng *rand.Rand) func(ctx context.Context) ([]*benchmark.Question, error) {
	var words []string
	loaded := false
	return func(ctx context.Context) ([]*benchmark.Question, error) {
		if !loaded {
			words = definitionsWords(deps)
			loaded = true
		}
		if len(words) < definitionsChoiceCount {
			return nil, nil
		}
		choices := sampleStrings(rng, words, definitionsChoiceCount)
		correct := choices[0]
		sort.Strings(choices)

		resp, err := deps.Chat.GenerateChat(ctx, &llm.ChatRequest{
			Prompt:  fmt.Sprintf("Define the word %q.", correct),
			Model:   deps.GenModel,
			Context: definitionsGenContext,
			Schema:  definitionsGenSchema(),
		})
		if err != nil {
			return nil, fmt.Errorf("tasks: definition generation: %w", err)
		}
		definition := responseString(resp, "definition")
		if definition == "" || strings.Contains(strings.ToLower(definition), correct) {
			return nil, fmt.Errorf("tasks: unusable definition for %q", correct)
		}

		q := &benchmark.Question{
			Text: fmt.Sprintf("Which word has this definition: %s\n\nThe choices are: %s",
				definition, strings.Join(choices, ", ")),
			AnswerType:    benchmark.AnswerMultipleChoice,
			CorrectAnswer: correct,
			Choices:       choices,
			Category:      "vocabulary",
			Difficulty:    benchmark.DifficultyMedium,
			Tags:          []string{"vocabulary", "definitions", "llm_generated"},
			Criteria:      benchmark.Criteria{ExactMatch: true},
		}
		return []*benchmark.Question{q}, nil
	}
}

func definitionsWords(deps Deps) []string {
	lines, err := deps.Files.LoadLines(definitionsCode, "wordlist.txt")
	if err != nil || len(lines) == 0 {
		lines = spellCheckFallbackWords
	}
	words := make([]string, 0, len(lines))
	for _, line := range lines {
		words = append(words, strings.ToLower(line))
	}
	return words
}

const definitionsRunContext = `You are taking a vocabulary test. Pick which of the listed words matches the given definition. Respond with only the correct word, nothing else.`

type definitionsRunner struct {
	benchmark.BaseRunner
}

// PreparePrompt passes the question through unchanged: the choices are
// already part of the question text.
func (r *definitionsRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Context: definitionsRunContext,
		Brief:   true,
	}, nil
}

func (r *definitionsRunner) EvaluateResponse(q *benchmark.Question, resp *llm.Response) bool {
	if q == nil || resp == nil {
		return false
	}
	got := normalizeBareWord(responseString(resp, "answer"))
	want := strings.ToLower(strings.TrimSpace(benchmark.StringAnswer(q.CorrectAnswer)))
	return got != "" && got == want
}

// normalizeBareWord strips the decoration models add to one-word
// answers: casing, whitespace and trailing punctuation.
func normalizeBareWord(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, ".,;:!?")
}
