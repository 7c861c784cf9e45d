package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
)

const spellCheckCode = "0015_spell_check"

// Fallback pool when data/0015_spell_check/wordlist.txt is absent.
var spellCheckFallbackWords = []string{
	"attention", "demonstrate", "laboratory", "laughter", "liaison",
	"orange", "partition", "party", "stable", "table",
}

type spellCheckSample struct {
	Sentence  string `json:"sentence"`
	Incorrect string `json:"incorrect"`
	Correct   string `json:"correct"`
}

func (s spellCheckSample) complete() bool {
	return strings.TrimSpace(s.Sentence) != "" &&
		strings.TrimSpace(s.Incorrect) != "" &&
		strings.TrimSpace(s.Correct) != ""
}

func registerSpellCheck(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(spellCheckCode, "Spell Check",
		"Find the misspelled word in a sentence and give its correct spelling.")
	md.Tags = []string{"spelling"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		strategies := []benchmark.Strategy{
			benchmark.NewFileStrategy(deps.Log, newSpellCheckFileLoad(deps)),
		}
		if deps.Chat != nil {
			strategies = append(strategies,
				benchmark.NewLLMStrategy(deps.Log, newSpellCheckFetch(deps, newRand())))
		}
		return benchmark.NewGenerator(md, store, deps.Log, strategies...)
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &spellCheckRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

func spellCheckSchema() map[string]any {
	return objectSchema(map[string]any{
		"sentence":  map[string]any{"type": "string"},
		"incorrect": map[string]any{"type": "string"},
		"correct":   map[string]any{"type": "string"},
	}, "sentence", "incorrect", "correct")
}

// answerSchema is what the model under test fills in; the sentence is
// already in the question.
func spellCheckAnswerSchema() map[string]any {
	return objectSchema(map[string]any{
		"incorrect": map[string]any{"type": "string"},
		"correct":   map[string]any{"type": "string"},
	}, "incorrect", "correct")
}

func spellCheckQuestion(s spellCheckSample, generated bool) *benchmark.Question {
	tags := []string{"spelling", "correction"}
	if generated {
		tags = append(tags, "llm_generated")
	}
	return &benchmark.Question{
		Text:       "What is the incorrectly-spelled word in this sentence: " + s.Sentence,
		AnswerType: benchmark.AnswerJSON,
		CorrectAnswer: map[string]any{
			"incorrect": s.Incorrect,
			"correct":   s.Correct,
		},
		Category:   "spelling",
		Difficulty: benchmark.DifficultyMedium,
		Tags:       tags,
		Schema:     spellCheckAnswerSchema(),
		Criteria: benchmark.Criteria{
			ExactMatch:     true,
			RequiredFields: []string{"incorrect", "correct"},
		},
	}
}

func newSpellCheckFileLoad(deps Deps) func(ctx context.Context) ([]*benchmark.Question, error) {
	return func(ctx context.Context) ([]*benchmark.Question, error) {
		var samples []spellCheckSample
		if err := deps.Files.LoadJSON(spellCheckCode, "samples.json", &samples); err != nil {
			return nil, err
		}
		questions := make([]*benchmark.Question, 0, len(samples))
		for _, s := range samples {
			if !s.complete() {
				deps.Log.Warn("skipping incomplete spell check sample", "sentence", s.Sentence)
				continue
			}
			questions = append(questions, spellCheckQuestion(s, false))
		}
		return questions, nil
	}
}

const spellCheckGenContext = `You are a creative writing assistant helping to build spelling exercises. For each request:
1. Write one natural sentence that uses the requested word
2. Replace that word with a plausible misspelling
3. Keep every other word spelled correctly
4. Report the sentence, the misspelled word exactly as written, and the correct spelling`

// newSpellCheckFetch works through a shuffled word list, one generated
// sentence per fetch, and signals exhaustion when the list runs out.
func newSpellCheckFetch(deps Deps, rng *rand.Rand) func(ctx context.Context) ([]*benchmark.Question, error) {
	var words []string
	loaded := false
	return func(ctx context.Context) ([]*benchmark.Question, error) {
		if !loaded {
			words = spellCheckWords(deps)
			rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
			loaded = true
		}
		for len(words) > 0 {
			word := words[0]
			words = words[1:]
			resp, err := deps.Chat.GenerateChat(ctx, &llm.ChatRequest{
				Prompt: fmt.Sprintf("Create a sentence that contains a misspelled version of the word %q. "+
					"The sentence should be natural and the misspelling should be plausible. "+
					"Return the sentence, the misspelled word and the correct spelling.", word),
				Model:   deps.GenModel,
				Context: spellCheckGenContext,
				Schema:  spellCheckSchema(),
			})
			if err != nil {
				return nil, fmt.Errorf("tasks: spell check generation: %w", err)
			}
			sample := spellCheckSample{
				Sentence:  responseString(resp, "sentence"),
				Incorrect: responseString(resp, "incorrect"),
				Correct:   responseString(resp, "correct"),
			}
			if !sample.complete() {
				deps.Log.Warn("dropping malformed spell check generation", "word", word)
				continue
			}
			return []*benchmark.Question{spellCheckQuestion(sample, true)}, nil
		}
		return nil, nil
	}
}

func spellCheckWords(deps Deps) []string {
	lines, err := deps.Files.LoadLines(spellCheckCode, "wordlist.txt")
	if err != nil || len(lines) == 0 {
		lines = spellCheckFallbackWords
	}
	words := make([]string, 0, len(lines))
	for _, line := range lines {
		words = append(words, strings.ToLower(line))
	}
	return words
}

const spellCheckRunContext = `You are a spell checking assistant. For each sentence, identify:
1. The incorrectly spelled word exactly as it appears
2. The correct spelling of that word`

// spellCheckRunner inherits JSON-field evaluation and the default
// debug record from BaseRunner.
type spellCheckRunner struct {
	benchmark.BaseRunner
}

func (r *spellCheckRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Schema:  q.Schema,
		Context: spellCheckRunContext,
	}, nil
}
