package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/evaluator"
	"github.com/verbalab/lingbench/internal/llm"
)

const ipaCode = "0061_english_to_ipa"

type ipaEntry struct {
	Word         string   `json:"word"`
	Sentence     string   `json:"sentence"`
	IPA          string   `json:"ipa"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Focus areas steering generated words toward pronunciations that are
// actually hard to transcribe.
var ipaFocusAreas = []string{
	"Words with silent letters (knight, psychology, subtle)",
	"Words with unusual pronunciation (choir, colonel, island)",
	"Homographs with different pronunciations (read, wound, tear)",
	"Words with irregular stress patterns (photography, biology)",
	"Words with multiple accepted pronunciations (either, tomato, caramel)",
	"Words that differ in American vs British pronunciation (schedule, leisure)",
	"Words with diphthongs (coin, town, face)",
	"Words with consonant clusters (strengths, sixths)",
}

func registerEnglishToIPA(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(ipaCode, "English to IPA Pronunciation",
		"Transcribe English words into the International Phonetic Alphabet.")
	md.Tags = []string{"phonetics"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		strategies := []benchmark.Strategy{
			benchmark.NewFileStrategy(deps.Log, newIPAFileLoad(deps)),
		}
		if deps.Chat != nil {
			strategies = append(strategies,
				benchmark.NewLLMStrategy(deps.Log, newIPAFetch(deps, newRand())))
		}
		return benchmark.NewGenerator(md, store, deps.Log, strategies...)
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &ipaRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

func ipaQuestion(e ipaEntry, generated bool) *benchmark.Question {
	tags := []string{"ipa", "pronunciation", "english"}
	if generated {
		tags = append(tags, "llm_generated")
	}
	return &benchmark.Question{
		Text: fmt.Sprintf("Convert the word '%s' to IPA pronunciation. Context: %s",
			e.Word, e.Sentence),
		AnswerType:    benchmark.AnswerFreeText,
		CorrectAnswer: e.IPA,
		Category:      "English Pronunciation",
		Difficulty:    benchmark.ParseDifficulty(e.Difficulty),
		Tags:          tags,
		Criteria: benchmark.Criteria{
			CaseSensitive: true,
			Alternatives:  e.Alternatives,
		},
	}
}

func (e ipaEntry) complete() bool {
	return e.Word != "" && e.Sentence != "" && e.IPA != ""
}

func newIPAFileLoad(deps Deps) func(ctx context.Context) ([]*benchmark.Question, error) {
	return func(ctx context.Context) ([]*benchmark.Question, error) {
		var entries []ipaEntry
		if err := deps.Files.LoadJSON(ipaCode, "words_ipa.json", &entries); err != nil {
			return nil, err
		}
		questions := make([]*benchmark.Question, 0, len(entries))
		for _, e := range entries {
			if !e.complete() {
				deps.Log.Warn("skipping incomplete ipa entry", "word", e.Word)
				continue
			}
			questions = append(questions, ipaQuestion(e, false))
		}
		return questions, nil
	}
}

const ipaGenContext = `You are a linguistics expert preparing IPA transcription exercises. Choose words whose pronunciation genuinely matches the requested difficulty, and transcribe them in General American English.`

func ipaGenSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": objectSchema(map[string]any{
			"word":     map[string]any{"type": "string"},
			"sentence": map[string]any{"type": "string"},
			"ipa":      map[string]any{"type": "string"},
		}, "word", "sentence", "ipa"),
	}
}

// newIPAFetch asks for one batch per difficulty tier, then reports
// exhaustion.
func newIPAFetch(deps Deps, rng *rand.Rand) func(ctx context.Context) ([]*benchmark.Question, error) {
	pending := benchmark.Difficulties()
	return func(ctx context.Context) ([]*benchmark.Question, error) {
		if len(pending) == 0 {
			return nil, nil
		}
		difficulty := pending[0]
		pending = pending[1:]
		focus := sampleStrings(rng, ipaFocusAreas, 2)

		resp, err := deps.Chat.GenerateChat(ctx, &llm.ChatRequest{
			Prompt: fmt.Sprintf("Generate 5 English words of %s pronunciation difficulty. Focus on: %s; %s. "+
				"For each word provide the word, a short sentence using it, and its IPA transcription in General American English without enclosing slashes.",
				difficulty, focus[0], focus[1]),
			Model:   deps.GenModel,
			Context: ipaGenContext,
			Schema:  ipaGenSchema(),
		})
		if err != nil {
			return nil, fmt.Errorf("tasks: ipa generation: %w", err)
		}
		var questions []*benchmark.Question
		for _, item := range resp.Items {
			e := ipaEntry{
				Word:       stringItem(item, "word"),
				Sentence:   stringItem(item, "sentence"),
				IPA:        stringItem(item, "ipa"),
				Difficulty: string(difficulty),
			}
			if !e.complete() {
				deps.Log.Warn("dropping incomplete generated ipa item", "word", e.Word)
				continue
			}
			questions = append(questions, ipaQuestion(e, true))
		}
		if len(questions) == 0 {
			return nil, errors.New("tasks: ipa generation produced no usable words")
		}
		return questions, nil
	}
}

const ipaRunContext = `You are a linguistics expert specializing in phonetics and the International Phonetic Alphabet.
Convert the given word to its IPA pronunciation, using the context sentence to disambiguate words whose pronunciation depends on meaning.
Provide only the IPA transcription in the specified JSON format.`

// ipaRunner inherits the default debug record from BaseRunner.
type ipaRunner struct {
	benchmark.BaseRunner
}

func (r *ipaRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Schema:  stringSchema("ipa"),
		Context: ipaRunContext,
	}, nil
}

// EvaluateResponse accepts exact matches, listed alternatives and
// close phonetic matches, after stripping delimiters on both sides.
func (r *ipaRunner) EvaluateResponse(q *benchmark.Question, resp *llm.Response) bool {
	if q == nil || resp == nil {
		return false
	}
	got := responseString(resp, "ipa")
	if strings.TrimSpace(got) == "" {
		return false
	}
	return evaluator.MatchIPA(got, benchmark.StringAnswer(q.CorrectAnswer), q.Criteria.Alternatives)
}
