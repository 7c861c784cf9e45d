package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
)

const partOfSpeechCode = "0032_part_of_speech"

var partsOfSpeech = []string{
	"noun", "verb", "adjective", "adverb", "pronoun",
	"preposition", "conjunction", "interjection", "determiner",
}

// posVariants maps the spellings models actually produce onto the
// canonical labels.
var posVariants = map[string]string{
	"nouns":         "noun",
	"verbs":         "verb",
	"action verb":   "verb",
	"adjectives":    "adjective",
	"adj":           "adjective",
	"adj.":          "adjective",
	"adverbs":       "adverb",
	"adv":           "adverb",
	"adv.":          "adverb",
	"pronouns":      "pronoun",
	"pron":          "pronoun",
	"pron.":         "pronoun",
	"prepositions":  "preposition",
	"prep":          "preposition",
	"prep.":         "preposition",
	"conjunctions":  "conjunction",
	"conj":          "conjunction",
	"conj.":         "conjunction",
	"interjections": "interjection",
	"interj":        "interjection",
	"interj.":       "interjection",
	"determiners":   "determiner",
	"det":           "determiner",
	"det.":          "determiner",
}

func normalizePOS(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := posVariants[s]; ok {
		return canonical
	}
	return s
}

func knownPOS(s string) bool {
	for _, pos := range partsOfSpeech {
		if s == pos {
			return true
		}
	}
	return false
}

type posSample struct {
	Sentence   string `json:"sentence"`
	TargetWord string `json:"target_word"`
	POS        string `json:"pos"`
}

func registerPartOfSpeech(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(partOfSpeechCode, "Part of Speech",
		"Identify the part of speech of a word as used in a sentence.")
	md.Tags = []string{"grammar"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		return benchmark.NewGenerator(md, store, deps.Log,
			benchmark.NewFileStrategy(deps.Log, newPOSFileLoad(deps)))
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &partOfSpeechRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

func posSchema() map[string]any {
	return objectSchema(map[string]any{
		"part_of_speech": map[string]any{"type": "string"},
	}, "part_of_speech")
}

func newPOSFileLoad(deps Deps) func(ctx context.Context) ([]*benchmark.Question, error) {
	return func(ctx context.Context) ([]*benchmark.Question, error) {
		var samples []posSample
		if err := deps.Files.LoadJSON(partOfSpeechCode, "samples.json", &samples); err != nil {
			return nil, err
		}
		questions := make([]*benchmark.Question, 0, len(samples))
		for _, s := range samples {
			pos := normalizePOS(s.POS)
			if s.Sentence == "" || s.TargetWord == "" || !knownPOS(pos) {
				deps.Log.Warn("skipping invalid part of speech sample",
					"sentence", s.Sentence, "pos", s.POS)
				continue
			}
			questions = append(questions, &benchmark.Question{
				Text: fmt.Sprintf("In the sentence '%s', what is the part of speech of the word '%s'?",
					s.Sentence, s.TargetWord),
				AnswerType:    benchmark.AnswerJSON,
				CorrectAnswer: map[string]any{"part_of_speech": pos},
				Category:      "grammar",
				Difficulty:    benchmark.DifficultyMedium,
				Tags:          []string{"grammar", "part-of-speech", "linguistics"},
				Schema:        posSchema(),
				Criteria: benchmark.Criteria{
					RequiredFields: []string{"part_of_speech"},
				},
			})
		}
		return questions, nil
	}
}

var partOfSpeechContext = "You are a grammar expert. Identify the part of speech of the indicated word as it is used in the sentence. " +
	"Valid parts of speech: " + strings.Join(partsOfSpeech, ", ") + ". " +
	"Respond in the specified JSON format."

type partOfSpeechRunner struct {
	benchmark.BaseRunner
}

func (r *partOfSpeechRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Schema:  q.Schema,
		Context: partOfSpeechContext,
	}, nil
}

// EvaluateResponse compares normalized labels, so "Nouns" and "adj."
// still count.
func (r *partOfSpeechRunner) EvaluateResponse(q *benchmark.Question, resp *llm.Response) bool {
	if q == nil || resp == nil {
		return false
	}
	want, ok := expectedPOS(q)
	if !ok {
		return false
	}
	got := normalizePOS(responseString(resp, "part_of_speech"))
	return got != "" && got == want
}

func (r *partOfSpeechRunner) BuildDebugInfo(q *benchmark.Question, resp *llm.Response, correct bool) map[string]any {
	want, _ := expectedPOS(q)
	return map[string]any{
		"prompt":          q.Text,
		"model_answer":    responseString(resp, "part_of_speech"),
		"expected_answer": want,
		"is_correct":      correct,
	}
}

func expectedPOS(q *benchmark.Question) (string, bool) {
	m, ok := benchmark.MapAnswer(q.CorrectAnswer)
	if !ok {
		return "", false
	}
	s, ok := m["part_of_speech"].(string)
	return normalizePOS(s), ok
}
