package tasks

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
)

const letterCountCode = "0012_letter_count"

// Words commonly miscounted by models, heavy on repeated letters.
var letterCountWords = []string{
	"strawberry", "programming", "mathematics", "engineering",
	"intelligence", "development", "application", "successful",
	"interesting", "beautiful", "ordinary", "atmosphere",
	"excitement", "conversation", "experience", "knowledge",
	"necessary", "community", "education", "information",
	"technology", "understanding", "opportunity", "relationship",
	"environment", "significant", "performance", "profession",
	"university", "restaurant", "breakfast", "president",
	"television", "government", "important", "computer",
	"different", "business", "possible", "together",
}

func registerLetterCount(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(letterCountCode, "Letter Count",
		"Count how many times a letter appears in a word.")
	md.Tags = []string{"counting", "spelling"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		return benchmark.NewGenerator(md, store, deps.Log,
			benchmark.NewLocalStrategy(newLetterCountProducer(newRand())))
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &letterCountRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

// newLetterCountProducer picks the letter from the word itself, so
// every answer is at least one.
func newLetterCountProducer(rng *rand.Rand) func() (*benchmark.Question, error) {
	return func() (*benchmark.Question, error) {
		word := letterCountWords[rng.Intn(len(letterCountWords))]
		runes := []rune(word)
		letter := string(runes[rng.Intn(len(runes))])
		return &benchmark.Question{
			Text: fmt.Sprintf("How many times does the letter '%s' appear in the word '%s'?",
				letter, word),
			AnswerType:    benchmark.AnswerNumeric,
			CorrectAnswer: strings.Count(word, letter),
			Category:      "Letter Counting",
			Difficulty:    benchmark.DifficultyEasy,
			Tags:          []string{"letter_count", "spelling", "counting"},
			Criteria:      benchmark.Criteria{ExactMatch: true},
		}, nil
	}
}

const letterCountContext = `You are performing a letter counting task.
Count how many times a specific letter appears in a word.
Provide your answer as a single integer in the specified JSON format.`

type letterCountRunner struct {
	benchmark.BaseRunner
}

func (r *letterCountRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Schema:  intSchema("count"),
		Context: letterCountContext,
	}, nil
}

func (r *letterCountRunner) EvaluateResponse(q *benchmark.Question, resp *llm.Response) bool {
	if q == nil {
		return false
	}
	expected, ok := benchmark.NumericAnswer(q.CorrectAnswer)
	if !ok {
		return false
	}
	actual, ok := responseInt(resp, "count")
	return ok && actual == int(expected)
}

func (r *letterCountRunner) BuildDebugInfo(q *benchmark.Question, resp *llm.Response, correct bool) map[string]any {
	info := map[string]any{
		"question":       q.Text,
		"expected_count": q.CorrectAnswer,
		"is_correct":     correct,
	}
	if actual, ok := responseInt(resp, "count"); ok {
		info["actual_count"] = actual
	} else {
		info["full_response"] = responseDump(resp)
	}
	return info
}
