package tasks

import (
	"errors"
	"fmt"
	"math/rand"
	"unicode"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
)

const wordLengthCode = "0011_word_length"

// Word pools per difficulty. Longer words are harder to count without
// spelling the word out.
var wordLengthWords = map[benchmark.Difficulty][]string{
	benchmark.DifficultyEasy: {
		"cat", "dog", "sun", "tree", "book", "fish", "bird", "milk",
		"door", "rain", "star", "hand", "lamp", "frog", "cake",
	},
	benchmark.DifficultyMedium: {
		"garden", "window", "pencil", "guitar", "bottle", "camera",
		"blanket", "lantern", "journey", "whisper", "diamond",
		"factory", "harvest", "mirror", "pocket",
	},
	benchmark.DifficultyHard: {
		"adventure", "telephone", "crocodile", "university",
		"dictionary", "helicopter", "mathematics", "photograph",
		"strawberry", "temperature", "watermelon", "xylophone",
		"celebration", "lighthouse", "imagination",
	},
}

func registerWordLength(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(wordLengthCode, "Word Length",
		"Count the number of letters in English words of varying length.")
	md.Tags = []string{"counting", "spelling"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		return benchmark.NewGenerator(md, store, deps.Log,
			benchmark.NewLocalStrategy(newWordLengthProducer(newRand())))
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &wordLengthRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

func newWordLengthProducer(rng *rand.Rand) func() (*benchmark.Question, error) {
	difficulties := benchmark.Difficulties()
	return func() (*benchmark.Question, error) {
		difficulty := difficulties[rng.Intn(len(difficulties))]
		words := wordLengthWords[difficulty]
		word := words[rng.Intn(len(words))]
		return &benchmark.Question{
			Text:          fmt.Sprintf("How many letters are in the word '%s'?", word),
			AnswerType:    benchmark.AnswerNumeric,
			CorrectAnswer: countLetters(word),
			Category:      "Word Length",
			Difficulty:    difficulty,
			Tags:          []string{"word_length", "counting", "spelling"},
			Criteria:      benchmark.Criteria{ExactMatch: true},
		}, nil
	}
}

// countLetters counts alphabetic runes only, so hyphens and spaces in
// a future word pool would not inflate the answer.
func countLetters(word string) int {
	n := 0
	for _, r := range word {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

const wordLengthContext = `You are performing a word length counting task.
Count how many letters are in the given word.
Only count alphabetic characters (a-z, A-Z) and exclude any spaces, numbers, or punctuation.
Provide your answer as a single integer in the specified JSON format.`

type wordLengthRunner struct {
	benchmark.BaseRunner
}

func (r *wordLengthRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Schema:  intSchema("length"),
		Context: wordLengthContext,
	}, nil
}

func (r *wordLengthRunner) EvaluateResponse(q *benchmark.Question, resp *llm.Response) bool {
	if q == nil {
		return false
	}
	expected, ok := benchmark.NumericAnswer(q.CorrectAnswer)
	if !ok {
		return false
	}
	actual, ok := responseInt(resp, "length")
	return ok && actual == int(expected)
}

func (r *wordLengthRunner) BuildDebugInfo(q *benchmark.Question, resp *llm.Response, correct bool) map[string]any {
	info := map[string]any{
		"question":        q.Text,
		"expected_length": q.CorrectAnswer,
		"is_correct":      correct,
	}
	if actual, ok := responseInt(resp, "length"); ok {
		info["actual_length"] = actual
	} else {
		info["full_response"] = responseDump(resp)
	}
	return info
}
