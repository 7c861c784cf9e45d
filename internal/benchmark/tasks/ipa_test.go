package tasks

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
)

func TestIPAQuestion(t *testing.T) {
	t.Parallel()

	e := ipaEntry{
		Word:         "either",
		Sentence:     "Either answer works.",
		IPA:          "ˈiðɚ",
		Difficulty:   "hard",
		Alternatives: []string{"ˈaɪðɚ"},
	}
	q := ipaQuestion(e, false)
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !strings.Contains(q.Text, "'either'") || !strings.Contains(q.Text, e.Sentence) {
		t.Fatalf("text: got %q", q.Text)
	}
	if q.AnswerType != benchmark.AnswerFreeText {
		t.Fatalf("answer type: got %q", q.AnswerType)
	}
	if q.Difficulty != benchmark.DifficultyHard {
		t.Fatalf("difficulty: got %q", q.Difficulty)
	}
	if !q.Criteria.CaseSensitive {
		t.Fatalf("IPA comparison must be case sensitive")
	}
	if len(q.Criteria.Alternatives) != 1 || q.Criteria.Alternatives[0] != "ˈaɪðɚ" {
		t.Fatalf("alternatives: got %v", q.Criteria.Alternatives)
	}
}

func TestIPAFileLoad(t *testing.T) {
	t.Parallel()

	deps, root := testDeps(t, nil)
	writeTaskFile(t, root, ipaCode, "words_ipa.json", `[
		{"word": "water", "sentence": "Pass the water.", "ipa": "ˈwɔtɚ", "difficulty": "easy"},
		{"word": "broken", "sentence": "", "ipa": "ˈbroʊkən"},
		{"word": "colonel", "sentence": "The colonel saluted.", "ipa": "ˈkɝnəl", "difficulty": "hard", "alternatives": ["ˈkɜːnəl"]}
	]`)

	load := newIPAFileLoad(deps)
	questions, err := load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions want 2 (incomplete entry skipped)", len(questions))
	}
	if got := benchmark.StringAnswer(questions[0].CorrectAnswer); got != "ˈwɔtɚ" {
		t.Fatalf("correct answer: got %q", got)
	}
	if len(questions[1].Criteria.Alternatives) != 1 {
		t.Fatalf("alternatives: got %v", questions[1].Criteria.Alternatives)
	}

	t.Run("MissingFile", func(t *testing.T) {
		t.Parallel()

		deps, _ := testDeps(t, nil)
		if _, err := newIPAFileLoad(deps)(context.Background()); err == nil {
			t.Fatalf("expected error for missing data file")
		}
	})
}

func TestIPAFetch(t *testing.T) {
	t.Parallel()

	goodItems := []map[string]any{
		{"word": "knight", "sentence": "The knight rode away.", "ipa": "naɪt"},
		{"word": "choir", "sentence": "The choir sang.", "ipa": "ˈkwaɪɚ"},
	}

	t.Run("OneBatchPerDifficulty", func(t *testing.T) {
		t.Parallel()

		chat := &fakeChat{script: []chatTurn{
			{resp: &llm.Response{Items: goodItems}},
			{resp: &llm.Response{Items: goodItems}},
			{resp: &llm.Response{Items: goodItems}},
		}}
		deps, _ := testDeps(t, chat)

		fetch := newIPAFetch(deps, rand.New(rand.NewSource(8)))
		for _, difficulty := range benchmark.Difficulties() {
			batch, err := fetch(context.Background())
			if err != nil {
				t.Fatalf("fetch %s: %v", difficulty, err)
			}
			if len(batch) != len(goodItems) {
				t.Fatalf("%s: got %d questions want %d", difficulty, len(batch), len(goodItems))
			}
			for _, q := range batch {
				if q.Difficulty != difficulty {
					t.Fatalf("difficulty: got %q want %q", q.Difficulty, difficulty)
				}
				if err := q.Validate(); err != nil {
					t.Fatalf("Validate: %v", err)
				}
			}
			prompt := chat.requests[len(chat.requests)-1].Prompt
			if !strings.Contains(prompt, string(difficulty)) {
				t.Fatalf("prompt should name the difficulty %q: %q", difficulty, prompt)
			}
		}

		// All tiers requested; the strategy is done.
		batch, err := fetch(context.Background())
		if err != nil || batch != nil {
			t.Fatalf("after all tiers: got (%v, %v) want (nil, nil)", batch, err)
		}
		if len(chat.requests) != 3 {
			t.Fatalf("requests: got %d want 3", len(chat.requests))
		}
	})

	t.Run("IncompleteItemsDropped", func(t *testing.T) {
		t.Parallel()

		chat := &fakeChat{script: []chatTurn{
			{resp: &llm.Response{Items: []map[string]any{
				{"word": "knight", "sentence": "The knight rode away.", "ipa": "naɪt"},
				{"word": "", "sentence": "Missing word.", "ipa": "x"},
			}}},
		}}
		deps, _ := testDeps(t, chat)

		fetch := newIPAFetch(deps, rand.New(rand.NewSource(8)))
		batch, err := fetch(context.Background())
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(batch) != 1 {
			t.Fatalf("got %d questions want 1", len(batch))
		}
	})

	t.Run("NothingUsable", func(t *testing.T) {
		t.Parallel()

		chat := &fakeChat{script: []chatTurn{
			{resp: &llm.Response{Items: nil}},
		}}
		deps, _ := testDeps(t, chat)

		fetch := newIPAFetch(deps, rand.New(rand.NewSource(8)))
		if _, err := fetch(context.Background()); err == nil {
			t.Fatalf("expected error for an empty generation")
		}
	})
}

func TestIPARunner(t *testing.T) {
	t.Parallel()

	r := &ipaRunner{BaseRunner: benchmark.NewBaseRunner("llama3.2", benchmark.NewMetadata(ipaCode, "English to IPA", ""))}
	q := &benchmark.Question{
		Text:          "Convert the word 'water' to IPA pronunciation. Context: Pass the water.",
		AnswerType:    benchmark.AnswerFreeText,
		CorrectAnswer: "ˈwɔtɚ",
		Criteria:      benchmark.Criteria{CaseSensitive: true, Alternatives: []string{"ˈwɑtɚ"}},
	}

	t.Run("Prompt", func(t *testing.T) {
		t.Parallel()

		p, err := r.PreparePrompt(q)
		if err != nil {
			t.Fatalf("PreparePrompt: %v", err)
		}
		if p.Schema == nil || p.Context == "" {
			t.Fatalf("prompt should carry schema and context")
		}
	})

	t.Run("Evaluate", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			resp *llm.Response
			want bool
		}{
			{"Exact", &llm.Response{StructuredData: map[string]any{"ipa": "ˈwɔtɚ"}}, true},
			{"Delimited", &llm.Response{StructuredData: map[string]any{"ipa": "/ˈwɔtɚ/"}}, true},
			{"Alternative", &llm.Response{StructuredData: map[string]any{"ipa": "ˈwɑtɚ"}}, true},
			{"TextFallback", &llm.Response{Text: "ˈwɔtɚ"}, true},
			{"Wrong", &llm.Response{StructuredData: map[string]any{"ipa": "ˈdɔtɚd"}}, false},
			{"Empty", &llm.Response{Text: "   "}, false},
			{"Nil", nil, false},
		}
		for _, tt := range tests {
			if got := r.EvaluateResponse(q, tt.resp); got != tt.want {
				t.Fatalf("%s: got %v want %v", tt.name, got, tt.want)
			}
		}
	})
}
