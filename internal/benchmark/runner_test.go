package benchmark

import (
	"strings"
	"testing"

	"github.com/verbalab/lingbench/internal/llm"
)

func TestBaseRunnerRemoteModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "gpt-4o"},
		{"claude-3-5-haiku-latest", "claude-3-5-haiku-latest"},
		{"gemini-1.5-pro", "gemini-1.5-pro"},
		{"openai/gpt-4o", "openai/gpt-4o"},
		{"llama3:8b-q4", "llama3"},
		{"mistral:7b", "mistral"},
		{"llama3.2", "llama3.2"},
		{":odd", ":odd"},
		{"", ""},
	}
	for _, tt := range tests {
		r := NewBaseRunner(tt.model, Metadata{})
		if got := r.RemoteModel(); got != tt.want {
			t.Fatalf("RemoteModel(%q): got %q want %q", tt.model, got, tt.want)
		}
	}
}

func TestBaseRunnerModelTrimmed(t *testing.T) {
	t.Parallel()

	r := NewBaseRunner("  llama3.2 ", Metadata{})
	if got := r.Model(); got != "llama3.2" {
		t.Fatalf("Model: got %q", got)
	}
}

func TestBaseRunnerPreparePrompt(t *testing.T) {
	t.Parallel()

	r := NewBaseRunner("llama3.2", NewMetadata("0010_test", "Test", ""))

	t.Run("MultipleChoice", func(t *testing.T) {
		t.Parallel()

		q := &Question{
			Text:          "Which is a synonym of large?",
			AnswerType:    AnswerMultipleChoice,
			CorrectAnswer: "big",
			Choices:       []string{"big", "narrow", "brief"},
		}
		p, err := r.PreparePrompt(q)
		if err != nil {
			t.Fatalf("PreparePrompt: %v", err)
		}
		for _, want := range []string{
			"Question: Which is a synonym of large?",
			"Options:\n1. big\n2. narrow\n3. brief",
			"single option number",
		} {
			if !strings.Contains(p.Text, want) {
				t.Fatalf("prompt missing %q:\n%s", want, p.Text)
			}
		}
	})

	t.Run("FreeTextPassesThrough", func(t *testing.T) {
		t.Parallel()

		schema := map[string]any{"type": "object"}
		q := &Question{
			Text:          "Transcribe 'water' to IPA.",
			AnswerType:    AnswerFreeText,
			CorrectAnswer: "ˈwɔtɚ",
			Schema:        schema,
		}
		p, err := r.PreparePrompt(q)
		if err != nil {
			t.Fatalf("PreparePrompt: %v", err)
		}
		if p.Text != q.Text {
			t.Fatalf("text: got %q want %q", p.Text, q.Text)
		}
		if p.Schema == nil {
			t.Fatalf("schema should pass through")
		}
	})

	t.Run("NilQuestion", func(t *testing.T) {
		t.Parallel()

		if _, err := r.PreparePrompt(nil); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestBaseRunnerEvaluateResponse(t *testing.T) {
	t.Parallel()

	r := NewBaseRunner("llama3.2", NewMetadata("0010_test", "Test", ""))

	mcQuestion := &Question{
		Text:          "Which is a synonym of large?",
		AnswerType:    AnswerMultipleChoice,
		CorrectAnswer: "big",
		Choices:       []string{"big", "narrow", "brief"},
	}

	tests := []struct {
		name string
		q    *Question
		resp *llm.Response
		want bool
	}{
		{
			name: "MultipleChoiceByNumber",
			q:    mcQuestion,
			resp: &llm.Response{Text: "1"},
			want: true,
		},
		{
			name: "MultipleChoiceWrongNumber",
			q:    mcQuestion,
			resp: &llm.Response{Text: "2"},
			want: false,
		},
		{
			name: "MultipleChoiceStructuredAnswer",
			q:    mcQuestion,
			resp: &llm.Response{StructuredData: map[string]any{"answer": "big"}},
			want: true,
		},
		{
			name: "FreeTextCaseFolded",
			q: &Question{
				Text:          "Opposite of hot?",
				AnswerType:    AnswerFreeText,
				CorrectAnswer: "cold",
			},
			resp: &llm.Response{Text: " COLD "},
			want: true,
		},
		{
			name: "FreeTextAlternative",
			q: &Question{
				Text:          "How do you spell the colour?",
				AnswerType:    AnswerFreeText,
				CorrectAnswer: "color",
				Criteria:      Criteria{Alternatives: []string{"colour"}},
			},
			resp: &llm.Response{Text: "colour"},
			want: true,
		},
		{
			name: "FreeTextLoneStructuredField",
			q: &Question{
				Text:          "Opposite of hot?",
				AnswerType:    AnswerFreeText,
				CorrectAnswer: "cold",
			},
			resp: &llm.Response{Text: "ignored", StructuredData: map[string]any{"word": "cold"}},
			want: true,
		},
		{
			name: "NumericFromText",
			q: &Question{
				Text:          "How many letters are in 'house'?",
				AnswerType:    AnswerNumeric,
				CorrectAnswer: 5,
			},
			resp: &llm.Response{Text: "The word has 5 letters."},
			want: true,
		},
		{
			name: "NumericStructuredField",
			q: &Question{
				Text:          "How many letters are in 'house'?",
				AnswerType:    AnswerNumeric,
				CorrectAnswer: 5,
			},
			resp: &llm.Response{StructuredData: map[string]any{"count": float64(5)}},
			want: true,
		},
		{
			name: "NumericOutsideTolerance",
			q: &Question{
				Text:          "Convert 32F to C.",
				AnswerType:    AnswerNumeric,
				CorrectAnswer: 0.0,
				Criteria:      Criteria{Tolerance: 0.5},
			},
			resp: &llm.Response{Text: "about 2"},
			want: false,
		},
		{
			name: "NumericNoNumberInText",
			q: &Question{
				Text:          "How many letters are in 'house'?",
				AnswerType:    AnswerNumeric,
				CorrectAnswer: 5,
			},
			resp: &llm.Response{Text: "several"},
			want: false,
		},
		{
			name: "JSONRequiredFields",
			q: &Question{
				Text:          "Find the misspelled word.",
				AnswerType:    AnswerJSON,
				CorrectAnswer: map[string]any{"incorrect": "teh", "correct": "the"},
				Criteria:      Criteria{RequiredFields: []string{"incorrect", "correct"}},
			},
			resp: &llm.Response{StructuredData: map[string]any{"incorrect": "teh", "correct": "the", "note": "typo"}},
			want: true,
		},
		{
			name: "JSONMissingField",
			q: &Question{
				Text:          "Find the misspelled word.",
				AnswerType:    AnswerJSON,
				CorrectAnswer: map[string]any{"incorrect": "teh", "correct": "the"},
				Criteria:      Criteria{RequiredFields: []string{"incorrect", "correct"}},
			},
			resp: &llm.Response{StructuredData: map[string]any{"incorrect": "teh"}},
			want: false,
		},
		{
			name: "NilResponse",
			q:    mcQuestion,
			resp: nil,
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := r.EvaluateResponse(tt.q, tt.resp); got != tt.want {
				t.Fatalf("EvaluateResponse: got %v want %v", got, tt.want)
			}
		})
	}
}

func TestBaseRunnerBuildDebugInfo(t *testing.T) {
	t.Parallel()

	r := NewBaseRunner("llama3.2", Metadata{})
	q := &Question{Text: "x", AnswerType: AnswerFreeText, CorrectAnswer: "cold"}

	info := r.BuildDebugInfo(q, &llm.Response{Text: "warm"}, false)
	if info["response"] != "warm" {
		t.Fatalf("response: got %v", info["response"])
	}
	if info["expected"] != "cold" {
		t.Fatalf("expected: got %v", info["expected"])
	}
	if info["is_correct"] != false {
		t.Fatalf("is_correct: got %v", info["is_correct"])
	}

	t.Run("StructuredResponse", func(t *testing.T) {
		t.Parallel()

		resp := &llm.Response{StructuredData: map[string]any{"answer": "warm"}}
		info := r.BuildDebugInfo(q, resp, false)
		m, ok := info["response"].(map[string]any)
		if !ok || m["answer"] != "warm" {
			t.Fatalf("response: got %#v", info["response"])
		}
	})

	t.Run("NilResponse", func(t *testing.T) {
		t.Parallel()

		info := r.BuildDebugInfo(q, nil, false)
		if info["response"] != nil {
			t.Fatalf("response: got %v want nil", info["response"])
		}
	})
}
