package benchmark

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAnswerTypeValid(t *testing.T) {
	t.Parallel()

	for _, at := range []AnswerType{AnswerMultipleChoice, AnswerFreeText, AnswerNumeric, AnswerJSON} {
		if !at.Valid() {
			t.Fatalf("%q should be valid", at)
		}
	}
	if AnswerType("essay").Valid() {
		t.Fatalf("unknown type should be invalid")
	}
	if AnswerType("").Valid() {
		t.Fatalf("empty type should be invalid")
	}
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Difficulty
	}{
		{"easy", DifficultyEasy},
		{" EASY ", DifficultyEasy},
		{"hard", DifficultyHard},
		{"medium", DifficultyMedium},
		{"", DifficultyMedium},
		{"impossible", DifficultyMedium},
	}
	for _, tt := range tests {
		if got := ParseDifficulty(tt.in); got != tt.want {
			t.Fatalf("ParseDifficulty(%q): got %q want %q", tt.in, got, tt.want)
		}
	}
}

func TestDifficultyOrdering(t *testing.T) {
	t.Parallel()

	if !DifficultyEasy.Less(DifficultyMedium) || !DifficultyMedium.Less(DifficultyHard) {
		t.Fatalf("easy < medium < hard should hold")
	}
	if DifficultyHard.Less(DifficultyEasy) {
		t.Fatalf("hard < easy should not hold")
	}
	if !Difficulty("junk").Less(DifficultyEasy) {
		t.Fatalf("unknown difficulty should rank below easy")
	}

	levels := Difficulties()
	if len(levels) != 3 || levels[0] != DifficultyEasy || levels[2] != DifficultyHard {
		t.Fatalf("Difficulties: got %v", levels)
	}
}

func TestQuestionValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		q       *Question
		wantErr string
	}{
		{
			name: "ValidMultipleChoice",
			q: &Question{
				Text:          "Which word means big?",
				AnswerType:    AnswerMultipleChoice,
				CorrectAnswer: "large",
				Choices:       []string{"large", "tiny"},
			},
		},
		{
			name: "MultipleChoiceWithoutChoices",
			q: &Question{
				Text:          "pick one",
				AnswerType:    AnswerMultipleChoice,
				CorrectAnswer: "large",
			},
			wantErr: "without choices",
		},
		{
			name: "MultipleChoiceAnswerNotAmongChoices",
			q: &Question{
				Text:          "pick one",
				AnswerType:    AnswerMultipleChoice,
				CorrectAnswer: "huge",
				Choices:       []string{"large", "tiny"},
			},
			wantErr: "not among choices",
		},
		{
			name: "MultipleChoiceNonStringAnswer",
			q: &Question{
				Text:          "pick one",
				AnswerType:    AnswerMultipleChoice,
				CorrectAnswer: 2,
				Choices:       []string{"large", "tiny"},
			},
			wantErr: "must be a string",
		},
		{
			name: "ValidNumericIntAnswer",
			q: &Question{
				Text:          "How many letters are in 'cat'?",
				AnswerType:    AnswerNumeric,
				CorrectAnswer: 3,
			},
		},
		{
			name: "NumericNonNumberAnswer",
			q: &Question{
				Text:          "how many",
				AnswerType:    AnswerNumeric,
				CorrectAnswer: "three",
			},
			wantErr: "must be a number",
		},
		{
			name: "NumericNegativeTolerance",
			q: &Question{
				Text:          "how many",
				AnswerType:    AnswerNumeric,
				CorrectAnswer: 3,
				Criteria:      Criteria{Tolerance: -0.5},
			},
			wantErr: "negative tolerance",
		},
		{
			name: "ValidJSON",
			q: &Question{
				Text:          "find the typo",
				AnswerType:    AnswerJSON,
				CorrectAnswer: map[string]any{"incorrect": "teh", "correct": "the"},
			},
		},
		{
			name: "JSONNonMapAnswer",
			q: &Question{
				Text:          "find the typo",
				AnswerType:    AnswerJSON,
				CorrectAnswer: "teh",
			},
			wantErr: "must be an object",
		},
		{
			name:    "EmptyText",
			q:       &Question{Text: "  ", AnswerType: AnswerFreeText, CorrectAnswer: "x"},
			wantErr: "empty question text",
		},
		{
			name:    "UnknownAnswerType",
			q:       &Question{Text: "x", AnswerType: "essay", CorrectAnswer: "x"},
			wantErr: "unknown answer type",
		},
		{
			name: "ValidFreeText",
			q:    &Question{Text: "say hi", AnswerType: AnswerFreeText, CorrectAnswer: "hi"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.q.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate: expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error: got %q want contains %q", err.Error(), tt.wantErr)
			}
		})
	}

	t.Run("NilQuestion", func(t *testing.T) {
		t.Parallel()

		var q *Question
		if err := q.Validate(); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestQuestionPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	q := &Question{
		Text:          "How many letters are in the word 'cat'?",
		AnswerType:    AnswerNumeric,
		CorrectAnswer: 3,
		Category:      "Word Length",
		Difficulty:    DifficultyEasy,
		Tags:          []string{"counting"},
		Criteria:      Criteria{ExactMatch: true},
	}

	payload, err := q.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}

	got, err := DecodeQuestion(payload)
	if err != nil {
		t.Fatalf("DecodeQuestion: %v", err)
	}
	if got.Text != q.Text || got.AnswerType != q.AnswerType {
		t.Fatalf("round trip: got %+v", got)
	}
	n, ok := NumericAnswer(got.CorrectAnswer)
	if !ok || n != 3 {
		t.Fatalf("CorrectAnswer: got %#v", got.CorrectAnswer)
	}
	if got.Difficulty != DifficultyEasy || !got.Criteria.ExactMatch {
		t.Fatalf("fields: got difficulty=%q exact=%v", got.Difficulty, got.Criteria.ExactMatch)
	}
}

func TestDecodeQuestion(t *testing.T) {
	t.Parallel()

	if _, err := DecodeQuestion(nil); err == nil {
		t.Fatalf("empty payload: expected error")
	}
	if _, err := DecodeQuestion([]byte("{broken")); err == nil {
		t.Fatalf("bad payload: expected error")
	}
}

func TestNumericAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{name: "Float64", in: float64(2.5), want: 2.5, ok: true},
		{name: "Float32", in: float32(2), want: 2, ok: true},
		{name: "Int", in: 7, want: 7, ok: true},
		{name: "Int64", in: int64(9), want: 9, ok: true},
		{name: "JSONNumber", in: json.Number("11"), want: 11, ok: true},
		{name: "String", in: "7", ok: false},
		{name: "Nil", in: nil, ok: false},
	}
	for _, tt := range tests {
		got, ok := NumericAnswer(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("%s: got (%v, %v) want (%v, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStringAnswer(t *testing.T) {
	t.Parallel()

	if got := StringAnswer(nil); got != "" {
		t.Fatalf("nil: got %q", got)
	}
	if got := StringAnswer("large"); got != "large" {
		t.Fatalf("string: got %q", got)
	}
	if got := StringAnswer(7); got != "7" {
		t.Fatalf("int: got %q", got)
	}
}
