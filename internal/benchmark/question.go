package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AnswerType describes the expected shape of a question's answer.
type AnswerType string

const (
	AnswerMultipleChoice AnswerType = "multiple_choice"
	AnswerFreeText       AnswerType = "free_text"
	AnswerNumeric        AnswerType = "numeric"
	AnswerJSON           AnswerType = "json"
)

// Valid reports whether t is one of the supported answer types.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerMultipleChoice, AnswerFreeText, AnswerNumeric, AnswerJSON:
		return true
	}
	return false
}

// Difficulty is an ordinal question difficulty: easy < medium < hard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Rank maps a difficulty onto its ordinal position. Unknown values rank
// below easy so malformed data sorts first rather than failing.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 0
}

// Less reports whether d is strictly easier than other.
func (d Difficulty) Less(other Difficulty) bool {
	return d.Rank() < other.Rank()
}

// ParseDifficulty normalizes a difficulty label, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Difficulties lists all levels in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// Criteria controls how strictly a response must match the correct answer.
type Criteria struct {
	ExactMatch     bool     `json:"exact_match"`
	CaseSensitive  bool     `json:"case_sensitive"`
	Contains       bool     `json:"contains"`
	Tolerance      float64  `json:"tolerance,omitempty"`
	RequiredFields []string `json:"required_fields,omitempty"`
	Alternatives   []string `json:"alternatives,omitempty"`
}

// Metadata identifies a benchmark. Registered once at startup and
// read-only afterwards.
type Metadata struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	MaxScore    int      `json:"max_score,omitempty"`
}

// NewMetadata builds metadata with the defaults the rest of the system
// assumes (version 1.0, max score 100).
func NewMetadata(code, name, description string) Metadata {
	return Metadata{
		Code:        strings.TrimSpace(code),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Version:     "1.0",
		MaxScore:    100,
	}
}

// Question is the immutable record produced by generation and consumed
// once by evaluation. CorrectAnswer holds a string for multiple-choice
// and free-text answers, a number for numeric answers, and a
// map[string]any for json answers.
type Question struct {
	Text          string         `json:"question_text"`
	AnswerType    AnswerType     `json:"answer_type"`
	CorrectAnswer any            `json:"correct_answer"`
	Choices       []string       `json:"choices,omitempty"`
	Category      string         `json:"category,omitempty"`
	Difficulty    Difficulty     `json:"difficulty,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Schema        map[string]any `json:"schema,omitempty"`
	Criteria      Criteria       `json:"evaluation_criteria"`
}

// Validate checks the answer-type invariants: choices present and
// containing the correct answer for multiple choice, numeric answers
// actually numeric, json answers map-shaped.
func (q *Question) Validate() error {
	if q == nil {
		return errors.New("benchmark: nil question")
	}
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("benchmark: empty question text")
	}
	if !q.AnswerType.Valid() {
		return fmt.Errorf("benchmark: unknown answer type %q", q.AnswerType)
	}

	switch q.AnswerType {
	case AnswerMultipleChoice:
		if len(q.Choices) == 0 {
			return errors.New("benchmark: multiple choice question without choices")
		}
		correct, ok := q.CorrectAnswer.(string)
		if !ok {
			return fmt.Errorf("benchmark: multiple choice answer must be a string, got %T", q.CorrectAnswer)
		}
		if !containsFold(q.Choices, correct) {
			return fmt.Errorf("benchmark: correct answer %q not among choices", correct)
		}
	case AnswerNumeric:
		if _, ok := NumericAnswer(q.CorrectAnswer); !ok {
			return fmt.Errorf("benchmark: numeric answer must be a number, got %T", q.CorrectAnswer)
		}
		if q.Criteria.Tolerance < 0 {
			return fmt.Errorf("benchmark: negative tolerance %v", q.Criteria.Tolerance)
		}
	case AnswerJSON:
		if _, ok := MapAnswer(q.CorrectAnswer); !ok {
			return fmt.Errorf("benchmark: json answer must be an object, got %T", q.CorrectAnswer)
		}
	}

	return nil
}

// Payload serializes the question to its persisted JSON form.
func (q *Question) Payload() ([]byte, error) {
	if q == nil {
		return nil, errors.New("benchmark: nil question")
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("benchmark: marshal question: %w", err)
	}
	return b, nil
}

// DecodeQuestion parses a persisted question payload.
func DecodeQuestion(payload []byte) (*Question, error) {
	if len(payload) == 0 {
		return nil, errors.New("benchmark: empty question payload")
	}
	var q Question
	if err := json.Unmarshal(payload, &q); err != nil {
		return nil, fmt.Errorf("benchmark: parse question: %w", err)
	}
	return &q, nil
}

// NumericAnswer coerces the dynamic answer value to a float64. Decoded
// JSON payloads carry numbers as float64; generators may store ints.
func NumericAnswer(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// MapAnswer coerces the dynamic answer value to a string-keyed map.
func MapAnswer(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// StringAnswer renders the dynamic answer value as text.
func StringAnswer(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

func containsFold(choices []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, c := range choices {
		if strings.EqualFold(strings.TrimSpace(c), s) {
			return true
		}
	}
	return false
}
