package benchmark

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verbalab/lingbench/internal/evaluator"
	"github.com/verbalab/lingbench/internal/llm"
)

// Prompt is what a runner hands to the model collaborator for one
// question. Schema, when set, requests structured output; Context sets
// the system-level framing for the task; Brief asks for a bare answer
// with no elaboration.
type Prompt struct {
	Text    string
	Schema  map[string]any
	Context string
	Brief   bool
}

// Runner drives one model through one benchmark's questions in three
// steps: build the prompt, judge the response, explain the judgement.
// Runners are not safe for concurrent use; build one per worker.
type Runner interface {
	Model() string
	RemoteModel() string
	PreparePrompt(q *Question) (*Prompt, error)
	EvaluateResponse(q *Question, resp *llm.Response) bool
	BuildDebugInfo(q *Question, resp *llm.Response, correct bool) map[string]any
}

// BaseRunner supplies the default behavior concrete runners embed:
// prompt pass-through, answer-type dispatch for evaluation, and a
// minimal debug record.
type BaseRunner struct {
	model string
	md    Metadata
}

// NewBaseRunner binds a runner to one model and one benchmark.
func NewBaseRunner(model string, md Metadata) BaseRunner {
	return BaseRunner{model: strings.TrimSpace(model), md: md}
}

// Model returns the model name as configured.
func (r BaseRunner) Model() string { return r.model }

// Metadata returns the benchmark this runner serves.
func (r BaseRunner) Metadata() Metadata { return r.md }

// RemoteModel normalizes the configured model name for reporting.
// Hosted model names pass through unchanged; local names with a
// quantization suffix ("llama3:8b-q4") lose the last segment.
func (r BaseRunner) RemoteModel() string {
	for _, hosted := range []string{"gpt-", "claude-", "gemini-"} {
		if strings.Contains(r.model, hosted) {
			return r.model
		}
	}
	if idx := strings.LastIndex(r.model, ":"); idx > 0 {
		return r.model[:idx]
	}
	return r.model
}

// PreparePrompt renders a question as the model sees it. Multiple
// choice questions get their options enumerated from 1; everything
// else passes the question text through with its stored schema.
func (r BaseRunner) PreparePrompt(q *Question) (*Prompt, error) {
	if q == nil {
		return nil, errors.New("benchmark: nil question")
	}
	if q.AnswerType == AnswerMultipleChoice {
		return &Prompt{Text: RenderChoices(q), Schema: q.Schema}, nil
	}
	return &Prompt{Text: q.Text, Schema: q.Schema}, nil
}

// EvaluateResponse applies the comparison rules for the question's
// answer type.
func (r BaseRunner) EvaluateResponse(q *Question, resp *llm.Response) bool {
	if q == nil || resp == nil {
		return false
	}
	switch q.AnswerType {
	case AnswerMultipleChoice:
		return evaluator.MultipleChoice(answerText(resp), StringAnswer(q.CorrectAnswer), q.Choices)
	case AnswerFreeText:
		return evaluator.FreeText(answerText(resp), StringAnswer(q.CorrectAnswer),
			q.Criteria.CaseSensitive, q.Criteria.Contains, q.Criteria.Alternatives)
	case AnswerNumeric:
		expected, ok := NumericAnswer(q.CorrectAnswer)
		if !ok {
			return false
		}
		actual, ok := answerNumber(resp)
		if !ok {
			return false
		}
		return evaluator.WithinTolerance(actual, expected, evaluator.ToleranceOrDefault(q.Criteria.Tolerance))
	case AnswerJSON:
		correct, ok := MapAnswer(q.CorrectAnswer)
		if !ok {
			return false
		}
		return evaluator.JSONFields(resp.StructuredData, correct, q.Criteria.RequiredFields, q.Criteria.CaseSensitive)
	}
	return strings.EqualFold(strings.TrimSpace(resp.Text), strings.TrimSpace(StringAnswer(q.CorrectAnswer)))
}

// BuildDebugInfo records the raw exchange for the run details table.
func (r BaseRunner) BuildDebugInfo(q *Question, resp *llm.Response, correct bool) map[string]any {
	return map[string]any{
		"response":   debugResponse(resp),
		"expected":   q.CorrectAnswer,
		"is_correct": correct,
	}
}

// RenderChoices formats a multiple choice question with its options
// numbered from 1, plus the instruction on how to answer.
func RenderChoices(q *Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Answer the following question by selecting the correct option:\n\nQuestion: %s\n\nOptions:\n", q.Text)
	for i, choice := range q.Choices {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, choice)
	}
	sb.WriteString("\nProvide your answer as a single option number or the exact text of your chosen answer.\n")
	return sb.String()
}

// answerText picks the response value to compare: a structured
// "answer" field when the model returned one, the raw text otherwise.
func answerText(resp *llm.Response) string {
	if s, ok := resp.StringField("answer"); ok {
		return s
	}
	if len(resp.StructuredData) == 1 {
		for _, v := range resp.StructuredData {
			return StringAnswer(v)
		}
	}
	return resp.Text
}

// answerNumber picks the numeric response value: a lone structured
// field when present, otherwise the first number in the text.
func answerNumber(resp *llm.Response) (float64, bool) {
	if len(resp.StructuredData) == 1 {
		for key := range resp.StructuredData {
			if f, ok := resp.FloatField(key); ok {
				return f, true
			}
		}
	}
	return evaluator.ParseNumber(resp.Text)
}

func debugResponse(resp *llm.Response) any {
	if resp == nil {
		return nil
	}
	if resp.StructuredData != nil {
		return resp.StructuredData
	}
	return resp.Text
}
