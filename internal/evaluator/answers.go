// Package evaluator compares model responses against expected answers.
// Functions are pure and take plain values so every benchmark runner
// can share the same matching rules.
package evaluator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTolerance is the numeric slack applied when a question does
// not set its own tolerance.
const DefaultTolerance = 0.01

var numberPattern = regexp.MustCompile(`[-+]?(?:\d+\.\d+|\.\d+|\d+)`)

// FreeText checks a free-form response against the correct answer and
// any accepted alternatives. With contains set, the answer only needs
// to appear inside the response.
func FreeText(response, correct string, caseSensitive, contains bool, alternatives []string) bool {
	response = strings.TrimSpace(response)
	if response == "" {
		return false
	}
	accepted := make([]string, 0, 1+len(alternatives))
	accepted = append(accepted, correct)
	accepted = append(accepted, alternatives...)

	for _, want := range accepted {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		got := response
		if !caseSensitive {
			got = strings.ToLower(got)
			want = strings.ToLower(want)
		}
		if contains {
			if strings.Contains(got, want) {
				return true
			}
			continue
		}
		if got == want {
			return true
		}
	}
	return false
}

// MultipleChoice resolves a response against the option list. Accepted
// forms, tried in order: a bare 1-based option number, the exact text
// of an option, or a response containing the correct answer. A number
// or option text that resolves to a wrong choice fails immediately.
func MultipleChoice(response, correct string, choices []string) bool {
	norm := strings.ToLower(strings.TrimSpace(response))
	correctNorm := strings.ToLower(strings.TrimSpace(correct))
	if norm == "" {
		return false
	}

	if isDigits(norm) {
		if idx, err := strconv.Atoi(norm); err == nil && idx >= 1 && idx <= len(choices) {
			return strings.ToLower(strings.TrimSpace(choices[idx-1])) == correctNorm
		}
	}

	for _, choice := range choices {
		if strings.ToLower(strings.TrimSpace(choice)) == norm {
			return norm == correctNorm
		}
	}

	return strings.Contains(norm, correctNorm)
}

// ParseNumber extracts the first number appearing in s.
func ParseNumber(s string) (float64, bool) {
	match := numberPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// WithinTolerance reports whether actual is within tol of expected,
// inclusive at the boundary.
func WithinTolerance(actual, expected, tol float64) bool {
	return math.Abs(actual-expected) <= tol
}

// ToleranceOrDefault substitutes DefaultTolerance for an unset value.
func ToleranceOrDefault(tol float64) float64 {
	if tol <= 0 {
		return DefaultTolerance
	}
	return tol
}

// JSONFields compares a structured response field by field. With no
// required fields given, every key of the correct answer must match.
// Values are compared as trimmed strings.
func JSONFields(response, correct map[string]any, required []string, caseSensitive bool) bool {
	if response == nil {
		return false
	}
	fields := required
	if len(fields) == 0 {
		fields = make([]string, 0, len(correct))
		for k := range correct {
			fields = append(fields, k)
		}
	}
	for _, field := range fields {
		got, ok := response[field]
		if !ok {
			return false
		}
		if !valueEqual(got, correct[field], caseSensitive) {
			return false
		}
	}
	return true
}

func valueEqual(got, want any, caseSensitive bool) bool {
	g := strings.TrimSpace(fmt.Sprintf("%v", got))
	w := strings.TrimSpace(fmt.Sprintf("%v", want))
	if caseSensitive {
		return g == w
	}
	return strings.EqualFold(g, w)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
