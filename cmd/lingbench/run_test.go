package main

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"unicode"

	"github.com/verbalab/lingbench/internal/llm"
	"github.com/verbalab/lingbench/internal/store"
)

var quotedWord = regexp.MustCompile(`'([^']+)'`)

// lengthChat answers word-length prompts correctly by counting the
// letters of the quoted word itself.
func lengthChat() chatFunc {
	return func(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
		m := quotedWord.FindStringSubmatch(req.Prompt)
		if m == nil {
			return &llm.Response{Text: "no idea"}, nil
		}
		n := 0
		for _, r := range m[1] {
			if unicode.IsLetter(r) {
				n++
			}
		}
		return &llm.Response{StructuredData: map[string]any{"length": float64(n)}}, nil
	}
}

func TestRunCommand(t *testing.T) {
	t.Run("ScoresAndRecords", func(t *testing.T) {
		st := stubSeams(t, lengthChat())

		out, err := execute(t, "run",
			"--benchmark", "0011_word_length",
			"--model", "fake-model",
			"--limit", "2")
		if err != nil {
			t.Fatalf("execute: %v", err)
		}

		if !strings.Contains(out, "BENCHMARK") || !strings.Contains(out, "SCORE") {
			t.Fatalf("missing table header: %q", out)
		}
		if !strings.Contains(out, "Summary: runs=1 ok=1 failed=0") {
			t.Fatalf("summary missing: %q", out)
		}

		runs, err := st.ListRuns(context.Background(), store.RunFilter{})
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("runs: got %d want 1", len(runs))
		}
		if runs[0].Model != "fake-model" || runs[0].Score != 100 {
			t.Fatalf("run: got %+v", runs[0])
		}
	})

	t.Run("CrossProduct", func(t *testing.T) {
		st := stubSeams(t, lengthChat())

		out, err := execute(t, "run",
			"--benchmark", "0011_word_length,0012_letter_count",
			"--model", "m1,m2",
			"--limit", "1")
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !strings.Contains(out, "Summary: runs=4 ok=4 failed=0") {
			t.Fatalf("summary: %q", out)
		}

		runs, err := st.ListRuns(context.Background(), store.RunFilter{})
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 4 {
			t.Fatalf("runs: got %d want 4", len(runs))
		}
	})

	t.Run("FailedTaskSetsExitError", func(t *testing.T) {
		stubSeams(t, lengthChat())

		out, err := execute(t, "run",
			"--benchmark", "0099_nope",
			"--model", "fake-model")
		if !errors.Is(err, errRunsFailed) {
			t.Fatalf("got %v want errRunsFailed", err)
		}
		if !strings.Contains(out, "failed: benchmark=0099_nope") {
			t.Fatalf("failure line missing: %q", out)
		}
		if !strings.Contains(out, "Summary: runs=1 ok=0 failed=1") {
			t.Fatalf("summary: %q", out)
		}
	})

	t.Run("MissingFlags", func(t *testing.T) {
		stubSeams(t, nil)

		if _, err := execute(t, "run", "--model", "m"); err == nil || !strings.Contains(err.Error(), "--benchmark") {
			t.Fatalf("got %v", err)
		}
		if _, err := execute(t, "run", "--benchmark", "0011_word_length"); err == nil || !strings.Contains(err.Error(), "--model") {
			t.Fatalf("got %v", err)
		}
	})
}

func TestCleanList(t *testing.T) {
	got := cleanList([]string{" a ", "", "b", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}
