package main

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateCommand(t *testing.T) {
	t.Run("StoresQuestions", func(t *testing.T) {
		st := stubSeams(t, nil)

		out, err := execute(t, "generate", "--benchmark", "0011_word_length", "--count", "3")
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !strings.Contains(out, "Generated 3 questions for 0011_word_length") {
			t.Fatalf("output: %q", out)
		}

		n, err := st.CountQuestions(context.Background(), "0011_word_length")
		if err != nil || n != 3 {
			t.Fatalf("CountQuestions: got %d, %v", n, err)
		}
	})

	t.Run("MissingBenchmark", func(t *testing.T) {
		stubSeams(t, nil)

		_, err := execute(t, "generate")
		if err == nil || !strings.Contains(err.Error(), "--benchmark") {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("NegativeCount", func(t *testing.T) {
		stubSeams(t, nil)

		_, err := execute(t, "generate", "--benchmark", "0011_word_length", "--count", "-2")
		if err == nil || !strings.Contains(err.Error(), "--count") {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("UnknownBenchmark", func(t *testing.T) {
		stubSeams(t, nil)

		_, err := execute(t, "generate", "--benchmark", "0099_nope", "--count", "1")
		if err == nil {
			t.Fatalf("expected error for unknown benchmark")
		}
	})
}
