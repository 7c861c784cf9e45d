package datafile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataFile(t *testing.T, root, code, name, content string) {
	t.Helper()

	dir := filepath.Join(root, code)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoaderLoadJSON(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDataFile(t, root, "0015_spell_check", "samples.json", `[{"sentence":"a","incorrect":"b","correct":"c"}]`)
	writeDataFile(t, root, "0015_spell_check", "broken.json", `{not json`)

	l := NewLoader(root)

	type sample struct {
		Sentence  string `json:"sentence"`
		Incorrect string `json:"incorrect"`
		Correct   string `json:"correct"`
	}

	var samples []sample
	if err := l.LoadJSON("0015_spell_check", "samples.json", &samples); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(samples) != 1 || samples[0].Sentence != "a" {
		t.Fatalf("samples: got %#v", samples)
	}

	var out []sample
	err := l.LoadJSON("0015_spell_check", "missing.json", &out)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: got %v want ErrNotExist", err)
	}

	if err := l.LoadJSON("0015_spell_check", "broken.json", &out); err == nil {
		t.Fatalf("broken json: expected error")
	}
}

func TestLoaderNoRoot(t *testing.T) {
	t.Parallel()

	l := NewLoader("  ")
	var v any
	if err := l.LoadJSON("x", "y.json", &v); err == nil {
		t.Fatalf("LoadJSON: expected error")
	}
	if _, err := l.LoadLines("x", "y.txt"); err == nil {
		t.Fatalf("LoadLines: expected error")
	}
}

func TestLoaderLoadLines(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDataFile(t, root, "0020_definitions", "wordlist.txt", "alpha\n\n  beta  \n\ngamma\n")

	l := NewLoader(root)
	lines, err := l.LoadLines("0020_definitions", "wordlist.txt")
	if err != nil {
		t.Fatalf("LoadLines: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if len(lines) != len(want) {
		t.Fatalf("lines: got %d want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines[%d]: got %q want %q", i, lines[i], want[i])
		}
	}
}

func TestLoaderPath(t *testing.T) {
	t.Parallel()

	l := NewLoader("data")
	want := filepath.Join("data", "0011_word_length", "words.json")
	if got := l.Path("0011_word_length", "words.json"); got != want {
		t.Fatalf("Path: got %q want %q", got, want)
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	t.Parallel()

	type row struct {
		ID   string `json:"id"`
		Seen int    `json:"seen"`
	}

	var sb strings.Builder
	in := []row{{ID: "a", Seen: 1}, {ID: "b", Seen: 2}}
	if err := WriteJSONL(&sb, in); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}

	out, err := DecodeJSONL[row](context.Background(), strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("DecodeJSONL: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].Seen != 2 {
		t.Fatalf("round trip: got %#v", out)
	}
}

func TestDecodeJSONL(t *testing.T) {
	t.Parallel()

	type row struct {
		ID string `json:"id"`
	}

	t.Run("SkipsBlankLines", func(t *testing.T) {
		t.Parallel()

		out, err := DecodeJSONL[row](context.Background(), strings.NewReader("{\"id\":\"a\"}\n\n   \n{\"id\":\"b\"}\n"))
		if err != nil {
			t.Fatalf("DecodeJSONL: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("rows: got %d want 2", len(out))
		}
	})

	t.Run("BadLine", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeJSONL[row](context.Background(), strings.NewReader("{\"id\":\"a\"}\nnope\n"))
		if err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := DecodeJSONL[row](ctx, strings.NewReader("{\"id\":\"a\"}\n"))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v want context.Canceled", err)
		}
	})
}

func TestReadJSONL(t *testing.T) {
	t.Parallel()

	type row struct {
		ID string `json:"id"`
	}

	path := filepath.Join(t.TempDir(), "rows.jsonl")
	if err := os.WriteFile(path, []byte("{\"id\":\"a\"}\n{\"id\":\"b\"}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := ReadJSONL[row](context.Background(), path)
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(out) != 2 || out[1].ID != "b" {
		t.Fatalf("rows: got %#v", out)
	}

	if _, err := ReadJSONL[row](context.Background(), ""); err == nil {
		t.Fatalf("empty path: expected error")
	}
}
