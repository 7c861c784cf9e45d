package benchmark

import (
	"testing"
)

func TestRegistryMetadata(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	r.RegisterMetadata(NewMetadata("0010_Word_Length", "Word Length", "counting letters"))

	md, ok := r.Metadata("  0010_WORD_LENGTH ")
	if !ok {
		t.Fatalf("Metadata: lookup should normalize the code")
	}
	if md.Code != "0010_word_length" {
		t.Fatalf("stored code: got %q want %q", md.Code, "0010_word_length")
	}
	if md.Version != "1.0" || md.MaxScore != 100 {
		t.Fatalf("defaults: got version=%q max=%d", md.Version, md.MaxScore)
	}

	if _, ok := r.Metadata("0999_unknown"); ok {
		t.Fatalf("unknown code should miss")
	}

	t.Run("RepeatRegistrationReplaces", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(discardLogger())
		r.RegisterMetadata(NewMetadata("0010_word_length", "First", ""))
		r.RegisterMetadata(NewMetadata("0010_word_length", "Second", ""))

		md, _ := r.Metadata("0010_word_length")
		if md.Name != "Second" {
			t.Fatalf("got %q want %q", md.Name, "Second")
		}
		if len(r.Codes()) != 1 {
			t.Fatalf("codes: got %v", r.Codes())
		}
	})

	t.Run("EmptyCodeIgnored", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(discardLogger())
		r.RegisterMetadata(Metadata{Code: "   ", Name: "nameless"})
		if len(r.Codes()) != 0 {
			t.Fatalf("codes: got %v want none", r.Codes())
		}
	})
}

func TestRegistryCodesSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	for _, code := range []string{"0061_c", "0010_a", "0032_b"} {
		r.RegisterMetadata(NewMetadata(code, code, ""))
	}

	want := []string{"0010_a", "0032_b", "0061_c"}
	got := r.Codes()
	if len(got) != len(want) {
		t.Fatalf("codes: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes: got %v want %v", got, want)
		}
	}
}

func TestRegistryGenerator(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	r.RegisterMetadata(NewMetadata("0010_test", "Test", ""))
	r.RegisterGenerator("0010_TEST", func(md Metadata, store QuestionStore) *Generator {
		return NewGenerator(md, store, discardLogger())
	})

	g := r.Generator("0010_test", nil)
	if g == nil {
		t.Fatalf("Generator: got nil")
	}
	if g.Metadata().Code != "0010_test" {
		t.Fatalf("metadata: got %q", g.Metadata().Code)
	}

	if g := r.Generator("0999_missing", nil); g != nil {
		t.Fatalf("unknown code: got %v want nil", g)
	}

	t.Run("FactoryWithoutMetadata", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(discardLogger())
		r.RegisterGenerator("0010_orphan", func(md Metadata, store QuestionStore) *Generator {
			return NewGenerator(md, store, discardLogger())
		})
		if g := r.Generator("0010_orphan", nil); g != nil {
			t.Fatalf("factory without metadata should yield nil")
		}
	})

	t.Run("NilFactoryIgnored", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(discardLogger())
		r.RegisterMetadata(NewMetadata("0010_test", "Test", ""))
		r.RegisterGenerator("0010_test", nil)
		if g := r.Generator("0010_test", nil); g != nil {
			t.Fatalf("nil factory should not register")
		}
	})
}

func TestRegistryRunner(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	r.RegisterMetadata(NewMetadata("0010_test", "Test", ""))
	r.RegisterRunner("0010_test", func(model string, md Metadata) Runner {
		return NewBaseRunner(model, md)
	})

	run := r.Runner("0010_Test", "llama3.2")
	if run == nil {
		t.Fatalf("Runner: got nil")
	}
	if run.Model() != "llama3.2" {
		t.Fatalf("model: got %q", run.Model())
	}

	if run := r.Runner("0999_missing", "llama3.2"); run != nil {
		t.Fatalf("unknown code: got %v want nil", run)
	}
}
