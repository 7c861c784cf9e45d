package benchmark

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type insertedQuestion struct {
	ID            string
	BenchmarkCode string
	Payload       []byte
}

type memQuestionStore struct {
	inserts []insertedQuestion
	err     error
}

func (s *memQuestionStore) InsertQuestion(ctx context.Context, questionID, benchmarkCode string, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	s.inserts = append(s.inserts, insertedQuestion{ID: questionID, BenchmarkCode: benchmarkCode, Payload: payload})
	return nil
}

func newTestGenerator(store QuestionStore, strategies ...Strategy) *Generator {
	md := NewMetadata("0099_test", "Test Benchmark", "fixture")
	return NewGenerator(md, store, discardLogger(), strategies...)
}

func TestGeneratorWaterfall(t *testing.T) {
	t.Parallel()

	first := NewFileStrategy(discardLogger(), func(ctx context.Context) ([]*Question, error) {
		return []*Question{freeTextQuestion("a"), freeTextQuestion("b")}, nil
	})
	second := NewFileStrategy(discardLogger(), func(ctx context.Context) ([]*Question, error) {
		return []*Question{freeTextQuestion("c")}, nil
	})
	g := newTestGenerator(nil, first, second)

	ctx := context.Background()
	var got []string
	for {
		q, err := g.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, q.Text)
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("drained: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v want %v", got, want)
		}
	}

	if _, err := g.Next(ctx); !errors.Is(err, ErrExhausted) {
		t.Fatalf("drained generator: got %v want ErrExhausted", err)
	}
}

func TestGeneratorSkipsFailedTier(t *testing.T) {
	t.Parallel()

	broken := NewFileStrategy(discardLogger(), func(ctx context.Context) ([]*Question, error) {
		return nil, errors.New("data file missing")
	})
	fallback := NewFileStrategy(discardLogger(), func(ctx context.Context) ([]*Question, error) {
		return []*Question{freeTextQuestion("fallback")}, nil
	})
	g := newTestGenerator(nil, broken, fallback)

	q, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Text != "fallback" {
		t.Fatalf("got %q want %q", q.Text, "fallback")
	}
}

func TestGeneratorStrategyErrorWrapped(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("producer broke")
	g := newTestGenerator(nil, NewLocalStrategy(func() (*Question, error) {
		return nil, wantErr
	}))

	_, err := g.Next(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v want wrapped %v", err, wantErr)
	}
	if !strings.Contains(err.Error(), "local strategy") {
		t.Fatalf("error should name the strategy, got %q", err.Error())
	}
}

func TestGeneratorTake(t *testing.T) {
	t.Parallel()

	t.Run("StopsAtLimit", func(t *testing.T) {
		t.Parallel()

		i := 0
		g := newTestGenerator(nil, NewLocalStrategy(func() (*Question, error) {
			i++
			return freeTextQuestion(strings.Repeat("x", i)), nil
		}))

		questions, err := g.Take(context.Background(), 3)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if len(questions) != 3 {
			t.Fatalf("got %d questions want 3", len(questions))
		}
	})

	t.Run("StopsEarlyWhenDry", func(t *testing.T) {
		t.Parallel()

		g := newTestGenerator(nil, NewFileStrategy(discardLogger(), func(ctx context.Context) ([]*Question, error) {
			return []*Question{freeTextQuestion("only")}, nil
		}))

		questions, err := g.Take(context.Background(), 5)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if len(questions) != 1 {
			t.Fatalf("got %d questions want 1", len(questions))
		}
	})

	t.Run("NonPositiveCount", func(t *testing.T) {
		t.Parallel()

		g := newTestGenerator(nil)
		questions, err := g.Take(context.Background(), 0)
		if err != nil || questions != nil {
			t.Fatalf("got (%v, %v) want (nil, nil)", questions, err)
		}
	})
}

func TestGeneratorSaveQuestion(t *testing.T) {
	t.Parallel()

	t.Run("CustomID", func(t *testing.T) {
		t.Parallel()

		store := &memQuestionStore{}
		g := newTestGenerator(store)

		id, err := g.SaveQuestion(context.Background(), freeTextQuestion("save me"), "seed42")
		if err != nil {
			t.Fatalf("SaveQuestion: %v", err)
		}
		if id != "0099_test:seed42" {
			t.Fatalf("id: got %q want %q", id, "0099_test:seed42")
		}
		if len(store.inserts) != 1 {
			t.Fatalf("inserts: got %d want 1", len(store.inserts))
		}
		row := store.inserts[0]
		if row.ID != id || row.BenchmarkCode != "0099_test" {
			t.Fatalf("insert: got %+v", row)
		}
		q, err := DecodeQuestion(row.Payload)
		if err != nil {
			t.Fatalf("DecodeQuestion: %v", err)
		}
		if q.Text != "save me" {
			t.Fatalf("payload text: got %q", q.Text)
		}
	})

	t.Run("GeneratedID", func(t *testing.T) {
		t.Parallel()

		store := &memQuestionStore{}
		g := newTestGenerator(store)

		id, err := g.SaveQuestion(context.Background(), freeTextQuestion("auto id"), "  ")
		if err != nil {
			t.Fatalf("SaveQuestion: %v", err)
		}
		suffix, ok := strings.CutPrefix(id, "0099_test:")
		if !ok {
			t.Fatalf("id missing benchmark prefix: %q", id)
		}
		if len(suffix) != 36 {
			t.Fatalf("suffix should be a UUID, got %q", suffix)
		}
	})

	t.Run("InvalidQuestionNotStored", func(t *testing.T) {
		t.Parallel()

		store := &memQuestionStore{}
		g := newTestGenerator(store)

		_, err := g.SaveQuestion(context.Background(), &Question{Text: "x", AnswerType: "essay"}, "bad")
		if err == nil {
			t.Fatalf("expected validation error")
		}
		if len(store.inserts) != 0 {
			t.Fatalf("invalid question was stored")
		}
	})

	t.Run("StoreError", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("disk full")
		g := newTestGenerator(&memQuestionStore{err: wantErr})

		_, err := g.SaveQuestion(context.Background(), freeTextQuestion("x"), "id")
		if !errors.Is(err, wantErr) {
			t.Fatalf("got %v want wrapped %v", err, wantErr)
		}
	})

	t.Run("NoStore", func(t *testing.T) {
		t.Parallel()

		g := newTestGenerator(nil)
		if _, err := g.SaveQuestion(context.Background(), freeTextQuestion("x"), "id"); err == nil {
			t.Fatalf("expected error without a store")
		}
	})
}

func TestGeneratorBatchSaveQuestions(t *testing.T) {
	t.Parallel()

	store := &memQuestionStore{}
	g := newTestGenerator(store)

	questions := []*Question{freeTextQuestion("one"), freeTextQuestion("two")}
	ids, err := g.BatchSaveQuestions(context.Background(), questions, "seed")
	if err != nil {
		t.Fatalf("BatchSaveQuestions: %v", err)
	}
	want := []string{"0099_test:seed1", "0099_test:seed2"}
	if len(ids) != len(want) {
		t.Fatalf("ids: got %v want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids: got %v want %v", ids, want)
		}
	}

	t.Run("DefaultPrefix", func(t *testing.T) {
		t.Parallel()

		store := &memQuestionStore{}
		g := newTestGenerator(store)
		ids, err := g.BatchSaveQuestions(context.Background(), []*Question{freeTextQuestion("solo")}, "")
		if err != nil {
			t.Fatalf("BatchSaveQuestions: %v", err)
		}
		if len(ids) != 1 || ids[0] != "0099_test:q1" {
			t.Fatalf("ids: got %v", ids)
		}
	})
}
