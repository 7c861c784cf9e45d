package benchmark

import (
	"context"
	"errors"
	"log/slog"
)

// seenClearThreshold bounds the dedup set carried by local strategies.
// Once the set reaches this size it is dropped wholesale, trading the
// occasional repeat for bounded memory on infinite producers.
const seenClearThreshold = 1000

// dedupAttempts caps how many duplicates a local strategy skips before
// giving up and emitting one anyway. Keeps small question spaces from
// spinning once most combinations have been seen.
const dedupAttempts = 100

// maxBatchFailures is how many consecutive failed fetches an LLM
// strategy tolerates before declaring itself exhausted.
const maxBatchFailures = 3

type fileStrategy struct {
	log    *slog.Logger
	load   func(ctx context.Context) ([]*Question, error)
	loaded bool
	items  []*Question
	idx    int
}

// NewFileStrategy serves questions from a one-shot loader, typically a
// curated data file. A loader error means the file is absent or
// malformed; the strategy logs it and reports itself exhausted so the
// generator falls through to the next tier.
func NewFileStrategy(log *slog.Logger, load func(ctx context.Context) ([]*Question, error)) Strategy {
	if log == nil {
		log = slog.Default()
	}
	return &fileStrategy{log: log, load: load}
}

func (s *fileStrategy) Name() string { return "file" }

func (s *fileStrategy) Next(ctx context.Context) (*Question, error) {
	if !s.loaded {
		s.loaded = true
		items, err := s.load(ctx)
		if err != nil {
			s.log.Debug("file strategy unavailable", "error", err)
			return nil, ErrExhausted
		}
		s.items = items
	}
	if s.idx >= len(s.items) {
		return nil, ErrExhausted
	}
	q := s.items[s.idx]
	s.idx++
	return q, nil
}

type localStrategy struct {
	produce func() (*Question, error)
	seen    map[string]struct{}
}

// NewLocalStrategy serves algorithmically produced questions. The
// producer may be infinite; recently produced question texts are
// deduplicated through a bounded seen set. A producer returning
// ErrExhausted ends the strategy.
func NewLocalStrategy(produce func() (*Question, error)) Strategy {
	return &localStrategy{
		produce: produce,
		seen:    make(map[string]struct{}),
	}
}

func (s *localStrategy) Name() string { return "local" }

func (s *localStrategy) Next(ctx context.Context) (*Question, error) {
	var last *Question
	for attempt := 0; attempt < dedupAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := s.produce()
		if err != nil {
			return nil, err
		}
		last = q
		if _, dup := s.seen[q.Text]; !dup {
			s.remember(q.Text)
			return q, nil
		}
	}
	// Every recent candidate was a repeat; the question space is
	// smaller than the dedup window. Emit the duplicate.
	return last, nil
}

func (s *localStrategy) remember(key string) {
	if len(s.seen) >= seenClearThreshold {
		s.seen = make(map[string]struct{})
	}
	s.seen[key] = struct{}{}
}

type batchStrategy struct {
	name     string
	log      *slog.Logger
	fetch    func(ctx context.Context) ([]*Question, error)
	buf      []*Question
	failures int
	done     bool
}

// NewLLMStrategy serves questions fetched in batches from a language
// model collaborator. The fetch callback returns ErrExhausted once it
// has no more batches to offer; other errors are logged and the fetch
// retried, up to a small consecutive-failure bound. Malformed items
// are expected to be dropped by the callback itself.
func NewLLMStrategy(log *slog.Logger, fetch func(ctx context.Context) ([]*Question, error)) Strategy {
	return newBatchStrategy("llm", log, fetch)
}

func newBatchStrategy(name string, log *slog.Logger, fetch func(ctx context.Context) ([]*Question, error)) Strategy {
	if log == nil {
		log = slog.Default()
	}
	return &batchStrategy{name: name, log: log, fetch: fetch}
}

func (s *batchStrategy) Name() string { return s.name }

func (s *batchStrategy) Next(ctx context.Context) (*Question, error) {
	for len(s.buf) == 0 {
		if s.done {
			return nil, ErrExhausted
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := s.fetch(ctx)
		if errors.Is(err, ErrExhausted) {
			s.done = true
			return nil, ErrExhausted
		}
		if err != nil {
			s.failures++
			s.log.Warn("question batch failed", "strategy", s.name, "attempt", s.failures, "error", err)
			if s.failures >= maxBatchFailures {
				s.done = true
				return nil, ErrExhausted
			}
			continue
		}
		s.failures = 0
		if len(items) == 0 {
			s.done = true
			return nil, ErrExhausted
		}
		s.buf = items
	}
	q := s.buf[0]
	s.buf = s.buf[1:]
	return q, nil
}
