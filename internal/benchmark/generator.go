package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ErrExhausted reports that a strategy, or a whole generator, has no
// further questions to produce. Callers test for it with errors.Is.
var ErrExhausted = errors.New("benchmark: question supply exhausted")

// Strategy produces questions from a single source until it is spent.
// Strategies are not safe for concurrent use; each generator owns its
// own instances.
type Strategy interface {
	// Name labels the strategy in logs ("file", "local", "llm").
	Name() string
	// Next returns the next question, or ErrExhausted once the source
	// is spent. A strategy that has returned ErrExhausted stays
	// exhausted.
	Next(ctx context.Context) (*Question, error)
}

// QuestionStore persists generated questions. *store.Store satisfies it.
type QuestionStore interface {
	InsertQuestion(ctx context.Context, questionID, benchmarkCode string, payload []byte) error
}

// Generator drains an ordered list of strategies: all questions from
// the first, then the second, and so on. Exhausted tiers are never
// revisited. Not safe for concurrent use; build one per worker.
type Generator struct {
	md         Metadata
	store      QuestionStore
	log        *slog.Logger
	strategies []Strategy
	cursor     int
}

// NewGenerator builds a generator over the given strategies in priority
// order. A nil logger falls back to slog.Default.
func NewGenerator(md Metadata, store QuestionStore, log *slog.Logger, strategies ...Strategy) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		md:         md,
		store:      store,
		log:        log.With("benchmark", md.Code),
		strategies: strategies,
	}
}

// Metadata returns the benchmark metadata this generator serves.
func (g *Generator) Metadata() Metadata {
	return g.md
}

// Next returns one question, advancing to the next strategy whenever
// the current one is exhausted. Returns ErrExhausted once every
// strategy is spent.
func (g *Generator) Next(ctx context.Context) (*Question, error) {
	if g == nil {
		return nil, errors.New("benchmark: nil generator")
	}
	for g.cursor < len(g.strategies) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := g.strategies[g.cursor]
		q, err := s.Next(ctx)
		if err == nil {
			return q, nil
		}
		if errors.Is(err, ErrExhausted) {
			g.log.Debug("strategy exhausted", "strategy", s.Name())
			g.cursor++
			continue
		}
		return nil, fmt.Errorf("benchmark: %s strategy: %w", s.Name(), err)
	}
	return nil, ErrExhausted
}

// Take produces up to n questions, stopping early if the generator
// runs dry. Context cancellation is returned as-is.
func (g *Generator) Take(ctx context.Context, n int) ([]*Question, error) {
	if n <= 0 {
		return nil, nil
	}
	questions := make([]*Question, 0, n)
	for len(questions) < n {
		q, err := g.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			return questions, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// SaveQuestion validates and persists q, returning its question ID.
// The ID is "{code}:{customID}", with a random UUID when customID is
// empty.
func (g *Generator) SaveQuestion(ctx context.Context, q *Question, customID string) (string, error) {
	if g.store == nil {
		return "", errors.New("benchmark: generator has no store")
	}
	if err := q.Validate(); err != nil {
		return "", err
	}
	customID = strings.TrimSpace(customID)
	if customID == "" {
		customID = uuid.NewString()
	}
	id := g.md.Code + ":" + customID

	payload, err := q.Payload()
	if err != nil {
		return "", err
	}
	if err := g.store.InsertQuestion(ctx, id, g.md.Code, payload); err != nil {
		return "", fmt.Errorf("benchmark: save question %s: %w", id, err)
	}
	return id, nil
}

// BatchSaveQuestions persists questions under sequential IDs. With a
// prefix the custom IDs are "{prefix}1", "{prefix}2", ...; without one
// they are "q1", "q2", ...
func (g *Generator) BatchSaveQuestions(ctx context.Context, questions []*Question, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "q"
	}
	ids := make([]string, 0, len(questions))
	for i, q := range questions {
		id, err := g.SaveQuestion(ctx, q, fmt.Sprintf("%s%d", prefix, i+1))
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
