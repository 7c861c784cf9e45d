package store

import (
	"context"
	"time"
)

// QuestionWriter persists benchmark metadata and generated questions.
type QuestionWriter interface {
	UpsertBenchmark(ctx context.Context, b *BenchmarkRecord) error
	InsertQuestion(ctx context.Context, questionID, benchmarkCode string, payload []byte) error
	DeleteQuestions(ctx context.Context, benchmarkCode string) (int64, error)
}

// QuestionReader reads stored questions and benchmark listings.
type QuestionReader interface {
	GetQuestion(ctx context.Context, questionID string) (*QuestionRecord, error)
	ListQuestions(ctx context.Context, benchmarkCode string, limit int) ([]*QuestionRecord, error)
	CountQuestions(ctx context.Context, benchmarkCode string) (int64, error)
	ListBenchmarks(ctx context.Context) ([]*BenchmarkRecord, error)
}

// RunWriter persists run results with their per-question details.
type RunWriter interface {
	InsertRun(ctx context.Context, run *RunRecord) (int64, error)
}

// RunReader reads run history and model standings.
type RunReader interface {
	GetRun(ctx context.Context, id int64) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	GetRunDetails(ctx context.Context, runID int64) ([]*DetailRecord, error)
	GetLeaderboard(ctx context.Context, benchmarkCode string) ([]*LeaderboardEntry, error)
}

// Store defines persistence for benchmarks, questions and runs.
type Store interface {
	QuestionWriter
	QuestionReader
	RunWriter
	RunReader
	Close() error
}

// BenchmarkRecord mirrors registered benchmark metadata.
type BenchmarkRecord struct {
	Code        string
	Name        string
	Description string
	Version     string
	Tags        []string
	MaxScore    int
}

// QuestionRecord stores one generated question as its JSON payload.
type QuestionRecord struct {
	ID            string
	BenchmarkCode string
	Payload       []byte
	CreatedAt     time.Time
}

// RunRecord stores one model's pass over one benchmark. Details are
// written together with the run and loaded separately on read.
type RunRecord struct {
	ID            int64
	Model         string
	BenchmarkCode string
	Score         int
	CreatedAt     time.Time
	Details       []DetailRecord
}

// DetailRecord stores the outcome for a single question in a run.
type DetailRecord struct {
	QuestionID string
	Score      int
	EvalMsec   int64
	DebugJSON  string
}

// RunFilter filters run listings.
type RunFilter struct {
	Model         string
	BenchmarkCode string
	Since         time.Time
	Until         time.Time
	Limit         int
}

// LeaderboardEntry summarizes one model's standing on a benchmark.
type LeaderboardEntry struct {
	Model     string
	BestScore int
	Runs      int
	LastRun   time.Time
}
