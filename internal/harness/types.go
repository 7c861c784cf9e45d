package harness

import "time"

// Config defines harness behavior.
type Config struct {
	Workers    int           // Max concurrent benchmark×model tasks
	SampleSize int           // Questions per run when no limit is given
	Timeout    time.Duration // Per-question generation timeout, 0 for none
}

// QuestionResult reports the outcome for a single question.
type QuestionResult struct {
	QuestionID string
	Correct    bool
	Score      int
	EvalMsec   int64
	Debug      map[string]any
}

// RunResult reports one model's pass over one benchmark.
type RunResult struct {
	RunID         int64
	BenchmarkCode string
	Model         string
	Score         int // Percent of questions answered correctly
	Questions     []QuestionResult
}

// Task names one benchmark×model pairing.
type Task struct {
	BenchmarkCode string
	Model         string
}

// TaskResult pairs a task with its outcome.
type TaskResult struct {
	Task   Task
	Result *RunResult
	Err    error
}
