// Package harness drives benchmark runs end to end: question supply,
// prompting, evaluation and persistence of results.
package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
	"github.com/verbalab/lingbench/internal/store"
)

// Harness executes benchmarks against models and records the results.
type Harness struct {
	registry *benchmark.Registry
	chat     llm.Client
	store    store.Store
	cfg      Config
	log      *slog.Logger

	sem chan struct{}
}

// New creates a Harness with defaults applied.
func New(registry *benchmark.Registry, chat llm.Client, st store.Store, cfg Config, log *slog.Logger) *Harness {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Harness{
		registry: registry,
		chat:     chat,
		store:    st,
		cfg:      cfg,
		log:      log,
		sem:      make(chan struct{}, cfg.Workers),
	}
}

// SyncMetadata upserts a benchmark row for every registered code, so
// question and run foreign keys resolve.
func (h *Harness) SyncMetadata(ctx context.Context) error {
	if h == nil || h.registry == nil || h.store == nil {
		return errors.New("harness: not fully configured")
	}
	for _, code := range h.registry.Codes() {
		if err := h.ensureBenchmark(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) ensureBenchmark(ctx context.Context, code string) error {
	md, ok := h.registry.Metadata(code)
	if !ok {
		return fmt.Errorf("harness: unknown benchmark %q", code)
	}
	rec := &store.BenchmarkRecord{
		Code:        md.Code,
		Name:        md.Name,
		Description: md.Description,
		Version:     md.Version,
		Tags:        md.Tags,
		MaxScore:    md.MaxScore,
	}
	if err := h.store.UpsertBenchmark(ctx, rec); err != nil {
		return fmt.Errorf("harness: sync benchmark %s: %w", code, err)
	}
	return nil
}

// GenerateQuestions pulls up to n questions from the benchmark's
// strategy waterfall and persists each one. It returns the stored ids;
// fewer than n means the supply ran out.
func (h *Harness) GenerateQuestions(ctx context.Context, code string, n int) ([]string, error) {
	if h == nil || h.registry == nil || h.store == nil {
		return nil, errors.New("harness: not fully configured")
	}
	if ctx == nil {
		return nil, errors.New("harness: nil context")
	}
	if n <= 0 {
		n = h.cfg.SampleSize
	}
	if err := h.ensureBenchmark(ctx, code); err != nil {
		return nil, err
	}
	gen := h.registry.Generator(code, h.store)
	if gen == nil {
		return nil, fmt.Errorf("harness: no generator for %q", code)
	}

	ids := make([]string, 0, n)
	for len(ids) < n {
		q, err := h.nextQuestion(ctx, gen)
		if errors.Is(err, benchmark.ErrExhausted) {
			break
		}
		if err != nil {
			return ids, fmt.Errorf("harness: generate %s: %w", code, err)
		}
		id, err := gen.SaveQuestion(ctx, q, "")
		if err != nil {
			h.log.Warn("question not saved", "benchmark", code, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Harness) nextQuestion(ctx context.Context, gen *benchmark.Generator) (*benchmark.Question, error) {
	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}
	return gen.Next(ctx)
}

// RunBenchmark runs one model over one benchmark and persists the
// result. Stored questions are used when present; otherwise fresh ones
// are pulled from the generator and saved along the way. limit <= 0
// falls back to the configured sample size.
func (h *Harness) RunBenchmark(ctx context.Context, code, model string, limit int) (*RunResult, error) {
	return h.run(ctx, code, model, limit, false)
}

// RunSample runs on freshly generated questions, ignoring any stored
// ones. The generated questions are still persisted.
func (h *Harness) RunSample(ctx context.Context, code, model string, n int) (*RunResult, error) {
	return h.run(ctx, code, model, n, true)
}

func (h *Harness) run(ctx context.Context, code, model string, limit int, fresh bool) (*RunResult, error) {
	if h == nil || h.registry == nil || h.store == nil {
		return nil, errors.New("harness: not fully configured")
	}
	if ctx == nil {
		return nil, errors.New("harness: nil context")
	}
	if h.chat == nil {
		return nil, errors.New("harness: nil chat client")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("harness: empty benchmark code")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("harness: empty model")
	}

	if err := h.ensureBenchmark(ctx, code); err != nil {
		return nil, err
	}
	runner := h.registry.Runner(code, model)
	if runner == nil {
		return nil, fmt.Errorf("harness: no runner for %q", code)
	}
	md, _ := h.registry.Metadata(code)
	maxScore := md.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}

	if limit <= 0 {
		limit = h.cfg.SampleSize
	}
	questions, err := h.questionsFor(ctx, code, limit, fresh)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("harness: no questions available for %q", code)
	}

	out := &RunResult{
		BenchmarkCode: code,
		Model:         model,
		Questions:     make([]QuestionResult, 0, len(questions)),
	}
	correct := 0
	for _, rq := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		qr := h.evaluateQuestion(ctx, runner, rq, maxScore)
		out.Questions = append(out.Questions, qr)
		if qr.Correct {
			correct++
		}
	}
	out.Score = int(math.Round(float64(correct) / float64(len(out.Questions)) * 100))

	runID, err := h.persistRun(ctx, out)
	if err != nil {
		return nil, err
	}
	out.RunID = runID
	h.log.Info("benchmark run complete",
		"benchmark", code, "model", model,
		"score", out.Score, "questions", len(out.Questions), "run_id", runID)
	return out, nil
}

// Run executes every benchmark and model pairing with bounded
// concurrency. Each task gets its own generator and runner instances;
// failures are reported per task, never aborting the rest. fresh skips
// stored questions the way RunSample does.
func (h *Harness) Run(ctx context.Context, codes, models []string, limit int, fresh bool) []TaskResult {
	var tasks []Task
	for _, code := range codes {
		for _, model := range models {
			tasks = append(tasks, Task{BenchmarkCode: code, Model: model})
		}
	}
	results := make([]TaskResult, len(tasks))

	var wg sync.WaitGroup
taskLoop:
	for i := range tasks {
		select {
		case <-ctx.Done():
			for j := i; j < len(tasks); j++ {
				results[j] = TaskResult{Task: tasks[j], Err: ctx.Err()}
			}
			break taskLoop
		default:
		}

		idx := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := tasks[idx]
			if err := h.acquire(ctx); err != nil {
				results[idx] = TaskResult{Task: task, Err: err}
				return
			}
			defer h.release()

			res, err := h.run(ctx, task.BenchmarkCode, task.Model, limit, fresh)
			results[idx] = TaskResult{Task: task, Result: res, Err: err}
		}()
	}
	wg.Wait()
	return results
}

func (h *Harness) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Harness) release() {
	<-h.sem
}

type runQuestion struct {
	id string
	q  *benchmark.Question
}

func (h *Harness) questionsFor(ctx context.Context, code string, limit int, fresh bool) ([]runQuestion, error) {
	out := make([]runQuestion, 0, limit)
	if !fresh {
		records, err := h.store.ListQuestions(ctx, code, limit)
		if err != nil {
			h.log.Warn("stored questions unavailable", "benchmark", code, "error", err)
		}
		for _, rec := range records {
			q, err := benchmark.DecodeQuestion(rec.Payload)
			if err != nil {
				h.log.Warn("skipping undecodable question", "id", rec.ID, "error", err)
				continue
			}
			out = append(out, runQuestion{id: rec.ID, q: q})
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	gen := h.registry.Generator(code, h.store)
	if gen == nil {
		return nil, fmt.Errorf("harness: no generator for %q", code)
	}
	for len(out) < limit {
		q, err := h.nextQuestion(ctx, gen)
		if errors.Is(err, benchmark.ErrExhausted) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("harness: generate %s: %w", code, err)
		}
		id, err := gen.SaveQuestion(ctx, q, "")
		if err != nil {
			h.log.Warn("question not saved", "benchmark", code, "error", err)
			id = code + ":" + uuid.NewString()
		}
		out = append(out, runQuestion{id: id, q: q})
	}
	return out, nil
}

// evaluateQuestion runs the three-step runner protocol for one
// question. Errors never propagate: they score zero with the error in
// the debug record.
func (h *Harness) evaluateQuestion(ctx context.Context, r benchmark.Runner, rq runQuestion, maxScore int) QuestionResult {
	out := QuestionResult{QuestionID: rq.id}

	prompt, err := r.PreparePrompt(rq.q)
	if err != nil {
		out.Debug = map[string]any{"error": err.Error()}
		return out
	}

	start := time.Now()
	resp, err := h.chat.GenerateChat(ctx, &llm.ChatRequest{
		Prompt:  prompt.Text,
		Model:   r.RemoteModel(),
		Context: prompt.Context,
		Schema:  prompt.Schema,
		Brief:   prompt.Brief,
	})
	out.EvalMsec = time.Since(start).Milliseconds()
	if err != nil {
		out.Debug = map[string]any{"error": err.Error()}
		return out
	}
	if resp.Usage.TotalMsec > 0 {
		out.EvalMsec = resp.Usage.TotalMsec
	}

	out.Correct = r.EvaluateResponse(rq.q, resp)
	if out.Correct {
		out.Score = maxScore
	}
	out.Debug = r.BuildDebugInfo(rq.q, resp, out.Correct)
	return out
}

func (h *Harness) persistRun(ctx context.Context, res *RunResult) (int64, error) {
	rec := &store.RunRecord{
		Model:         res.Model,
		BenchmarkCode: res.BenchmarkCode,
		Score:         res.Score,
		Details:       make([]store.DetailRecord, 0, len(res.Questions)),
	}
	for _, qr := range res.Questions {
		debugJSON := ""
		if qr.Debug != nil {
			if b, err := json.Marshal(qr.Debug); err == nil {
				debugJSON = string(b)
			}
		}
		rec.Details = append(rec.Details, store.DetailRecord{
			QuestionID: qr.QuestionID,
			Score:      qr.Score,
			EvalMsec:   qr.EvalMsec,
			DebugJSON:  debugJSON,
		})
	}
	id, err := h.store.InsertRun(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("harness: persist run: %w", err)
	}
	return id, nil
}
