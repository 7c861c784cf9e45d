package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	upsertBenchmarkStmt   *sql.Stmt
	insertQuestionStmt    *sql.Stmt
	deleteQuestionsStmt   *sql.Stmt
	getQuestionStmt       *sql.Stmt
	questionsByCodeStmt   *sql.Stmt
	countQuestionsStmt    *sql.Stmt
	listBenchmarksStmt    *sql.Stmt
	insertRunStmt         *sql.Stmt
	insertDetailStmt      *sql.Stmt
	getRunStmt            *sql.Stmt
	detailsByRunStmt      *sql.Stmt
	leaderboardByCodeStmt *sql.Stmt
}

var (
	sqliteOpen              = sql.Open
	sqlitePrepareStatements = (*SQLiteStore).prepareStatements
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sqliteOpen("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	if path == ":memory:" {
		// Each pooled connection would otherwise open its own empty database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := sqlitePrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS benchmarks (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			version TEXT,
			tags TEXT,
			max_score INTEGER NOT NULL DEFAULT 100
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			question_id TEXT PRIMARY KEY,
			benchmark_code TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(benchmark_code) REFERENCES benchmarks(code) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_benchmark ON questions(benchmark_code)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			benchmark_code TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(benchmark_code) REFERENCES benchmarks(code) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_benchmark ON runs(benchmark_code, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model)`,
		`CREATE TABLE IF NOT EXISTS run_details (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			question_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			eval_msec INTEGER NOT NULL,
			debug_json TEXT,
			FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_details_run ON run_details(run_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.upsertBenchmarkStmt,
			query: `
				INSERT INTO benchmarks (code, name, description, version, tags, max_score)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(code) DO UPDATE SET
					name = excluded.name,
					description = excluded.description,
					version = excluded.version,
					tags = excluded.tags,
					max_score = excluded.max_score
			`,
			errFmt: "store: prepare upsert benchmark: %w",
		},
		{
			dst: &s.insertQuestionStmt,
			query: `
				INSERT INTO questions (question_id, benchmark_code, payload, created_at)
				VALUES (?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert question: %w",
		},
		{
			dst:    &s.deleteQuestionsStmt,
			query:  `DELETE FROM questions WHERE benchmark_code = ?`,
			errFmt: "store: prepare delete questions: %w",
		},
		{
			dst: &s.getQuestionStmt,
			query: `
				SELECT question_id, benchmark_code, payload, created_at
				FROM questions WHERE question_id = ?
			`,
			errFmt: "store: prepare get question: %w",
		},
		{
			dst: &s.questionsByCodeStmt,
			query: `
				SELECT question_id, benchmark_code, payload, created_at
				FROM questions
				WHERE benchmark_code = ?
				ORDER BY created_at ASC, question_id ASC
				LIMIT ?
			`,
			errFmt: "store: prepare list questions: %w",
		},
		{
			dst:    &s.countQuestionsStmt,
			query:  `SELECT COUNT(*) FROM questions WHERE benchmark_code = ?`,
			errFmt: "store: prepare count questions: %w",
		},
		{
			dst: &s.listBenchmarksStmt,
			query: `
				SELECT code, name, description, version, tags, max_score
				FROM benchmarks ORDER BY code ASC
			`,
			errFmt: "store: prepare list benchmarks: %w",
		},
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO runs (model, benchmark_code, score, created_at)
				VALUES (?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.insertDetailStmt,
			query: `
				INSERT INTO run_details (run_id, question_id, score, eval_msec, debug_json)
				VALUES (?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run detail: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT id, model, benchmark_code, score, created_at
				FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.detailsByRunStmt,
			query: `
				SELECT question_id, score, eval_msec, debug_json
				FROM run_details
				WHERE run_id = ?
				ORDER BY id ASC
			`,
			errFmt: "store: prepare run details: %w",
		},
		{
			dst: &s.leaderboardByCodeStmt,
			query: `
				SELECT model, MAX(score) AS best_score, COUNT(*) AS runs, MAX(created_at) AS last_run
				FROM runs
				WHERE benchmark_code = ?
				GROUP BY model
				ORDER BY best_score DESC, model ASC
			`,
			errFmt: "store: prepare leaderboard: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.upsertBenchmarkStmt,
		s.insertQuestionStmt,
		s.deleteQuestionsStmt,
		s.getQuestionStmt,
		s.questionsByCodeStmt,
		s.countQuestionsStmt,
		s.listBenchmarksStmt,
		s.insertRunStmt,
		s.insertDetailStmt,
		s.getRunStmt,
		s.detailsByRunStmt,
		s.leaderboardByCodeStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertBenchmark records benchmark metadata, replacing any previous
// registration under the same code.
func (s *SQLiteStore) UpsertBenchmark(ctx context.Context, b *BenchmarkRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if b == nil {
		return errors.New("store: nil benchmark")
	}
	code := strings.TrimSpace(b.Code)
	if code == "" {
		return errors.New("store: empty benchmark code")
	}

	tagsJSON, err := json.Marshal(b.Tags)
	if err != nil {
		return fmt.Errorf("store: marshal benchmark tags: %w", err)
	}

	maxScore := b.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}

	_, err = s.upsertBenchmarkStmt.ExecContext(ctx, code, b.Name, b.Description, b.Version, string(tagsJSON), maxScore)
	if err != nil {
		return fmt.Errorf("store: upsert benchmark: %w", err)
	}
	return nil
}

// InsertQuestion persists one generated question payload.
func (s *SQLiteStore) InsertQuestion(ctx context.Context, questionID, benchmarkCode string, payload []byte) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	questionID = strings.TrimSpace(questionID)
	benchmarkCode = strings.TrimSpace(benchmarkCode)
	if questionID == "" {
		return errors.New("store: empty question id")
	}
	if benchmarkCode == "" {
		return errors.New("store: empty benchmark code")
	}
	if len(payload) == 0 {
		return errors.New("store: empty question payload")
	}

	_, err := s.insertQuestionStmt.ExecContext(ctx, questionID, benchmarkCode, string(payload), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: insert question: %w", err)
	}
	return nil
}

// DeleteQuestions removes all stored questions for a benchmark,
// returning how many were deleted.
func (s *SQLiteStore) DeleteQuestions(ctx context.Context, benchmarkCode string) (int64, error) {
	if s == nil {
		return 0, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return 0, errors.New("store: nil context")
	}
	benchmarkCode = strings.TrimSpace(benchmarkCode)
	if benchmarkCode == "" {
		return 0, errors.New("store: empty benchmark code")
	}

	res, err := s.deleteQuestionsStmt.ExecContext(ctx, benchmarkCode)
	if err != nil {
		return 0, fmt.Errorf("store: delete questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: delete questions: %w", err)
	}
	return n, nil
}

// GetQuestion loads a question by id.
func (s *SQLiteStore) GetQuestion(ctx context.Context, questionID string) (*QuestionRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return nil, errors.New("store: empty question id")
	}

	row := s.getQuestionStmt.QueryRowContext(ctx, questionID)
	q, err := scanQuestionRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get question: %w", err)
	}
	return q, nil
}

// ListQuestions returns stored questions for a benchmark in insertion
// order.
func (s *SQLiteStore) ListQuestions(ctx context.Context, benchmarkCode string, limit int) ([]*QuestionRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	benchmarkCode = strings.TrimSpace(benchmarkCode)
	if benchmarkCode == "" {
		return nil, errors.New("store: empty benchmark code")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.questionsByCodeStmt.QueryContext(ctx, benchmarkCode, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list questions: %w", err)
	}
	defer rows.Close()

	var out []*QuestionRecord
	for rows.Next() {
		q, err := scanQuestionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list questions: %w", err)
	}
	return out, nil
}

// CountQuestions returns how many questions a benchmark has stored.
func (s *SQLiteStore) CountQuestions(ctx context.Context, benchmarkCode string) (int64, error) {
	if s == nil {
		return 0, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return 0, errors.New("store: nil context")
	}
	benchmarkCode = strings.TrimSpace(benchmarkCode)
	if benchmarkCode == "" {
		return 0, errors.New("store: empty benchmark code")
	}

	var n int64
	if err := s.countQuestionsStmt.QueryRowContext(ctx, benchmarkCode).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count questions: %w", err)
	}
	return n, nil
}

func scanQuestionRow(scan func(dest ...any) error) (*QuestionRecord, error) {
	var (
		id          string
		code        string
		payload     string
		createdAtMS int64
	)
	if err := scan(&id, &code, &payload, &createdAtMS); err != nil {
		return nil, err
	}
	return &QuestionRecord{
		ID:            id,
		BenchmarkCode: code,
		Payload:       []byte(payload),
		CreatedAt:     time.UnixMilli(createdAtMS).UTC(),
	}, nil
}

// ListBenchmarks returns all recorded benchmarks.
func (s *SQLiteStore) ListBenchmarks(ctx context.Context) ([]*BenchmarkRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	rows, err := s.listBenchmarksStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list benchmarks: %w", err)
	}
	defer rows.Close()

	var out []*BenchmarkRecord
	for rows.Next() {
		var (
			b        BenchmarkRecord
			desc     sql.NullString
			version  sql.NullString
			tagsJSON sql.NullString
		)
		if err := rows.Scan(&b.Code, &b.Name, &desc, &version, &tagsJSON, &b.MaxScore); err != nil {
			return nil, fmt.Errorf("store: scan benchmark: %w", err)
		}
		b.Description = desc.String
		b.Version = version.String
		tags, err := decodeTags(tagsJSON)
		if err != nil {
			return nil, fmt.Errorf("store: decode benchmark tags: %w", err)
		}
		b.Tags = tags
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list benchmarks: %w", err)
	}
	return out, nil
}

// InsertRun persists a run and its details in one transaction,
// returning the new run id.
func (s *SQLiteStore) InsertRun(ctx context.Context, run *RunRecord) (int64, error) {
	if s == nil {
		return 0, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return 0, errors.New("store: nil context")
	}
	if run == nil {
		return 0, errors.New("store: nil run")
	}
	model := strings.TrimSpace(run.Model)
	code := strings.TrimSpace(run.BenchmarkCode)
	if model == "" {
		return 0, errors.New("store: empty run model")
	}
	if code == "" {
		return 0, errors.New("store: empty benchmark code")
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	runStmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer runStmt.Close()

	res, err := runStmt.ExecContext(ctx, model, code, run.Score, createdAt.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: run id: %w", err)
	}

	detailStmt := tx.StmtContext(ctx, s.insertDetailStmt)
	defer detailStmt.Close()

	for _, d := range run.Details {
		if _, err := detailStmt.ExecContext(ctx, runID, d.QuestionID, d.Score, d.EvalMsec, d.DebugJSON); err != nil {
			return 0, fmt.Errorf("store: insert run detail: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit run: %w", err)
	}
	return runID, nil
}

// GetRun loads a run summary by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	row := s.getRunStmt.QueryRowContext(ctx, id)
	var (
		runID       int64
		model       string
		code        string
		score       int
		createdAtMS int64
	)
	if err := row.Scan(&runID, &model, &code, &score, &createdAtMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}

	return &RunRecord{
		ID:            runID,
		Model:         model,
		BenchmarkCode: code,
		Score:         score,
		CreatedAt:     time.UnixMilli(createdAtMS).UTC(),
	}, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, model, benchmark_code, score, created_at FROM runs WHERE 1=1`)

	var args []any
	if model := strings.TrimSpace(filter.Model); model != "" {
		sb.WriteString(` AND model = ?`)
		args = append(args, model)
	}
	if code := strings.TrimSpace(filter.BenchmarkCode); code != "" {
		sb.WriteString(` AND benchmark_code = ?`)
		args = append(args, code)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND created_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		var (
			runID       int64
			model       string
			code        string
			score       int
			createdAtMS int64
		)
		if err := rows.Scan(&runID, &model, &code, &score, &createdAtMS); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, &RunRecord{
			ID:            runID,
			Model:         model,
			BenchmarkCode: code,
			Score:         score,
			CreatedAt:     time.UnixMilli(createdAtMS).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// GetRunDetails lists the per-question outcomes of a run.
func (s *SQLiteStore) GetRunDetails(ctx context.Context, runID int64) ([]*DetailRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	rows, err := s.detailsByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: run details: %w", err)
	}
	defer rows.Close()

	var out []*DetailRecord
	for rows.Next() {
		var (
			d         DetailRecord
			debugJSON sql.NullString
		)
		if err := rows.Scan(&d.QuestionID, &d.Score, &d.EvalMsec, &debugJSON); err != nil {
			return nil, fmt.Errorf("store: scan run detail: %w", err)
		}
		d.DebugJSON = debugJSON.String
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: run details: %w", err)
	}
	return out, nil
}

// GetLeaderboard ranks models on a benchmark by their best score.
func (s *SQLiteStore) GetLeaderboard(ctx context.Context, benchmarkCode string) ([]*LeaderboardEntry, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	benchmarkCode = strings.TrimSpace(benchmarkCode)
	if benchmarkCode == "" {
		return nil, errors.New("store: empty benchmark code")
	}

	rows, err := s.leaderboardByCodeStmt.QueryContext(ctx, benchmarkCode)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*LeaderboardEntry
	for rows.Next() {
		var (
			e         LeaderboardEntry
			lastRunMS int64
		)
		if err := rows.Scan(&e.Model, &e.BestScore, &e.Runs, &lastRunMS); err != nil {
			return nil, fmt.Errorf("store: scan leaderboard: %w", err)
		}
		e.LastRun = time.UnixMilli(lastRunMS).UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	return out, nil
}

func decodeTags(tagsJSON sql.NullString) ([]string, error) {
	if !tagsJSON.Valid {
		return nil, nil
	}
	raw := strings.TrimSpace(tagsJSON.String)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
