package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verbalab/lingbench/internal/store"
)

const defaultListLimit = 50

type benchmarkResponse struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	MaxScore    int      `json:"max_score"`
}

type questionResponse struct {
	ID            string          `json:"id"`
	BenchmarkCode string          `json:"benchmark_code"`
	Question      json.RawMessage `json:"question"`
	CreatedAt     time.Time       `json:"created_at"`
}

type runResponse struct {
	ID            int64            `json:"id"`
	Model         string           `json:"model"`
	BenchmarkCode string           `json:"benchmark_code"`
	Score         int              `json:"score"`
	CreatedAt     time.Time        `json:"created_at"`
	Details       []detailResponse `json:"details,omitempty"`
}

type detailResponse struct {
	QuestionID string          `json:"question_id"`
	Score      int             `json:"score"`
	EvalMsec   int64           `json:"eval_msec"`
	Debug      json.RawMessage `json:"debug,omitempty"`
}

type leaderboardResponse struct {
	Model     string    `json:"model"`
	BestScore int       `json:"best_score"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"last_run"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListBenchmarks(c *gin.Context) {
	records, err := s.store.ListBenchmarks(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]benchmarkResponse, 0, len(records))
	for _, b := range records {
		out = append(out, benchmarkResponse{
			Code:        b.Code,
			Name:        b.Name,
			Description: b.Description,
			Version:     b.Version,
			Tags:        b.Tags,
			MaxScore:    b.MaxScore,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListQuestions(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing benchmark code"))
		return
	}
	limit, err := parseLimitParam(c.Query("limit"), defaultListLimit)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	records, err := s.store.ListQuestions(c.Request.Context(), code, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]questionResponse, 0, len(records))
	for _, q := range records {
		out = append(out, questionResponse{
			ID:            q.ID,
			BenchmarkCode: q.BenchmarkCode,
			Question:      json.RawMessage(q.Payload),
			CreatedAt:     q.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, err := parseLimitParam(c.Query("limit"), defaultListLimit)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	since, err := parseTimeParam(c.Query("since"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	until, err := parseTimeParam(c.Query("until"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.RunFilter{
		Model:         strings.TrimSpace(c.Query("model")),
		BenchmarkCode: strings.TrimSpace(c.Query("benchmark")),
		Since:         since,
		Until:         until,
		Limit:         limit,
	}
	records, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]runResponse, 0, len(records))
	for _, r := range records {
		out = append(out, runResponse{
			ID:            r.ID,
			Model:         r.Model,
			BenchmarkCode: r.BenchmarkCode,
			Score:         r.Score,
			CreatedAt:     r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, errors.New("invalid run id"))
		return
	}

	ctx := c.Request.Context()
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %d not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	details, err := s.store.GetRunDetails(ctx, id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := runResponse{
		ID:            run.ID,
		Model:         run.Model,
		BenchmarkCode: run.BenchmarkCode,
		Score:         run.Score,
		CreatedAt:     run.CreatedAt,
		Details:       make([]detailResponse, 0, len(details)),
	}
	for _, d := range details {
		out.Details = append(out.Details, detailResponse{
			QuestionID: d.QuestionID,
			Score:      d.Score,
			EvalMsec:   d.EvalMsec,
			Debug:      debugPayload(d.DebugJSON),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		code = strings.TrimSpace(c.Query("benchmark"))
	}
	if code == "" {
		respondError(c, http.StatusBadRequest, errors.New("benchmark is required"))
		return
	}
	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := s.store.GetLeaderboard(c.Request.Context(), code)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]leaderboardResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardResponse{
			Model:     e.Model,
			BestScore: e.BestScore,
			Runs:      e.Runs,
			LastRun:   e.LastRun,
		})
	}
	c.JSON(http.StatusOK, out)
}

// debugPayload passes stored debug JSON through untouched, guarding
// against rows written before the field existed.
func debugPayload(raw string) json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" || !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339 or YYYY-MM-DD)", raw)
}
