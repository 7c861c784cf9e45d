package api

import (
	"os"
	"strings"
)

func (s *Server) registerRoutes() {
	if s == nil || s.router == nil {
		return
	}

	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	if key := strings.TrimSpace(os.Getenv("LINGBENCH_API_KEY")); key != "" {
		api.Use(apiKeyAuthMiddleware(key))
	}

	api.GET("/benchmarks", s.handleListBenchmarks)
	api.GET("/benchmarks/:code/questions", s.handleListQuestions)
	api.GET("/benchmarks/:code/leaderboard", s.handleLeaderboard)

	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)

	api.GET("/leaderboard", s.handleLeaderboard)
}
