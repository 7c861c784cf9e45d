// Package api serves benchmark results over HTTP: registered
// benchmarks, stored questions, run history and the leaderboard.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/verbalab/lingbench/internal/config"
	"github.com/verbalab/lingbench/internal/store"
)

type Server struct {
	router *gin.Engine
	store  store.Store
	config *config.Config
}

func NewServer(cfg *config.Config, st store.Store) (*Server, error) {
	if st == nil {
		return nil, errors.New("api: nil store")
	}
	r := gin.New()
	s := &Server{
		router: r,
		store:  st,
		config: cfg,
	}
	s.registerMiddleware()
	s.registerRoutes()
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
