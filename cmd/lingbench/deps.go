package main

import (
	"log/slog"

	"github.com/verbalab/lingbench/api"
	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/benchmark/tasks"
	"github.com/verbalab/lingbench/internal/config"
	"github.com/verbalab/lingbench/internal/datafile"
	"github.com/verbalab/lingbench/internal/harness"
	"github.com/verbalab/lingbench/internal/llm"
	"github.com/verbalab/lingbench/internal/store"
)

var (
	openStore     = store.Open
	newChatClient = llm.NewClientFromConfig
	newServer     = api.NewServer

	runServer = func(srv *api.Server, addr string) error {
		return srv.Run(addr)
	}
)

// buildRegistry wires the shipped benchmarks. chat may be nil for
// commands that never generate questions.
func buildRegistry(cfg *config.Config, chat llm.Client) *benchmark.Registry {
	reg := benchmark.NewRegistry(slog.Default())
	tasks.RegisterAll(reg, tasks.Deps{
		Files:    datafile.NewLoader(cfg.Data.Dir),
		Chat:     chat,
		GenModel: cfg.Generation.Model,
		Log:      slog.Default(),
	})
	return reg
}

func newHarness(cfg *config.Config, reg *benchmark.Registry, chat llm.Client, stor store.Store) *harness.Harness {
	return harness.New(reg, chat, stor, harness.Config{
		Workers:    cfg.Run.Workers,
		SampleSize: cfg.Run.SampleSize,
	}, slog.Default())
}
