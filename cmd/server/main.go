package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/verbalab/lingbench/api"
	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/benchmark/tasks"
	"github.com/verbalab/lingbench/internal/config"
	"github.com/verbalab/lingbench/internal/datafile"
	"github.com/verbalab/lingbench/internal/harness"
	"github.com/verbalab/lingbench/internal/logging"
	"github.com/verbalab/lingbench/internal/store"
)

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig = config.Load
	openStore  = store.Open
	newServer  = api.NewServer
	runServer  = (*api.Server).Run
)

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)

	var addr string
	var configPath string
	fs.StringVar(&addr, "addr", "", "listen address (overrides config)")
	fs.StringVar(&configPath, "config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		if configPath != "" || !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(stderrWriter, err)
			return 1
		}
		cfg = config.Default()
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	defer func() { _ = st.Close() }()

	if err := syncBenchmarks(cfg, st); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	srv, err := newServer(cfg, st)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	if addr == "" {
		addr = cfg.Server.Addr
	}
	if err := runServer(srv, addr); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	return 0
}

// syncBenchmarks upserts a row for every registered benchmark so the
// API can list them before any questions or runs exist.
func syncBenchmarks(cfg *config.Config, st store.Store) error {
	reg := benchmark.NewRegistry(slog.Default())
	tasks.RegisterAll(reg, tasks.Deps{
		Files: datafile.NewLoader(cfg.Data.Dir),
		Log:   slog.Default(),
	})
	h := harness.New(reg, nil, st, harness.Config{}, slog.Default())
	return h.SyncMetadata(context.Background())
}
