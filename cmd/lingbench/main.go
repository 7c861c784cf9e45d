package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/verbalab/lingbench/internal/config"
	"github.com/verbalab/lingbench/internal/logging"
)

type cliState struct {
	configPath string
	dbPath     string
	dataDir    string
	logLevel   string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errRunsFailed) {
			osExit(1)
			return
		}
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "lingbench",
		Short:         "Generate and score linguistic LLM benchmarks",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&st.dbPath, "db", "", "sqlite database path (overrides config)")
	root.PersistentFlags().StringVar(&st.dataDir, "data-dir", "", "benchmark data directory (overrides config)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	root.AddCommand(newListCmd(st))
	root.AddCommand(newGenerateCmd(st))
	root.AddCommand(newRunCmd(st))
	root.AddCommand(newExportCmd(st))
	root.AddCommand(newServeCmd(st))
	return root
}

// load resolves configuration, applies flag overrides and installs the
// process logger. A missing file is only an error when --config named
// one explicitly.
func (st *cliState) load() error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		if st.configPath != "" || !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = config.Default()
	}
	if st.dbPath != "" {
		cfg.Storage.Path = st.dbPath
	}
	if st.dataDir != "" {
		cfg.Data.Dir = st.dataDir
	}
	if st.logLevel != "" {
		cfg.Logging.Level = st.logLevel
	}
	st.cfg = cfg
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}
