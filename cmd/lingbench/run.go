package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errRunsFailed = errors.New("lingbench: runs failed")

type runOptions struct {
	benchmarks []string
	models     []string
	limit      int
	sample     bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run benchmarks against models and record scores",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmarks(cmd, st, &opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.benchmarks, "benchmark", nil, "benchmark code (repeatable)")
	cmd.Flags().StringSliceVar(&opts.models, "model", nil, "model name (repeatable)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "questions per run (0 = config sample size)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "generate fresh questions instead of reusing stored ones")

	return cmd
}

func runBenchmarks(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}
	codes := cleanList(opts.benchmarks)
	if len(codes) == 0 {
		return fmt.Errorf("run: missing --benchmark")
	}
	models := cleanList(opts.models)
	if len(models) == 0 {
		return fmt.Errorf("run: missing --model")
	}
	if opts.limit < 0 {
		return fmt.Errorf("run: --limit must be >= 0 (got %d)", opts.limit)
	}

	stor, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	chat, err := newChatClient(st.cfg)
	if err != nil {
		return err
	}
	reg := buildRegistry(st.cfg, chat)
	h := newHarness(st.cfg, reg, chat, stor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := h.Run(ctx, codes, models, opts.limit, opts.sample)

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BENCHMARK\tMODEL\tSCORE\tQUESTIONS\tRUN_ID")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\n", r.Task.BenchmarkCode, r.Task.Model)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n",
			r.Task.BenchmarkCode, r.Task.Model, r.Result.Score, len(r.Result.Questions), r.Result.RunID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "failed: benchmark=%s model=%s: %v\n", r.Task.BenchmarkCode, r.Task.Model, r.Err)
		}
	}
	fmt.Fprintf(out, "Summary: runs=%d ok=%d failed=%d\n", len(results), len(results)-failed, failed)

	if failed > 0 {
		return errRunsFailed
	}
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
