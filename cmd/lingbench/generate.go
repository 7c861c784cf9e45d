package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	benchmark string
	count     int
}

func newGenerateCmd(st *cliState) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store benchmark questions",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.benchmark, "benchmark", "", "benchmark code")
	cmd.Flags().IntVar(&opts.count, "count", 0, "questions to generate (0 = config sample size)")

	return cmd
}

func runGenerate(cmd *cobra.Command, st *cliState, opts *generateOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("generate: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("generate: nil options")
	}
	code := strings.TrimSpace(opts.benchmark)
	if code == "" {
		return fmt.Errorf("generate: missing --benchmark")
	}
	if opts.count < 0 {
		return fmt.Errorf("generate: --count must be >= 0 (got %d)", opts.count)
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

	ids, err := h.GenerateQuestions(ctx, code, opts.count)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %d questions for %s\n", len(ids), code)
	if opts.count > 0 && len(ids) < opts.count {
		fmt.Fprintln(out, "Question supply ran out before the requested count.")
	}
	return nil
}
