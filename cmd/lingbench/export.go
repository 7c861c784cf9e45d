package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/verbalab/lingbench/internal/datafile"
)

type exportOptions struct {
	benchmark string
	out       string
}

func newExportCmd(st *cliState) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored questions as JSON lines",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.benchmark, "benchmark", "", "benchmark code")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (default stdout)")

	return cmd
}

type exportedQuestion struct {
	ID            string          `json:"id"`
	BenchmarkCode string          `json:"benchmark_code"`
	Question      json.RawMessage `json:"question"`
	CreatedAt     time.Time       `json:"created_at"`
}

func runExport(cmd *cobra.Command, st *cliState, opts *exportOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("export: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("export: nil options")
	}
	code := strings.TrimSpace(opts.benchmark)
	if code == "" {
		return fmt.Errorf("export: missing --benchmark")
	}

	stor, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	ctx := cmd.Context()
	total, err := stor.CountQuestions(ctx, code)
	if err != nil {
		return err
	}
	rows := make([]exportedQuestion, 0, total)
	if total > 0 {
		records, err := stor.ListQuestions(ctx, code, int(total))
		if err != nil {
			return err
		}
		for _, rec := range records {
			rows = append(rows, exportedQuestion{
				ID:            rec.ID,
				BenchmarkCode: rec.BenchmarkCode,
				Question:      json.RawMessage(rec.Payload),
				CreatedAt:     rec.CreatedAt,
			})
		}
	}

	if opts.out == "" {
		return datafile.WriteJSONL(cmd.OutOrStdout(), rows)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := datafile.WriteJSONL(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d questions for %s to %s\n", len(rows), code, opts.out)
	return nil
}
