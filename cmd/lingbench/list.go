package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered benchmarks",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return listBenchmarks(cmd, st)
		},
	}
}

func listBenchmarks(cmd *cobra.Command, st *cliState) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("list: missing config (internal error)")
	}

	stor, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	reg := buildRegistry(st.cfg, nil)
	ctx := cmd.Context()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tQUESTIONS\tDESCRIPTION")
	for _, code := range reg.Codes() {
		md, ok := reg.Metadata(code)
		if !ok {
			continue
		}
		count, err := stor.CountQuestions(ctx, code)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", md.Code, md.Name, count, md.Description)
	}
	return tw.Flush()
}
