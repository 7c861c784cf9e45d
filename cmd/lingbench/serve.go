package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr string
}

func newServeCmd(st *cliState) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, st *cliState, opts *serveOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("serve: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("serve: nil options")
	}

	stor, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	// Benchmark rows exist before the first generate or run, so the
	// API lists every registered benchmark from the start.
	reg := buildRegistry(st.cfg, nil)
	h := newHarness(st.cfg, reg, nil, stor)
	if err := h.SyncMetadata(cmd.Context()); err != nil {
		return err
	}

	srv, err := newServer(st.cfg, stor)
	if err != nil {
		return err
	}

	addr := strings.TrimSpace(opts.addr)
	if addr == "" {
		addr = st.cfg.Server.Addr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving API on %s\n", addr)
	return runServer(srv, addr)
}
