package main

import (
	"context"

	"github.com/spf13/cobra"

	httpserver "db_schema_syncer/internal/http"
	"db_schema_syncer/internal/syncer"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			source, target, closePair, err := a.openPair()
			defer closePair()
			if err != nil {
				return err
			}
			recorder, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer recorder.Close()

			store := a.store()
			if err := store.EnsureBase(); err != nil {
				return err
			}
			planner := a.planner()
			plan := func(ctx context.Context) (syncer.Plan, error) {
				return planner.Plan(ctx, source, target)
			}

			srv := httpserver.New(httpserver.Options{
				Addr:        addr,
				SourceLabel: a.cfg.Source.Label(),
				TargetLabel: a.cfg.Target.Label(),
			}, a.logger, plan, store, recorder)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http.addr)")
	return cmd
}
