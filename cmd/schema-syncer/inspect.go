package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"db_schema_syncer/internal/history"
)

func newScriptsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scripts",
		Short: "List stored scripts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			records, err := a.store().List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				printInfo(a.stderr, "no scripts stored under %s", a.cfg.Storage.Path)
				return nil
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCREATED\tSTATEMENTS\tTARGET\tDESCRIPTION")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Name, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Statements, r.Target, r.Description)
			}
			return tw.Flush()
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent rows from the target's migration status table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			ctx := cmd.Context()

			target, err := a.open(a.cfg.Target)
			if err != nil {
				return fmt.Errorf("open target: %w", err)
			}
			defer closeAdapter(a.logger, "target", target)

			if err := target.EnsureMigrationTable(ctx, a.cfg.MigrationTable); err != nil {
				return err
			}
			rows, err := target.FetchStatuses(ctx, a.cfg.MigrationTable, limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				printInfo(a.stderr, "no entries yet")
				return nil
			}
			for _, r := range rows {
				errText := ""
				if r.Error.Valid {
					errText = " err=" + r.Error.String
				}
				fmt.Fprintf(a.stdout, "%s %s status=%s executed=%d/%d checksum=%s%s\n",
					r.AppliedAt.Format("2006-01-02 15:04:05"), r.MigrationName, r.Status, r.Executed, r.Statements, r.Checksum, errText)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows to show")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent plan and apply runs from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			ctx := cmd.Context()

			recorder, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer recorder.Close()

			runs, err := recorder.Recent(ctx, limit)
			if errors.Is(err, history.ErrDisabled) {
				return fmt.Errorf("%w: set history.dsn or SCHEMASYNC_HISTORY_DSN", err)
			}
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tKIND\tSTATUS\tSTATEMENTS\tEXECUTED\tTARGET\tERROR")
			for _, r := range runs {
				errText := ""
				if r.Error != nil {
					errText = *r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Kind, r.Status, r.Statements, r.Executed, r.Target, errText)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
