package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"db_schema_syncer/internal/history"
	"db_schema_syncer/internal/syncer"
)

func newDiffCmd(a *app) *cobra.Command {
	var save, description string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Print the statements that bring the target in line with the source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			ctx := cmd.Context()

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

			run := history.NewRun(history.KindPlan, a.cfg.Source.Label(), a.cfg.Target.Label(), time.Now())
			plan, err := a.planner().Plan(ctx, source, target)
			fillRun(&run, plan)
			run.Finish(err, time.Now())
			a.recordRun(ctx, recorder, run)
			if err != nil {
				return err
			}

			printPlan(a.stdout, plan)
			if save == "" {
				return nil
			}
			if plan.Synchronized() {
				printWarning(a.stderr, "nothing to save")
				return nil
			}
			record, err := a.store().Save(save, description, a.cfg.Source.Label(), a.cfg.Target.Label(), plan.Statements)
			if err != nil {
				return err
			}
			printSuccess(a.stderr, "saved %d statements as %s (%s)", record.Statements, record.Name, record.ScriptFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "store the generated script under this name")
	cmd.Flags().StringVar(&description, "description", "", "description kept with a saved script")
	return cmd
}

func (a *app) planner() syncer.Planner {
	return syncer.Planner{Logger: a.logger, Concurrent: a.cfg.ConcurrentReads}
}

// printPlan writes one statement per line, or the synchronized notice.
func printPlan(w io.Writer, plan syncer.Plan) {
	if plan.Synchronized() {
		fmt.Fprintln(w, "databases are synchronized")
		return
	}
	for _, stmt := range plan.Statements {
		fmt.Fprintln(w, stmt)
	}
}

func fillRun(run *history.Run, plan syncer.Plan) {
	run.Statements = len(plan.Statements)
	run.CreateTables = plan.Summary.CreateTables
	run.AddColumns = plan.Summary.AddColumns
	run.ModifyColumns = plan.Summary.ModifyColumns
}
