package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"db_schema_syncer/internal/history"
	"db_schema_syncer/internal/migrate"
)

func newApplyCmd(a *app) *cobra.Command {
	var scriptName string
	var yes bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Execute a fresh plan or a stored script against the target",
		Long: `Without --script, apply plans the source/target pair and executes the
result. With --script, the stored script is executed instead and the source
is not contacted. Statements run one at a time; a failure stops the run and
leaves earlier statements applied.`,
		Args: cobra.NoArgs,
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

			run := history.NewRun(history.KindApply, a.cfg.Source.Label(), a.cfg.Target.Label(), time.Now())
			err = a.apply(cmd, &run, scriptName, yes)
			if errors.Is(err, errAborted) {
				return err
			}
			run.Finish(err, time.Now())
			a.recordRun(ctx, recorder, run)
			return err
		},
	}

	cmd.Flags().StringVar(&scriptName, "script", "", "apply a stored script instead of planning")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

var errAborted = errors.New("aborted by user")

func (a *app) apply(cmd *cobra.Command, run *history.Run, scriptName string, yes bool) error {
	ctx := cmd.Context()

	target, err := a.open(a.cfg.Target)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer closeAdapter(a.logger, "target", target)

	var (
		name       string
		scriptFile string
		statements []string
	)
	if scriptName != "" {
		record, stmts, err := a.store().Load(scriptName)
		if err != nil {
			return err
		}
		name, scriptFile, statements = record.Name, record.ScriptFile, stmts
		run.ScriptName = &record.Name
		run.Statements = len(stmts)
	} else {
		source, err := a.open(a.cfg.Source)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer closeAdapter(a.logger, "source", source)

		plan, err := a.planner().Plan(ctx, source, target)
		fillRun(run, plan)
		if err != nil {
			return err
		}
		name = "sync-" + time.Now().UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
		statements = plan.Statements
	}

	if len(statements) == 0 {
		fmt.Fprintln(a.stdout, "databases are synchronized")
		return nil
	}
	for _, stmt := range statements {
		fmt.Fprintln(a.stdout, stmt)
	}

	if !yes {
		ok, err := a.confirm(fmt.Sprintf("Apply %d statements to %s?", len(statements), a.cfg.Target.Label()))
		if err != nil {
			return err
		}
		if !ok {
			printWarning(a.stderr, "nothing applied")
			return errAborted
		}
	}

	runner := migrate.Runner{Target: target, Table: a.cfg.MigrationTable, Logger: a.logger}
	res, err := runner.Apply(ctx, name, scriptFile, statements)
	run.Executed = res.Executed
	run.Checksum = &res.Checksum
	if err != nil {
		printWarning(a.stderr, "%d of %d statements applied before the failure", res.Executed, res.Total)
		return err
	}
	printSuccess(a.stderr, "applied %d statements to %s as %s", res.Executed, a.cfg.Target.Label(), name)
	return nil
}
