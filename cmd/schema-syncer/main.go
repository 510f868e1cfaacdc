package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"db_schema_syncer/internal/config"
	"db_schema_syncer/internal/db"
	"db_schema_syncer/internal/history"
	"db_schema_syncer/internal/logging"
	"db_schema_syncer/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("error:"), err)
		stop()
		os.Exit(1)
	}
}

// app holds state shared by all commands. Configuration is loaded lazily so
// init-config works without a config file.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger

	stdout  io.Writer
	stderr  io.Writer
	confirm func(message string) (bool, error)
	open    func(cfg config.DBConfig) (db.Adapter, error)
}

func newApp() *app {
	return &app{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		confirm: surveyConfirm,
		open:    db.Open,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "schema-syncer",
		Short:         "Bring a MySQL schema in line with a reference database",
		Long:          "schema-syncer compares the tables and columns of a source and a target MySQL database and emits the DDL that makes the target match.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: ./schema-syncer.yaml, then $HOME)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	root.AddCommand(newDiffCmd(a))
	root.AddCommand(newApplyCmd(a))
	root.AddCommand(newScriptsCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newInitConfigCmd(a))
	return root
}

func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(a.stderr, cfg.LogLevel, cfg.LogFormat)
	return nil
}

// openPair opens both endpoints. The returned func closes whatever was
// opened and must be called on every path.
func (a *app) openPair() (db.Adapter, db.Adapter, func(), error) {
	source, err := a.open(a.cfg.Source)
	if err != nil {
		return nil, nil, func() {}, fmt.Errorf("open source: %w", err)
	}
	target, err := a.open(a.cfg.Target)
	if err != nil {
		closeAdapter(a.logger, "source", source)
		return nil, nil, func() {}, fmt.Errorf("open target: %w", err)
	}
	return source, target, func() {
		closeAdapter(a.logger, "source", source)
		closeAdapter(a.logger, "target", target)
	}, nil
}

func closeAdapter(logger *slog.Logger, side string, adapter db.Adapter) {
	if err := adapter.Close(); err != nil {
		logger.Warn("close adapter", "side", side, "error", err)
	}
}

func (a *app) openHistory(ctx context.Context) (history.Recorder, error) {
	return history.Connect(ctx, a.cfg.History.DSN, a.logger)
}

func (a *app) store() *storage.Store {
	return storage.New(config.AppFs, a.cfg.Storage.Path)
}

func (a *app) recordRun(ctx context.Context, rec history.Recorder, run history.Run) {
	if err := rec.Record(ctx, run); err != nil {
		a.logger.Error("record run", "kind", run.Kind, "error", err)
	}
}
