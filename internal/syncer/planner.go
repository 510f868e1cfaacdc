// Package syncer wires schema reading, diffing and rendering into a single
// plan for a source/target pair.
package syncer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"db_schema_syncer/internal/diff"
	"db_schema_syncer/internal/emit"
	"db_schema_syncer/internal/schema"
)

// Source is a handle that can also return the engine's CREATE TABLE text.
type Source interface {
	schema.Handle
	CreateStatement(ctx context.Context, table string) (string, error)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// Plan is the outcome of comparing two databases.
type Plan struct {
	Actions    []diff.Action
	Statements []string
	Summary    diff.Summary
	Duration   time.Duration
}

// Synchronized reports whether the target already matches the source.
func (p Plan) Synchronized() bool {
	return len(p.Statements) == 0
}

// Planner builds plans. With Concurrent set, the two schema reads run in
// parallel; otherwise source is read before target.
type Planner struct {
	Logger     Logger
	Concurrent bool
}

// Plan reads both schemas, compares them and renders the statements. The
// first error aborts the run and no partial plan is returned.
func (p Planner) Plan(ctx context.Context, source Source, target schema.Handle) (Plan, error) {
	start := time.Now()

	src, dst, err := p.readBoth(ctx, source, target)
	if err != nil {
		return Plan{}, err
	}
	p.debug("schemas read", "source_tables", src.Len(), "target_tables", dst.Len())

	actions, err := diff.Compute(ctx, src, dst, source.CreateStatement)
	if err != nil {
		return Plan{}, fmt.Errorf("source schema: %w", err)
	}
	for _, a := range actions {
		p.debug("action planned", "action", a.Kind.String(), "table", a.Table, "column", a.Column.Name)
	}

	plan := Plan{
		Actions:    actions,
		Statements: emit.RenderAll(actions),
		Summary:    diff.Summarize(actions),
		Duration:   time.Since(start),
	}
	if p.Logger != nil {
		p.Logger.Info("plan ready",
			"statements", len(plan.Statements),
			"create_tables", plan.Summary.CreateTables,
			"add_columns", plan.Summary.AddColumns,
			"modify_columns", plan.Summary.ModifyColumns,
			"duration_ms", plan.Duration.Milliseconds(),
		)
	}
	return plan, nil
}

func (p Planner) readBoth(ctx context.Context, source, target schema.Handle) (*schema.Schema, *schema.Schema, error) {
	if !p.Concurrent {
		src, err := schema.Read(ctx, source)
		if err != nil {
			return nil, nil, fmt.Errorf("source schema: %w", err)
		}
		dst, err := schema.Read(ctx, target)
		if err != nil {
			return nil, nil, fmt.Errorf("target schema: %w", err)
		}
		return src, dst, nil
	}

	var src, dst *schema.Schema
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := schema.Read(gctx, source)
		if err != nil {
			return fmt.Errorf("source schema: %w", err)
		}
		src = s
		return nil
	})
	g.Go(func() error {
		s, err := schema.Read(gctx, target)
		if err != nil {
			return fmt.Errorf("target schema: %w", err)
		}
		dst = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

func (p Planner) debug(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Debug(msg, args...)
	}
}
