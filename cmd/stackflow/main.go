package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/stackflowhq/stackflow/internal/expressions"
	"github.com/stackflowhq/stackflow/internal/logging"
	"github.com/stackflowhq/stackflow/internal/scheduler"
	"github.com/stackflowhq/stackflow/internal/store"
	"github.com/stackflowhq/stackflow/internal/validation"
	"github.com/stackflowhq/stackflow/internal/wizard"
	"github.com/stackflowhq/stackflow/pkg/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "stackflow:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadConfig()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store (libSQL). The MCP client owns stdout, so all logs go to stderr.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	// Expression engines: a configurable predicate engine for route match
	// checks, jq for graph queries.
	routeChecker, err := newRouteChecker(cfg.RouteEngine)
	if err != nil {
		return err
	}
	jqEngine := expressions.NewGoJQEngine()

	validator, err := validation.NewGraphValidator(routeChecker)
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}

	wizardSvc := wizard.NewService(st, logger)

	sched, err := scheduler.NewScheduler(st, cfg.SnapshotCron, cfg.SnapshotHistory, logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Error("scheduler stop failed", slog.String("error", err.Error()))
		}
	}()

	srv := mcp.NewStackflowServer(mcp.StackflowServerDeps{
		Wizard:    wizardSvc,
		Store:     st,
		Validator: validator,
		Queries:   jqEngine,
		Logger:    logger,
	})

	logger.Info("stackflow server starting",
		slog.String("db_path", cfg.DBPath),
		slog.String("snapshot_cron", cfg.SnapshotCron),
		slog.String("route_engine", cfg.RouteEngine))

	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("stackflow server stopped")
	return nil
}

// newRouteChecker selects the expression engine compiling router route
// predicates: CEL by default, Expr for its friendlier operator syntax.
func newRouteChecker(name string) (validation.RouteChecker, error) {
	switch name {
	case "cel", "":
		return expressions.NewCELEngine()
	case "expr":
		return expressions.NewExprEngine(), nil
	default:
		return nil, fmt.Errorf("unknown route engine %q (want cel or expr)", name)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
