package main

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cardsynth/internal/adjuster"
	"github.com/smallbiznis/cardsynth/internal/audit"
	"github.com/smallbiznis/cardsynth/internal/clock"
	"github.com/smallbiznis/cardsynth/internal/config"
	"github.com/smallbiznis/cardsynth/internal/generator"
	"github.com/smallbiznis/cardsynth/internal/lock"
	"github.com/smallbiznis/cardsynth/internal/migration"
	"github.com/smallbiznis/cardsynth/internal/observability"
	"github.com/smallbiznis/cardsynth/internal/pipeline"
	"github.com/smallbiznis/cardsynth/internal/portfolio/repository"
	"github.com/smallbiznis/cardsynth/internal/tablestore"
	"github.com/smallbiznis/cardsynth/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loadConfig resolves env config and the simulation file, letting
// --data-dir win over DATA_DIR.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, config.SimulationConfig, error) {
	cfg := config.Load()
	if dir := strings.TrimSpace(opts.dataDir); dir != "" {
		cfg.DataDir = dir
	}
	sim, err := config.LoadSimulation(opts.configPath, cmd.Flags())
	if err != nil {
		return config.Config{}, config.SimulationConfig{}, err
	}
	return cfg, sim, nil
}

func appOptions(cfg config.Config, sim config.SimulationConfig, withDB bool) []fx.Option {
	options := []fx.Option{
		config.Module(cfg, sim),
		observability.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(RegisterSnowflake),
		clock.Module,
		lock.Module,
		tablestore.Module,
		generator.Module,
		adjuster.Module,
		audit.Module,
		pipeline.Module,
	}
	if withDB {
		options = append(options,
			db.Module,
			migration.Module,
			repository.Module,
		)
	}
	return options
}

// runBatch starts a short-lived app, runs fn against the pipeline and stops
// the app again. Metrics are pushed before shutdown whatever fn returned.
func runBatch(cmd *cobra.Command, opts *rootOptions, withDB bool, fn func(ctx context.Context, deps batchDeps) error) error {
	cfg, sim, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	var deps batchDeps
	app := fx.New(append(appOptions(cfg, sim, withDB), fx.Populate(&deps.runner, &deps.audit))...)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	deps.out = cmd.OutOrStdout()
	runErr := fn(ctx, deps)
	deps.runner.PushMetrics(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
	defer stopCancel()
	stopErr := app.Stop(stopCtx)

	if runErr != nil {
		return errors.Join(runErr, stopErr)
	}
	return stopErr
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
