// Package pipeline runs the generation, adjustment, audit and export stages
// over a dataset directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	adjusterdomain "github.com/smallbiznis/cardsynth/internal/adjuster/domain"
	auditdomain "github.com/smallbiznis/cardsynth/internal/audit/domain"
	"github.com/smallbiznis/cardsynth/internal/clock"
	"github.com/smallbiznis/cardsynth/internal/config"
	generatordomain "github.com/smallbiznis/cardsynth/internal/generator/domain"
	"github.com/smallbiznis/cardsynth/internal/lock"
	obsmetrics "github.com/smallbiznis/cardsynth/internal/observability/metrics"
	"github.com/smallbiznis/cardsynth/internal/observability/pusher"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
	"github.com/smallbiznis/cardsynth/internal/tablestore"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidConfig     = errors.New("invalid_pipeline_config")
	ErrSinkNotConfigured = errors.New("sql_sink_not_configured")
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Sim       config.SimulationConfig
	Store     *tablestore.Store
	Generator generatordomain.Service
	Adjuster  adjusterdomain.Service
	Audit     auditdomain.Service
	Locker    lock.DatasetLocker
	Metrics   *obsmetrics.PipelineMetrics
	GenID     *snowflake.Node
	Clock     clock.Clock

	OTelMetrics *obsmetrics.Metrics  `optional:"true"`
	Registry    *prometheus.Registry `optional:"true"`
	Pusher      pusher.Pusher        `optional:"true"`
	DB          *gorm.DB             `optional:"true"`
	Repo        portfolio.Repository `optional:"true"`
}

type Runner struct {
	log       *zap.Logger
	sim       config.SimulationConfig
	store     *tablestore.Store
	generator generatordomain.Service
	adjuster  adjusterdomain.Service
	audit     auditdomain.Service
	locker    lock.DatasetLocker
	metrics   *obsmetrics.PipelineMetrics
	otel      *obsmetrics.Metrics
	registry  *prometheus.Registry
	pusher    pusher.Pusher
	genID     *snowflake.Node
	clock     clock.Clock
	db        *gorm.DB
	repo      portfolio.Repository
}

func New(p Params) (*Runner, error) {
	if p.Log == nil || p.Store == nil || p.Generator == nil || p.Adjuster == nil || p.Audit == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Runner{
		log:       p.Log.Named("pipeline").With(zap.String("component", "pipeline")),
		sim:       p.Sim,
		store:     p.Store,
		generator: p.Generator,
		adjuster:  p.Adjuster,
		audit:     p.Audit,
		locker:    p.Locker,
		metrics:   p.Metrics,
		otel:      p.OTelMetrics,
		registry:  p.Registry,
		pusher:    p.Pusher,
		genID:     p.GenID,
		clock:     p.Clock,
		db:        p.DB,
		repo:      p.Repo,
	}, nil
}

// Generate builds the base dataset from the configured seed and writes all
// seven tables.
func (r *Runner) Generate(ctx context.Context) (portfolio.Dataset, error) {
	ctx, run := r.ensureRun(ctx, "generate")
	defer r.finishRun(ctx, run)

	var base portfolio.Dataset
	err := r.runStage(ctx, obsmetrics.StageGenerate, func(ctx context.Context) error {
		var err error
		base, err = r.generator.Generate(ctx, random.New(r.sim.Seed), generatordomain.NewParams(r.sim))
		return err
	})
	if err == nil {
		err = r.save(ctx, base, portfolio.Tables...)
	}
	run.err = err
	if err != nil {
		return portfolio.Dataset{}, err
	}
	r.metrics.SetTableRows(base.RowCounts())
	return base, nil
}

// Adjust rewrites the adjusted tables of the stored dataset in place, holding
// the dataset lock for the whole read-modify-write.
func (r *Runner) Adjust(ctx context.Context) (adjusterdomain.Report, error) {
	ctx, run := r.ensureRun(ctx, "adjust")
	defer r.finishRun(ctx, run)

	var report adjusterdomain.Report
	run.err = r.withLock(ctx, func(ctx context.Context) error {
		base, err := r.load(ctx)
		if err != nil {
			return err
		}
		adjusted, rep, err := r.adjust(ctx, random.New(r.sim.Seed), base)
		if err != nil {
			return err
		}
		if err := r.save(ctx, adjusted, tablestore.AdjustedTables...); err != nil {
			return err
		}
		report = rep
		r.metrics.SetTableRows(adjusted.RowCounts())
		return nil
	})
	return report, run.err
}

// Run generates and adjusts in memory with one random stream, then writes
// the final tables. The same seed always yields the same files.
func (r *Runner) Run(ctx context.Context) (adjusterdomain.Report, error) {
	ctx, run := r.ensureRun(ctx, "run")
	defer r.finishRun(ctx, run)

	var report adjusterdomain.Report
	run.err = r.withLock(ctx, func(ctx context.Context) error {
		src := random.New(r.sim.Seed)

		var base portfolio.Dataset
		err := r.runStage(ctx, obsmetrics.StageGenerate, func(ctx context.Context) error {
			var err error
			base, err = r.generator.Generate(ctx, src, generatordomain.NewParams(r.sim))
			return err
		})
		if err != nil {
			return err
		}

		adjusted, rep, err := r.adjust(ctx, src, base)
		if err != nil {
			return err
		}
		if err := r.save(ctx, adjusted, portfolio.Tables...); err != nil {
			return err
		}
		report = rep
		r.metrics.SetTableRows(adjusted.RowCounts())
		return nil
	})
	return report, run.err
}

// Audit summarizes the stored dataset.
func (r *Runner) Audit(ctx context.Context) (auditdomain.Summary, error) {
	ctx, run := r.ensureRun(ctx, "audit")
	defer r.finishRun(ctx, run)

	d, err := r.load(ctx)
	if err != nil {
		run.err = err
		return auditdomain.Summary{}, err
	}

	var summary auditdomain.Summary
	run.err = r.runStage(ctx, obsmetrics.StageAudit, func(ctx context.Context) error {
		var err error
		summary, err = r.audit.Summarize(ctx, d)
		return err
	})
	return summary, run.err
}

func (r *Runner) adjust(ctx context.Context, src *random.Source, base portfolio.Dataset) (portfolio.Dataset, adjusterdomain.Report, error) {
	var (
		adjusted portfolio.Dataset
		report   adjusterdomain.Report
	)
	err := r.runStage(ctx, obsmetrics.StageAdjust, func(ctx context.Context) error {
		var err error
		adjusted, report, err = r.adjuster.Adjust(ctx, src, base, adjusterdomain.NewParams(r.sim))
		if err != nil {
			return err
		}
		// EnforceIntegrity should leave nothing behind; a violation here
		// means a stage broke its contract.
		return portfolio.CheckIntegrity(adjusted).Err()
	})
	if err != nil {
		return portfolio.Dataset{}, adjusterdomain.Report{}, err
	}
	r.metrics.RecordAdjustment(report)
	return adjusted, report, nil
}

func (r *Runner) load(ctx context.Context) (portfolio.Dataset, error) {
	var d portfolio.Dataset
	err := r.runStage(ctx, obsmetrics.StageLoad, func(ctx context.Context) error {
		var err error
		d, err = r.store.Load(ctx)
		return err
	})
	return d, err
}

func (r *Runner) save(ctx context.Context, d portfolio.Dataset, tables ...string) error {
	return r.runStage(ctx, obsmetrics.StageSave, func(ctx context.Context) error {
		if err := r.store.Save(ctx, d, tables...); err != nil {
			return err
		}
		counts := d.RowCounts()
		for _, table := range tables {
			r.otel.RecordRowsWritten(ctx, table, "csv", counts[table])
		}
		return nil
	})
}

func (r *Runner) withLock(ctx context.Context, fn func(ctx context.Context) error) error {
	start := r.clock.Now()
	release, err := lock.Acquire(ctx, r.locker, r.store.Dir())
	r.metrics.ObserveLockWait(r.clock.Now().Sub(start))
	if err != nil {
		return fmt.Errorf("lock %s: %w", r.store.Dir(), err)
	}
	defer func() {
		// The caller's ctx may be canceled; release on a fresh one.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			r.logger(ctx).Warn("dataset lock release failed", zap.Error(err))
		}
	}()
	return fn(ctx)
}
