package pipeline

import (
	"context"
	"fmt"
	"time"

	obscontext "github.com/smallbiznis/cardsynth/internal/observability/context"
	obslogger "github.com/smallbiznis/cardsynth/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cardsynth/internal/observability/metrics"
	"github.com/smallbiznis/cardsynth/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "cardsynth/pipeline"

type commandRun struct {
	command   string
	runID     string
	startedAt time.Time
	err       error
}

type commandRunKey struct{}

// ensureRun tags ctx with a run id and correlation id. Nested commands (run
// calling generate and adjust) share the outer run.
func (r *Runner) ensureRun(ctx context.Context, command string) (context.Context, *commandRun) {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing, ok := ctx.Value(commandRunKey{}).(*commandRun); ok && existing != nil {
		return ctx, &commandRun{command: command, runID: existing.runID, startedAt: r.clock.Now()}
	}
	run := &commandRun{
		command:   command,
		runID:     r.genID.Generate().String(),
		startedAt: r.clock.Now(),
	}
	ctx = context.WithValue(ctx, commandRunKey{}, run)
	ctx = obscontext.WithRunID(ctx, run.runID)
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	r.logger(ctx).Info("command started", zap.String("command", command), zap.String("data_dir", r.store.Dir()))
	return ctx, run
}

func (r *Runner) finishRun(ctx context.Context, run *commandRun) {
	status := obsmetrics.StatusOK
	fields := []zap.Field{
		zap.String("command", run.command),
		zap.Duration("duration", r.clock.Now().Sub(run.startedAt)),
	}
	if run.err != nil {
		status = obsmetrics.StatusError
		fields = append(fields, zap.String("reason", obsmetrics.ClassifyReason(run.err)), zap.Error(run.err))
		r.logger(ctx).Error("command failed", fields...)
	} else {
		r.logger(ctx).Info("command finished", fields...)
	}
	r.otel.RecordCommand(ctx, run.command, status)
}

func (r *Runner) runStage(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	ctx = obscontext.WithStage(ctx, stage)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline."+stage)
	defer span.End()
	span.SetAttributes(
		attribute.String("stage", stage),
		attribute.String("run_id", obscontext.RunIDFromContext(ctx)),
	)

	start := r.clock.Now()
	err := fn(ctx)
	elapsed := r.clock.Now().Sub(start)
	r.metrics.ObserveStage(stage, elapsed, err)

	log := r.logger(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("stage failed",
			zap.Duration("duration", elapsed),
			zap.String("reason", obsmetrics.ClassifyReason(err)),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", stage, err)
	}
	log.Debug("stage finished", zap.Duration("duration", elapsed))
	return nil
}

func (r *Runner) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, r.log)
}
