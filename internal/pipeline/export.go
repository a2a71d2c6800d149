package pipeline

import (
	"context"
	"errors"
	"fmt"

	obsmetrics "github.com/smallbiznis/cardsynth/internal/observability/metrics"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Export loads the stored dataset and replaces the SQL sink's contents with
// it. Every attempt is recorded in export_runs, including failed ones.
func (r *Runner) Export(ctx context.Context) (*portfolio.ExportRun, error) {
	ctx, run := r.ensureRun(ctx, "export")
	defer r.finishRun(ctx, run)

	if r.db == nil || r.repo == nil {
		run.err = ErrSinkNotConfigured
		return nil, run.err
	}

	d, err := r.load(ctx)
	if err != nil {
		run.err = err
		return nil, err
	}

	dialect := r.db.Dialector.Name()
	record := &portfolio.ExportRun{
		ID:        r.genID.Generate(),
		DataDir:   r.store.Dir(),
		Dialect:   dialect,
		Status:    portfolio.ExportRunning,
		StartedAt: r.clock.Now(),
	}

	run.err = r.runStage(ctx, obsmetrics.StageExport, func(ctx context.Context) error {
		if err := r.repo.EnsureExportRuns(ctx, r.db); err != nil {
			return err
		}
		if err := r.repo.InsertExportRun(ctx, r.db, record); err != nil {
			return err
		}

		loadErr := r.repo.ReplaceAll(ctx, r.db, d)
		var counts map[string]int64
		if loadErr == nil {
			counts, loadErr = r.repo.CountRows(ctx, r.db)
		}

		finished := r.clock.Now()
		record.FinishedAt = &finished
		record.Status = portfolio.ExportSucceeded
		if loadErr != nil {
			msg := loadErr.Error()
			record.Status = portfolio.ExportFailed
			record.Error = &msg
		} else {
			record.RowCounts = datatypes.JSONMap{}
			for table, n := range counts {
				record.RowCounts[table] = n
				r.otel.RecordRowsWritten(ctx, table, dialect, int(n))
			}
		}

		// The bookkeeping row is written on a context that outlives a
		// canceled load so failures are still recorded.
		finishErr := r.repo.FinishExportRun(context.WithoutCancel(ctx), r.db, record)
		return errors.Join(loadErr, finishErr)
	})
	if run.err != nil {
		return record, run.err
	}
	return record, nil
}

// ExportRuns lists recorded exports, newest first.
func (r *Runner) ExportRuns(ctx context.Context, page pagination.Pagination) ([]*portfolio.ExportRun, *pagination.PageInfo, error) {
	if r.db == nil || r.repo == nil {
		return nil, nil, ErrSinkNotConfigured
	}
	if err := r.repo.EnsureExportRuns(ctx, r.db); err != nil {
		return nil, nil, fmt.Errorf("export runs: %w", err)
	}
	runs, err := r.repo.ListExportRuns(ctx, r.db, page)
	if err != nil {
		return nil, nil, fmt.Errorf("export runs: %w", err)
	}
	items, info := pagination.BuildCursorPageInfo(runs, page.Limit(), func(run *portfolio.ExportRun) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: run.ID.String()})
		return token
	})
	return items, info, nil
}

// PushMetrics ships the process's prometheus state to the configured
// gateway. Batch commands call it once before exit; failures are logged
// and never fail the command.
func (r *Runner) PushMetrics(ctx context.Context) {
	if r.pusher == nil || r.registry == nil {
		return
	}
	if err := r.pusher.Push(ctx, obsmetrics.Gatherer(r.registry)); err != nil {
		r.logger(ctx).Warn("metrics push failed", zap.Error(err))
	}
}
