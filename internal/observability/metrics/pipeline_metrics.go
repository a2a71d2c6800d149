package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	adjusterdomain "github.com/smallbiznis/cardsynth/internal/adjuster/domain"
	generatordomain "github.com/smallbiznis/cardsynth/internal/generator/domain"
	"github.com/smallbiznis/cardsynth/internal/lock"
	portfoliodomain "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/tablestore"
	"github.com/smallbiznis/cardsynth/pkg/db"
)

const (
	StageGenerate = "generate"
	StageAdjust   = "adjust"
	StageLoad     = "load"
	StageSave     = "save"
	StageAudit    = "audit"
	StageExport   = "export"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

const (
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonCanceled         = "canceled"
	ReasonInvalidParams    = "invalid_params"
	ReasonEmptyDataset     = "empty_dataset"
	ReasonTableMissing     = "table_missing"
	ReasonInvalidData      = "invalid_data"
	ReasonIntegrity        = "integrity_violation"
	ReasonLocked           = "locked"
	ReasonDBLockTimeout    = "db_lock_timeout"
	ReasonUniqueViolation  = "unique_violation"
	ReasonDB               = "db"
	ReasonUnknown          = "unknown"
)

// Adjustment kinds reported by the realism adjuster.
const (
	AdjustmentCardsAdded          = "cards_added"
	AdjustmentDormantPairs        = "dormant_pairs"
	AdjustmentTransactionsRemoved = "transactions_removed"
	AdjustmentSpikes              = "spikes"
	AdjustmentFraudFlags          = "fraud_flags"
	AdjustmentNullAmounts         = "null_amounts"
	AdjustmentNullDates           = "null_dates"
	AdjustmentDelinquentPayments  = "delinquent_payments"
	AdjustmentRowsDropped         = "rows_dropped"
)

// PipelineMetrics captures stage health and dataset shape for one process.
type PipelineMetrics struct {
	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	lastSuccess   *prometheus.GaugeVec
	tableRows     *prometheus.GaugeVec
	adjustments   *prometheus.CounterVec
	lockWait      prometheus.Observer
}

// NewRegistry returns the process-owned registry for pipeline metrics.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Gatherer merges the pipeline registry with the default one, where the Go
// runtime collectors and the gorm DBStats plugin register themselves.
func Gatherer(registry *prometheus.Registry) prometheus.Gatherer {
	if registry == nil {
		return prometheus.DefaultGatherer
	}
	return prometheus.Gatherers{prometheus.DefaultGatherer, registry}
}

func NewPipelineMetrics(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "cardsynth"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	stageRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cardsynth_stage_runs_total",
		Help:        "Pipeline stage runs by outcome.",
		ConstLabels: constLabels,
	}, []string{"stage", "status"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "cardsynth_stage_duration_seconds",
		Help:        "Pipeline stage latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		ConstLabels: constLabels,
	}, []string{"stage"})
	stageErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cardsynth_stage_errors_total",
		Help:        "Pipeline stage errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"stage", "reason"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "cardsynth_stage_last_success_timestamp_seconds",
		Help:        "Unix time of the last successful stage run.",
		ConstLabels: constLabels,
	}, []string{"stage"})
	tableRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "cardsynth_table_rows",
		Help:        "Rows per table in the most recently produced dataset.",
		ConstLabels: constLabels,
	}, []string{"table"})
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cardsynth_adjustments_total",
		Help:        "Rows touched by each realism adjustment.",
		ConstLabels: constLabels,
	}, []string{"kind"})
	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "cardsynth_dataset_lock_wait_seconds",
		Help:        "Time spent acquiring the dataset lock.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		stageRuns,
		stageDuration,
		stageErrors,
		lastSuccess,
		tableRows,
		adjustments,
		lockWait,
	)

	return &PipelineMetrics{
		stageRuns:     stageRuns,
		stageDuration: stageDuration,
		stageErrors:   stageErrors,
		lastSuccess:   lastSuccess,
		tableRows:     tableRows,
		adjustments:   adjustments,
		lockWait:      lockWait,
	}
}

// ObserveStage records one finished stage. A nil err counts as success.
func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageRuns.WithLabelValues(stage, StatusError).Inc()
		m.stageErrors.WithLabelValues(stage, ClassifyReason(err)).Inc()
		return
	}
	m.stageRuns.WithLabelValues(stage, StatusOK).Inc()
	m.lastSuccess.WithLabelValues(stage).SetToCurrentTime()
}

// SetTableRows publishes the row count of every table in counts.
func (m *PipelineMetrics) SetTableRows(counts map[string]int) {
	if m == nil {
		return
	}
	for table, n := range counts {
		m.tableRows.WithLabelValues(table).Set(float64(n))
	}
}

func (m *PipelineMetrics) RecordAdjustment(report adjusterdomain.Report) {
	if m == nil {
		return
	}
	for kind, n := range map[string]int{
		AdjustmentCardsAdded:          report.CardsAdded,
		AdjustmentDormantPairs:        len(report.DormantPairs),
		AdjustmentTransactionsRemoved: report.TransactionsRemoved,
		AdjustmentSpikes:              report.Spikes,
		AdjustmentFraudFlags:          report.FraudFlags,
		AdjustmentNullAmounts:         report.NullAmounts,
		AdjustmentNullDates:           report.NullDates,
		AdjustmentDelinquentPayments:  report.DelinquentPayments,
		AdjustmentRowsDropped:         report.RowsDropped,
	} {
		m.adjustments.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *PipelineMetrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// ClassifyReason maps an error to a bounded label value.
func ClassifyReason(err error) string {
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, generatordomain.ErrInvalidParams), errors.Is(err, adjusterdomain.ErrInvalidParams):
		return ReasonInvalidParams
	case errors.Is(err, adjusterdomain.ErrEmptyDataset):
		return ReasonEmptyDataset
	case errors.Is(err, tablestore.ErrTableMissing):
		return ReasonTableMissing
	case errors.Is(err, tablestore.ErrInvalidDate):
		return ReasonInvalidData
	case errors.Is(err, portfoliodomain.ErrIntegrity):
		return ReasonIntegrity
	case errors.Is(err, lock.ErrLocked):
		return ReasonLocked
	case isPgErrorCode(err, "55P03"):
		return ReasonDBLockTimeout
	case db.IsDuplicateKeyErr(err):
		return ReasonUniqueViolation
	case isPgError(err):
		return ReasonDB
	default:
		return ReasonUnknown
	}
}

func isPgErrorCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isPgError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
