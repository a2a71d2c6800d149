package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cardsynth/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExportStatus string

const (
	ExportRunning   ExportStatus = "running"
	ExportSucceeded ExportStatus = "succeeded"
	ExportFailed    ExportStatus = "failed"
)

// ExportRun records one load of a dataset directory into the SQL sink.
type ExportRun struct {
	ID         snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	DataDir    string            `gorm:"not null" json:"data_dir"`
	Dialect    string            `gorm:"not null" json:"dialect"`
	Status     ExportStatus      `gorm:"not null" json:"status"`
	RowCounts  datatypes.JSONMap `json:"row_counts,omitempty"`
	Error      *string           `json:"error,omitempty"`
	StartedAt  time.Time         `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

func (ExportRun) TableName() string { return "export_runs" }

// Repository persists datasets and export bookkeeping. Callers pass the
// *gorm.DB so a transaction can span several calls.
type Repository interface {
	// ReplaceAll swaps the contents of every portfolio table for d.
	ReplaceAll(ctx context.Context, db *gorm.DB, d Dataset) error
	CountRows(ctx context.Context, db *gorm.DB) (map[string]int64, error)
	EnsureExportRuns(ctx context.Context, db *gorm.DB) error
	InsertExportRun(ctx context.Context, db *gorm.DB, run *ExportRun) error
	FinishExportRun(ctx context.Context, db *gorm.DB, run *ExportRun) error
	ListExportRuns(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*ExportRun, error)
}
