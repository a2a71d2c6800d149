package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
)

type SegmentSummary struct {
	Segment      portfolio.Segment `json:"segment"`
	TotalSpend   decimal.Decimal   `json:"total_spend"`
	Transactions int               `json:"transactions"`
	// AverageSpend is over transactions with an amount.
	AverageSpend decimal.Decimal `json:"average_spend"`
}

type MonthlySpend struct {
	Month        time.Time       `json:"month"`
	Spend        decimal.Decimal `json:"spend"`
	Transactions int             `json:"transactions"`
}

// Trend compares the latest month with the calendar month before it. Fields
// are nil when either month has no dated transactions.
type Trend struct {
	LastMonth     *MonthlySpend    `json:"last_month"`
	PreviousMonth *MonthlySpend    `json:"previous_month"`
	SpikeRatio    *decimal.Decimal `json:"spike_ratio"`
}

type Hygiene struct {
	DuplicateTransactionIDs int `json:"duplicate_transaction_ids"`
	NullAmounts             int `json:"null_amounts"`
	NullDates               int `json:"null_dates"`
}

type Summary struct {
	GeneratedAt             time.Time                 `json:"generated_at"`
	RowCounts               map[string]int            `json:"row_counts"`
	TotalSpend              decimal.Decimal           `json:"total_spend"`
	AverageTransactionValue decimal.Decimal           `json:"average_transaction_value"`
	Segments                []SegmentSummary          `json:"segments"`
	Monthly                 []MonthlySpend            `json:"monthly"`
	Trend                   Trend                     `json:"trend"`
	Hygiene                 Hygiene                   `json:"hygiene"`
	Integrity               portfolio.IntegrityReport `json:"integrity"`
}

type Service interface {
	Summarize(ctx context.Context, d portfolio.Dataset) (Summary, error)
	WriteText(w io.Writer, s Summary) error
	RenderPDF(ctx context.Context, s Summary) ([]byte, error)
}
