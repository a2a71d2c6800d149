package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/cardsynth/internal/audit/domain"
	"github.com/smallbiznis/cardsynth/internal/clock"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		log:   p.Log.Named("audit.service"),
		clock: p.Clock,
	}
}

// Summarize is read-only over d.
func (s *Service) Summarize(ctx context.Context, d portfolio.Dataset) (auditdomain.Summary, error) {
	if err := ctx.Err(); err != nil {
		return auditdomain.Summary{}, err
	}

	summary := auditdomain.Summary{
		GeneratedAt: s.clock.Now(),
		RowCounts:   d.RowCounts(),
		Integrity:   portfolio.CheckIntegrity(d),
	}

	ref := portfolio.NewReferenceData(d.Customers, d.Cards)
	type segmentAcc struct {
		total   decimal.Decimal
		count   int
		amounts int
	}
	segments := map[portfolio.Segment]*segmentAcc{}
	months := map[time.Time]*auditdomain.MonthlySpend{}
	seen := make(map[int64]struct{}, len(d.Transactions))

	var amounts int
	for _, t := range d.Transactions {
		if _, dup := seen[t.ID]; dup {
			summary.Hygiene.DuplicateTransactionIDs++
		}
		seen[t.ID] = struct{}{}

		if t.Amount.Valid {
			summary.TotalSpend = summary.TotalSpend.Add(t.Amount.Decimal)
			amounts++
		} else {
			summary.Hygiene.NullAmounts++
		}
		if t.TransactionDate == nil {
			summary.Hygiene.NullDates++
		}

		if segment, ok := ref.CardSegment(t.CardID); ok {
			acc := segments[segment]
			if acc == nil {
				acc = &segmentAcc{}
				segments[segment] = acc
			}
			acc.count++
			if t.Amount.Valid {
				acc.total = acc.total.Add(t.Amount.Decimal)
				acc.amounts++
			}
		}

		if t.TransactionDate != nil {
			month := portfolio.MonthStart(*t.TransactionDate)
			m := months[month]
			if m == nil {
				m = &auditdomain.MonthlySpend{Month: month}
				months[month] = m
			}
			m.Transactions++
			if t.Amount.Valid {
				m.Spend = m.Spend.Add(t.Amount.Decimal)
			}
		}
	}

	summary.AverageTransactionValue = mean(summary.TotalSpend, amounts)

	for _, profile := range portfolio.SegmentProfiles {
		acc, ok := segments[profile.Segment]
		if !ok {
			continue
		}
		summary.Segments = append(summary.Segments, auditdomain.SegmentSummary{
			Segment:      profile.Segment,
			TotalSpend:   acc.total,
			Transactions: acc.count,
			AverageSpend: mean(acc.total, acc.amounts),
		})
	}

	summary.Monthly = make([]auditdomain.MonthlySpend, 0, len(months))
	for _, m := range months {
		summary.Monthly = append(summary.Monthly, *m)
	}
	sort.Slice(summary.Monthly, func(i, j int) bool {
		return summary.Monthly[i].Month.Before(summary.Monthly[j].Month)
	})
	summary.Trend = trend(summary.Monthly)

	s.log.Debug("audit summarized",
		zap.Int("transactions", len(d.Transactions)),
		zap.String("total_spend", summary.TotalSpend.StringFixed(2)),
		zap.Bool("integrity_ok", summary.Integrity.OK()),
	)
	return summary, nil
}

func mean(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(n)), 2)
}

func trend(monthly []auditdomain.MonthlySpend) auditdomain.Trend {
	if len(monthly) == 0 {
		return auditdomain.Trend{}
	}
	last := monthly[len(monthly)-1]
	out := auditdomain.Trend{LastMonth: &last}

	want := last.Month.AddDate(0, -1, 0)
	for i := len(monthly) - 2; i >= 0; i-- {
		if monthly[i].Month.Equal(want) {
			prev := monthly[i]
			out.PreviousMonth = &prev
			break
		}
	}
	if out.PreviousMonth != nil && !out.PreviousMonth.Spend.IsZero() {
		ratio := last.Spend.DivRound(out.PreviousMonth.Spend, 4)
		out.SpikeRatio = &ratio
	}
	return out
}
