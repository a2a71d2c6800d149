package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/cardsynth/internal/adjuster/domain"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		log: p.Log.Named("adjuster.service"),
	}
}

// Adjust runs every realism stage over base and returns a new dataset; base
// is left untouched. Stages consume src in a fixed order.
func (s *Service) Adjust(ctx context.Context, src *random.Source, base portfolio.Dataset, p domain.Params) (portfolio.Dataset, domain.Report, error) {
	if err := p.Validate(); err != nil {
		return portfolio.Dataset{}, domain.Report{}, fmt.Errorf("adjust: %w", err)
	}
	if len(base.Customers) == 0 || len(base.Cards) == 0 {
		return portfolio.Dataset{}, domain.Report{}, fmt.Errorf("adjust: %w", domain.ErrEmptyDataset)
	}

	var report domain.Report
	out := portfolio.Dataset{
		Customers:  base.Customers,
		Currencies: base.Currencies,
	}

	out.Cards = ExpandCards(src, base.Cards, p.CardExpansionFraction)
	report.CardsAdded = len(out.Cards) - len(base.Cards)
	s.log.Debug("cards expanded", zap.Int("added", report.CardsAdded), zap.Int("cards", len(out.Cards)))

	txns, dormant := ApplyDormancy(src, base.Transactions, p.DormancyFraction)
	report.DormantPairs = dormant
	report.TransactionsRemoved = len(base.Transactions) - len(txns)
	s.log.Debug("dormancy applied",
		zap.Int("dormant_pairs", len(dormant)),
		zap.Int("transactions_removed", report.TransactionsRemoved),
	)

	if err := ctx.Err(); err != nil {
		return portfolio.Dataset{}, domain.Report{}, err
	}

	txns, report.Spikes = RescaleAmounts(src, txns, p.SpikeProbability)
	txns = RedrawCategories(src, txns)

	ref := portfolio.NewReferenceData(out.Customers, out.Cards)
	out.FraudFlags = RecalibrateFraud(src, txns, ref)

	out.Payments, report.DelinquentPayments = LabelDelinquency(base.Payments)

	txns, report.NullAmounts, report.NullDates = InjectMissingness(src, txns, p.MissingProbability)
	out.Transactions = txns

	out.Redemptions = FinalizeRedemptions(src, base.Redemptions)

	if err := ctx.Err(); err != nil {
		return portfolio.Dataset{}, domain.Report{}, err
	}

	out, report.RowsDropped = EnforceIntegrity(out)
	report.FraudFlags = len(out.FraudFlags)

	s.log.Info("dataset adjusted",
		zap.Int("cards_added", report.CardsAdded),
		zap.Int("dormant_pairs", len(report.DormantPairs)),
		zap.Int("transactions_removed", report.TransactionsRemoved),
		zap.Int("spikes", report.Spikes),
		zap.Int("fraud_flags", report.FraudFlags),
		zap.Int("null_amounts", report.NullAmounts),
		zap.Int("null_dates", report.NullDates),
		zap.Int("delinquent_payments", report.DelinquentPayments),
		zap.Int("rows_dropped", report.RowsDropped),
	)

	return out, report, nil
}
