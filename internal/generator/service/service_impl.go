package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/cardsynth/internal/generator/domain"
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
		log: p.Log.Named("generator.service"),
	}
}

// Generate builds the base dataset. The draw order is customers, cards, then
// activity, so one seed always yields the same tables.
func (s *Service) Generate(ctx context.Context, src *random.Source, p domain.Params) (portfolio.Dataset, error) {
	if err := p.Validate(); err != nil {
		return portfolio.Dataset{}, fmt.Errorf("generate: customers=%d start=%s end=%s: %w",
			p.Customers, p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"), err)
	}

	customers := GenerateCustomers(src, p)
	s.log.Debug("customers generated", zap.Int("count", len(customers)))

	cards := GenerateCards(src, customers)
	s.log.Debug("cards generated", zap.Int("count", len(cards)))

	activity, err := SimulateActivity(ctx, src, p, customers, cards)
	if err != nil {
		return portfolio.Dataset{}, err
	}

	s.log.Info("base dataset generated",
		zap.Int("customers", len(customers)),
		zap.Int("cards", len(cards)),
		zap.Int("months", len(p.Months())),
		zap.Int("transactions", len(activity.Transactions)),
		zap.Int("fraud_flags", len(activity.FraudFlags)),
		zap.Int("payments", len(activity.Payments)),
		zap.Int("reward_redemptions", len(activity.Redemptions)),
		zap.Int("longest_missed_streak", activity.LongestMissedStreak),
	)

	return portfolio.Dataset{
		Customers:    customers,
		Cards:        cards,
		Transactions: activity.Transactions,
		FraudFlags:   activity.FraudFlags,
		Payments:     activity.Payments,
		Redemptions:  activity.Redemptions,
		Currencies:   portfolio.CurrencyConversions(),
	}, nil
}
