package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/cardsynth/internal/config"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
)

// Params bounds one base generation run.
type Params struct {
	Customers int
	StartDate time.Time
	EndDate   time.Time

	OccupationNullFraction float64
	OutlierProbability     float64
	RedemptionProbability  float64
}

func NewParams(cfg config.SimulationConfig) Params {
	return Params{
		Customers:              cfg.Customers,
		StartDate:              cfg.StartDate,
		EndDate:                cfg.EndDate,
		OccupationNullFraction: cfg.OccupationNullFraction,
		OutlierProbability:     cfg.OutlierProbability,
		RedemptionProbability:  cfg.RedemptionProbability,
	}
}

func (p Params) Validate() error {
	if p.Customers < 1 {
		return ErrInvalidParams
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() || p.EndDate.Before(p.StartDate) {
		return ErrInvalidParams
	}
	return nil
}

// Months returns the first day of every calendar month that starts inside
// [StartDate, EndDate].
func (p Params) Months() []time.Time {
	first := portfolio.MonthStart(p.StartDate)
	if first.Before(p.StartDate.UTC()) {
		first = first.AddDate(0, 1, 0)
	}
	var months []time.Time
	for m := first; !m.After(p.EndDate.UTC()); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// Activity is the per-card monthly simulation output.
type Activity struct {
	Transactions []portfolio.Transaction
	FraudFlags   []portfolio.FraudFlag
	Payments     []portfolio.Payment
	Redemptions  []portfolio.RewardRedemption

	// LongestMissedStreak is diagnostic only and is never persisted.
	LongestMissedStreak int
}

type Service interface {
	Generate(ctx context.Context, src *random.Source, p Params) (portfolio.Dataset, error)
}

var ErrInvalidParams = errors.New("invalid_params")
