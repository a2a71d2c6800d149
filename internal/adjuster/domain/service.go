package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/cardsynth/internal/config"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
)

type Params struct {
	CardExpansionFraction float64
	DormancyFraction      float64
	SpikeProbability      float64
	MissingProbability    float64
}

func NewParams(cfg config.SimulationConfig) Params {
	return Params{
		CardExpansionFraction: cfg.CardExpansionFraction,
		DormancyFraction:      cfg.DormancyFraction,
		SpikeProbability:      cfg.SpikeProbability,
		MissingProbability:    cfg.MissingProbability,
	}
}

func (p Params) Validate() error {
	for _, v := range []float64{p.CardExpansionFraction, p.DormancyFraction, p.SpikeProbability, p.MissingProbability} {
		if v < 0 || v > 1 {
			return ErrInvalidParams
		}
	}
	return nil
}

// CardMonth identifies one card's activity in one calendar month.
type CardMonth struct {
	CardID int64     `json:"card_id"`
	Month  time.Time `json:"month"`
}

// Report summarizes what an adjustment run changed.
type Report struct {
	CardsAdded          int         `json:"cards_added"`
	DormantPairs        []CardMonth `json:"dormant_pairs"`
	TransactionsRemoved int         `json:"transactions_removed"`
	Spikes              int         `json:"spikes"`
	FraudFlags          int         `json:"fraud_flags"`
	NullAmounts         int         `json:"null_amounts"`
	NullDates           int         `json:"null_dates"`
	DelinquentPayments  int         `json:"delinquent_payments"`
	RowsDropped         int         `json:"rows_dropped"`
}

type Service interface {
	Adjust(ctx context.Context, src *random.Source, base portfolio.Dataset, p Params) (portfolio.Dataset, Report, error)
}

var (
	ErrInvalidParams = errors.New("invalid_params")
	ErrEmptyDataset  = errors.New("empty_dataset")
)
