package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cardsynth/internal/adjuster/domain"
	gendomain "github.com/smallbiznis/cardsynth/internal/generator/domain"
	genservice "github.com/smallbiznis/cardsynth/internal/generator/service"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func defaultParams() domain.Params {
	return domain.Params{
		CardExpansionFraction: 0.20,
		DormancyFraction:      0.08,
		SpikeProbability:      0.02,
		MissingProbability:    0.005,
	}
}

func baseDataset(t *testing.T, src *random.Source, customers int) portfolio.Dataset {
	t.Helper()
	gen := genservice.New(genservice.Params{Log: zap.NewNop()})
	ds, err := gen.Generate(context.Background(), src, gendomain.Params{
		Customers:              customers,
		StartDate:              time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:                time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		OccupationNullFraction: 0.005,
		OutlierProbability:     0.005,
		RedemptionProbability:  0.10,
	})
	require.NoError(t, err)
	return ds
}

func newTestService() domain.Service {
	return New(Params{Log: zap.NewNop()})
}

func TestAdjustKeepsReferentialIntegrity(t *testing.T) {
	src := random.New(42)
	base := baseDataset(t, src, 150)
	baseCards := len(base.Cards)
	firstTxn := base.Transactions[0]

	adjusted, report, err := newTestService().Adjust(context.Background(), src, base, defaultParams())
	require.NoError(t, err)

	integrity := portfolio.CheckIntegrity(adjusted)
	assert.NoError(t, integrity.Err())

	assert.Equal(t, baseCards+random.SampleSize(baseCards, 0.20), len(adjusted.Cards))
	assert.Equal(t, report.CardsAdded, len(adjusted.Cards)-baseCards)
	assert.Equal(t, report.FraudFlags, len(adjusted.FraudFlags))
	for i, f := range adjusted.FraudFlags {
		assert.Equal(t, int64(i+1), f.ID)
	}

	// base must not be mutated
	assert.Len(t, base.Cards, baseCards)
	assert.Equal(t, firstTxn, base.Transactions[0])
	for _, p := range base.Payments {
		assert.Empty(t, p.DelinquencyStatus)
	}
	for _, p := range adjusted.Payments {
		assert.Contains(t, []portfolio.DelinquencyStatus{portfolio.DelinquencyCurrent, portfolio.Delinquency30DPD}, p.DelinquencyStatus)
	}
}

func TestAdjustIsDeterministic(t *testing.T) {
	run := func() (portfolio.Dataset, domain.Report) {
		src := random.New(42)
		base := baseDataset(t, src, 30)
		ds, report, err := newTestService().Adjust(context.Background(), src, base, defaultParams())
		require.NoError(t, err)
		return ds, report
	}
	first, firstReport := run()
	second, secondReport := run()
	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)
}

func TestAdjustRejectsEmptyDataset(t *testing.T) {
	_, _, err := newTestService().Adjust(context.Background(), random.New(1), portfolio.Dataset{}, defaultParams())
	assert.True(t, errors.Is(err, domain.ErrEmptyDataset))

	p := defaultParams()
	p.SpikeProbability = 2
	_, _, err = newTestService().Adjust(context.Background(), random.New(1), portfolio.Dataset{}, p)
	assert.True(t, errors.Is(err, domain.ErrInvalidParams))
}

func TestAdjustRemovesDormantCardMonths(t *testing.T) {
	src := random.New(42)
	base := baseDataset(t, src, 100)

	adjusted, report, err := newTestService().Adjust(context.Background(), src, base, defaultParams())
	require.NoError(t, err)
	require.NotEmpty(t, report.DormantPairs)

	dormant := make(map[domain.CardMonth]struct{}, len(report.DormantPairs))
	for _, pair := range report.DormantPairs {
		dormant[pair] = struct{}{}
	}
	for _, txn := range adjusted.Transactions {
		if txn.TransactionDate == nil {
			continue
		}
		key := domain.CardMonth{CardID: txn.CardID, Month: portfolio.MonthStart(*txn.TransactionDate)}
		_, found := dormant[key]
		assert.False(t, found, "transaction %d survived dormancy for card %d", txn.ID, txn.CardID)
	}
	assert.Positive(t, report.TransactionsRemoved)
}

func TestAdjustFraudTypeFollowsChannel(t *testing.T) {
	src := random.New(42)
	base := baseDataset(t, src, 200)

	adjusted, _, err := newTestService().Adjust(context.Background(), src, base, defaultParams())
	require.NoError(t, err)
	require.NotEmpty(t, adjusted.FraudFlags)

	byID := make(map[int64]portfolio.Transaction, len(adjusted.Transactions))
	for _, txn := range adjusted.Transactions {
		byID[txn.ID] = txn
	}
	for _, f := range adjusted.FraudFlags {
		txn, ok := byID[f.TransactionID]
		require.True(t, ok)
		assert.Equal(t, portfolio.FraudTypeFor(txn.MerchantType), f.FraudType)
	}
}

func TestAdjustRedemptionValueLaw(t *testing.T) {
	src := random.New(42)
	base := baseDataset(t, src, 200)

	adjusted, _, err := newTestService().Adjust(context.Background(), src, base, defaultParams())
	require.NoError(t, err)
	require.NotEmpty(t, adjusted.Redemptions)

	factors := map[portfolio.RedemptionType]decimal.Decimal{
		portfolio.RedemptionFlights:   decimal.RequireFromString("1.8"),
		portfolio.RedemptionCashback:  decimal.RequireFromString("0.8"),
		portfolio.RedemptionGiftCards: decimal.NewFromInt(1),
	}
	for _, r := range adjusted.Redemptions {
		factor, ok := factors[r.Type]
		require.True(t, ok)
		want := decimal.NewFromInt(int64(r.PointsUsed)).Shift(-2).Mul(factor)
		assert.True(t, want.Equal(r.Value), "redemption %d: want %s got %s", r.ID, want, r.Value)
	}
}

func TestAdjustAmountsStayNonNegative(t *testing.T) {
	src := random.New(3)
	base := baseDataset(t, src, 100)

	adjusted, _, err := newTestService().Adjust(context.Background(), src, base, defaultParams())
	require.NoError(t, err)

	for _, txn := range adjusted.Transactions {
		if txn.Amount.Valid {
			assert.False(t, txn.Amount.Decimal.IsNegative())
		}
	}
	for _, p := range adjusted.Payments {
		assert.False(t, p.Amount.IsNegative())
	}
}
