package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestExpandCardsClonesSample(t *testing.T) {
	cards := make([]portfolio.Card, 10)
	for i := range cards {
		cards[i] = portfolio.Card{ID: int64(i + 1), CustomerID: int64(100 + i), CardType: portfolio.CardTypeGold, CreditLimit: 4000 + i}
	}

	out := ExpandCards(random.New(42), cards, 0.20)
	require.Len(t, out, 12)
	assert.Len(t, cards, 10)

	for i, clone := range out[10:] {
		assert.Equal(t, int64(11+i), clone.ID)
		source := cards[clone.CustomerID-100]
		clone.ID = source.ID
		assert.Equal(t, source, clone)
	}
	assert.Less(t, out[10].CustomerID, out[11].CustomerID)
}

func TestApplyDormancyBounds(t *testing.T) {
	txns := []portfolio.Transaction{
		{ID: 1, CardID: 1, TransactionDate: day(2024, time.January, 3)},
		{ID: 2, CardID: 1, TransactionDate: day(2024, time.January, 20)},
		{ID: 3, CardID: 1, TransactionDate: day(2024, time.February, 3)},
		{ID: 4, CardID: 2, TransactionDate: day(2024, time.January, 9)},
		{ID: 5, CardID: 2},
	}

	kept, removed := ApplyDormancy(random.New(1), txns, 0)
	assert.Equal(t, txns, kept)
	assert.Empty(t, removed)

	kept, removed = ApplyDormancy(random.New(1), txns, 1)
	require.Len(t, kept, 1)
	assert.Equal(t, int64(5), kept[0].ID)
	assert.Len(t, removed, 3)

	kept, removed = ApplyDormancy(random.New(9), txns, 0.34)
	require.Len(t, removed, 1)
	for _, txn := range kept {
		if txn.TransactionDate == nil {
			continue
		}
		assert.False(t, txn.CardID == removed[0].CardID && portfolio.MonthStart(*txn.TransactionDate).Equal(removed[0].Month))
	}
}

func TestRescaleAmountsCompoundsFactors(t *testing.T) {
	txns := []portfolio.Transaction{
		// Saturday in November, online
		{ID: 1, TransactionDate: day(2024, time.November, 2), MerchantType: portfolio.MerchantTypeOnline, Amount: amount("10")},
		// Tuesday in March, offline
		{ID: 2, TransactionDate: day(2024, time.March, 5), MerchantType: portfolio.MerchantTypeOffline, Amount: amount("50")},
		{ID: 3, TransactionDate: day(2024, time.March, 5), MerchantType: portfolio.MerchantTypeOffline},
	}

	out, spikes := RescaleAmounts(random.New(1), txns, 0)
	assert.Zero(t, spikes)
	assert.Equal(t, "22.48", out[0].Amount.Decimal.StringFixed(2))
	assert.Equal(t, "51.50", out[1].Amount.Decimal.StringFixed(2))
	assert.False(t, out[2].Amount.Valid)
	assert.Equal(t, "10", txns[0].Amount.Decimal.String())
}

func TestRescaleAmountsSpikesEveryRow(t *testing.T) {
	txns := []portfolio.Transaction{
		{ID: 1, TransactionDate: day(2025, time.January, 7), MerchantType: portfolio.MerchantTypeOffline, Amount: amount("100")},
	}
	out, spikes := RescaleAmounts(random.New(1), txns, 1)
	assert.Equal(t, 1, spikes)
	// Tuesday in January of the first year: growth 1.01, spike in [2,4)
	got := out[0].Amount.Decimal
	assert.True(t, got.GreaterThanOrEqual(decimal.RequireFromString("202")), got.String())
	assert.True(t, got.LessThanOrEqual(decimal.RequireFromString("404")), got.String())
}

func TestRedrawCategoriesUsesWeights(t *testing.T) {
	txns := make([]portfolio.Transaction, 50000)
	out := RedrawCategories(random.New(42), txns)

	counts := map[string]int{}
	for _, txn := range out {
		counts[txn.MerchantCategory]++
	}
	for _, w := range categoryWeights {
		assert.InDelta(t, w.weight, float64(counts[w.category])/float64(len(out)), 0.01, w.category)
	}
}

func TestRecalibrateFraudUsesSegment(t *testing.T) {
	customers := []portfolio.Customer{{ID: 1, Segment: portfolio.SegmentLowValue}}
	cards := []portfolio.Card{{ID: 1, CustomerID: 1}}
	ref := portfolio.NewReferenceData(customers, cards)

	txns := make([]portfolio.Transaction, 100000)
	for i := range txns {
		txns[i] = portfolio.Transaction{ID: int64(i + 1), CardID: 1, MerchantType: portfolio.MerchantTypeOffline}
	}
	flags := RecalibrateFraud(random.New(42), txns, ref)

	rate := float64(len(flags)) / float64(len(txns))
	assert.InDelta(t, 0.005, rate, 0.0015)
	for i, f := range flags {
		assert.Equal(t, int64(i+1), f.ID)
		assert.Equal(t, portfolio.FraudTypeSkimming, f.FraudType)
	}
}

func TestLabelDelinquencyUsesGlobalMedian(t *testing.T) {
	payments := []portfolio.Payment{
		{ID: 1, Amount: decimal.NewFromInt(10)},
		{ID: 2, Amount: decimal.NewFromInt(100)},
		{ID: 3, Amount: decimal.NewFromInt(200)},
		{ID: 4, Amount: decimal.NewFromInt(300)},
	}
	out, delinquent := LabelDelinquency(payments)
	assert.Equal(t, 1, delinquent)
	assert.Equal(t, portfolio.Delinquency30DPD, out[0].DelinquencyStatus)
	for _, p := range out[1:] {
		assert.Equal(t, portfolio.DelinquencyCurrent, p.DelinquencyStatus)
	}

	out, delinquent = LabelDelinquency(payments[1:])
	// median 200, threshold 60
	assert.Zero(t, delinquent)
	assert.Len(t, out, 3)

	out, delinquent = LabelDelinquency(nil)
	assert.Empty(t, out)
	assert.Zero(t, delinquent)
}

func TestInjectMissingnessRate(t *testing.T) {
	txns := make([]portfolio.Transaction, 200000)
	for i := range txns {
		txns[i] = portfolio.Transaction{ID: int64(i + 1), TransactionDate: day(2024, time.May, 1), Amount: amount("1")}
	}
	out, nullAmounts, nullDates := InjectMissingness(random.New(42), txns, 0.005)

	counted := 0
	for _, txn := range out {
		if !txn.Amount.Valid {
			counted++
		}
	}
	assert.Equal(t, nullAmounts, counted)
	assert.InDelta(t, 0.005, float64(nullAmounts)/float64(len(out)), 0.001)
	assert.InDelta(t, 0.005, float64(nullDates)/float64(len(out)), 0.001)
	assert.NotNil(t, txns[0].TransactionDate)
}

func TestFinalizeRedemptionsScalesValue(t *testing.T) {
	redemptions := make([]portfolio.RewardRedemption, 20000)
	for i := range redemptions {
		redemptions[i] = portfolio.RewardRedemption{ID: int64(i + 1), Type: portfolio.RedemptionFlights, PointsUsed: 1000, Value: decimal.NewFromInt(10)}
	}
	out := FinalizeRedemptions(random.New(42), redemptions)

	counts := map[portfolio.RedemptionType]int{}
	for _, r := range out {
		counts[r.Type]++
		switch r.Type {
		case portfolio.RedemptionFlights:
			assert.Equal(t, "18", r.Value.String())
		case portfolio.RedemptionCashback:
			assert.Equal(t, "8", r.Value.String())
		default:
			assert.Equal(t, "10", r.Value.String())
		}
	}
	for _, w := range redemptionWeights {
		assert.InDelta(t, w.weight, float64(counts[w.kind])/float64(len(out)), 0.015, string(w.kind))
	}
}

func TestEnforceIntegrityDropsOrphans(t *testing.T) {
	in := portfolio.Dataset{
		Customers: []portfolio.Customer{{ID: 1}, {ID: 0}},
		Cards:     []portfolio.Card{{ID: 1, CustomerID: 1}, {ID: 2, CustomerID: 5}, {ID: 0, CustomerID: 1}},
		Transactions: []portfolio.Transaction{
			{ID: 1, CardID: 1},
			{ID: 2, CardID: 2},
			{ID: 0, CardID: 1},
			{ID: 4, CardID: 1},
		},
		FraudFlags: []portfolio.FraudFlag{
			{ID: 1, TransactionID: 2},
			{ID: 2, TransactionID: 4},
			{ID: 3, TransactionID: 1},
		},
		Payments:    []portfolio.Payment{{ID: 1, CardID: 1}, {ID: 2, CardID: 2}},
		Redemptions: []portfolio.RewardRedemption{{ID: 1, CardID: 2}},
	}

	out, dropped := EnforceIntegrity(in)
	assert.Len(t, out.Customers, 1)
	assert.Len(t, out.Cards, 1)
	assert.Len(t, out.Transactions, 2)
	assert.Len(t, out.Payments, 1)
	assert.Empty(t, out.Redemptions)
	require.Len(t, out.FraudFlags, 2)
	assert.Equal(t, int64(1), out.FraudFlags[0].ID)
	assert.Equal(t, int64(4), out.FraudFlags[0].TransactionID)
	assert.Equal(t, int64(2), out.FraudFlags[1].ID)
	assert.Equal(t, 1+2+2+1+1+1, dropped)
	assert.Equal(t, int64(1), in.FraudFlags[0].ID)
}
