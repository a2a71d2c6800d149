package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	return Dataset{
		Customers: []Customer{
			{ID: 1, Segment: SegmentLowValue, Country: "UAE", City: "Dubai", JoinDate: day},
			{ID: 2, Segment: SegmentMassMarket, Country: "UK", City: "London", JoinDate: day},
		},
		Cards: []Card{
			{ID: 1, CustomerID: 1, CardType: CardTypeBasic, IssueDate: day},
			{ID: 2, CustomerID: 2, CardType: CardTypeGold, IssueDate: day},
		},
		Transactions: []Transaction{
			{ID: 1, CardID: 1, TransactionDate: &day, MerchantCountry: "UAE", Currency: "AED",
				Amount: decimal.NewNullDecimal(decimal.RequireFromString("12.50"))},
			{ID: 2, CardID: 2, TransactionDate: &day, MerchantCountry: "France", Currency: "EUR"},
		},
		FraudFlags: []FraudFlag{
			{ID: 1, TransactionID: 2, Flag: 1, FraudType: FraudTypeSkimming},
		},
		Payments: []Payment{
			{ID: 1, CardID: 1, PaymentDate: day, Amount: decimal.NewFromInt(10)},
		},
		Redemptions: []RewardRedemption{
			{ID: 1, CardID: 2, Date: day, Type: RedemptionCashback, PointsUsed: 1000, Value: decimal.NewFromInt(8)},
		},
		Currencies: CurrencyConversions(),
	}
}

func TestCheckIntegrityClean(t *testing.T) {
	report := CheckIntegrity(sampleDataset())
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
}

func TestCheckIntegrityFindsDefects(t *testing.T) {
	d := sampleDataset()
	d.Cards = append(d.Cards, Card{ID: 2, CustomerID: 9})
	d.Transactions = append(d.Transactions, Transaction{ID: 3, CardID: 7, MerchantCountry: "India", Currency: "USD",
		Amount: decimal.NewNullDecimal(decimal.NewFromInt(-1))})
	d.FraudFlags = append(d.FraudFlags, FraudFlag{ID: 5, TransactionID: 42})

	report := CheckIntegrity(d)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.OrphanCards)
	assert.Equal(t, 1, report.OrphanTransactions)
	assert.Equal(t, 1, report.OrphanFraudFlags)
	assert.Equal(t, 1, report.FraudIDGaps)
	assert.Equal(t, 1, report.CurrencyMismatches)
	assert.Equal(t, 1, report.NegativeAmounts)
	assert.Equal(t, map[string]int{TableCards: 1}, report.DuplicateIDs)

	err := report.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntegrity))
	assert.Contains(t, err.Error(), "duplicate_cards=1")
}

func TestReferenceDataCardSegment(t *testing.T) {
	d := sampleDataset()
	ref := NewReferenceData(d.Customers, d.Cards)

	seg, ok := ref.CardSegment(2)
	require.True(t, ok)
	assert.Equal(t, SegmentMassMarket, seg)

	_, ok = ref.CardSegment(99)
	assert.False(t, ok)
}

func TestFraudProbability(t *testing.T) {
	assert.InDelta(t, 0.002, FraudProbability(false, MerchantTypeOnline, SegmentMassMarket), 1e-12)
	assert.InDelta(t, 0.007, FraudProbability(true, MerchantTypeOnline, SegmentEmergingAffluent), 1e-12)
	assert.InDelta(t, 0.005, FraudProbability(true, MerchantTypeOffline, SegmentLowValue), 1e-12)
	assert.InDelta(t, 0.010, FraudProbability(true, MerchantTypeOnline, SegmentLowValue), 1e-12)
}

func TestCurrencyFor(t *testing.T) {
	for _, c := range Countries {
		currency, ok := CurrencyFor(c.Name)
		require.True(t, ok)
		assert.Equal(t, c.Currency, currency)
	}
	_, ok := CurrencyFor("Atlantis")
	assert.False(t, ok)
}
