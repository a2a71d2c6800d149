package service

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cardsynth/internal/adjuster/domain"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
)

var (
	peakSeasonFactor = decimal.RequireFromString("1.35")
	offSeasonFactor  = decimal.RequireFromString("0.75")
	monthlyGrowth    = decimal.RequireFromString("0.01")
	weekendFactor    = decimal.RequireFromString("1.2")
	onlineFactor     = decimal.RequireFromString("1.25")
	flightsFactor    = decimal.RequireFromString("1.8")
	cashbackFactor   = decimal.RequireFromString("0.8")
	delinquencyRatio = decimal.RequireFromString("0.3")
)

const (
	spikeMin = 2.0
	spikeMax = 4.0
)

var categoryWeights = []struct {
	category string
	weight   float64
}{
	{"Groceries", 0.25},
	{"Fuel", 0.15},
	{"Shopping", 0.20},
	{"Dining", 0.15},
	{"Travel", 0.10},
	{"Electronics", 0.15},
}

var redemptionWeights = []struct {
	kind   portfolio.RedemptionType
	weight float64
}{
	{portfolio.RedemptionCashback, 0.55},
	{portfolio.RedemptionGiftCards, 0.30},
	{portfolio.RedemptionFlights, 0.15},
}

// ExpandCards clones a uniform sample of cards. Clones keep every attribute
// of their source and take ids after the current maximum, in source order.
func ExpandCards(src *random.Source, cards []portfolio.Card, fraction float64) []portfolio.Card {
	out := slices.Clone(cards)
	var maxID int64
	for _, c := range cards {
		maxID = max(maxID, c.ID)
	}
	for _, i := range src.Sample(len(cards), fraction) {
		maxID++
		clone := cards[i]
		clone.ID = maxID
		out = append(out, clone)
	}
	return out
}

// ApplyDormancy removes every transaction of a sampled set of (card, month)
// pairs and returns the survivors together with the pairs removed. Rows
// without a date belong to no pair and always survive.
func ApplyDormancy(src *random.Source, txns []portfolio.Transaction, fraction float64) ([]portfolio.Transaction, []domain.CardMonth) {
	seen := make(map[domain.CardMonth]struct{})
	var pairs []domain.CardMonth
	for _, t := range txns {
		key, ok := cardMonthOf(t)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		pairs = append(pairs, key)
	}

	picked := src.Sample(len(pairs), fraction)
	dormant := make(map[domain.CardMonth]struct{}, len(picked))
	removed := make([]domain.CardMonth, 0, len(picked))
	for _, i := range picked {
		dormant[pairs[i]] = struct{}{}
		removed = append(removed, pairs[i])
	}

	out := make([]portfolio.Transaction, 0, len(txns))
	for _, t := range txns {
		if key, ok := cardMonthOf(t); ok {
			if _, drop := dormant[key]; drop {
				continue
			}
		}
		out = append(out, t)
	}
	return out, removed
}

func cardMonthOf(t portfolio.Transaction) (domain.CardMonth, bool) {
	if t.TransactionDate == nil {
		return domain.CardMonth{}, false
	}
	return domain.CardMonth{CardID: t.CardID, Month: portfolio.MonthStart(*t.TransactionDate)}, true
}

// RescaleAmounts compounds seasonality, growth, random spikes, weekend and
// online multipliers in that order and rounds the result to cents. Growth
// counts months from January of the earliest year present.
func RescaleAmounts(src *random.Source, txns []portfolio.Transaction, spikeProbability float64) ([]portfolio.Transaction, int) {
	out := slices.Clone(txns)

	minYear, haveYear := 0, false
	for _, t := range out {
		if t.TransactionDate == nil {
			continue
		}
		if y := t.TransactionDate.Year(); !haveYear || y < minYear {
			minYear, haveYear = y, true
		}
	}

	spikeMask := src.Mask(len(out), spikeProbability)
	spikes := 0
	for i := range out {
		var spike decimal.Decimal
		if spikeMask[i] {
			spike = decimal.NewFromFloat(src.Uniform(spikeMin, spikeMax))
			spikes++
		}

		t := &out[i]
		if !t.Amount.Valid {
			continue
		}
		amount := t.Amount.Decimal
		if d := t.TransactionDate; d != nil {
			amount = amount.Mul(seasonality(d.Month()))
			months := (d.Year()-minYear)*12 + int(d.Month())
			amount = amount.Mul(decimal.NewFromInt(1).Add(monthlyGrowth.Mul(decimal.NewFromInt(int64(months)))))
		}
		if spikeMask[i] {
			amount = amount.Mul(spike)
		}
		if d := t.TransactionDate; d != nil && isWeekend(*d) {
			amount = amount.Mul(weekendFactor)
		}
		if t.IsOnline() {
			amount = amount.Mul(onlineFactor)
		}
		t.Amount = decimal.NewNullDecimal(amount.Round(2))
	}
	return out, spikes
}

func seasonality(m time.Month) decimal.Decimal {
	switch m {
	case time.November, time.December:
		return peakSeasonFactor
	case time.February, time.June:
		return offSeasonFactor
	default:
		return decimal.NewFromInt(1)
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// RedrawCategories replaces every merchant category with a fresh weighted draw.
func RedrawCategories(src *random.Source, txns []portfolio.Transaction) []portfolio.Transaction {
	weights := make([]float64, len(categoryWeights))
	for i, w := range categoryWeights {
		weights[i] = w.weight
	}
	out := slices.Clone(txns)
	for i := range out {
		out[i].MerchantCategory = categoryWeights[src.Weighted(weights)].category
	}
	return out
}

// RecalibrateFraud rebuilds the fraud table from the adjusted transactions
// with one Bernoulli draw per row. Segment comes from ref; a transaction whose
// card has no known owner gets no segment uplift.
func RecalibrateFraud(src *random.Source, txns []portfolio.Transaction, ref portfolio.ReferenceData) []portfolio.FraudFlag {
	var flags []portfolio.FraudFlag
	for _, t := range txns {
		segment, _ := ref.CardSegment(t.CardID)
		if !src.Bernoulli(portfolio.FraudProbability(t.IsInternational, t.MerchantType, segment)) {
			continue
		}
		flags = append(flags, portfolio.FraudFlag{
			ID:            int64(len(flags) + 1),
			TransactionID: t.ID,
			Flag:          1,
			FraudType:     portfolio.FraudTypeFor(t.MerchantType),
		})
	}
	return flags
}

// LabelDelinquency marks payments below 30% of the global median as 30DPD.
func LabelDelinquency(payments []portfolio.Payment) ([]portfolio.Payment, int) {
	out := slices.Clone(payments)
	if len(out) == 0 {
		return out, 0
	}
	threshold := median(out).Mul(delinquencyRatio)
	delinquent := 0
	for i := range out {
		if out[i].Amount.LessThan(threshold) {
			out[i].DelinquencyStatus = portfolio.Delinquency30DPD
			delinquent++
		} else {
			out[i].DelinquencyStatus = portfolio.DelinquencyCurrent
		}
	}
	return out, delinquent
}

func median(payments []portfolio.Payment) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(payments))
	for i, p := range payments {
		amounts[i] = p.Amount
	}
	slices.SortFunc(amounts, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	mid := len(amounts) / 2
	if len(amounts)%2 == 1 {
		return amounts[mid]
	}
	return amounts[mid-1].Add(amounts[mid]).Div(decimal.NewFromInt(2))
}

// InjectMissingness nulls amounts and then dates using two independent masks.
func InjectMissingness(src *random.Source, txns []portfolio.Transaction, probability float64) ([]portfolio.Transaction, int, int) {
	out := slices.Clone(txns)
	nullAmounts, nullDates := 0, 0
	for i, drop := range src.Mask(len(out), probability) {
		if drop {
			out[i].Amount = decimal.NullDecimal{}
			nullAmounts++
		}
	}
	for i, drop := range src.Mask(len(out), probability) {
		if drop {
			out[i].TransactionDate = nil
			nullDates++
		}
	}
	return out, nullAmounts, nullDates
}

// FinalizeRedemptions redraws every redemption type and scales the existing
// value by the type multiplier.
func FinalizeRedemptions(src *random.Source, redemptions []portfolio.RewardRedemption) []portfolio.RewardRedemption {
	weights := make([]float64, len(redemptionWeights))
	for i, w := range redemptionWeights {
		weights[i] = w.weight
	}
	out := slices.Clone(redemptions)
	for i := range out {
		out[i].Type = redemptionWeights[src.Weighted(weights)].kind
		switch out[i].Type {
		case portfolio.RedemptionFlights:
			out[i].Value = out[i].Value.Mul(flightsFactor)
		case portfolio.RedemptionCashback:
			out[i].Value = out[i].Value.Mul(cashbackFactor)
		}
	}
	return out
}

// EnforceIntegrity drops rows with absent keys or missing parents and
// re-sequences fraud ids from 1. It returns the number of rows dropped.
func EnforceIntegrity(d portfolio.Dataset) (portfolio.Dataset, int) {
	dropped := 0
	keep := func(ok bool) bool {
		if !ok {
			dropped++
		}
		return ok
	}

	out := portfolio.Dataset{Currencies: slices.Clone(d.Currencies)}

	customerIDs := make(map[int64]struct{}, len(d.Customers))
	for _, c := range d.Customers {
		if keep(c.ID != 0) {
			out.Customers = append(out.Customers, c)
			customerIDs[c.ID] = struct{}{}
		}
	}

	cardIDs := make(map[int64]struct{}, len(d.Cards))
	for _, c := range d.Cards {
		_, owner := customerIDs[c.CustomerID]
		if keep(c.ID != 0 && owner) {
			out.Cards = append(out.Cards, c)
			cardIDs[c.ID] = struct{}{}
		}
	}

	txnIDs := make(map[int64]struct{}, len(d.Transactions))
	for _, t := range d.Transactions {
		_, card := cardIDs[t.CardID]
		if keep(t.ID != 0 && card) {
			out.Transactions = append(out.Transactions, t)
			txnIDs[t.ID] = struct{}{}
		}
	}

	for _, p := range d.Payments {
		if _, card := cardIDs[p.CardID]; keep(card) {
			out.Payments = append(out.Payments, p)
		}
	}
	for _, r := range d.Redemptions {
		if _, card := cardIDs[r.CardID]; keep(card) {
			out.Redemptions = append(out.Redemptions, r)
		}
	}

	for _, f := range d.FraudFlags {
		if _, txn := txnIDs[f.TransactionID]; keep(txn) {
			f.ID = int64(len(out.FraudFlags) + 1)
			out.FraudFlags = append(out.FraudFlags, f)
		}
	}

	return out, dropped
}
