package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cardsynth/internal/generator/domain"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
)

const (
	youngAgeCutoff         = 35
	youngOnlineProbability = 0.65
	olderOnlineProbability = 0.40

	purchaseMin    = 10.0
	purchaseMax    = 300.0
	cashAdvanceMin = 100.0
	cashAdvanceMax = 500.0
	outlierMinMult = 5
	outlierMaxMult = 10

	highUtilization   = 0.8
	missProbability   = 0.25
	missedPaymentMin  = 0.05
	missedPaymentMax  = 0.2
	regularPaymentMin = 0.3
	regularPaymentMax = 0.8

	minRedemptionPoints = 500
	maxRedemptionPoints = 5000 // exclusive

	transactionDaySpread = 27
	redemptionDay        = 20
	paymentDay           = 25
)

// sequences are shared across every card of a run.
type sequences struct {
	transaction int64
	fraud       int64
	payment     int64
	redemption  int64
}

func next(counter *int64) int64 {
	*counter++
	return *counter
}

// SimulateActivity walks every card month by month, in card order, producing
// transactions, fraud flags, one payment per month and optional redemptions.
// The revolving balance is the only state carried between months and is
// reset for each card.
func SimulateActivity(ctx context.Context, src *random.Source, p domain.Params, customers []portfolio.Customer, cards []portfolio.Card) (domain.Activity, error) {
	ref := portfolio.NewReferenceData(customers, cards)
	months := p.Months()

	var (
		out domain.Activity
		seq sequences
	)
	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return domain.Activity{}, err
		}
		cust, ok := ref.Customer(card.CustomerID)
		if !ok {
			continue
		}
		profile, ok := portfolio.ProfileFor(cust.Segment)
		if !ok {
			continue
		}
		simulateCard(src, p, &seq, &out, cust, profile, card, months)
	}
	return out, nil
}

func simulateCard(
	src *random.Source,
	p domain.Params,
	seq *sequences,
	out *domain.Activity,
	cust portfolio.Customer,
	profile portfolio.SegmentProfile,
	card portfolio.Card,
	months []time.Time,
) {
	onlineProbability := olderOnlineProbability
	if cust.Age < youngAgeCutoff {
		onlineProbability = youngOnlineProbability
	}
	homeCurrency, _ := portfolio.CurrencyFor(cust.Country)

	balance := 0.0
	missedStreak := 0

	for _, month := range months {
		count := src.IntInclusive(profile.MinMonthlyTransactions, profile.MaxMonthlyTransactions)
		spend := 0.0

		for range count {
			merchantType := portfolio.MerchantTypeOffline
			if src.Bernoulli(onlineProbability) {
				merchantType = portfolio.MerchantTypeOnline
			}

			international := src.Bernoulli(profile.InternationalProbability)
			country, city, currency := cust.Country, cust.City, homeCurrency
			if international {
				c := portfolio.Countries[src.Pick(len(portfolio.Countries))]
				country, city, currency = c.Name, c.Cities[src.Pick(len(c.Cities))], c.Currency
			}

			txnType := portfolio.TransactionTypePurchase
			if src.Bernoulli(profile.CashAdvanceProbability) {
				txnType = portfolio.TransactionTypeCashAdvance
			}

			var amount float64
			if txnType == portfolio.TransactionTypeCashAdvance {
				amount = src.Uniform(cashAdvanceMin, cashAdvanceMax)
			} else {
				amount = src.Uniform(purchaseMin, purchaseMax)
			}
			if src.Bernoulli(p.OutlierProbability) {
				amount *= float64(src.IntInclusive(outlierMinMult, outlierMaxMult))
			}
			spend += amount

			fraud := src.Bernoulli(portfolio.FraudProbability(international, merchantType, cust.Segment))

			date := month.AddDate(0, 0, src.IntInclusive(0, transactionDaySpread))
			txnID := next(&seq.transaction)
			out.Transactions = append(out.Transactions, portfolio.Transaction{
				ID:               txnID,
				CardID:           card.ID,
				TransactionDate:  &date,
				MerchantCategory: portfolio.MerchantCategories[src.Pick(len(portfolio.MerchantCategories))],
				MerchantType:     merchantType,
				Currency:         currency,
				Amount:           decimal.NewNullDecimal(decimal.NewFromFloat(amount).Round(2)),
				TransactionType:  txnType,
				MerchantCity:     city,
				MerchantCountry:  country,
				Location:         city,
				IsInternational:  international,
			})

			if fraud {
				out.FraudFlags = append(out.FraudFlags, portfolio.FraudFlag{
					ID:            next(&seq.fraud),
					TransactionID: txnID,
					Flag:          1,
					FraudType:     portfolio.FraudTypeFor(merchantType),
				})
			}
		}

		balance += spend
		utilization := balance / float64(card.CreditLimit)

		var payment float64
		if utilization > highUtilization && src.Bernoulli(missProbability) {
			payment = balance * src.Uniform(missedPaymentMin, missedPaymentMax)
			missedStreak++
			out.LongestMissedStreak = max(out.LongestMissedStreak, missedStreak)
		} else {
			payment = balance * src.Uniform(regularPaymentMin, regularPaymentMax)
			missedStreak = 0
		}
		balance = max(balance-payment, 0)

		out.Payments = append(out.Payments, portfolio.Payment{
			ID:          next(&seq.payment),
			CardID:      card.ID,
			PaymentDate: month.AddDate(0, 0, paymentDay),
			Amount:      decimal.NewFromFloat(payment).Round(2),
			Method:      portfolio.PaymentMethods[src.Pick(len(portfolio.PaymentMethods))],
		})

		if src.Bernoulli(p.RedemptionProbability) {
			points := src.IntN(minRedemptionPoints, maxRedemptionPoints)
			out.Redemptions = append(out.Redemptions, portfolio.RewardRedemption{
				ID:         next(&seq.redemption),
				CardID:     card.ID,
				Date:       month.AddDate(0, 0, redemptionDay),
				Type:       portfolio.RedemptionTypes[src.Pick(len(portfolio.RedemptionTypes))],
				PointsUsed: points,
				Value:      decimal.NewFromInt(int64(points)).Shift(-2),
			})
		}
	}
}
