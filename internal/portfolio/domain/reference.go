package domain

import "github.com/shopspring/decimal"

type Country struct {
	Name     string
	Cities   []string
	Currency string
}

// Countries is ordered; random draws index into it, so the order is part of
// the reproducibility contract.
var Countries = []Country{
	{Name: "UAE", Cities: []string{"Dubai", "Abu Dhabi"}, Currency: "AED"},
	{Name: "Qatar", Cities: []string{"Doha"}, Currency: "QAR"},
	{Name: "UK", Cities: []string{"London"}, Currency: "GBP"},
	{Name: "Germany", Cities: []string{"Berlin"}, Currency: "EUR"},
	{Name: "France", Cities: []string{"Paris"}, Currency: "EUR"},
	{Name: "India", Cities: []string{"Mumbai"}, Currency: "INR"},
}

// CurrencyFor returns the settlement currency of a merchant country.
func CurrencyFor(country string) (string, bool) {
	for _, c := range Countries {
		if c.Name == country {
			return c.Currency, true
		}
	}
	return "", false
}

var currencyRates = []struct {
	code string
	rate string
}{
	{"USD", "1.0"},
	{"AED", "0.27"},
	{"QAR", "0.27"},
	{"GBP", "1.25"},
	{"EUR", "1.10"},
	{"INR", "0.012"},
}

// CurrencyConversions returns the static conversion table to USD.
func CurrencyConversions() []CurrencyConversion {
	out := make([]CurrencyConversion, 0, len(currencyRates))
	for _, r := range currencyRates {
		out = append(out, CurrencyConversion{
			Code:      r.code,
			RateToUSD: decimal.RequireFromString(r.rate),
		})
	}
	return out
}

// SegmentProfile carries everything a customer's segment conditions.
type SegmentProfile struct {
	Segment    Segment
	Weight     float64
	IncomeBand string

	// [CreditScoreMin, CreditScoreMax)
	CreditScoreMin int
	CreditScoreMax int

	CardTypes []CardType

	// inclusive bounds
	MinMonthlyTransactions int
	MaxMonthlyTransactions int

	InternationalProbability float64
	CashAdvanceProbability   float64
}

var SegmentProfiles = []SegmentProfile{
	{
		Segment:                  SegmentLowValue,
		Weight:                   0.25,
		IncomeBand:               "Low",
		CreditScoreMin:           550,
		CreditScoreMax:           650,
		CardTypes:                []CardType{CardTypeBasic},
		MinMonthlyTransactions:   8,
		MaxMonthlyTransactions:   14,
		InternationalProbability: 0.05,
		CashAdvanceProbability:   0.15,
	},
	{
		Segment:                  SegmentMassMarket,
		Weight:                   0.55,
		IncomeBand:               "Medium",
		CreditScoreMin:           650,
		CreditScoreMax:           750,
		CardTypes:                []CardType{CardTypeBasic, CardTypeGold},
		MinMonthlyTransactions:   15,
		MaxMonthlyTransactions:   29,
		InternationalProbability: 0.05,
		CashAdvanceProbability:   0.05,
	},
	{
		Segment:                  SegmentEmergingAffluent,
		Weight:                   0.20,
		IncomeBand:               "High",
		CreditScoreMin:           720,
		CreditScoreMax:           850,
		CardTypes:                []CardType{CardTypeGold, CardTypePlatinum},
		MinMonthlyTransactions:   25,
		MaxMonthlyTransactions:   44,
		InternationalProbability: 0.15,
		CashAdvanceProbability:   0.05,
	},
}

func ProfileFor(segment Segment) (SegmentProfile, bool) {
	for _, p := range SegmentProfiles {
		if p.Segment == segment {
			return p, true
		}
	}
	return SegmentProfile{}, false
}

type CardProduct struct {
	Type CardType
	// [CreditLimitMin, CreditLimitMax)
	CreditLimitMin int
	CreditLimitMax int
	AnnualFee      int
}

var CardProducts = []CardProduct{
	{Type: CardTypeBasic, CreditLimitMin: 1000, CreditLimitMax: 3000, AnnualFee: 0},
	{Type: CardTypeGold, CreditLimitMin: 3000, CreditLimitMax: 8000, AnnualFee: 100},
	{Type: CardTypePlatinum, CreditLimitMin: 8000, CreditLimitMax: 20000, AnnualFee: 300},
}

func ProductFor(cardType CardType) (CardProduct, bool) {
	for _, p := range CardProducts {
		if p.Type == cardType {
			return p, true
		}
	}
	return CardProduct{}, false
}

var (
	Occupations        = []string{"Salaried", "Self-employed", "Business", "Student"}
	RewardPrograms     = []string{"Cashback", "Travel", "Points"}
	PaymentMethods     = []string{"Auto Debit", "Manual", "Bank Transfer"}
	MerchantCategories = []string{"Groceries", "Travel", "Dining", "Electronics", "Fuel", "Shopping"}
	RedemptionTypes    = []RedemptionType{RedemptionFlights, RedemptionCashback, RedemptionGiftCards}
)

const (
	baseFraudProbability          = 0.002
	onlineInternationalFraudDelta = 0.005
	lowValueFraudDelta            = 0.003
)

// FraudProbability is the per-transaction fraud likelihood shared by the base
// generator and the fraud recalibration.
func FraudProbability(international bool, mt MerchantType, segment Segment) float64 {
	p := baseFraudProbability
	if international && mt == MerchantTypeOnline {
		p += onlineInternationalFraudDelta
	}
	if segment == SegmentLowValue {
		p += lowValueFraudDelta
	}
	return p
}
