package tablestore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
)

const dateLayout = "2006-01-02"

var dateLayouts = []string{dateLayout, "2006-01-02 15:04:05", time.RFC3339}

var (
	customerColumns = []string{"customer_id", "age", "income_band", "occupation", "city", "country", "customer_segment", "join_date", "credit_score"}
	cardColumns     = []string{"card_id", "customer_id", "card_type", "credit_limit", "card_issue_date", "annual_fee", "reward_program_type"}
	// fixed order consumed by the SQL sink
	transactionColumns = []string{
		"transaction_id", "card_id", "transaction_date", "merchant_category",
		"merchant_type", "currency", "amount", "transaction_type",
		"merchant_city", "merchant_country", "location", "is_international",
	}
	fraudColumns      = []string{"fraud_id", "transaction_id", "fraud_flag", "fraud_type"}
	paymentColumns    = []string{"payment_id", "card_id", "payment_date", "payment_amount", "payment_method", "delinquency_status"}
	redemptionColumns = []string{"redemption_id", "card_id", "redemption_date", "redemption_type", "points_used", "redemption_value"}
	currencyColumns   = []string{"currency_code", "conversion_to_usd"}
)

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func encodeCustomer(c portfolio.Customer) []string {
	occupation := ""
	if c.Occupation != nil {
		occupation = *c.Occupation
	}
	return []string{
		formatInt(c.ID), strconv.Itoa(c.Age), c.IncomeBand, occupation, c.City, c.Country,
		string(c.Segment), formatDate(c.JoinDate), strconv.Itoa(c.CreditScore),
	}
}

func encodeCard(c portfolio.Card) []string {
	return []string{
		formatInt(c.ID), formatInt(c.CustomerID), string(c.CardType), strconv.Itoa(c.CreditLimit),
		formatDate(c.IssueDate), strconv.Itoa(c.AnnualFee), c.RewardProgramType,
	}
}

func encodeTransaction(t portfolio.Transaction) []string {
	date, amount := "", ""
	if t.TransactionDate != nil {
		date = formatDate(*t.TransactionDate)
	}
	if t.Amount.Valid {
		amount = t.Amount.Decimal.StringFixed(2)
	}
	return []string{
		formatInt(t.ID), formatInt(t.CardID), date, t.MerchantCategory, string(t.MerchantType),
		t.Currency, amount, string(t.TransactionType), t.MerchantCity, t.MerchantCountry,
		t.Location, strconv.FormatBool(t.IsInternational),
	}
}

func encodeFraudFlag(f portfolio.FraudFlag) []string {
	return []string{formatInt(f.ID), formatInt(f.TransactionID), strconv.Itoa(f.Flag), string(f.FraudType)}
}

func encodePayment(p portfolio.Payment) []string {
	return []string{
		formatInt(p.ID), formatInt(p.CardID), formatDate(p.PaymentDate), p.Amount.StringFixed(2),
		p.Method, string(p.DelinquencyStatus),
	}
}

func encodeRedemption(r portfolio.RewardRedemption) []string {
	return []string{
		formatInt(r.ID), formatInt(r.CardID), formatDate(r.Date), string(r.Type),
		strconv.Itoa(r.PointsUsed), r.Value.String(),
	}
}

func encodeCurrency(c portfolio.CurrencyConversion) []string {
	return []string{c.Code, c.RateToUSD.String()}
}

// record reads one CSV row by column name. The first conversion failure is
// kept and later reads become no-ops.
type record struct {
	index map[string]int
	row   []string
	line  int
	err   error
}

func newIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return index
}

func (r *record) raw(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r *record) fail(col, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("line %d column %s value %q: %w", r.line, col, value, err)
	}
}

func (r *record) str(col string) string { return r.raw(col) }

func (r *record) optionalStr(col string) *string {
	v := r.raw(col)
	if v == "" {
		return nil
	}
	return &v
}

// id parses a key column. Empty and float-formatted ("12.0") cells are
// accepted; an empty cell yields zero, which the integrity guard drops.
func (r *record) id(col string) int64 {
	v := r.raw(col)
	if v == "" || r.err != nil {
		return 0
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(col, v, err)
		return 0
	}
	return int64(f)
}

func (r *record) integer(col string) int { return int(r.id(col)) }

func (r *record) boolean(col string) bool {
	v := r.raw(col)
	if v == "" || r.err != nil {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(col, v, err)
	}
	return b
}

func (r *record) optionalDate(col string) *time.Time {
	v := r.raw(col)
	if v == "" || r.err != nil {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}
	r.fail(col, v, ErrInvalidDate)
	return nil
}

func (r *record) date(col string) time.Time {
	if t := r.optionalDate(col); t != nil {
		return *t
	}
	return time.Time{}
}

func (r *record) optionalMoney(col string) decimal.NullDecimal {
	v := r.raw(col)
	if v == "" || r.err != nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(col, v, err)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (r *record) money(col string) decimal.Decimal {
	return r.optionalMoney(col).Decimal
}

func decodeCustomer(r *record) portfolio.Customer {
	return portfolio.Customer{
		ID:          r.id("customer_id"),
		Age:         r.integer("age"),
		IncomeBand:  r.str("income_band"),
		Occupation:  r.optionalStr("occupation"),
		City:        r.str("city"),
		Country:     r.str("country"),
		Segment:     portfolio.Segment(r.str("customer_segment")),
		JoinDate:    r.date("join_date"),
		CreditScore: r.integer("credit_score"),
	}
}

func decodeCard(r *record) portfolio.Card {
	return portfolio.Card{
		ID:                r.id("card_id"),
		CustomerID:        r.id("customer_id"),
		CardType:          portfolio.CardType(r.str("card_type")),
		CreditLimit:       r.integer("credit_limit"),
		IssueDate:         r.date("card_issue_date"),
		AnnualFee:         r.integer("annual_fee"),
		RewardProgramType: r.str("reward_program_type"),
	}
}

func decodeTransaction(r *record) portfolio.Transaction {
	return portfolio.Transaction{
		ID:               r.id("transaction_id"),
		CardID:           r.id("card_id"),
		TransactionDate:  r.optionalDate("transaction_date"),
		MerchantCategory: r.str("merchant_category"),
		MerchantType:     portfolio.MerchantType(r.str("merchant_type")),
		Currency:         r.str("currency"),
		Amount:           r.optionalMoney("amount"),
		TransactionType:  portfolio.TransactionType(r.str("transaction_type")),
		MerchantCity:     r.str("merchant_city"),
		MerchantCountry:  r.str("merchant_country"),
		Location:         r.str("location"),
		IsInternational:  r.boolean("is_international"),
	}
}

func decodeFraudFlag(r *record) portfolio.FraudFlag {
	return portfolio.FraudFlag{
		ID:            r.id("fraud_id"),
		TransactionID: r.id("transaction_id"),
		Flag:          r.integer("fraud_flag"),
		FraudType:     portfolio.FraudType(r.str("fraud_type")),
	}
}

func decodePayment(r *record) portfolio.Payment {
	return portfolio.Payment{
		ID:                r.id("payment_id"),
		CardID:            r.id("card_id"),
		PaymentDate:       r.date("payment_date"),
		Amount:            r.money("payment_amount"),
		Method:            r.str("payment_method"),
		DelinquencyStatus: portfolio.DelinquencyStatus(r.str("delinquency_status")),
	}
}

func decodeRedemption(r *record) portfolio.RewardRedemption {
	return portfolio.RewardRedemption{
		ID:         r.id("redemption_id"),
		CardID:     r.id("card_id"),
		Date:       r.date("redemption_date"),
		Type:       portfolio.RedemptionType(r.str("redemption_type")),
		PointsUsed: r.integer("points_used"),
		Value:      r.money("redemption_value"),
	}
}

func decodeCurrency(r *record) portfolio.CurrencyConversion {
	return portfolio.CurrencyConversion{
		Code:      r.str("currency_code"),
		RateToUSD: r.money("conversion_to_usd"),
	}
}
