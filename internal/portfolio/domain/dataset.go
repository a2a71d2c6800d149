package domain

import "time"

const (
	TableCustomers           = "customers"
	TableCards               = "cards"
	TableTransactions        = "transactions"
	TableFraudFlags          = "fraud_flags"
	TablePayments            = "payments"
	TableRewardRedemptions   = "reward_redemptions"
	TableCurrencyConversions = "currency_conversions"
)

// Tables lists every persisted table in load order.
var Tables = []string{
	TableCustomers,
	TableCards,
	TableTransactions,
	TableFraudFlags,
	TablePayments,
	TableRewardRedemptions,
	TableCurrencyConversions,
}

// Dataset is the full relational portfolio held in memory for one stage.
type Dataset struct {
	Customers    []Customer
	Cards        []Card
	Transactions []Transaction
	FraudFlags   []FraudFlag
	Payments     []Payment
	Redemptions  []RewardRedemption
	Currencies   []CurrencyConversion
}

func (d Dataset) RowCounts() map[string]int {
	return map[string]int{
		TableCustomers:           len(d.Customers),
		TableCards:               len(d.Cards),
		TableTransactions:        len(d.Transactions),
		TableFraudFlags:          len(d.FraudFlags),
		TablePayments:            len(d.Payments),
		TableRewardRedemptions:   len(d.Redemptions),
		TableCurrencyConversions: len(d.Currencies),
	}
}

// ReferenceData is the read-only card -> customer -> segment lookup shared by
// every stage that conditions on a card's owner.
type ReferenceData struct {
	customers map[int64]Customer
	cardOwner map[int64]int64
}

func NewReferenceData(customers []Customer, cards []Card) ReferenceData {
	ref := ReferenceData{
		customers: make(map[int64]Customer, len(customers)),
		cardOwner: make(map[int64]int64, len(cards)),
	}
	for _, c := range customers {
		ref.customers[c.ID] = c
	}
	for _, c := range cards {
		ref.cardOwner[c.ID] = c.CustomerID
	}
	return ref
}

func (r ReferenceData) Customer(id int64) (Customer, bool) {
	c, ok := r.customers[id]
	return c, ok
}

func (r ReferenceData) CardOwner(cardID int64) (Customer, bool) {
	customerID, ok := r.cardOwner[cardID]
	if !ok {
		return Customer{}, false
	}
	return r.Customer(customerID)
}

// CardSegment resolves the segment of the customer holding cardID.
func (r ReferenceData) CardSegment(cardID int64) (Segment, bool) {
	c, ok := r.CardOwner(cardID)
	if !ok {
		return "", false
	}
	return c.Segment, true
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
