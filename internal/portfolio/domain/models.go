package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Segment string

const (
	SegmentLowValue         Segment = "Low Value"
	SegmentMassMarket       Segment = "Mass Market"
	SegmentEmergingAffluent Segment = "Emerging Affluent"
)

type CardType string

const (
	CardTypeBasic    CardType = "Basic"
	CardTypeGold     CardType = "Gold"
	CardTypePlatinum CardType = "Platinum"
)

type MerchantType string

const (
	MerchantTypeOnline  MerchantType = "Online"
	MerchantTypeOffline MerchantType = "Offline"
)

type TransactionType string

const (
	TransactionTypePurchase    TransactionType = "Purchase"
	TransactionTypeCashAdvance TransactionType = "Cash Advance"
)

type FraudType string

const (
	FraudTypeCardNotPresent FraudType = "Card Not Present"
	FraudTypeSkimming       FraudType = "Skimming"
)

// FraudTypeFor derives the fraud type from the transaction channel.
func FraudTypeFor(mt MerchantType) FraudType {
	if mt == MerchantTypeOnline {
		return FraudTypeCardNotPresent
	}
	return FraudTypeSkimming
}

type DelinquencyStatus string

const (
	DelinquencyCurrent DelinquencyStatus = "Current"
	Delinquency30DPD   DelinquencyStatus = "30DPD"
)

type RedemptionType string

const (
	RedemptionFlights   RedemptionType = "Flights"
	RedemptionCashback  RedemptionType = "Cashback"
	RedemptionGiftCards RedemptionType = "Gift Cards"
)

type Customer struct {
	ID          int64     `gorm:"column:customer_id;primaryKey;autoIncrement:false" json:"customer_id"`
	Age         int       `gorm:"not null" json:"age"`
	IncomeBand  string    `gorm:"not null" json:"income_band"`
	Occupation  *string   `json:"occupation"`
	City        string    `gorm:"not null" json:"city"`
	Country     string    `gorm:"not null" json:"country"`
	Segment     Segment   `gorm:"column:customer_segment;not null" json:"customer_segment"`
	JoinDate    time.Time `gorm:"type:date;not null" json:"join_date"`
	CreditScore int       `gorm:"not null" json:"credit_score"`
}

func (Customer) TableName() string { return "customers" }

type Card struct {
	ID                int64     `gorm:"column:card_id;primaryKey;autoIncrement:false" json:"card_id"`
	CustomerID        int64     `gorm:"not null;index" json:"customer_id"`
	CardType          CardType  `gorm:"not null" json:"card_type"`
	CreditLimit       int       `gorm:"not null" json:"credit_limit"`
	IssueDate         time.Time `gorm:"column:card_issue_date;type:date;not null" json:"card_issue_date"`
	AnnualFee         int       `gorm:"not null" json:"annual_fee"`
	RewardProgramType string    `gorm:"not null" json:"reward_program_type"`
}

func (Card) TableName() string { return "cards" }

type Transaction struct {
	ID               int64               `gorm:"column:transaction_id;primaryKey;autoIncrement:false" json:"transaction_id"`
	CardID           int64               `gorm:"not null;index" json:"card_id"`
	TransactionDate  *time.Time          `gorm:"type:date" json:"transaction_date"`
	MerchantCategory string              `gorm:"not null" json:"merchant_category"`
	MerchantType     MerchantType        `gorm:"not null" json:"merchant_type"`
	Currency         string              `gorm:"not null" json:"currency"`
	Amount           decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"amount"`
	TransactionType  TransactionType     `gorm:"not null" json:"transaction_type"`
	MerchantCity     string              `gorm:"not null" json:"merchant_city"`
	MerchantCountry  string              `gorm:"not null" json:"merchant_country"`
	Location         string              `gorm:"not null" json:"location"`
	IsInternational  bool                `gorm:"not null" json:"is_international"`
}

func (Transaction) TableName() string { return "transactions" }

func (t Transaction) IsOnline() bool {
	return t.MerchantType == MerchantTypeOnline
}

type FraudFlag struct {
	ID            int64     `gorm:"column:fraud_id;primaryKey;autoIncrement:false" json:"fraud_id"`
	TransactionID int64     `gorm:"not null;index" json:"transaction_id"`
	Flag          int       `gorm:"column:fraud_flag;not null" json:"fraud_flag"`
	FraudType     FraudType `gorm:"not null" json:"fraud_type"`
}

func (FraudFlag) TableName() string { return "fraud_flags" }

type Payment struct {
	ID                int64             `gorm:"column:payment_id;primaryKey;autoIncrement:false" json:"payment_id"`
	CardID            int64             `gorm:"not null;index" json:"card_id"`
	PaymentDate       time.Time         `gorm:"type:date;not null" json:"payment_date"`
	Amount            decimal.Decimal   `gorm:"column:payment_amount;type:numeric(14,2);not null" json:"payment_amount"`
	Method            string            `gorm:"column:payment_method;not null" json:"payment_method"`
	DelinquencyStatus DelinquencyStatus `json:"delinquency_status,omitempty"`
}

func (Payment) TableName() string { return "payments" }

type RewardRedemption struct {
	ID         int64           `gorm:"column:redemption_id;primaryKey;autoIncrement:false" json:"redemption_id"`
	CardID     int64           `gorm:"not null;index" json:"card_id"`
	Date       time.Time       `gorm:"column:redemption_date;type:date;not null" json:"redemption_date"`
	Type       RedemptionType  `gorm:"column:redemption_type;not null" json:"redemption_type"`
	PointsUsed int             `gorm:"not null" json:"points_used"`
	Value      decimal.Decimal `gorm:"column:redemption_value;type:numeric(14,4);not null" json:"redemption_value"`
}

func (RewardRedemption) TableName() string { return "reward_redemptions" }

type CurrencyConversion struct {
	Code      string          `gorm:"column:currency_code;primaryKey" json:"currency_code"`
	RateToUSD decimal.Decimal `gorm:"column:conversion_to_usd;type:numeric(10,4);not null" json:"conversion_to_usd"`
}

func (CurrencyConversion) TableName() string { return "currency_conversions" }
