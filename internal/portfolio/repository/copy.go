package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/pkg/db"
	"gorm.io/gorm"
)

// copyTable is one COPY FROM target: the column order matches the migration.
type copyTable struct {
	name    string
	columns []string
	rows    [][]any
}

// copyAll loads d with COPY inside one pgx transaction on a dedicated
// connection. Tables are truncated first, children cascading.
func copyAll(ctx context.Context, conn *gorm.DB, d domain.Dataset) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	c, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer c.Close()

	return c.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return errors.New("postgres connection is not backed by pgx")
		}
		return copyInTx(ctx, sc.Conn(), d)
	})
}

func copyInTx(ctx context.Context, pg *pgx.Conn, d domain.Dataset) (err error) {
	tx, err := pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `TRUNCATE customers, cards, transactions, fraud_flags, payments, reward_redemptions, currency_conversions CASCADE`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	for _, t := range copyTables(d) {
		if len(t.rows) == 0 {
			continue
		}
		n, copyErr := tx.CopyFrom(ctx, pgx.Identifier{t.name}, t.columns, pgx.CopyFromRows(t.rows))
		if copyErr != nil {
			err = db.WrapWriteErr(t.name, copyErr)
			return err
		}
		if n != int64(len(t.rows)) {
			err = fmt.Errorf("copy %s: wrote %d of %d rows", t.name, n, len(t.rows))
			return err
		}
	}

	return tx.Commit(ctx)
}

func copyTables(d domain.Dataset) []copyTable {
	customers := make([][]any, 0, len(d.Customers))
	for _, c := range d.Customers {
		customers = append(customers, []any{
			c.ID, c.Age, c.IncomeBand, text(c.Occupation), c.City, c.Country,
			string(c.Segment), date(c.JoinDate), c.CreditScore,
		})
	}

	cards := make([][]any, 0, len(d.Cards))
	for _, c := range d.Cards {
		cards = append(cards, []any{
			c.ID, c.CustomerID, string(c.CardType), c.CreditLimit, date(c.IssueDate),
			c.AnnualFee, c.RewardProgramType,
		})
	}

	txns := make([][]any, 0, len(d.Transactions))
	for _, t := range d.Transactions {
		txns = append(txns, []any{
			t.ID, t.CardID, nullDate(t.TransactionDate), t.MerchantCategory, string(t.MerchantType),
			t.Currency, nullNumeric(t.Amount), string(t.TransactionType), t.MerchantCity,
			t.MerchantCountry, t.Location, t.IsInternational,
		})
	}

	flags := make([][]any, 0, len(d.FraudFlags))
	for _, f := range d.FraudFlags {
		flags = append(flags, []any{f.ID, f.TransactionID, f.Flag, string(f.FraudType)})
	}

	payments := make([][]any, 0, len(d.Payments))
	for _, p := range d.Payments {
		payments = append(payments, []any{
			p.ID, p.CardID, date(p.PaymentDate), numeric(p.Amount), p.Method,
			string(p.DelinquencyStatus),
		})
	}

	redemptions := make([][]any, 0, len(d.Redemptions))
	for _, r := range d.Redemptions {
		redemptions = append(redemptions, []any{
			r.ID, r.CardID, date(r.Date), string(r.Type), r.PointsUsed, numeric(r.Value),
		})
	}

	currencies := make([][]any, 0, len(d.Currencies))
	for _, c := range d.Currencies {
		currencies = append(currencies, []any{c.Code, numeric(c.RateToUSD)})
	}

	return []copyTable{
		{name: domain.TableCustomers, columns: []string{"customer_id", "age", "income_band", "occupation", "city", "country", "customer_segment", "join_date", "credit_score"}, rows: customers},
		{name: domain.TableCards, columns: []string{"card_id", "customer_id", "card_type", "credit_limit", "card_issue_date", "annual_fee", "reward_program_type"}, rows: cards},
		{name: domain.TableTransactions, columns: []string{"transaction_id", "card_id", "transaction_date", "merchant_category", "merchant_type", "currency", "amount", "transaction_type", "merchant_city", "merchant_country", "location", "is_international"}, rows: txns},
		{name: domain.TableFraudFlags, columns: []string{"fraud_id", "transaction_id", "fraud_flag", "fraud_type"}, rows: flags},
		{name: domain.TablePayments, columns: []string{"payment_id", "card_id", "payment_date", "payment_amount", "payment_method", "delinquency_status"}, rows: payments},
		{name: domain.TableRewardRedemptions, columns: []string{"redemption_id", "card_id", "redemption_date", "redemption_type", "points_used", "redemption_value"}, rows: redemptions},
		{name: domain.TableCurrencyConversions, columns: []string{"currency_code", "conversion_to_usd"}, rows: currencies},
	}
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func nullNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return numeric(d.Decimal)
}

func date(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

func nullDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return date(*t)
}

func text(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

