package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrIntegrity = errors.New("integrity_violation")

// IntegrityReport counts every referential or structural defect found in a
// dataset. A zero report means the dataset is safe to persist.
type IntegrityReport struct {
	OrphanCards        int            `json:"orphan_cards"`
	OrphanTransactions int            `json:"orphan_transactions"`
	OrphanFraudFlags   int            `json:"orphan_fraud_flags"`
	OrphanPayments     int            `json:"orphan_payments"`
	OrphanRedemptions  int            `json:"orphan_redemptions"`
	DuplicateIDs       map[string]int `json:"duplicate_ids,omitempty"`
	FraudIDGaps        int            `json:"fraud_id_gaps"`
	CurrencyMismatches int            `json:"currency_mismatches"`
	NegativeAmounts    int            `json:"negative_amounts"`
}

func (r IntegrityReport) OK() bool {
	return r.OrphanCards == 0 &&
		r.OrphanTransactions == 0 &&
		r.OrphanFraudFlags == 0 &&
		r.OrphanPayments == 0 &&
		r.OrphanRedemptions == 0 &&
		len(r.DuplicateIDs) == 0 &&
		r.FraudIDGaps == 0 &&
		r.CurrencyMismatches == 0 &&
		r.NegativeAmounts == 0
}

// Err returns nil for a clean report, otherwise ErrIntegrity with the
// non-zero counters attached.
func (r IntegrityReport) Err() error {
	if r.OK() {
		return nil
	}
	var parts []string
	add := func(name string, n int) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
		}
	}
	add("orphan_cards", r.OrphanCards)
	add("orphan_transactions", r.OrphanTransactions)
	add("orphan_fraud_flags", r.OrphanFraudFlags)
	add("orphan_payments", r.OrphanPayments)
	add("orphan_redemptions", r.OrphanRedemptions)
	tables := make([]string, 0, len(r.DuplicateIDs))
	for table := range r.DuplicateIDs {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		add("duplicate_"+table, r.DuplicateIDs[table])
	}
	add("fraud_id_gaps", r.FraudIDGaps)
	add("currency_mismatches", r.CurrencyMismatches)
	add("negative_amounts", r.NegativeAmounts)
	return fmt.Errorf("%w: %s", ErrIntegrity, strings.Join(parts, " "))
}

func CheckIntegrity(d Dataset) IntegrityReport {
	report := IntegrityReport{DuplicateIDs: map[string]int{}}

	customerIDs := make(map[int64]struct{}, len(d.Customers))
	for _, c := range d.Customers {
		customerIDs[c.ID] = struct{}{}
	}
	cardIDs := make(map[int64]struct{}, len(d.Cards))
	for _, c := range d.Cards {
		cardIDs[c.ID] = struct{}{}
		if _, ok := customerIDs[c.CustomerID]; !ok {
			report.OrphanCards++
		}
	}
	txnIDs := make(map[int64]struct{}, len(d.Transactions))
	for _, t := range d.Transactions {
		txnIDs[t.ID] = struct{}{}
		if _, ok := cardIDs[t.CardID]; !ok {
			report.OrphanTransactions++
		}
		if currency, ok := CurrencyFor(t.MerchantCountry); !ok || currency != t.Currency {
			report.CurrencyMismatches++
		}
		if t.Amount.Valid && t.Amount.Decimal.IsNegative() {
			report.NegativeAmounts++
		}
	}
	for i, f := range d.FraudFlags {
		if _, ok := txnIDs[f.TransactionID]; !ok {
			report.OrphanFraudFlags++
		}
		if f.ID != int64(i+1) {
			report.FraudIDGaps++
		}
	}
	for _, p := range d.Payments {
		if _, ok := cardIDs[p.CardID]; !ok {
			report.OrphanPayments++
		}
		if p.Amount.IsNegative() {
			report.NegativeAmounts++
		}
	}
	for _, r := range d.Redemptions {
		if _, ok := cardIDs[r.CardID]; !ok {
			report.OrphanRedemptions++
		}
	}

	countDuplicates(report.DuplicateIDs, TableCustomers, d.Customers, func(c Customer) int64 { return c.ID })
	countDuplicates(report.DuplicateIDs, TableCards, d.Cards, func(c Card) int64 { return c.ID })
	countDuplicates(report.DuplicateIDs, TableTransactions, d.Transactions, func(t Transaction) int64 { return t.ID })
	countDuplicates(report.DuplicateIDs, TableFraudFlags, d.FraudFlags, func(f FraudFlag) int64 { return f.ID })
	countDuplicates(report.DuplicateIDs, TablePayments, d.Payments, func(p Payment) int64 { return p.ID })
	countDuplicates(report.DuplicateIDs, TableRewardRedemptions, d.Redemptions, func(r RewardRedemption) int64 { return r.ID })
	if len(report.DuplicateIDs) == 0 {
		report.DuplicateIDs = nil
	}

	return report
}

func countDuplicates[T any](out map[string]int, table string, rows []T, id func(T) int64) {
	seen := make(map[int64]struct{}, len(rows))
	dup := 0
	for _, row := range rows {
		key := id(row)
		if _, ok := seen[key]; ok {
			dup++
			continue
		}
		seen[key] = struct{}{}
	}
	if dup > 0 {
		out[table] = dup
	}
}
