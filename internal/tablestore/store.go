// Package tablestore persists a portfolio dataset as one CSV file per table.
package tablestore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"go.uber.org/zap"
)

var (
	ErrTableMissing = errors.New("table_missing")
	ErrInvalidDate  = errors.New("invalid_date")
	ErrUnknownTable = errors.New("unknown_table")
)

// AdjustedTables are the tables the adjuster rewrites in place.
var AdjustedTables = []string{
	portfolio.TableCards,
	portfolio.TableTransactions,
	portfolio.TablePayments,
	portfolio.TableFraudFlags,
	portfolio.TableRewardRedemptions,
}

type Store struct {
	dir string
	log *zap.Logger
}

func New(dir string, log *zap.Logger) *Store {
	return &Store{dir: dir, log: log.Named("tablestore")}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(table string) string {
	return filepath.Join(s.dir, table+".csv")
}

// Save writes the named tables, or all seven when none are named. Each file
// is written to a temp file in the same directory and renamed into place.
func (s *Store) Save(ctx context.Context, d portfolio.Dataset, tables ...string) error {
	if len(tables) == 0 {
		tables = portfolio.Tables
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch table {
		case portfolio.TableCustomers:
			err = writeTable(s.path(table), customerColumns, d.Customers, encodeCustomer)
		case portfolio.TableCards:
			err = writeTable(s.path(table), cardColumns, d.Cards, encodeCard)
		case portfolio.TableTransactions:
			err = writeTable(s.path(table), transactionColumns, d.Transactions, encodeTransaction)
		case portfolio.TableFraudFlags:
			err = writeTable(s.path(table), fraudColumns, d.FraudFlags, encodeFraudFlag)
		case portfolio.TablePayments:
			err = writeTable(s.path(table), paymentColumns, d.Payments, encodePayment)
		case portfolio.TableRewardRedemptions:
			err = writeTable(s.path(table), redemptionColumns, d.Redemptions, encodeRedemption)
		case portfolio.TableCurrencyConversions:
			err = writeTable(s.path(table), currencyColumns, d.Currencies, encodeCurrency)
		default:
			err = ErrUnknownTable
		}
		if err != nil {
			return fmt.Errorf("save %s: %w", table, err)
		}
		s.log.Debug("table saved", zap.String("table", table), zap.String("path", s.path(table)))
	}
	return nil
}

// Load reads all seven tables. A missing currency table is tolerated since
// it is static reference data; any other missing file is ErrTableMissing.
func (s *Store) Load(ctx context.Context) (portfolio.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return portfolio.Dataset{}, err
	}

	var (
		d   portfolio.Dataset
		err error
	)
	if d.Customers, err = readTable(s.path(portfolio.TableCustomers), decodeCustomer); err != nil {
		return portfolio.Dataset{}, fmt.Errorf("load %s: %w", portfolio.TableCustomers, err)
	}
	if d.Cards, err = readTable(s.path(portfolio.TableCards), decodeCard); err != nil {
		return portfolio.Dataset{}, fmt.Errorf("load %s: %w", portfolio.TableCards, err)
	}
	if d.Transactions, err = readTable(s.path(portfolio.TableTransactions), decodeTransaction); err != nil {
		return portfolio.Dataset{}, fmt.Errorf("load %s: %w", portfolio.TableTransactions, err)
	}
	if d.FraudFlags, err = readTable(s.path(portfolio.TableFraudFlags), decodeFraudFlag); err != nil {
		return portfolio.Dataset{}, fmt.Errorf("load %s: %w", portfolio.TableFraudFlags, err)
	}
	if d.Payments, err = readTable(s.path(portfolio.TablePayments), decodePayment); err != nil {
		return portfolio.Dataset{}, fmt.Errorf("load %s: %w", portfolio.TablePayments, err)
	}
	if d.Redemptions, err = readTable(s.path(portfolio.TableRewardRedemptions), decodeRedemption); err != nil {
		return portfolio.Dataset{}, fmt.Errorf("load %s: %w", portfolio.TableRewardRedemptions, err)
	}

	d.Currencies, err = readTable(s.path(portfolio.TableCurrencyConversions), decodeCurrency)
	switch {
	case errors.Is(err, ErrTableMissing):
		s.log.Warn("currency table missing, using built-in rates", zap.String("dir", s.dir))
		d.Currencies = portfolio.CurrencyConversions()
	case err != nil:
		return portfolio.Dataset{}, fmt.Errorf("load %s: %w", portfolio.TableCurrencyConversions, err)
	}

	s.log.Debug("dataset loaded", zap.String("dir", s.dir), zap.Any("rows", d.RowCounts()))
	return d, nil
}

func writeTable[T any](path string, header []string, rows []T, encode func(T) []string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err = w.Write(encode(row)); err != nil {
			return err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readTable[T any](path string, decode func(*record) T) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTableMissing, path)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	rec := &record{index: newIndex(header), line: 1}
	var rows []T
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec.line++
		rec.row = row
		v := decode(rec)
		if rec.err != nil {
			return nil, rec.err
		}
		rows = append(rows, v)
	}
	return rows, nil
}
