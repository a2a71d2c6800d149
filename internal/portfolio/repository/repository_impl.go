package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/pkg/db"
	"github.com/smallbiznis/cardsynth/pkg/db/pagination"
	"gorm.io/gorm"
)

// Rows per INSERT; keeps the widest table under SQLite's variable limit.
const insertBatchSize = 500

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// models in parent-first order.
func models() []any {
	return []any{
		&domain.Customer{},
		&domain.Card{},
		&domain.Transaction{},
		&domain.FraudFlag{},
		&domain.Payment{},
		&domain.RewardRedemption{},
		&domain.CurrencyConversion{},
	}
}

func (r *repo) ReplaceAll(ctx context.Context, conn *gorm.DB, d domain.Dataset) error {
	if conn.Dialector.Name() == db.TypePostgres {
		return copyAll(ctx, conn, d)
	}

	// DDL first: MySQL commits implicitly on schema changes.
	if err := migrateMissing(conn.WithContext(ctx), models()...); err != nil {
		return err
	}

	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := models()
		for i := len(all) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", all[i], err)
			}
		}

		if err := insert(tx, domain.TableCustomers, d.Customers); err != nil {
			return err
		}
		if err := insert(tx, domain.TableCards, d.Cards); err != nil {
			return err
		}
		if err := insert(tx, domain.TableTransactions, d.Transactions); err != nil {
			return err
		}
		if err := insert(tx, domain.TableFraudFlags, d.FraudFlags); err != nil {
			return err
		}
		if err := insert(tx, domain.TablePayments, d.Payments); err != nil {
			return err
		}
		if err := insert(tx, domain.TableRewardRedemptions, d.Redemptions); err != nil {
			return err
		}
		return insert(tx, domain.TableCurrencyConversions, d.Currencies)
	})
}

func insert[T any](tx *gorm.DB, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WrapWriteErr(table, tx.CreateInBatches(&rows, insertBatchSize).Error)
}

// migrateMissing creates only the tables that do not exist yet. Existing
// tables are left alone so a re-export never rewrites their DDL.
func migrateMissing(conn *gorm.DB, models ...any) error {
	var missing []any
	for _, m := range models {
		if !conn.Migrator().HasTable(m) {
			missing = append(missing, m)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err := conn.AutoMigrate(missing...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (r *repo) CountRows(ctx context.Context, conn *gorm.DB) (map[string]int64, error) {
	counts := make(map[string]int64, len(domain.Tables))
	for _, table := range domain.Tables {
		var n int64
		if err := conn.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (r *repo) EnsureExportRuns(ctx context.Context, conn *gorm.DB) error {
	if conn.Dialector.Name() == db.TypePostgres {
		return nil
	}
	return migrateMissing(conn.WithContext(ctx), &domain.ExportRun{})
}

func (r *repo) InsertExportRun(ctx context.Context, conn *gorm.DB, run *domain.ExportRun) error {
	return conn.WithContext(ctx).Create(run).Error
}

func (r *repo) FinishExportRun(ctx context.Context, conn *gorm.DB, run *domain.ExportRun) error {
	return conn.WithContext(ctx).
		Model(&domain.ExportRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":      run.Status,
			"row_counts":  run.RowCounts,
			"error":       run.Error,
			"finished_at": run.FinishedAt,
		}).Error
}

// ListExportRuns returns up to Limit()+1 runs, newest first, so the caller
// can tell whether another page exists.
func (r *repo) ListExportRuns(ctx context.Context, conn *gorm.DB, page pagination.Pagination) ([]*domain.ExportRun, error) {
	stmt := conn.WithContext(ctx).Model(&domain.ExportRun{})
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid page token: %w", err)
		}
		stmt = stmt.Where("id < ?", id)
	}

	var runs []*domain.ExportRun
	err := stmt.
		Order("id desc").
		Limit(page.Limit() + 1).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
