package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrDuplicateKey = errors.New("duplicate_key")

// WriteError is a failed bulk write into one sink table.
type WriteError struct {
	Table     string
	Duplicate bool
	Err       error
}

func (e *WriteError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("write %s: duplicate key: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("write %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() []error {
	if e.Duplicate {
		return []error{ErrDuplicateKey, e.Err}
	}
	return []error{e.Err}
}

// WrapWriteErr tags err with the table it was writing; nil stays nil.
func WrapWriteErr(table string, err error) error {
	if err == nil {
		return nil
	}
	return &WriteError{Table: table, Duplicate: IsDuplicateKeyErr(err), Err: err}
}

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"): // postgres text, e.g. from COPY
		return true
	case strings.Contains(msg, "Error 1062"): // mysql
		return true
	case strings.Contains(msg, "UNIQUE constraint failed"): // sqlite 2067
		return true
	}
	return false
}
