package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smallbiznis/cardsynth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestDialect(t *testing.T) {
	cases := []struct {
		typ  string
		want string
	}{
		{typ: "postgres", want: "postgres"},
		{typ: "MySQL", want: "mysql"},
		{typ: "sqlite", want: "sqlite"},
	}
	for _, tc := range cases {
		d, err := Dialect(Config{Type: tc.typ, Path: t.TempDir() + "/x.db"})
		require.NoError(t, err, tc.typ)
		assert.Equal(t, tc.want, d.Name())
	}

	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(config.Config{
		DBType:            "postgres",
		DBHost:            "db",
		DBPort:            "5432",
		DBName:            "cardsynth",
		DBUser:            "u",
		DBPassword:        "p",
		DBSSLMode:         "disable",
		DBConnMaxLifetime: 300,
	})
	assert.Equal(t, "postgres://u:p@db:5432/cardsynth?sslmode=disable", cfg.PostgresDSN())
	assert.Equal(t, float64(300), cfg.ConnMaxLifetime.Seconds())
}

func TestOpenSQLite(t *testing.T) {
	conn, err := Open(sqlite.Open("file::memory:"), Config{Name: "test", MaxOpenConn: 1}, zap.NewNop())
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: export_runs.id")))
	assert.False(t, IsDuplicateKeyErr(errors.New("no such table")))
}

func TestWrapWriteErr(t *testing.T) {
	assert.NoError(t, WrapWriteErr("cards", nil))

	dup := WrapWriteErr("cards", errors.New("UNIQUE constraint failed: cards.id"))
	var writeErr *WriteError
	require.ErrorAs(t, dup, &writeErr)
	assert.Equal(t, "cards", writeErr.Table)
	assert.True(t, writeErr.Duplicate)
	assert.ErrorIs(t, dup, ErrDuplicateKey)
	assert.True(t, IsDuplicateKeyErr(dup))
	assert.Equal(t, "write cards: duplicate key: UNIQUE constraint failed: cards.id", dup.Error())

	pgErr := &pgconn.PgError{Code: "23503"}
	other := WrapWriteErr("payments", pgErr)
	assert.NotErrorIs(t, other, ErrDuplicateKey)
	var gotPg *pgconn.PgError
	assert.ErrorAs(t, other, &gotPg)
	assert.Contains(t, other.Error(), "write payments: ")
}
