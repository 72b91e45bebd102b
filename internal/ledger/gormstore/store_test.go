package gormstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/ledgertest"
)

// sqlite has no row locks; a single connection serialises the writers instead,
// which keeps the concurrent consume case meaningful.
func TestStoreContract_SQLite(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
			TranslateError: true,
		})
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.SetMaxOpenConns(1)

		s := New(db, zap.NewNop().Sugar())
		require.NoError(t, s.Migrate(context.Background()))
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}

// Set APP_TEST_POSTGRES_DSN or APP_TEST_MYSQL_DSN to run against a real database.
func TestStoreContract(t *testing.T) {
	cases := []struct {
		name string
		env  string
		open func(dsn string) gorm.Dialector
	}{
		{name: "postgres", env: "APP_TEST_POSTGRES_DSN", open: postgres.Open},
		{name: "mysql", env: "APP_TEST_MYSQL_DSN", open: mysql.Open},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn := os.Getenv(tc.env)
			if dsn == "" {
				t.Skipf("%s not set", tc.env)
			}
			db, err := gorm.Open(tc.open(dsn), &gorm.Config{
				Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
				TranslateError: true,
			})
			require.NoError(t, err)
			s := New(db, zap.NewNop().Sugar())
			require.NoError(t, s.Migrate(context.Background()))
			t.Cleanup(func() { _ = s.Close(context.Background()) })

			ledgertest.Run(t, func(*testing.T) ledger.Store { return s })
		})
	}
}

func TestPatchColumns_OnlyPresentFields(t *testing.T) {
	type row struct {
		ID     string  `gorm:"column:id" patch:"-"`
		Status *string `gorm:"column:status"`
		Amount *int64  `gorm:"column:amount"`
	}
	status := "paid"
	now := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	cols := patchColumns(&row{ID: "x", Status: &status}, now)
	require.Equal(t, map[string]any{"status": &status, "updated_at": now}, cols)
}
