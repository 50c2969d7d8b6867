//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/migration"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "github.com/lib/pq"
)

// setupPostgres starts a throwaway postgres, applies the embedded migrations
// and returns a gorm handle configured like production.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("commission_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrateDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.NewFromFS(migrateDB, migrations.FS, ".", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestPostgres_InvoiceAndLedgerRoundTrip(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	issuedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	invoices := NewGormInvoiceRepository(db)
	ledger := NewGormLedgerRepository(db)
	scope := NewGormTransactionScope(db)

	inv := newTestInvoice(t, commission.DeliveryEArchive, issuedAt)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, scope.Execute(ctx, func(repos commissionapp.TransactionalRepositories) error {
		if _, err := repos.LedgerRepo().ApplyEntries(ctx, plannedEntries(t, inv.OrderID, a, b)); err != nil {
			return err
		}
		return repos.InvoiceRepo().Create(ctx, inv)
	}))

	got, err := invoices.FindByOrderID(ctx, inv.OrderID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.True(t, inv.TotalAmount.Equal(got.TotalAmount))

	due, err := invoices.FindDueForAccounting(ctx, issuedAt.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	second := newTestInvoice(t, commission.DeliveryPDFOnly, issuedAt)
	second.OrderID = inv.OrderID
	err = invoices.Create(ctx, second)
	assert.ErrorIs(t, err, commission.ErrDuplicateInvoice)

	_, err = ledger.ApplyEntries(ctx, plannedEntries(t, inv.OrderID, uuid.New(), b))
	var conflict *commission.LedgerConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, 1, conflict.Level)
	assert.Equal(t, a, conflict.ExistingBeneficiary)

	stored, err := ledger.FindByOrderID(ctx, inv.OrderID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestPostgres_RollbackLeavesNoRows(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	inv := newTestInvoice(t, commission.DeliveryPDFOnly, time.Now().UTC())
	boom := errors.New("boom")

	err := NewGormTransactionScope(db).Execute(ctx, func(repos commissionapp.TransactionalRepositories) error {
		if _, err := repos.LedgerRepo().ApplyEntries(ctx, plannedEntries(t, inv.OrderID, uuid.New())); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := NewGormLedgerRepository(db).FindByOrderID(ctx, inv.OrderID)
	require.NoError(t, err)
	assert.Empty(t, stored)
	got, err := NewGormInvoiceRepository(db).FindByOrderID(ctx, inv.OrderID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
