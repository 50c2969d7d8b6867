package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with the commission schema.
// A single connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.InvoiceModel{},
		&models.LedgerEntryModel{},
		&models.ReviewCaseModel{},
		&models.UserModel{},
		&models.BillingProfileModel{},
		&models.NetworkGMVSnapshotModel{},
	))
	return db
}

func newTestInvoice(t *testing.T, method commission.DeliveryMethod, issuedAt time.Time) *commission.Invoice {
	t.Helper()
	breakdown, err := commission.NewFeeCalculator(commission.DefaultRateConfig()).ComputeBreakdown(
		decimal.RequireFromString("1000.00"),
		decimal.RequireFromString("0.12"),
		decimal.RequireFromString("0.40"),
	)
	require.NoError(t, err)

	inv, err := commission.NewInvoice(commission.NewInvoiceParams{
		InvoiceNumber:  "INV-" + uuid.NewString()[:12],
		OrderID:        uuid.New(),
		PartnerID:      uuid.New(),
		CustomerID:     uuid.New(),
		Breakdown:      breakdown,
		DeliveryMethod: method,
		IssuedAt:       issuedAt,
	})
	require.NoError(t, err)
	return inv
}
