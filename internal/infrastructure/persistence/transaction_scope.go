package persistence

import (
	"context"

	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"gorm.io/gorm"
)

// GormTransactionScope runs the ledger and invoice writes of one order
// completion in a single database transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a transaction, rolling back if it returns an error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos commissionapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LedgerRepo returns the ledger repository bound to the transaction.
func (r *gormTransactionalRepositories) LedgerRepo() commission.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// InvoiceRepo returns the invoice repository bound to the transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() commission.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

var (
	_ commissionapp.TransactionScope          = (*GormTransactionScope)(nil)
	_ commissionapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
