package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceFilter defines filtering options for invoice listing
type InvoiceFilter struct {
	PartnerID        *uuid.UUID
	AccountingStatus *AccountingStatus
	Page             int
	PageSize         int
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	// FindByID returns nil, nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByOrderID returns nil, nil when the order has no invoice yet
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	// FindAll lists invoices newest first
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)
	// FindDueForAccounting lists PENDING invoices whose next attempt is at or before now
	FindDueForAccounting(ctx context.Context, now time.Time, limit int) ([]Invoice, error)
	// Create inserts a new invoice. A duplicate order ID fails with ErrDuplicateInvoice.
	Create(ctx context.Context, inv *Invoice) error
	// UpdateMutableFields writes only the external accounting reference, the PDF URL
	// and the accounting tracking columns.
	UpdateMutableFields(ctx context.Context, inv *Invoice) error
}

// LedgerRepository persists distribution ledger entries
type LedgerRepository interface {
	// FindByOrderID returns the entries of an order ordered by level
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]LedgerEntry, error)
	// ApplyEntries inserts planned entries, skipping rows an earlier run already
	// wrote with identical content. A differing stored row fails with *LedgerConflictError.
	ApplyEntries(ctx context.Context, planned []LedgerEntry) (inserted int, err error)
}

// ReviewCaseFilter defines filtering options for the review queue
type ReviewCaseFilter struct {
	Status   *ReviewStatus
	Category *ReviewCategory
	Page     int
	PageSize int
}

// ReviewCaseRepository persists the operator review queue
type ReviewCaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReviewCase, error)
	FindAll(ctx context.Context, filter ReviewCaseFilter) ([]ReviewCase, int64, error)
	// HasOpenCase reports whether a pending case already exists for the order and category
	HasOpenCase(ctx context.Context, orderID uuid.UUID, category ReviewCategory) (bool, error)
	Save(ctx context.Context, rc *ReviewCase) error
}
