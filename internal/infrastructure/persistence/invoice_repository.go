package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GormInvoiceRepository implements commission.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Invoice, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByOrderID finds the invoice issued for an order
func (r *GormInvoiceRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*commission.Invoice, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *GormInvoiceRepository) findOne(ctx context.Context, query string, arg any) (*commission.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices newest first
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter commission.InvoiceFilter) ([]commission.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.AccountingStatus != nil {
		query = query.Where("accounting_status = ?", *filter.AccountingStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := clampPageSize(filter.PageSize)
	var rows []models.InvoiceModel
	if err := query.
		Order("issued_at DESC").
		Order("id DESC").
		Offset(shared.Offset(filter.Page, pageSize)).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]commission.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, total, nil
}

// FindDueForAccounting lists PENDING invoices whose next attempt is due, oldest first
func (r *GormInvoiceRepository) FindDueForAccounting(ctx context.Context, now time.Time, limit int) ([]commission.Invoice, error) {
	if limit <= 0 {
		limit = maxPageSize
	}
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("accounting_status = ?", commission.AccountingPending).
		Where("next_attempt_at IS NOT NULL AND next_attempt_at <= ?", now).
		Where("external_accounting_id IS NULL").
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]commission.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// Create inserts a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *commission.Invoice) error {
	if err := r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(inv)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: order %s", commission.ErrDuplicateInvoice, inv.OrderID)
		}
		return err
	}
	return nil
}

// UpdateMutableFields writes the accounting reference, the PDF URL and the
// accounting tracking columns. Amounts are never part of the update.
func (r *GormInvoiceRepository) UpdateMutableFields(ctx context.Context, inv *commission.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", inv.ID).
		Select(models.InvoiceMutableColumns).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

var _ commission.InvoiceRepository = (*GormInvoiceRepository)(nil)
