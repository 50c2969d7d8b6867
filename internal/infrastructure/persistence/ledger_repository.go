package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerRepository implements commission.LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByOrderID returns an order's entries ordered by level
func (r *GormLedgerRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]commission.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("level ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]commission.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// ApplyEntries inserts each planned entry with ON CONFLICT (order_id, level)
// DO NOTHING. A skipped row is compared with what is stored: an identical row
// was written by an earlier run, a different one is a *LedgerConflictError.
func (r *GormLedgerRepository) ApplyEntries(ctx context.Context, planned []commission.LedgerEntry) (int, error) {
	inserted := 0
	for _, entry := range planned {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_id"}, {Name: "level"}},
				DoNothing: true,
			}).
			Create(models.LedgerEntryModelFromDomain(entry))
		if result.Error != nil {
			return inserted, fmt.Errorf("failed to insert ledger entry level %d: %w", entry.Level, result.Error)
		}
		if result.RowsAffected == 1 {
			inserted++
			continue
		}

		existing, err := r.findByOrderAndLevel(ctx, entry.OrderID, entry.Level)
		if err != nil {
			return inserted, err
		}
		if err := commission.ReconcileEntry(existing, entry); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

func (r *GormLedgerRepository) findByOrderAndLevel(ctx context.Context, orderID uuid.UUID, level int) (commission.LedgerEntry, error) {
	var row models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND level = ?", orderID, level).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return commission.LedgerEntry{}, fmt.Errorf("ledger entry level %d was neither inserted nor found", level)
	}
	if err != nil {
		return commission.LedgerEntry{}, err
	}
	return row.ToDomain(), nil
}

var _ commission.LedgerRepository = (*GormLedgerRepository)(nil)
