package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReviewCaseRepository implements commission.ReviewCaseRepository using GORM
type GormReviewCaseRepository struct {
	db *gorm.DB
}

// NewGormReviewCaseRepository creates a new GormReviewCaseRepository
func NewGormReviewCaseRepository(db *gorm.DB) *GormReviewCaseRepository {
	return &GormReviewCaseRepository{db: db}
}

// FindByID returns nil, nil when the case does not exist
func (r *GormReviewCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.ReviewCase, error) {
	var model models.ReviewCaseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists cases oldest first so the queue is worked in arrival order
func (r *GormReviewCaseRepository) FindAll(ctx context.Context, filter commission.ReviewCaseFilter) ([]commission.ReviewCase, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReviewCaseModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := clampPageSize(filter.PageSize)
	var rows []models.ReviewCaseModel
	if err := query.
		Order("created_at ASC").
		Offset(shared.Offset(filter.Page, pageSize)).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	cases := make([]commission.ReviewCase, len(rows))
	for i := range rows {
		cases[i] = *rows[i].ToDomain()
	}
	return cases, total, nil
}

// HasOpenCase reports whether a pending case exists for the order and category
func (r *GormReviewCaseRepository) HasOpenCase(ctx context.Context, orderID uuid.UUID, category commission.ReviewCategory) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReviewCaseModel{}).
		Where("order_id = ? AND category = ? AND status = ?", orderID, category, commission.ReviewPending).
		Count(&count).Error
	return count > 0, err
}

// Save inserts the case or updates its workflow columns
func (r *GormReviewCaseRepository) Save(ctx context.Context, rc *commission.ReviewCase) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "resolved_at", "resolved_by", "resolution_note", "version", "updated_at"}),
		}).
		Create(models.ReviewCaseModelFromDomain(rc)).Error
}

var _ commission.ReviewCaseRepository = (*GormReviewCaseRepository)(nil)
