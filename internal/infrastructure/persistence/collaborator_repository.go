package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The repositories below read tables owned by other services and never write.

// GormReferralGraph reads users.referred_by_user_id
type GormReferralGraph struct {
	db *gorm.DB
}

// NewGormReferralGraph creates a new GormReferralGraph
func NewGormReferralGraph(db *gorm.DB) *GormReferralGraph {
	return &GormReferralGraph{db: db}
}

// ReferrerOf returns the user who referred userID
func (g *GormReferralGraph) ReferrerOf(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	var user models.UserModel
	err := g.db.WithContext(ctx).
		Select("id", "referred_by_user_id").
		First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	if user.ReferredByUserID == nil || *user.ReferredByUserID == uuid.Nil {
		return uuid.Nil, false, nil
	}
	return *user.ReferredByUserID, true, nil
}

// GormNetworkGMVSource reads the newest network GMV snapshot of a user
type GormNetworkGMVSource struct {
	db *gorm.DB
}

// NewGormNetworkGMVSource creates a new GormNetworkGMVSource
func NewGormNetworkGMVSource(db *gorm.DB) *GormNetworkGMVSource {
	return &GormNetworkGMVSource{db: db}
}

// NetworkGMV returns zero for users without a snapshot
func (s *GormNetworkGMVSource) NetworkGMV(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var snapshot models.NetworkGMVSnapshotModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("computed_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return snapshot.NetworkGMV, nil
}

// GormBillingProfileReader reads partner billing profiles
type GormBillingProfileReader struct {
	db *gorm.DB
}

// NewGormBillingProfileReader creates a new GormBillingProfileReader
func NewGormBillingProfileReader(db *gorm.DB) *GormBillingProfileReader {
	return &GormBillingProfileReader{db: db}
}

// FindByPartnerID returns nil, nil when the partner has no profile
func (r *GormBillingProfileReader) FindByPartnerID(ctx context.Context, partnerID uuid.UUID) (*commission.BillingProfile, error) {
	var model models.BillingProfileModel
	if err := r.db.WithContext(ctx).First(&model, "partner_id = ?", partnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ commission.ReferralGraph        = (*GormReferralGraph)(nil)
	_ commission.NetworkGMVSource     = (*GormNetworkGMVSource)(nil)
	_ commission.BillingProfileReader = (*GormBillingProfileReader)(nil)
)
