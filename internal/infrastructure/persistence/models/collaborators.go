package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/shopspring/decimal"
)

// UserModel is the slice of the user service's table the referral chain reads
type UserModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ReferredByUserID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// BillingProfileModel is owned by the billing profile service
type BillingProfileModel struct {
	PartnerID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title                 string    `gorm:"type:varchar(200)"`
	BillingType           string    `gorm:"type:varchar(20);not null"`
	InvoiceDeliveryMethod string    `gorm:"type:varchar(20);not null"`
	TaxNumber             string    `gorm:"type:varchar(20)"`
	TaxOffice             string    `gorm:"type:varchar(100)"`
	AddressLine           string    `gorm:"type:varchar(300)"`
	City                  string    `gorm:"type:varchar(100)"`
	Country               string    `gorm:"type:varchar(2)"`
}

// TableName returns the table name for GORM
func (BillingProfileModel) TableName() string {
	return "billing_profiles"
}

// ToDomain converts the row to a domain BillingProfile
func (m *BillingProfileModel) ToDomain() *commission.BillingProfile {
	return &commission.BillingProfile{
		PartnerID:      m.PartnerID,
		Title:          m.Title,
		BillingType:    commission.BillingType(m.BillingType),
		DeliveryMethod: commission.DeliveryMethod(m.InvoiceDeliveryMethod),
		TaxNumber:      m.TaxNumber,
		TaxOffice:      m.TaxOffice,
		Address: commission.BillingAddress{
			Line:    m.AddressLine,
			City:    m.City,
			Country: m.Country,
		},
	}
}

// NetworkGMVSnapshotModel is written by the analytics job. The newest row per
// user is current.
type NetworkGMVSnapshotModel struct {
	ID         uint            `gorm:"primaryKey"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_gmv_user_computed,priority:1"`
	NetworkGMV decimal.Decimal `gorm:"column:network_gmv;type:decimal(18,2);not null"`
	ComputedAt time.Time       `gorm:"not null;index:idx_gmv_user_computed,priority:2"`
}

// TableName returns the table name for GORM
func (NetworkGMVSnapshotModel) TableName() string {
	return "network_gmv_snapshots"
}
