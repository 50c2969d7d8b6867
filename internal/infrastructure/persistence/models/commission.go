package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the commission Invoice aggregate.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber   string                    `gorm:"type:varchar(40);not null;uniqueIndex"`
	OrderID         uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex"`
	PartnerID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID                 `gorm:"type:uuid;not null"`
	OrderAmount     decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	CommissionRate  decimal.Decimal           `gorm:"type:decimal(9,6);not null"`
	ReferralRate    decimal.Decimal           `gorm:"type:decimal(9,6);not null"`
	CommissionGross decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	ReferralFee     decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	PaymentFee      decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	PlatformNet     decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	VATAmount       decimal.Decimal           `gorm:"column:vat_amount;type:decimal(18,2);not null"`
	TotalAmount     decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Currency        string                    `gorm:"type:varchar(3);not null"`
	DeliveryMethod  commission.DeliveryMethod `gorm:"type:varchar(20);not null"`
	IssuedAt        time.Time                 `gorm:"not null;index"`

	ExternalAccountingID *string `gorm:"type:varchar(100)"`
	PDFURL               *string `gorm:"column:pdf_url;type:text"`

	AccountingStatus    commission.AccountingStatus `gorm:"type:varchar(20);not null;index:idx_commission_invoices_due,priority:1"`
	AccountingAttempts  int                         `gorm:"not null;default:0"`
	LastAccountingError string                      `gorm:"type:varchar(500)"`
	NextAttemptAt       *time.Time                  `gorm:"index:idx_commission_invoices_due,priority:2"`
	ManualReview        bool                        `gorm:"not null;default:false"`
	ReviewReason        string                      `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "commission_invoices"
}

// InvoiceMutableColumns are the only columns written after an invoice is created
var InvoiceMutableColumns = []string{
	"external_accounting_id",
	"pdf_url",
	"accounting_status",
	"accounting_attempts",
	"last_accounting_error",
	"next_attempt_at",
	"manual_review",
	"review_reason",
	"version",
	"updated_at",
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *commission.Invoice {
	return &commission.Invoice{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		InvoiceNumber:        m.InvoiceNumber,
		OrderID:              m.OrderID,
		PartnerID:            m.PartnerID,
		CustomerID:           m.CustomerID,
		OrderAmount:          m.OrderAmount,
		CommissionRate:       m.CommissionRate,
		ReferralRate:         m.ReferralRate,
		CommissionGross:      m.CommissionGross,
		ReferralFee:          m.ReferralFee,
		PaymentFee:           m.PaymentFee,
		PlatformNet:          m.PlatformNet,
		VATAmount:            m.VATAmount,
		TotalAmount:          m.TotalAmount,
		Currency:             valueobject.Currency(m.Currency),
		DeliveryMethod:       m.DeliveryMethod,
		IssuedAt:             m.IssuedAt,
		ExternalAccountingID: m.ExternalAccountingID,
		PDFURL:               m.PDFURL,
		AccountingStatus:     m.AccountingStatus,
		AccountingAttempts:   m.AccountingAttempts,
		LastAccountingError:  m.LastAccountingError,
		NextAttemptAt:        m.NextAttemptAt,
		ManualReview:         m.ManualReview,
		ReviewReason:         m.ReviewReason,
	}
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *commission.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.OrderID = inv.OrderID
	m.PartnerID = inv.PartnerID
	m.CustomerID = inv.CustomerID
	m.OrderAmount = inv.OrderAmount
	m.CommissionRate = inv.CommissionRate
	m.ReferralRate = inv.ReferralRate
	m.CommissionGross = inv.CommissionGross
	m.ReferralFee = inv.ReferralFee
	m.PaymentFee = inv.PaymentFee
	m.PlatformNet = inv.PlatformNet
	m.VATAmount = inv.VATAmount
	m.TotalAmount = inv.TotalAmount
	m.Currency = string(inv.Currency)
	m.DeliveryMethod = inv.DeliveryMethod
	m.IssuedAt = inv.IssuedAt
	m.ExternalAccountingID = inv.ExternalAccountingID
	m.PDFURL = inv.PDFURL
	m.AccountingStatus = inv.AccountingStatus
	m.AccountingAttempts = inv.AccountingAttempts
	m.LastAccountingError = inv.LastAccountingError
	m.NextAttemptAt = inv.NextAttemptAt
	m.ManualReview = inv.ManualReview
	m.ReviewReason = inv.ReviewReason
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *commission.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// LedgerEntryModel is one row of the distribution ledger. (order_id, level)
// is unique so a re-run cannot pay a level twice.
type LedgerEntryModel struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_order_level,priority:1"`
	Level             int                 `gorm:"not null;uniqueIndex:idx_ledger_order_level,priority:2"`
	BeneficiaryUserID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	RateApplied       decimal.Decimal     `gorm:"type:decimal(9,6);not null"`
	RankBonusApplied  decimal.Decimal     `gorm:"type:decimal(9,6);not null"`
	RankTier          commission.RankTier `gorm:"type:varchar(30);not null"`
	CreatedAt         time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "distribution_ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() commission.LedgerEntry {
	return commission.LedgerEntry{
		ID:                m.ID,
		OrderID:           m.OrderID,
		BeneficiaryUserID: m.BeneficiaryUserID,
		Level:             m.Level,
		Amount:            m.Amount,
		RateApplied:       m.RateApplied,
		RankBonusApplied:  m.RankBonusApplied,
		RankTier:          m.RankTier,
		CreatedAt:         m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e commission.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:                e.ID,
		OrderID:           e.OrderID,
		Level:             e.Level,
		BeneficiaryUserID: e.BeneficiaryUserID,
		Amount:            e.Amount,
		RateApplied:       e.RateApplied,
		RankBonusApplied:  e.RankBonusApplied,
		RankTier:          e.RankTier,
		CreatedAt:         e.CreatedAt,
	}
}

// ReviewCaseModel is the persistence model for the operator review queue
type ReviewCaseModel struct {
	AggregateModel
	OrderID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	PartnerID      uuid.UUID                 `gorm:"type:uuid;not null"`
	InvoiceID      *uuid.UUID                `gorm:"type:uuid"`
	Category       commission.ReviewCategory `gorm:"type:varchar(30);not null"`
	Status         commission.ReviewStatus   `gorm:"type:varchar(20);not null;index"`
	Reason         string                    `gorm:"type:varchar(1000);not null"`
	Payload        string                    `gorm:"type:text"`
	ResolvedAt     *time.Time
	ResolvedBy     *uuid.UUID `gorm:"type:uuid"`
	ResolutionNote string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReviewCaseModel) TableName() string {
	return "commission_review_cases"
}

// ToDomain converts the persistence model to a domain ReviewCase
func (m *ReviewCaseModel) ToDomain() *commission.ReviewCase {
	return &commission.ReviewCase{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderID:           m.OrderID,
		PartnerID:         m.PartnerID,
		InvoiceID:         m.InvoiceID,
		Category:          m.Category,
		Status:            m.Status,
		Reason:            m.Reason,
		Payload:           m.Payload,
		ResolvedAt:        m.ResolvedAt,
		ResolvedBy:        m.ResolvedBy,
		ResolutionNote:    m.ResolutionNote,
	}
}

// ReviewCaseModelFromDomain creates a persistence model from a domain ReviewCase
func ReviewCaseModelFromDomain(rc *commission.ReviewCase) *ReviewCaseModel {
	m := &ReviewCaseModel{
		OrderID:        rc.OrderID,
		PartnerID:      rc.PartnerID,
		InvoiceID:      rc.InvoiceID,
		Category:       rc.Category,
		Status:         rc.Status,
		Reason:         rc.Reason,
		Payload:        rc.Payload,
		ResolvedAt:     rc.ResolvedAt,
		ResolvedBy:     rc.ResolvedBy,
		ResolutionNote: rc.ResolutionNote,
	}
	m.FromDomainAggregateRoot(rc.BaseAggregateRoot)
	return m
}
