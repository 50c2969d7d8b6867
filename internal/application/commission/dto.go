package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Caller identity
// =============================================================================

// Actor is the authenticated caller of a read or admin operation
type Actor struct {
	UserID    uuid.UUID
	PartnerID uuid.UUID
	IsAdmin   bool
}

// CanView reports whether the actor may read inv
func (a Actor) CanView(inv *commission.Invoice) bool {
	return a.IsAdmin || inv.IsOwnedBy(a.PartnerID)
}

// =============================================================================
// Order completion
// =============================================================================

// OrderCompletedCommand is the order-completed notification from the order service
type OrderCompletedCommand struct {
	OrderID        uuid.UUID        `json:"order_id" binding:"required"`
	PartnerID      uuid.UUID        `json:"partner_id" binding:"required"`
	CustomerID     uuid.UUID        `json:"customer_id" binding:"required"`
	OrderAmount    decimal.Decimal  `json:"order_amount" binding:"required"`
	CommissionRate decimal.Decimal  `json:"commission_rate" binding:"required"`
	ReferralRate   *decimal.Decimal `json:"referral_rate"`
	CompletedAt    time.Time        `json:"completed_at"`
}

// OrderCompletionResult is returned by CompleteOrder
type OrderCompletionResult struct {
	Invoice InvoiceDTO `json:"invoice"`
	// LedgerEntriesWritten counts rows inserted by this call
	LedgerEntriesWritten int `json:"ledger_entries_written"`
	// Replayed is true when the order had already been invoiced
	Replayed bool `json:"replayed"`
}

// =============================================================================
// Invoices
// =============================================================================

// InvoiceDTO is the API representation of an invoice
type InvoiceDTO struct {
	ID                   uuid.UUID       `json:"id"`
	InvoiceNumber        string          `json:"invoice_number"`
	OrderID              uuid.UUID       `json:"order_id"`
	PartnerID            uuid.UUID       `json:"partner_id"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	OrderAmount          decimal.Decimal `json:"order_amount"`
	CommissionRate       decimal.Decimal `json:"commission_rate"`
	ReferralRate         decimal.Decimal `json:"referral_rate"`
	CommissionGross      decimal.Decimal `json:"commission_gross"`
	ReferralFee          decimal.Decimal `json:"referral_fee"`
	PaymentFee           decimal.Decimal `json:"payment_fee"`
	PlatformNet          decimal.Decimal `json:"platform_net"`
	VATAmount            decimal.Decimal `json:"vat_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Currency             string          `json:"currency"`
	DeliveryMethod       string          `json:"delivery_method"`
	IssuedAt             time.Time       `json:"issued_at"`
	ExternalAccountingID *string         `json:"external_accounting_id"`
	PDFURL               *string         `json:"pdf_url"`
	AccountingStatus     string          `json:"accounting_status"`
	AccountingAttempts   int             `json:"accounting_attempts"`
	LastAccountingError  string          `json:"last_accounting_error,omitempty"`
	ManualReview         bool            `json:"manual_review"`
	ReviewReason         string          `json:"review_reason,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Version              int             `json:"version"`
}

// ToInvoiceDTO converts a domain invoice
func ToInvoiceDTO(inv *commission.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:                   inv.ID,
		InvoiceNumber:        inv.InvoiceNumber,
		OrderID:              inv.OrderID,
		PartnerID:            inv.PartnerID,
		CustomerID:           inv.CustomerID,
		OrderAmount:          inv.OrderAmount,
		CommissionRate:       inv.CommissionRate,
		ReferralRate:         inv.ReferralRate,
		CommissionGross:      inv.CommissionGross,
		ReferralFee:          inv.ReferralFee,
		PaymentFee:           inv.PaymentFee,
		PlatformNet:          inv.PlatformNet,
		VATAmount:            inv.VATAmount,
		TotalAmount:          inv.TotalAmount,
		Currency:             string(inv.Currency),
		DeliveryMethod:       inv.DeliveryMethod.String(),
		IssuedAt:             inv.IssuedAt,
		ExternalAccountingID: inv.ExternalAccountingID,
		PDFURL:               inv.PDFURL,
		AccountingStatus:     string(inv.AccountingStatus),
		AccountingAttempts:   inv.AccountingAttempts,
		LastAccountingError:  inv.LastAccountingError,
		ManualReview:         inv.ManualReview,
		ReviewReason:         inv.ReviewReason,
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
		Version:              inv.Version,
	}
}

// InvoiceListFilter is the query of the invoice list endpoint
type InvoiceListFilter struct {
	PartnerID        string `form:"partner_id" binding:"omitempty,uuid"`
	AccountingStatus string `form:"accounting_status" binding:"omitempty,oneof=NOT_REQUIRED PENDING SUBMITTED MANUAL_REVIEW"`
	Page             int    `form:"page" binding:"omitempty,min=1"`
	PageSize         int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// InvoiceListResponse is one page of invoices
type InvoiceListResponse = shared.Paginated[InvoiceDTO]

// AttachPDFRequest is sent by the renderer once the PDF is uploaded
type AttachPDFRequest struct {
	StorageKey string `json:"storage_key" binding:"required,max=512"`
}

// =============================================================================
// Ledger
// =============================================================================

// LedgerEntryDTO is one distribution ledger row
type LedgerEntryDTO struct {
	ID                uuid.UUID       `json:"id"`
	BeneficiaryUserID uuid.UUID       `json:"beneficiary_user_id"`
	Level             int             `json:"level"`
	Amount            decimal.Decimal `json:"amount"`
	RateApplied       decimal.Decimal `json:"rate_applied"`
	RankBonusApplied  decimal.Decimal `json:"rank_bonus_applied"`
	RankTier          string          `json:"rank_tier"`
	CreatedAt         time.Time       `json:"created_at"`
}

// OrderLedgerResponse lists the payouts of one order and what the platform kept
type OrderLedgerResponse struct {
	OrderID     uuid.UUID        `json:"order_id"`
	InvoiceID   *uuid.UUID       `json:"invoice_id,omitempty"`
	ReferralFee *decimal.Decimal `json:"referral_fee,omitempty"`
	Distributed decimal.Decimal  `json:"distributed"`
	// Remainder is derived, never stored. It is omitted when the order has no invoice.
	Remainder *decimal.Decimal `json:"remainder,omitempty"`
	Entries   []LedgerEntryDTO `json:"entries"`
}

// ToLedgerEntryDTOs converts ledger entries
func ToLedgerEntryDTOs(entries []commission.LedgerEntry) []LedgerEntryDTO {
	out := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryDTO{
			ID:                e.ID,
			BeneficiaryUserID: e.BeneficiaryUserID,
			Level:             e.Level,
			Amount:            e.Amount,
			RateApplied:       e.RateApplied,
			RankBonusApplied:  e.RankBonusApplied,
			RankTier:          e.RankTier.String(),
			CreatedAt:         e.CreatedAt,
		})
	}
	return out
}

// =============================================================================
// Review queue
// =============================================================================

// ReviewCaseDTO is the API representation of a review case
type ReviewCaseDTO struct {
	ID             uuid.UUID  `json:"id"`
	OrderID        uuid.UUID  `json:"order_id"`
	PartnerID      uuid.UUID  `json:"partner_id"`
	InvoiceID      *uuid.UUID `json:"invoice_id,omitempty"`
	Category       string     `json:"category"`
	Status         string     `json:"status"`
	Reason         string     `json:"reason"`
	Payload        string     `json:"payload,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID `json:"resolved_by,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToReviewCaseDTO converts a review case
func ToReviewCaseDTO(rc *commission.ReviewCase) ReviewCaseDTO {
	return ReviewCaseDTO{
		ID:             rc.ID,
		OrderID:        rc.OrderID,
		PartnerID:      rc.PartnerID,
		InvoiceID:      rc.InvoiceID,
		Category:       string(rc.Category),
		Status:         string(rc.Status),
		Reason:         rc.Reason,
		Payload:        rc.Payload,
		ResolvedAt:     rc.ResolvedAt,
		ResolvedBy:     rc.ResolvedBy,
		ResolutionNote: rc.ResolutionNote,
		CreatedAt:      rc.CreatedAt,
	}
}

// ReviewCaseListFilter is the query of the review queue endpoint
type ReviewCaseListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING_REVIEW RESOLVED"`
	Category string `form:"category" binding:"omitempty,oneof=DATA_INTEGRITY EXTERNAL_INTEGRATION"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ResolveReviewCaseRequest closes a review case
type ResolveReviewCaseRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
