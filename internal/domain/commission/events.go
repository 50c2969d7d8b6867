package commission

import (
	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type names used in events
const (
	AggregateTypeInvoice    = "CommissionInvoice"
	AggregateTypeReviewCase = "CommissionReviewCase"
)

// Event type names
const (
	EventTypeInvoiceIssued              = "CommissionInvoiceIssued"
	EventTypeInvoiceAccountingSubmitted = "CommissionInvoiceAccountingSubmitted"
	EventTypeInvoiceManualReview        = "CommissionInvoiceManualReviewRequired"
	EventTypeInvoicePDFAttached         = "CommissionInvoicePDFAttached"
	EventTypeReviewCaseOpened           = "CommissionReviewCaseOpened"
)

// InvoiceIssuedEvent is raised when an invoice is created for a completed order
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	OrderID        uuid.UUID       `json:"order_id"`
	PartnerID      uuid.UUID       `json:"partner_id"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ReferralFee    decimal.Decimal `json:"referral_fee"`
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		OrderID:         inv.OrderID,
		PartnerID:       inv.PartnerID,
		DeliveryMethod:  inv.DeliveryMethod,
		TotalAmount:     inv.TotalAmount,
		ReferralFee:     inv.ReferralFee,
	}
}

// InvoiceAccountingSubmittedEvent is raised when the vendor accepted the invoice
type InvoiceAccountingSubmittedEvent struct {
	shared.BaseDomainEvent
	InvoiceID            uuid.UUID `json:"invoice_id"`
	ExternalAccountingID string    `json:"external_accounting_id"`
	Attempts             int       `json:"attempts"`
}

// NewInvoiceAccountingSubmittedEvent creates a new InvoiceAccountingSubmittedEvent
func NewInvoiceAccountingSubmittedEvent(inv *Invoice) *InvoiceAccountingSubmittedEvent {
	var ext string
	if inv.ExternalAccountingID != nil {
		ext = *inv.ExternalAccountingID
	}
	return &InvoiceAccountingSubmittedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeInvoiceAccountingSubmitted, AggregateTypeInvoice, inv.ID),
		InvoiceID:            inv.ID,
		ExternalAccountingID: ext,
		Attempts:             inv.AccountingAttempts,
	}
}

// InvoiceManualReviewRequiredEvent is raised when accounting submission gave up
type InvoiceManualReviewRequiredEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	OrderID   uuid.UUID `json:"order_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Reason    string    `json:"reason"`
	LastError string    `json:"last_error"`
	Attempts  int       `json:"attempts"`
}

// NewInvoiceManualReviewRequiredEvent creates a new InvoiceManualReviewRequiredEvent
func NewInvoiceManualReviewRequiredEvent(inv *Invoice) *InvoiceManualReviewRequiredEvent {
	return &InvoiceManualReviewRequiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceManualReview, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		OrderID:         inv.OrderID,
		PartnerID:       inv.PartnerID,
		Reason:          inv.ReviewReason,
		LastError:       inv.LastAccountingError,
		Attempts:        inv.AccountingAttempts,
	}
}

// InvoicePDFAttachedEvent is raised when the rendered PDF is available
type InvoicePDFAttachedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	PDFURL    string    `json:"pdf_url"`
}

// NewInvoicePDFAttachedEvent creates a new InvoicePDFAttachedEvent
func NewInvoicePDFAttachedEvent(inv *Invoice) *InvoicePDFAttachedEvent {
	var url string
	if inv.PDFURL != nil {
		url = *inv.PDFURL
	}
	return &InvoicePDFAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePDFAttached, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		PDFURL:          url,
	}
}

// ReviewCaseOpenedEvent is raised when an order lands in the operator queue
type ReviewCaseOpenedEvent struct {
	shared.BaseDomainEvent
	CaseID   uuid.UUID      `json:"case_id"`
	OrderID  uuid.UUID      `json:"order_id"`
	Category ReviewCategory `json:"category"`
	Reason   string         `json:"reason"`
}

// NewReviewCaseOpenedEvent creates a new ReviewCaseOpenedEvent
func NewReviewCaseOpenedEvent(rc *ReviewCase) *ReviewCaseOpenedEvent {
	return &ReviewCaseOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewCaseOpened, AggregateTypeReviewCase, rc.ID),
		CaseID:          rc.ID,
		OrderID:         rc.OrderID,
		Category:        rc.Category,
		Reason:          rc.Reason,
	}
}
