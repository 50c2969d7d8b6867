package commission

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DeliveryMethod is the partner's invoice delivery preference
type DeliveryMethod string

const (
	DeliveryPDFOnly      DeliveryMethod = "PDF_ONLY"      // render a PDF, no external call
	DeliveryEArchive     DeliveryMethod = "E_ARCHIVE"     // submit to the accounting vendor
	DeliveryManualUpload DeliveryMethod = "MANUAL_UPLOAD" // partner uploads the document
)

// IsValid checks if the delivery method is known
func (m DeliveryMethod) IsValid() bool {
	switch m {
	case DeliveryPDFOnly, DeliveryEArchive, DeliveryManualUpload:
		return true
	}
	return false
}

// String returns the string representation of DeliveryMethod
func (m DeliveryMethod) String() string {
	return string(m)
}

// AccountingStatus tracks the accounting submission of an invoice
type AccountingStatus string

const (
	AccountingNotRequired  AccountingStatus = "NOT_REQUIRED"
	AccountingPending      AccountingStatus = "PENDING"
	AccountingSubmitted    AccountingStatus = "SUBMITTED"
	AccountingManualReview AccountingStatus = "MANUAL_REVIEW"
)

// IsValid checks if the status is known
func (s AccountingStatus) IsValid() bool {
	switch s {
	case AccountingNotRequired, AccountingPending, AccountingSubmitted, AccountingManualReview:
		return true
	}
	return false
}

// IsTerminal returns true when no further automatic submission happens
func (s AccountingStatus) IsTerminal() bool {
	return s != AccountingPending
}

// Invoice is the partner-facing commission document for one order.
//
// Amounts are fixed at creation. Only the external accounting reference, the
// PDF URL and the accounting tracking fields change afterwards.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string               `json:"invoice_number"`
	OrderID         uuid.UUID            `json:"order_id"`
	PartnerID       uuid.UUID            `json:"partner_id"`
	CustomerID      uuid.UUID            `json:"customer_id"`
	OrderAmount     decimal.Decimal      `json:"order_amount"`
	CommissionRate  decimal.Decimal      `json:"commission_rate"`
	ReferralRate    decimal.Decimal      `json:"referral_rate"`
	CommissionGross decimal.Decimal      `json:"commission_gross"`
	ReferralFee     decimal.Decimal      `json:"referral_fee"`
	PaymentFee      decimal.Decimal      `json:"payment_fee"`
	PlatformNet     decimal.Decimal      `json:"platform_net"`
	VATAmount       decimal.Decimal      `json:"vat_amount"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Currency        valueobject.Currency `json:"currency"`
	DeliveryMethod  DeliveryMethod       `json:"delivery_method"`
	IssuedAt        time.Time            `json:"issued_at"`

	ExternalAccountingID *string `json:"external_accounting_id,omitempty"`
	PDFURL               *string `json:"pdf_url,omitempty"`

	AccountingStatus    AccountingStatus `json:"accounting_status"`
	AccountingAttempts  int              `json:"accounting_attempts"`
	LastAccountingError string           `json:"last_accounting_error,omitempty"`
	NextAttemptAt       *time.Time       `json:"next_attempt_at,omitempty"`
	ManualReview        bool             `json:"manual_review"`
	ReviewReason        string           `json:"review_reason,omitempty"`
}

// NewInvoiceParams carries what an invoice is issued from
type NewInvoiceParams struct {
	InvoiceNumber  string
	OrderID        uuid.UUID
	PartnerID      uuid.UUID
	CustomerID     uuid.UUID
	Breakdown      FeeBreakdown
	DeliveryMethod DeliveryMethod
	IssuedAt       time.Time
}

// NewInvoice issues an invoice from a validated fee breakdown.
func NewInvoice(p NewInvoiceParams) (*Invoice, error) {
	if strings.TrimSpace(p.InvoiceNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice number cannot be empty")
	}
	if p.OrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order ID cannot be empty")
	}
	if p.PartnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Partner ID cannot be empty")
	}
	if err := p.Breakdown.Validate(); err != nil {
		return nil, err
	}
	method := p.DeliveryMethod
	if method == "" {
		method = DeliveryPDFOnly
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown delivery method %q", method))
	}
	issuedAt := p.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	status := AccountingNotRequired
	var next *time.Time
	if method == DeliveryEArchive {
		status = AccountingPending
		next = &issuedAt
	}

	b := p.Breakdown
	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     p.InvoiceNumber,
		OrderID:           p.OrderID,
		PartnerID:         p.PartnerID,
		CustomerID:        p.CustomerID,
		OrderAmount:       b.OrderAmount,
		CommissionRate:    b.CommissionRate,
		ReferralRate:      b.ReferralRate,
		CommissionGross:   b.CommissionGross,
		ReferralFee:       b.ReferralFee,
		PaymentFee:        b.PaymentFee,
		PlatformNet:       b.PlatformNet,
		VATAmount:         b.VATOnPlatformNet,
		TotalAmount:       b.InvoiceTotal,
		Currency:          b.Currency,
		DeliveryMethod:    method,
		IssuedAt:          issuedAt,
		AccountingStatus:  status,
		NextAttemptAt:     next,
	}

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))
	return inv, nil
}

// Breakdown reconstructs the fee breakdown the invoice was issued from
func (inv *Invoice) Breakdown() FeeBreakdown {
	return FeeBreakdown{
		OrderAmount:      inv.OrderAmount,
		CommissionRate:   inv.CommissionRate,
		ReferralRate:     inv.ReferralRate,
		CommissionGross:  inv.CommissionGross,
		ReferralFee:      inv.ReferralFee,
		PaymentFee:       inv.PaymentFee,
		PlatformNet:      inv.PlatformNet,
		VATOnPlatformNet: inv.VATAmount,
		InvoiceTotal:     inv.TotalAmount,
		Currency:         inv.Currency,
	}
}

// Total returns the invoice total as Money
func (inv *Invoice) Total() valueobject.Money {
	return valueobject.MustNewMoney(inv.TotalAmount, inv.Currency)
}

// IsOwnedBy reports whether the invoice was issued to partnerID
func (inv *Invoice) IsOwnedBy(partnerID uuid.UUID) bool {
	return partnerID != uuid.Nil && inv.PartnerID == partnerID
}

// HasExternalAccountingID reports whether the vendor already holds this invoice
func (inv *Invoice) HasExternalAccountingID() bool {
	return inv.ExternalAccountingID != nil && *inv.ExternalAccountingID != ""
}

// NeedsAccountingSubmission reports whether a submitter should act on the invoice
func (inv *Invoice) NeedsAccountingSubmission() bool {
	return inv.DeliveryMethod == DeliveryEArchive &&
		inv.AccountingStatus == AccountingPending &&
		!inv.HasExternalAccountingID()
}

// MarkSubmitted records the vendor reference. Setting the same reference again
// is a no-op; a different one is refused.
func (inv *Invoice) MarkSubmitted(externalID string) error {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return shared.NewDomainError("INVALID_INPUT", "External accounting ID cannot be empty")
	}
	if inv.HasExternalAccountingID() {
		if *inv.ExternalAccountingID == externalID {
			return nil
		}
		return &DataIntegrityError{Reason: fmt.Sprintf("invoice %s already has external accounting id %s",
			inv.InvoiceNumber, *inv.ExternalAccountingID)}
	}

	inv.ExternalAccountingID = &externalID
	inv.AccountingStatus = AccountingSubmitted
	inv.NextAttemptAt = nil
	inv.LastAccountingError = ""
	inv.ManualReview = false
	inv.ReviewReason = ""
	inv.Touch()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceAccountingSubmittedEvent(inv))
	return nil
}

// RecordAccountingFailure counts a failed submission attempt. A permanent
// failure, or reaching maxAttempts, moves the invoice to manual review and
// returns true. Totals are never touched.
func (inv *Invoice) RecordAccountingFailure(cause error, permanent bool, maxAttempts int, nextAttemptAt time.Time) bool {
	inv.AccountingAttempts++
	if cause != nil {
		inv.LastAccountingError = truncate(cause.Error(), 500)
	}
	inv.Touch()
	inv.IncrementVersion()

	if permanent || inv.AccountingAttempts >= maxAttempts {
		reason := "accounting submission attempts exhausted"
		if permanent {
			reason = "accounting vendor rejected invoice"
		}
		inv.flagForReview(reason)
		return true
	}

	inv.NextAttemptAt = &nextAttemptAt
	return false
}

// RequestAccountingRetry puts an invoice under manual review back into the
// submission queue with a fresh attempt budget.
func (inv *Invoice) RequestAccountingRetry(now time.Time) error {
	if inv.DeliveryMethod != DeliveryEArchive {
		return shared.NewDomainError("INVALID_STATE", "Only E_ARCHIVE invoices are submitted to accounting")
	}
	if inv.HasExternalAccountingID() {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already registered with the accounting system")
	}
	if inv.AccountingStatus != AccountingManualReview {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot retry accounting submission in %s status", inv.AccountingStatus))
	}

	inv.AccountingStatus = AccountingPending
	inv.AccountingAttempts = 0
	inv.NextAttemptAt = &now
	inv.ManualReview = false
	inv.ReviewReason = ""
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// AttachPDF records where the rendered document lives
func (inv *Invoice) AttachPDF(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return shared.NewDomainError("INVALID_INPUT", "PDF URL cannot be empty")
	}
	inv.PDFURL = &url
	inv.Touch()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoicePDFAttachedEvent(inv))
	return nil
}

func (inv *Invoice) flagForReview(reason string) {
	inv.AccountingStatus = AccountingManualReview
	inv.ManualReview = true
	inv.ReviewReason = reason
	inv.NextAttemptAt = nil
	inv.AddDomainEvent(NewInvoiceManualReviewRequiredEvent(inv))
}

// truncate caps s at n bytes without splitting a multi-byte rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
