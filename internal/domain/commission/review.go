package commission

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
)

// ReviewCategory groups review cases by failure kind
type ReviewCategory string

const (
	ReviewDataIntegrity       ReviewCategory = "DATA_INTEGRITY"
	ReviewExternalIntegration ReviewCategory = "EXTERNAL_INTEGRATION"
)

// IsValid checks if the category is known
func (c ReviewCategory) IsValid() bool {
	return c == ReviewDataIntegrity || c == ReviewExternalIntegration
}

// ReviewStatus is the operator workflow state of a review case
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING_REVIEW"
	ReviewResolved ReviewStatus = "RESOLVED"
)

// IsValid checks if the status is known
func (s ReviewStatus) IsValid() bool {
	return s == ReviewPending || s == ReviewResolved
}

// ReviewCase is an entry in the operator queue for an order whose invoicing
// failed with a data integrity error, or whose accounting submission gave up.
type ReviewCase struct {
	shared.BaseAggregateRoot
	OrderID        uuid.UUID      `json:"order_id"`
	PartnerID      uuid.UUID      `json:"partner_id"`
	InvoiceID      *uuid.UUID     `json:"invoice_id,omitempty"`
	Category       ReviewCategory `json:"category"`
	Status         ReviewStatus   `json:"status"`
	Reason         string         `json:"reason"`
	Payload        string         `json:"payload,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID     `json:"resolved_by,omitempty"`
	ResolutionNote string         `json:"resolution_note,omitempty"`
}

// NewReviewCase opens a pending case. payload is a JSON snapshot of the input
// that failed, kept for the operator.
func NewReviewCase(orderID, partnerID uuid.UUID, invoiceID *uuid.UUID, category ReviewCategory, reason, payload string) (*ReviewCase, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown review category")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Review reason cannot be empty")
	}

	rc := &ReviewCase{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		PartnerID:         partnerID,
		InvoiceID:         invoiceID,
		Category:          category,
		Status:            ReviewPending,
		Reason:            truncate(reason, 1000),
		Payload:           payload,
	}
	rc.AddDomainEvent(NewReviewCaseOpenedEvent(rc))
	return rc, nil
}

// Resolve closes the case
func (rc *ReviewCase) Resolve(resolvedBy uuid.UUID, note string) error {
	if rc.Status == ReviewResolved {
		return shared.NewDomainError("INVALID_STATE", "Review case is already resolved")
	}
	if resolvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Resolving user ID is required")
	}
	now := time.Now().UTC()
	rc.Status = ReviewResolved
	rc.ResolvedAt = &now
	rc.ResolvedBy = &resolvedBy
	rc.ResolutionNote = strings.TrimSpace(note)
	rc.UpdatedAt = now
	rc.IncrementVersion()
	return nil
}
