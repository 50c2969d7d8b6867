package commission

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error categories. Every typed error below matches exactly one of them via errors.Is.
var (
	// ErrConfiguration blocks order completion: money would be computed from bad rates.
	ErrConfiguration = errors.New("commission configuration error")
	// ErrDataIntegrity fails invoicing for one order and routes it to the review queue.
	ErrDataIntegrity = errors.New("commission data integrity error")
	// ErrExternalIntegration is never fatal; it degrades to manual review.
	ErrExternalIntegration = errors.New("external integration error")
)

// Request-level errors for the read APIs
var (
	ErrInvoiceNotFound    = shared.NewDomainError("NOT_FOUND", "Invoice not found")
	ErrReviewCaseNotFound = shared.NewDomainError("NOT_FOUND", "Review case not found")
	ErrAccessDenied       = shared.NewDomainError("FORBIDDEN", "Invoice belongs to another partner")
)

// ConfigurationError reports an invalid rate table or input rate.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// Is matches ErrConfiguration
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// NegativeNetError is returned when referral and payment fees exceed the gross commission.
type NegativeNetError struct {
	CommissionGross decimal.Decimal
	ReferralFee     decimal.Decimal
	PaymentFee      decimal.Decimal
}

func (e *NegativeNetError) Error() string {
	return fmt.Sprintf("platform net would be negative: gross %s - referral %s - payment %s",
		e.CommissionGross.StringFixed(2), e.ReferralFee.StringFixed(2), e.PaymentFee.StringFixed(2))
}

// Is matches ErrConfiguration
func (e *NegativeNetError) Is(target error) bool {
	return target == ErrConfiguration
}

// ReferralCycleError is returned when the referredBy pointers loop back on themselves.
type ReferralCycleError struct {
	StartUserID    uuid.UUID
	RepeatedUserID uuid.UUID
	Hops           int
}

func (e *ReferralCycleError) Error() string {
	return fmt.Sprintf("referral cycle detected from user %s: user %s revisited after %d hops",
		e.StartUserID, e.RepeatedUserID, e.Hops)
}

// Is matches ErrDataIntegrity
func (e *ReferralCycleError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// LedgerConflictError is returned when a stored ledger row disagrees with the recomputed one.
type LedgerConflictError struct {
	OrderID               uuid.UUID
	Level                 int
	ExistingBeneficiary   uuid.UUID
	RecomputedBeneficiary uuid.UUID
	ExistingAmount        decimal.Decimal
	RecomputedAmount      decimal.Decimal
}

func (e *LedgerConflictError) Error() string {
	return fmt.Sprintf("ledger conflict for order %s level %d: stored %s to %s, recomputed %s to %s",
		e.OrderID, e.Level,
		e.ExistingAmount.StringFixed(2), e.ExistingBeneficiary,
		e.RecomputedAmount.StringFixed(2), e.RecomputedBeneficiary)
}

// Is matches ErrDataIntegrity
func (e *LedgerConflictError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// DataIntegrityError covers integrity failures without a dedicated type,
// such as an order already invoiced to a different partner.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return "data integrity error: " + e.Reason
}

// Is matches ErrDataIntegrity
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// IntegrationError wraps a failure talking to the accounting vendor.
type IntegrationError struct {
	Op         string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *IntegrationError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failure (status %d): %v", e.Op, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failure: %v", e.Op, kind, e.Err)
}

// Unwrap returns the underlying cause
func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// Is matches ErrExternalIntegration
func (e *IntegrationError) Is(target error) bool {
	return target == ErrExternalIntegration
}

// NewTransientError builds a retryable integration error.
func NewTransientError(op string, status int, err error) *IntegrationError {
	return &IntegrationError{Op: op, StatusCode: status, Transient: true, Err: err}
}

// NewPermanentError builds a non-retryable integration error.
func NewPermanentError(op string, status int, err error) *IntegrationError {
	return &IntegrationError{Op: op, StatusCode: status, Transient: false, Err: err}
}

// IsTransient reports whether err is worth retrying. Unclassified errors are
// treated as transient so that a bare network failure still gets its retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Transient
	}
	return true
}

// ErrorCategory names the category of err for review cases and metrics.
func ErrorCategory(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "CONFIGURATION"
	case errors.Is(err, ErrDataIntegrity):
		return "DATA_INTEGRITY"
	case errors.Is(err, ErrExternalIntegration):
		return "EXTERNAL_INTEGRATION"
	default:
		return "UNKNOWN"
	}
}

// ErrDuplicateInvoice is returned by InvoiceRepository.Create when the order
// already has an invoice, typically from a concurrent duplicate completion.
var ErrDuplicateInvoice = errors.New("invoice already exists for order")
