package dto

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeForbidden, NormalizeErrorCode("FORBIDDEN"))
	assert.Equal(t, ErrCodeConflict, NormalizeErrorCode(ErrCodeConflict))
	assert.Equal(t, "CUSTOM", NormalizeErrorCode("CUSTOM"))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		status  int
		message string
	}{
		{
			name:    "domain not found",
			err:     commission.ErrInvoiceNotFound,
			code:    ErrCodeNotFound,
			status:  http.StatusNotFound,
			message: "Invoice not found",
		},
		{
			name:   "wrapped access denied",
			err:    fmt.Errorf("get invoice: %w", commission.ErrAccessDenied),
			code:   ErrCodeForbidden,
			status: http.StatusForbidden,
		},
		{
			name:   "invalid input",
			err:    shared.NewDomainError("INVALID_INPUT", "Order amount must be positive"),
			code:   ErrCodeInvalidInput,
			status: http.StatusBadRequest,
		},
		{
			name:   "configuration",
			err:    &commission.ConfigurationError{Reason: "level rates sum above 1"},
			code:   ErrCodeBusinessRule,
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "negative net is a configuration error",
			err: &commission.NegativeNetError{
				CommissionGross: decimal.RequireFromString("10"),
				ReferralFee:     decimal.RequireFromString("8"),
				PaymentFee:      decimal.RequireFromString("3"),
			},
			code:   ErrCodeBusinessRule,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "ledger conflict",
			err:    &commission.LedgerConflictError{OrderID: uuid.New(), Level: 2},
			code:   ErrCodeConflict,
			status: http.StatusConflict,
		},
		{
			name:   "duplicate invoice",
			err:    fmt.Errorf("create: %w", commission.ErrDuplicateInvoice),
			code:   ErrCodeConflict,
			status: http.StatusConflict,
		},
		{
			name:   "integration",
			err:    commission.NewTransientError("accounting.create_sales_invoice", 503, fmt.Errorf("down")),
			code:   ErrCodeServiceUnavailable,
			status: http.StatusServiceUnavailable,
		},
		{
			name:    "unknown",
			err:     fmt.Errorf("connection reset"),
			code:    ErrCodeInternal,
			status:  http.StatusInternalServerError,
			message: "An unexpected error occurred",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status, message := ClassifyError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, message)
			if tt.message != "" {
				assert.Equal(t, tt.message, message)
			}
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{{Field: "order_id", Message: "This field is required"}})
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
