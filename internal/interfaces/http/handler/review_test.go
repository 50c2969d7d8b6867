package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/auth"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviewHandler_ListCases(t *testing.T) {
	reviews := new(MockReviewOperations)
	filter := commissionapp.ReviewCaseListFilter{Status: "PENDING_REVIEW", Category: "DATA_INTEGRITY"}
	reviews.On("ListCases", mock.Anything, filter).Return(&shared.Paginated[commissionapp.ReviewCaseDTO]{
		Items: []commissionapp.ReviewCaseDTO{{
			ID:        uuid.New(),
			OrderID:   uuid.New(),
			Category:  string(commission.ReviewDataIntegrity),
			Status:    string(commission.ReviewPending),
			Reason:    "referral cycle",
			CreatedAt: time.Now(),
		}},
		Total:      1,
		Page:       1,
		PageSize:   20,
		TotalPages: 1,
	}, nil)
	h := NewReviewHandler(reviews)

	c, w := newTestContext(http.MethodGet, "/api/v1/admin/commission/review-cases?status=PENDING_REVIEW&category=DATA_INTEGRITY", nil)
	h.ListCases(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Len(t, resp.Data.([]any), 1)
	assert.Equal(t, int64(1), resp.Meta.Total)
	reviews.AssertExpectations(t)
}

func TestReviewHandler_ResolveCase(t *testing.T) {
	adminID, caseID := uuid.New(), uuid.New()

	t.Run("with note", func(t *testing.T) {
		reviews := new(MockReviewOperations)
		reviews.On("ResolveCase", mock.Anything, caseID, adminID, commissionapp.ResolveReviewCaseRequest{Note: "ledger corrected"}).
			Return(&commissionapp.ReviewCaseDTO{ID: caseID, Status: string(commission.ReviewResolved)}, nil)
		h := NewReviewHandler(reviews)

		c, w := newTestContext(http.MethodPost, "/", strings.NewReader(`{"note":"ledger corrected"}`))
		c.Params = gin.Params{{Key: "id", Value: caseID.String()}}
		setClaims(c, adminID, uuid.Nil, auth.RoleAdmin)
		h.ResolveCase(c)

		assert.Equal(t, http.StatusOK, w.Code)
		reviews.AssertExpectations(t)
	})

	t.Run("empty body", func(t *testing.T) {
		reviews := new(MockReviewOperations)
		reviews.On("ResolveCase", mock.Anything, caseID, adminID, commissionapp.ResolveReviewCaseRequest{}).
			Return(&commissionapp.ReviewCaseDTO{ID: caseID}, nil)
		h := NewReviewHandler(reviews)

		c, w := newTestContext(http.MethodPost, "/", nil)
		c.Params = gin.Params{{Key: "id", Value: caseID.String()}}
		setClaims(c, adminID, uuid.Nil, auth.RoleAdmin)
		h.ResolveCase(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already resolved", func(t *testing.T) {
		reviews := new(MockReviewOperations)
		reviews.On("ResolveCase", mock.Anything, caseID, adminID, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_STATE", "Review case is already resolved"))
		h := NewReviewHandler(reviews)

		c, w := newTestContext(http.MethodPost, "/", nil)
		c.Params = gin.Params{{Key: "id", Value: caseID.String()}}
		setClaims(c, adminID, uuid.Nil, auth.RoleAdmin)
		h.ResolveCase(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, decodeResponse(t, w).Error.Code)
	})
}

func TestReviewHandler_RetryAccounting(t *testing.T) {
	inv := testInvoiceDTO(uuid.New())
	reviews := new(MockReviewOperations)
	reviews.On("RetryAccounting", mock.Anything, inv.ID).Return(inv, nil)
	h := NewReviewHandler(reviews)

	c, w := newTestContext(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: inv.ID.String()}}
	h.RetryAccounting(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDING", decodeResponse(t, w).Data.(map[string]any)["accounting_status"])
}

func TestReviewHandler_OrderLedger(t *testing.T) {
	orderID := uuid.New()
	remainder := decimal.RequireFromString("1.25")
	reviews := new(MockReviewOperations)
	reviews.On("OrderLedger", mock.Anything, orderID).Return(&commissionapp.OrderLedgerResponse{
		OrderID:     orderID,
		Distributed: decimal.RequireFromString("3.75"),
		Remainder:   &remainder,
		Entries:     []commissionapp.LedgerEntryDTO{{Level: 1, Amount: decimal.RequireFromString("3.75")}},
	}, nil)
	h := NewReviewHandler(reviews)

	c, w := newTestContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "orderId", Value: orderID.String()}}
	h.OrderLedger(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "1.25", data["remainder"])
	assert.Len(t, data["entries"], 1)

	c, w = newTestContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "orderId", Value: "42"}}
	h.OrderLedger(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
