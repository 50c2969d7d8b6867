package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/middleware"
)

// ReviewOperations are the operator actions on the commission records
type ReviewOperations interface {
	ListCases(ctx context.Context, filter commissionapp.ReviewCaseListFilter) (*shared.Paginated[commissionapp.ReviewCaseDTO], error)
	ResolveCase(ctx context.Context, id, resolvedBy uuid.UUID, req commissionapp.ResolveReviewCaseRequest) (*commissionapp.ReviewCaseDTO, error)
	RetryAccounting(ctx context.Context, invoiceID uuid.UUID) (*commissionapp.InvoiceDTO, error)
	OrderLedger(ctx context.Context, orderID uuid.UUID) (*commissionapp.OrderLedgerResponse, error)
}

// ReviewHandler serves the admin endpoints of the commission engine
type ReviewHandler struct {
	BaseHandler
	reviews ReviewOperations
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews ReviewOperations) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// ListCases godoc
// @ID           listCommissionReviewCases
// @Summary      List review cases
// @Tags         commission-admin
// @Produce      json
// @Param        status query string false "Case status" Enums(PENDING_REVIEW, RESOLVED)
// @Param        category query string false "Case category" Enums(DATA_INTEGRITY, EXTERNAL_INTEGRATION)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]commissionapp.ReviewCaseDTO}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/commission/review-cases [get]
func (h *ReviewHandler) ListCases(c *gin.Context) {
	var filter commissionapp.ReviewCaseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.reviews.ListCases(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ResolveCase godoc
// @ID           resolveCommissionReviewCase
// @Summary      Resolve a review case
// @Description  The request body is optional
// @Tags         commission-admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Review case ID" format(uuid)
// @Param        request body commissionapp.ResolveReviewCaseRequest false "Resolution note"
// @Success      200 {object} dto.Response{data=commissionapp.ReviewCaseDTO}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/commission/review-cases/{id}/resolve [post]
func (h *ReviewHandler) ResolveCase(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req commissionapp.ResolveReviewCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}

	reviewCase, err := h.reviews.ResolveCase(c.Request.Context(), id, actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reviewCase)
}

// RetryAccounting godoc
// @ID           retryCommissionInvoiceAccounting
// @Summary      Retry accounting submission
// @Description  Moves an invoice out of manual review and queues a fresh submission
// @Tags         commission-admin
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.InvoiceDTO}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/commission/invoices/{id}/accounting/retry [post]
func (h *ReviewHandler) RetryAccounting(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.reviews.RetryAccounting(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// OrderLedger godoc
// @ID           getCommissionOrderLedger
// @Summary      Get the referral ledger of an order
// @Tags         commission-admin
// @Produce      json
// @Param        orderId path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.OrderLedgerResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/commission/orders/{orderId}/ledger [get]
func (h *ReviewHandler) OrderLedger(c *gin.Context) {
	orderID, ok := h.parseIDParam(c, "orderId")
	if !ok {
		return
	}

	ledger, err := h.reviews.OrderLedger(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}
