package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/middleware"
)

// InvoiceQueries is the read side of the invoice API
type InvoiceQueries interface {
	List(ctx context.Context, actor commissionapp.Actor, filter commissionapp.InvoiceListFilter) (*commissionapp.InvoiceListResponse, error)
	Get(ctx context.Context, actor commissionapp.Actor, id uuid.UUID) (*commissionapp.InvoiceDTO, error)
	GetPDF(ctx context.Context, actor commissionapp.Actor, id uuid.UUID) (*commission.PDFRenderRequest, error)
	AttachPDF(ctx context.Context, id uuid.UUID, req commissionapp.AttachPDFRequest) (*commissionapp.InvoiceDTO, error)
}

// InvoiceHandler serves the partner-facing invoice endpoints and the
// renderer callback
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceQueries
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceQueries) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List godoc
// @ID           listCommissionInvoices
// @Summary      List commission invoices
// @Description  Newest first. Partners see their own invoices; admins may filter by partner.
// @Tags         commission-invoices
// @Produce      json
// @Param        partner_id query string false "Partner ID (admin only)" format(uuid)
// @Param        accounting_status query string false "Accounting status" Enums(NOT_REQUIRED, PENDING, SUBMITTED, MANUAL_REVIEW)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]commissionapp.InvoiceDTO}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /commission/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter commissionapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.invoices.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @ID           getCommissionInvoice
// @Summary      Get a commission invoice by ID
// @Tags         commission-invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.InvoiceDTO}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /commission/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoices.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// GetPDF godoc
// @ID           getCommissionInvoicePDF
// @Summary      Get the PDF of an invoice
// @Description  Returns the render request with the storage key and, once rendered, a download URL
// @Tags         commission-invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.PDFRenderRequest}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /commission/invoices/{id}/pdf [get]
func (h *InvoiceHandler) GetPDF(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	pdf, err := h.invoices.GetPDF(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pdf)
}

// AttachPDF godoc
// @ID           attachCommissionInvoicePDF
// @Summary      Attach a rendered PDF
// @Description  Called by the PDF renderer once the file is in object storage
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body commissionapp.AttachPDFRequest true "Stored PDF"
// @Success      200 {object} dto.Response{data=commissionapp.InvoiceDTO}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /internal/invoices/{id}/pdf [post]
func (h *InvoiceHandler) AttachPDF(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req commissionapp.AttachPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoices.AttachPDF(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}
