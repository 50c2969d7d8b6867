package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/middleware"
)

// OrderCompleter runs the order completion use case
type OrderCompleter interface {
	CompleteOrder(ctx context.Context, cmd commissionapp.OrderCompletedCommand) (*commissionapp.OrderCompletionResult, error)
}

// OrderHandler receives order-completed notifications from the order service
type OrderHandler struct {
	BaseHandler
	completer OrderCompleter
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(completer OrderCompleter) *OrderHandler {
	return &OrderHandler{completer: completer}
}

// Completed godoc
// @ID           completeOrder
// @Summary      Record a completed order
// @Description  Distributes the referral ledger and issues the invoice. A first notification
// @Description  answers 201; a replay of an invoiced order answers 200 with the stored invoice.
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        request body commissionapp.OrderCompletedCommand true "Completed order"
// @Success      200 {object} dto.Response{data=commissionapp.OrderCompletionResult}
// @Success      201 {object} dto.Response{data=commissionapp.OrderCompletionResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /internal/orders/completed [post]
func (h *OrderHandler) Completed(c *gin.Context) {
	var cmd commissionapp.OrderCompletedCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.completer.CompleteOrder(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}
