package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// AccountingSubmitter submits one invoice to the accounting vendor
type AccountingSubmitter interface {
	Submit(ctx context.Context, invoiceID uuid.UUID) (commissionapp.SubmissionOutcome, error)
}

// OrderCompleter runs the order completion use case
type OrderCompleter interface {
	CompleteOrder(ctx context.Context, cmd commissionapp.OrderCompletedCommand) (*commissionapp.OrderCompletionResult, error)
}

// Handlers processes the tasks this service consumes. PDF render tasks are
// consumed by the external renderer, not here.
type Handlers struct {
	submitter AccountingSubmitter
	completer OrderCompleter
	logger    *zap.Logger
}

// NewHandlers creates Handlers
func NewHandlers(submitter AccountingSubmitter, completer OrderCompleter, logger *zap.Logger) *Handlers {
	return &Handlers{submitter: submitter, completer: completer, logger: logger}
}

// Register adds the handlers to mux
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAccountingSubmit, h.HandleAccountingSubmit)
	mux.HandleFunc(TypeOrderCompleted, h.HandleOrderCompleted)
}

// HandleAccountingSubmit runs one submission. Manual review is a handled
// outcome. An interrupted run leaves the invoice PENDING for the recovery
// poller and still completes the task, so the task is never archived
// under the invoice's task ID.
func (h *Handlers) HandleAccountingSubmit(ctx context.Context, t *asynq.Task) error {
	var payload AccountingSubmitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid accounting payload: %v: %w", err, asynq.SkipRetry)
	}

	outcome, err := h.submitter.Submit(ctx, payload.InvoiceID)
	if err != nil {
		h.logger.Warn("Accounting submission did not finish",
			zap.String("invoice_id", payload.InvoiceID.String()),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
		return nil
	}
	h.logger.Info("Accounting submission handled",
		zap.String("invoice_id", payload.InvoiceID.String()),
		zap.String("outcome", string(outcome)),
	)
	return nil
}

// HandleOrderCompleted invoices a completed order. Integrity failures and
// invalid commands are not retried: the former already opened a review
// case. Configuration failures are retried so that a corrected rate table
// lets the order through.
func (h *Handlers) HandleOrderCompleted(ctx context.Context, t *asynq.Task) error {
	var cmd commissionapp.OrderCompletedCommand
	if err := json.Unmarshal(t.Payload(), &cmd); err != nil {
		return fmt.Errorf("invalid order payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := h.logger.With(zap.String("order_id", cmd.OrderID.String()))

	result, err := h.completer.CompleteOrder(ctx, cmd)
	switch {
	case err == nil:
		logger.Info("Order invoiced",
			zap.String("invoice_id", result.Invoice.ID.String()),
			zap.Bool("replayed", result.Replayed),
		)
		return nil
	case errors.Is(err, commission.ErrDataIntegrity):
		logger.Error("Order routed to review", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	case isInvalidInput(err):
		logger.Error("Order notification rejected", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		logger.Warn("Order completion failed, will retry", zap.Error(err))
		return err
	}
}

func isInvalidInput(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de) && de.Code == "INVALID_INPUT"
}
