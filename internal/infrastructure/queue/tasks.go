// Package queue moves commission work off the request path: accounting
// submissions, PDF render jobs and order-completed notifications.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
)

// Task types
const (
	TypeAccountingSubmit = "invoice:accounting_submit"
	TypePDFRender        = "invoice:pdf_render"
	TypeOrderCompleted   = "order:completed"
)

// Queue names and their weights on the worker
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueuePDF      = "pdf"
)

// Queues are the priority weights served by the worker
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
}

// AccountingSubmitPayload is the payload of TypeAccountingSubmit
type AccountingSubmitPayload struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// AccountingTaskID dedupes submissions: one queued task per invoice
func AccountingTaskID(invoiceID uuid.UUID) string {
	return "accounting:" + invoiceID.String()
}

// PDFTaskID dedupes render jobs per invoice
func PDFTaskID(invoiceID uuid.UUID) string {
	return "pdf:" + invoiceID.String()
}

// OrderTaskID dedupes order-completed notifications per order
func OrderTaskID(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

// NewAccountingSubmitTask builds the submission task. MaxRetry is zero
// because the submitter runs its own bounded retry and records the outcome
// on the invoice. The task is not retained, so its ID is free again as soon
// as the run ends.
func NewAccountingSubmitTask(invoiceID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(AccountingSubmitPayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal accounting payload: %w", err)
	}
	return asynq.NewTask(TypeAccountingSubmit, payload, accountingTaskOptions(invoiceID)...), nil
}

func accountingTaskOptions(invoiceID uuid.UUID) []asynq.Option {
	return []asynq.Option{
		asynq.TaskID(AccountingTaskID(invoiceID)),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
	}
}

// NewPDFRenderTask builds the render job consumed by the PDF renderer
func NewPDFRenderTask(task commissionapp.PDFRenderTask) (*asynq.Task, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.TaskID(PDFTaskID(task.Request.InvoiceID)),
		asynq.Queue(QueuePDF),
	}
	// the presigned upload URL is useless after it expires
	if !task.UploadExpiresAt.IsZero() {
		opts = append(opts, asynq.Deadline(task.UploadExpiresAt))
	}
	return asynq.NewTask(TypePDFRender, payload, opts...), nil
}

// NewOrderCompletedTask builds the notification the order service enqueues
// when an order completes
func NewOrderCompletedTask(cmd commissionapp.OrderCompletedCommand) (*asynq.Task, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}
	return asynq.NewTask(TypeOrderCompleted, payload,
		asynq.TaskID(OrderTaskID(cmd.OrderID)),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(10),
	), nil
}
