package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultPDFUploadURLExpiry is how long the renderer may take to upload a PDF
const DefaultPDFUploadURLExpiry = 24 * time.Hour

// DeliveryDispatcher handles InvoiceIssuedEvent and schedules the follow-up
// work the partner's delivery method asks for. It runs after the completion
// transaction has committed and never reports failure to its caller: a lost
// accounting enqueue is picked up by AccountingRecovery.
type DeliveryDispatcher struct {
	queue        TaskQueue
	pdfStore     PDFStore
	uploadExpiry time.Duration
	logger       *zap.Logger
}

// NewDeliveryDispatcher creates a new DeliveryDispatcher
func NewDeliveryDispatcher(queue TaskQueue, pdfStore PDFStore, logger *zap.Logger) *DeliveryDispatcher {
	return &DeliveryDispatcher{
		queue:        queue,
		pdfStore:     pdfStore,
		uploadExpiry: DefaultPDFUploadURLExpiry,
		logger:       logger,
	}
}

// SetUploadExpiry overrides the lifetime of presigned upload URLs
func (d *DeliveryDispatcher) SetUploadExpiry(expiry time.Duration) {
	if expiry > 0 {
		d.uploadExpiry = expiry
	}
}

// EventTypes returns the event types this handler is interested in
func (d *DeliveryDispatcher) EventTypes() []string {
	return []string{commission.EventTypeInvoiceIssued}
}

// Handle dispatches an InvoiceIssuedEvent
func (d *DeliveryDispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	issued, ok := event.(*commission.InvoiceIssuedEvent)
	if !ok {
		d.logger.Error("unexpected event type",
			zap.String("expected", commission.EventTypeInvoiceIssued),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			commission.EventTypeInvoiceIssued, event.EventType())
	}
	d.Dispatch(ctx, issued)
	return nil
}

// Dispatch enqueues the delivery work of one issued invoice. Errors are logged.
func (d *DeliveryDispatcher) Dispatch(ctx context.Context, issued *commission.InvoiceIssuedEvent) {
	logger := d.logger.With(
		zap.String("invoice_id", issued.InvoiceID.String()),
		zap.String("invoice_number", issued.InvoiceNumber),
		zap.String("delivery_method", issued.DeliveryMethod.String()),
	)

	switch issued.DeliveryMethod {
	case commission.DeliveryEArchive:
		if err := d.queue.EnqueueAccountingSubmission(ctx, issued.InvoiceID); err != nil {
			logger.Error("failed to enqueue accounting submission, recovery will retry", zap.Error(err))
			return
		}
		logger.Info("accounting submission enqueued")

	case commission.DeliveryPDFOnly:
		task, err := d.renderTask(ctx, issued)
		if err != nil {
			logger.Error("failed to prepare pdf render", zap.Error(err))
			return
		}
		if err := d.queue.EnqueuePDFRender(ctx, task); err != nil {
			logger.Error("failed to enqueue pdf render", zap.Error(err))
			return
		}
		logger.Info("pdf render enqueued", zap.String("storage_key", task.Request.StorageKey))

	case commission.DeliveryManualUpload:
		logger.Debug("manual upload delivery, nothing to dispatch")

	default:
		logger.Warn("unknown delivery method, nothing dispatched")
	}
}

func (d *DeliveryDispatcher) renderTask(ctx context.Context, issued *commission.InvoiceIssuedEvent) (PDFRenderTask, error) {
	req := commission.PDFRenderRequest{
		InvoiceID:     issued.InvoiceID,
		InvoiceNumber: issued.InvoiceNumber,
		TemplateKey:   commission.PDFTemplateKey,
		StorageKey:    commission.PDFObjectKey(issued.PartnerID, issued.InvoiceNumber),
		Status:        commission.PDFPending,
	}

	uploadURL, expiresAt, err := d.pdfStore.GenerateUploadURL(ctx, req.StorageKey, "application/pdf", d.uploadExpiry)
	if err != nil {
		return PDFRenderTask{}, fmt.Errorf("failed to presign pdf upload: %w", err)
	}
	return PDFRenderTask{Request: req, UploadURL: uploadURL, UploadExpiresAt: expiresAt}, nil
}

var _ shared.EventHandler = (*DeliveryDispatcher)(nil)
