package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultPDFDownloadURLExpiry is the lifetime of presigned PDF download links
const DefaultPDFDownloadURLExpiry = 15 * time.Minute

// InvoiceQueryService serves the partner-facing invoice read API and the
// renderer callback.
type InvoiceQueryService struct {
	invoiceRepo    commission.InvoiceRepository
	pdfStore       PDFStore
	publisher      shared.EventPublisher
	downloadExpiry time.Duration
	logger         *zap.Logger
}

// NewInvoiceQueryService creates a new InvoiceQueryService
func NewInvoiceQueryService(
	invoiceRepo commission.InvoiceRepository,
	pdfStore PDFStore,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *InvoiceQueryService {
	return &InvoiceQueryService{
		invoiceRepo:    invoiceRepo,
		pdfStore:       pdfStore,
		publisher:      publisher,
		downloadExpiry: DefaultPDFDownloadURLExpiry,
		logger:         logger,
	}
}

// SetDownloadExpiry overrides the lifetime of presigned download URLs
func (s *InvoiceQueryService) SetDownloadExpiry(expiry time.Duration) {
	if expiry > 0 {
		s.downloadExpiry = expiry
	}
}

// List returns invoices newest first. Partners only ever see their own
// invoices; admins may narrow the list to one partner.
func (s *InvoiceQueryService) List(ctx context.Context, actor Actor, filter InvoiceListFilter) (*InvoiceListResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_invoice", "list")
	defer span.End()

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := commission.InvoiceFilter{Page: page, PageSize: pageSize}

	switch {
	case actor.IsAdmin:
		if filter.PartnerID != "" {
			partnerID, err := uuid.Parse(filter.PartnerID)
			if err != nil {
				return nil, shared.NewDomainError("INVALID_INPUT", "Invalid partner ID")
			}
			query.PartnerID = &partnerID
		}
	case actor.PartnerID != uuid.Nil:
		partnerID := actor.PartnerID
		query.PartnerID = &partnerID
	default:
		return nil, commission.ErrAccessDenied
	}

	if filter.AccountingStatus != "" {
		status := commission.AccountingStatus(filter.AccountingStatus)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid accounting status")
		}
		query.AccountingStatus = &status
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	items := make([]InvoiceDTO, 0, len(invoices))
	for i := range invoices {
		items = append(items, ToInvoiceDTO(&invoices[i]))
	}
	telemetry.SetAttributes(span, "count", len(items), "total", total)

	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// Get returns one invoice to its owner or an admin
func (s *InvoiceQueryService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*InvoiceDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_invoice", "get")
	defer span.End()
	telemetry.SetAttributes(span, "invoice_id", id.String())

	inv, err := s.visibleInvoice(ctx, actor, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	dto := ToInvoiceDTO(inv)
	return &dto, nil
}

// GetPDF describes the invoice PDF. Once the renderer has attached it, the
// response carries a presigned download URL.
func (s *InvoiceQueryService) GetPDF(ctx context.Context, actor Actor, id uuid.UUID) (*commission.PDFRenderRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_invoice", "get_pdf")
	defer span.End()
	telemetry.SetAttributes(span, "invoice_id", id.String())

	inv, err := s.visibleInvoice(ctx, actor, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	req := commission.NewPDFRenderRequest(inv)
	if req.Status == commission.PDFReady {
		url, _, err := s.pdfStore.GenerateDownloadURL(ctx, req.StorageKey, s.downloadExpiry)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to generate download URL: %w", err)
		}
		req.DownloadURL = url
	}
	return &req, nil
}

// AttachPDF is called by the renderer after uploading the PDF. The object
// must exist at the invoice's storage key.
func (s *InvoiceQueryService) AttachPDF(ctx context.Context, id uuid.UUID, req AttachPDFRequest) (*InvoiceDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_invoice", "attach_pdf")
	defer span.End()
	telemetry.SetAttributes(span, "invoice_id", id.String())

	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv == nil {
		return nil, commission.ErrInvoiceNotFound
	}

	expected := commission.PDFStorageKey(inv)
	if req.StorageKey != expected {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Storage key must be %s", expected))
	}

	exists, err := s.pdfStore.ObjectExists(ctx, expected)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check pdf object: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_STATE", "PDF has not been uploaded")
	}

	if err := inv.AttachPDF(s.pdfStore.ObjectURL(expected)); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.UpdateMutableFields(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save pdf url: %w", err)
	}

	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish pdf attached event",
				zap.String("invoice_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("invoice pdf attached",
		zap.String("invoice_id", id.String()),
		zap.String("storage_key", expected),
	)
	dto := ToInvoiceDTO(inv)
	return &dto, nil
}

func (s *InvoiceQueryService) visibleInvoice(ctx context.Context, actor Actor, id uuid.UUID) (*commission.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv == nil {
		return nil, commission.ErrInvoiceNotFound
	}
	if !actor.CanView(inv) {
		return nil, commission.ErrAccessDenied
	}
	return inv, nil
}
