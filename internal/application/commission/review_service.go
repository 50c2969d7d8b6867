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

// ReviewService backs the operator endpoints: the review queue, accounting
// retries and the per-order ledger view.
type ReviewService struct {
	reviewRepo  commission.ReviewCaseRepository
	invoiceRepo commission.InvoiceRepository
	ledgerRepo  commission.LedgerRepository
	queue       TaskQueue
	logger      *zap.Logger
	now         func() time.Time
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	reviewRepo commission.ReviewCaseRepository,
	invoiceRepo commission.InvoiceRepository,
	ledgerRepo commission.LedgerRepository,
	queue TaskQueue,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		invoiceRepo: invoiceRepo,
		ledgerRepo:  ledgerRepo,
		queue:       queue,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListCases returns one page of the review queue, newest first
func (s *ReviewService) ListCases(ctx context.Context, filter ReviewCaseListFilter) (*shared.Paginated[ReviewCaseDTO], error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := commission.ReviewCaseFilter{Page: page, PageSize: pageSize}

	if filter.Status != "" {
		status := commission.ReviewStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid review status")
		}
		query.Status = &status
	}
	if filter.Category != "" {
		category := commission.ReviewCategory(filter.Category)
		if !category.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid review category")
		}
		query.Category = &category
	}

	cases, total, err := s.reviewRepo.FindAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list review cases: %w", err)
	}

	items := make([]ReviewCaseDTO, 0, len(cases))
	for i := range cases {
		items = append(items, ToReviewCaseDTO(&cases[i]))
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// ResolveCase closes a review case
func (s *ReviewService) ResolveCase(ctx context.Context, id, resolvedBy uuid.UUID, req ResolveReviewCaseRequest) (*ReviewCaseDTO, error) {
	rc, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review case: %w", err)
	}
	if rc == nil {
		return nil, commission.ErrReviewCaseNotFound
	}
	if err := rc.Resolve(resolvedBy, req.Note); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Save(ctx, rc); err != nil {
		return nil, fmt.Errorf("failed to save review case: %w", err)
	}

	s.logger.Info("review case resolved",
		zap.String("case_id", id.String()),
		zap.String("order_id", rc.OrderID.String()),
		zap.String("resolved_by", resolvedBy.String()),
	)
	dto := ToReviewCaseDTO(rc)
	return &dto, nil
}

// RetryAccounting puts an invoice under manual review back into the
// submission queue with a fresh attempt budget.
func (s *ReviewService) RetryAccounting(ctx context.Context, invoiceID uuid.UUID) (*InvoiceDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_review", "retry_accounting")
	defer span.End()
	telemetry.SetAttributes(span, "invoice_id", invoiceID.String())

	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv == nil {
		return nil, commission.ErrInvoiceNotFound
	}
	if err := inv.RequestAccountingRetry(s.now()); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.UpdateMutableFields(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	if err := s.queue.EnqueueAccountingSubmission(ctx, inv.ID); err != nil {
		// The invoice is PENDING and due, so recovery picks it up.
		s.logger.Error("failed to enqueue accounting retry",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("accounting submission retry requested", zap.String("invoice_id", invoiceID.String()))
	dto := ToInvoiceDTO(inv)
	return &dto, nil
}

// OrderLedger lists the ledger entries of an order with the derived platform remainder
func (s *ReviewService) OrderLedger(ctx context.Context, orderID uuid.UUID) (*OrderLedgerResponse, error) {
	entries, err := s.ledgerRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	inv, err := s.invoiceRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv == nil && len(entries) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "Order has no commission records")
	}

	resp := &OrderLedgerResponse{
		OrderID:     orderID,
		Distributed: commission.DistributedTotal(entries),
		Entries:     ToLedgerEntryDTOs(entries),
	}
	if inv != nil {
		invoiceID := inv.ID
		referralFee := inv.ReferralFee
		remainder := commission.Remainder(inv.ReferralFee, entries)
		resp.InvoiceID = &invoiceID
		resp.ReferralFee = &referralFee
		resp.Remainder = &remainder
	}
	return resp, nil
}

// AccountingReviewHandler opens an EXTERNAL_INTEGRATION review case when an
// invoice's accounting submission gives up.
type AccountingReviewHandler struct {
	reviewRepo commission.ReviewCaseRepository
	logger     *zap.Logger
}

// NewAccountingReviewHandler creates a new AccountingReviewHandler
func NewAccountingReviewHandler(reviewRepo commission.ReviewCaseRepository, logger *zap.Logger) *AccountingReviewHandler {
	return &AccountingReviewHandler{reviewRepo: reviewRepo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *AccountingReviewHandler) EventTypes() []string {
	return []string{commission.EventTypeInvoiceManualReview}
}

// Handle records the review case. Repeated events for an order with an open
// case are ignored.
func (h *AccountingReviewHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	review, ok := event.(*commission.InvoiceManualReviewRequiredEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			commission.EventTypeInvoiceManualReview, event.EventType())
	}

	open, err := h.reviewRepo.HasOpenCase(ctx, review.OrderID, commission.ReviewExternalIntegration)
	if err != nil {
		return fmt.Errorf("failed to check open review cases: %w", err)
	}
	if open {
		h.logger.Debug("review case already open for order", zap.String("order_id", review.OrderID.String()))
		return nil
	}

	reason := review.Reason
	if review.LastError != "" {
		reason = fmt.Sprintf("%s: %s", review.Reason, review.LastError)
	}
	invoiceID := review.InvoiceID
	rc, err := commission.NewReviewCase(review.OrderID, review.PartnerID, &invoiceID,
		commission.ReviewExternalIntegration, reason, "")
	if err != nil {
		return err
	}
	if err := h.reviewRepo.Save(ctx, rc); err != nil {
		return fmt.Errorf("failed to save review case: %w", err)
	}

	h.logger.Warn("accounting review case opened",
		zap.String("case_id", rc.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("attempts", review.Attempts),
	)
	return nil
}

var _ shared.EventHandler = (*AccountingReviewHandler)(nil)
