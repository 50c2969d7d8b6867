package commission

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type reviewFixture struct {
	reviews  *MockReviewCaseRepository
	invoices *MockInvoiceRepository
	ledger   *MockLedgerRepository
	queue    *MockTaskQueue
	svc      *ReviewService
}

func newReviewFixture(t *testing.T) *reviewFixture {
	f := &reviewFixture{
		reviews:  new(MockReviewCaseRepository),
		invoices: new(MockInvoiceRepository),
		ledger:   new(MockLedgerRepository),
		queue:    new(MockTaskQueue),
	}
	f.svc = NewReviewService(f.reviews, f.invoices, f.ledger, f.queue, zaptest.NewLogger(t))
	return f
}

func newTestReviewCase(t *testing.T) *commission.ReviewCase {
	t.Helper()
	rc, err := commission.NewReviewCase(uuid.New(), uuid.New(), nil, commission.ReviewDataIntegrity, "referral cycle", "{}")
	require.NoError(t, err)
	rc.ClearDomainEvents()
	return rc
}

func TestReviewService_ListCases(t *testing.T) {
	f := newReviewFixture(t)
	rc := newTestReviewCase(t)
	status := commission.ReviewPending
	category := commission.ReviewDataIntegrity
	f.reviews.On("FindAll", mock.Anything, commission.ReviewCaseFilter{
		Status:   &status,
		Category: &category,
		Page:     1,
		PageSize: 20,
	}).Return([]commission.ReviewCase{*rc}, int64(1), nil)

	result, err := f.svc.ListCases(t.Context(), ReviewCaseListFilter{
		Status:   string(status),
		Category: string(category),
	})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, rc.ID, result.Items[0].ID)
	assert.Equal(t, "referral cycle", result.Items[0].Reason)
}

func TestReviewService_ListCasesRejectsUnknownFilters(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.ListCases(t.Context(), ReviewCaseListFilter{Status: "OPEN"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.svc.ListCases(t.Context(), ReviewCaseListFilter{Category: "BILLING"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestReviewService_ResolveCase(t *testing.T) {
	f := newReviewFixture(t)
	rc := newTestReviewCase(t)
	operator := uuid.New()
	f.reviews.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.reviews.On("Save", mock.Anything, rc).Return(nil).Once()

	dto, err := f.svc.ResolveCase(t.Context(), rc.ID, operator, ResolveReviewCaseRequest{Note: " fixed referrer "})

	require.NoError(t, err)
	assert.Equal(t, string(commission.ReviewResolved), dto.Status)
	require.NotNil(t, rc.ResolvedBy)
	assert.Equal(t, operator, *rc.ResolvedBy)
	assert.Equal(t, "fixed referrer", rc.ResolutionNote)

	_, err = f.svc.ResolveCase(t.Context(), rc.ID, operator, ResolveReviewCaseRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "resolving twice is rejected")
	f.reviews.AssertNumberOfCalls(t, "Save", 1)
}

func TestReviewService_ResolveUnknownCase(t *testing.T) {
	f := newReviewFixture(t)
	id := uuid.New()
	f.reviews.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := f.svc.ResolveCase(t.Context(), id, uuid.New(), ResolveReviewCaseRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func manualReviewInvoice(t *testing.T) *commission.Invoice {
	t.Helper()
	inv := createTestInvoice(t, commission.DeliveryEArchive)
	inv.RecordAccountingFailure(errors.New("vendor rejected"), true, 3, inv.IssuedAt)
	inv.ClearDomainEvents()
	require.Equal(t, commission.AccountingManualReview, inv.AccountingStatus)
	return inv
}

func TestReviewService_RetryAccounting(t *testing.T) {
	f := newReviewFixture(t)
	inv := manualReviewInvoice(t)
	f.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoices.On("UpdateMutableFields", mock.Anything, inv).Return(nil).Once()
	f.queue.On("EnqueueAccountingSubmission", mock.Anything, inv.ID).Return(nil).Once()

	dto, err := f.svc.RetryAccounting(t.Context(), inv.ID)

	require.NoError(t, err)
	assert.Equal(t, string(commission.AccountingPending), dto.AccountingStatus)
	assert.Equal(t, 0, dto.AccountingAttempts)
	assert.False(t, dto.ManualReview)
	assert.NotNil(t, inv.NextAttemptAt)
	f.queue.AssertExpectations(t)
}

func TestReviewService_RetryAccountingEnqueueFailureStillSucceeds(t *testing.T) {
	f := newReviewFixture(t)
	inv := manualReviewInvoice(t)
	f.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoices.On("UpdateMutableFields", mock.Anything, inv).Return(nil)
	f.queue.On("EnqueueAccountingSubmission", mock.Anything, inv.ID).Return(errors.New("redis down"))

	_, err := f.svc.RetryAccounting(t.Context(), inv.ID)
	assert.NoError(t, err)
}

func TestReviewService_RetryAccountingRejectsOtherStates(t *testing.T) {
	f := newReviewFixture(t)
	pending := createTestInvoice(t, commission.DeliveryEArchive)
	pdfOnly := createTestInvoice(t, commission.DeliveryPDFOnly)
	f.invoices.On("FindByID", mock.Anything, pending.ID).Return(pending, nil)
	f.invoices.On("FindByID", mock.Anything, pdfOnly.ID).Return(pdfOnly, nil)

	_, err := f.svc.RetryAccounting(t.Context(), pending.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.svc.RetryAccounting(t.Context(), pdfOnly.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	f.invoices.AssertNotCalled(t, "UpdateMutableFields", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "EnqueueAccountingSubmission", mock.Anything, mock.Anything)
}

func TestReviewService_OrderLedger(t *testing.T) {
	f := newReviewFixture(t)
	inv := createTestInvoice(t, commission.DeliveryEArchive)
	entries := []commission.LedgerEntry{
		{ID: uuid.New(), OrderID: inv.OrderID, BeneficiaryUserID: uuid.New(), Level: 1, Amount: dec("5.40"), RateApplied: dec("0.10")},
		{ID: uuid.New(), OrderID: inv.OrderID, BeneficiaryUserID: uuid.New(), Level: 2, Amount: dec("3.24"), RateApplied: dec("0.06")},
		{ID: uuid.New(), OrderID: inv.OrderID, BeneficiaryUserID: uuid.New(), Level: 3, Amount: dec("2.70"), RateApplied: dec("0.05")},
	}
	f.ledger.On("FindByOrderID", mock.Anything, inv.OrderID).Return(entries, nil)
	f.invoices.On("FindByOrderID", mock.Anything, inv.OrderID).Return(inv, nil)

	resp, err := f.svc.OrderLedger(t.Context(), inv.OrderID)

	require.NoError(t, err)
	assert.Len(t, resp.Entries, 3)
	assert.True(t, resp.Distributed.Equal(dec("11.34")))
	require.NotNil(t, resp.Remainder)
	assert.True(t, resp.Remainder.Equal(dec("42.66")))
	require.NotNil(t, resp.InvoiceID)
	assert.Equal(t, inv.ID, *resp.InvoiceID)
}

func TestReviewService_OrderLedgerUnknownOrder(t *testing.T) {
	f := newReviewFixture(t)
	orderID := uuid.New()
	f.ledger.On("FindByOrderID", mock.Anything, orderID).Return([]commission.LedgerEntry{}, nil)
	f.invoices.On("FindByOrderID", mock.Anything, orderID).Return(nil, nil)

	_, err := f.svc.OrderLedger(t.Context(), orderID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAccountingReviewHandler_OpensCase(t *testing.T) {
	reviews := new(MockReviewCaseRepository)
	inv := manualReviewInvoice(t)
	event := commission.NewInvoiceManualReviewRequiredEvent(inv)

	reviews.On("HasOpenCase", mock.Anything, inv.OrderID, commission.ReviewExternalIntegration).Return(false, nil)
	reviews.On("Save", mock.Anything, mock.MatchedBy(func(rc *commission.ReviewCase) bool {
		return rc.Category == commission.ReviewExternalIntegration &&
			rc.InvoiceID != nil && *rc.InvoiceID == inv.ID &&
			rc.PartnerID == inv.PartnerID
	})).Return(nil).Once()

	h := NewAccountingReviewHandler(reviews, zaptest.NewLogger(t))
	assert.Equal(t, []string{commission.EventTypeInvoiceManualReview}, h.EventTypes())
	require.NoError(t, h.Handle(t.Context(), event))
	reviews.AssertExpectations(t)
}

func TestAccountingReviewHandler_SkipsWhenCaseOpen(t *testing.T) {
	reviews := new(MockReviewCaseRepository)
	inv := manualReviewInvoice(t)
	reviews.On("HasOpenCase", mock.Anything, inv.OrderID, commission.ReviewExternalIntegration).Return(true, nil)

	h := NewAccountingReviewHandler(reviews, zaptest.NewLogger(t))
	require.NoError(t, h.Handle(t.Context(), commission.NewInvoiceManualReviewRequiredEvent(inv)))
	reviews.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
