package commission

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type completionFixture struct {
	svc       *OrderCompletionService
	invoices  *MockInvoiceRepository
	ledger    *MockLedgerRepository
	reviews   *MockReviewCaseRepository
	profiles  *MockBillingProfileReader
	publisher *MockEventPublisher
}

func newCompletionFixture(t *testing.T, graph mapGraph, gmv mapGMV) *completionFixture {
	t.Helper()
	rates := commission.DefaultRateConfig()
	f := &completionFixture{
		invoices:  new(MockInvoiceRepository),
		ledger:    new(MockLedgerRepository),
		reviews:   new(MockReviewCaseRepository),
		profiles:  new(MockBillingProfileReader),
		publisher: new(MockEventPublisher),
	}
	f.svc = NewOrderCompletionService(OrderCompletionDeps{
		TxScope:     NewNoOpTransactionScope(f.ledger, f.invoices),
		InvoiceRepo: f.invoices,
		ReviewRepo:  f.reviews,
		Profiles:    f.profiles,
		Calculator:  commission.NewFeeCalculator(rates),
		Chain:       commission.NewChainResolver(graph, rates),
		Ranks:       commission.NewRankEngine(gmv, commission.NewRankPolicy(rates)),
		Numbers:     &sequenceNumbers{},
		Publisher:   f.publisher,
		Logger:      zaptest.NewLogger(t),
	})
	return f
}

func orderCommand(customerID uuid.UUID) OrderCompletedCommand {
	return OrderCompletedCommand{
		OrderID:        uuid.New(),
		PartnerID:      uuid.New(),
		CustomerID:     customerID,
		OrderAmount:    dec("1000.00"),
		CommissionRate: dec("0.12"),
	}
}

func issuedEventOnly(events []shared.DomainEvent) bool {
	return len(events) == 1 && events[0].EventType() == commission.EventTypeInvoiceIssued
}

func TestCompleteOrder_IssuesInvoiceAndDistributesLedger(t *testing.T) {
	customer, ancestors, graph := linearChain(3)
	f := newCompletionFixture(t, graph, mapGMV{})
	cmd := orderCommand(customer)

	var planned []commission.LedgerEntry
	var created *commission.Invoice

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(nil, nil)
	f.profiles.On("FindByPartnerID", mock.Anything, cmd.PartnerID).
		Return(&commission.BillingProfile{PartnerID: cmd.PartnerID, DeliveryMethod: commission.DeliveryEArchive}, nil)
	f.ledger.On("ApplyEntries", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { planned = args.Get(1).([]commission.LedgerEntry) }).
		Return(3, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*commission.Invoice) }).
		Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(issuedEventOnly)).Return(nil).Once()

	result, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.NoError(t, err)

	inv := result.Invoice
	assert.False(t, result.Replayed)
	assert.Equal(t, 3, result.LedgerEntriesWritten)
	assert.True(t, dec("120.00").Equal(inv.CommissionGross))
	assert.True(t, dec("54.00").Equal(inv.ReferralFee))
	assert.True(t, dec("2.40").Equal(inv.PaymentFee))
	assert.True(t, dec("63.60").Equal(inv.PlatformNet))
	assert.True(t, dec("12.72").Equal(inv.VATAmount))
	assert.True(t, dec("76.32").Equal(inv.TotalAmount))
	assert.Equal(t, "E_ARCHIVE", inv.DeliveryMethod)
	assert.Equal(t, "PENDING", inv.AccountingStatus)
	assert.Equal(t, "INV-1", inv.InvoiceNumber)
	assert.Nil(t, inv.ExternalAccountingID)

	require.NotNil(t, created)
	assert.Empty(t, created.GetDomainEvents(), "events are cleared once published")

	require.Len(t, planned, 3)
	expected := []string{"5.40", "3.24", "2.70"}
	for i, e := range planned {
		assert.Equal(t, cmd.OrderID, e.OrderID)
		assert.Equal(t, ancestors[i], e.BeneficiaryUserID)
		assert.Equal(t, i+1, e.Level)
		assert.True(t, dec(expected[i]).Equal(e.Amount), "level %d amount %s", i+1, e.Amount)
		assert.Equal(t, commission.RankNone, e.RankTier)
	}
	assert.True(t, dec("42.66").Equal(commission.Remainder(inv.ReferralFee, planned)))

	f.publisher.AssertExpectations(t)
	f.reviews.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCompleteOrder_AppliesRankBonusPerBeneficiary(t *testing.T) {
	customer, ancestors, graph := linearChain(2)
	gmv := mapGMV{ancestors[0]: dec("600000")}
	f := newCompletionFixture(t, graph, gmv)
	f.svc.SetRankLookupConcurrency(1)
	cmd := orderCommand(customer)

	var planned []commission.LedgerEntry
	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(nil, nil)
	f.profiles.On("FindByPartnerID", mock.Anything, cmd.PartnerID).Return(nil, nil)
	f.ledger.On("ApplyEntries", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { planned = args.Get(1).([]commission.LedgerEntry) }).
		Return(2, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "PDF_ONLY", result.Invoice.DeliveryMethod, "partners without a profile default to PDF_ONLY")
	assert.Equal(t, "NOT_REQUIRED", result.Invoice.AccountingStatus)

	require.Len(t, planned, 2)
	assert.Equal(t, commission.RankDistrictManager, planned[0].RankTier)
	assert.True(t, dec("0.010").Equal(planned[0].RankBonusApplied))
	assert.True(t, dec("5.94").Equal(planned[0].Amount), "54.00 * (0.10 + 0.010)")
	assert.Equal(t, commission.RankNone, planned[1].RankTier)
	assert.True(t, dec("3.24").Equal(planned[1].Amount))
}

func TestCompleteOrder_UsesOrderReferralRate(t *testing.T) {
	customer, _, graph := linearChain(0)
	f := newCompletionFixture(t, graph, mapGMV{})
	cmd := orderCommand(customer)
	rate := dec("0.30")
	cmd.ReferralRate = &rate

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(nil, nil)
	f.profiles.On("FindByPartnerID", mock.Anything, cmd.PartnerID).Return(nil, nil)
	f.ledger.On("ApplyEntries", mock.Anything, mock.MatchedBy(func(e []commission.LedgerEntry) bool { return len(e) == 0 })).
		Return(0, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.NoError(t, err)
	assert.True(t, dec("36.00").Equal(result.Invoice.ReferralFee))
	assert.True(t, dec("81.60").Equal(result.Invoice.PlatformNet))
}

func TestCompleteOrder_ReplayReturnsExistingInvoice(t *testing.T) {
	customer, _, graph := linearChain(3)
	f := newCompletionFixture(t, graph, mapGMV{})

	existing := createTestInvoice(t, commission.DeliveryEArchive)
	cmd := orderCommand(customer)
	cmd.OrderID = existing.OrderID
	cmd.PartnerID = existing.PartnerID

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(existing, nil)

	result, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.Equal(t, existing.ID, result.Invoice.ID)
	assert.True(t, existing.TotalAmount.Equal(result.Invoice.TotalAmount))
	assert.Zero(t, result.LedgerEntriesWritten)

	f.ledger.AssertNotCalled(t, "ApplyEntries", mock.Anything, mock.Anything)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCompleteOrder_ReplayWithDifferentAmountsKeepsStoredInvoice(t *testing.T) {
	customer, _, graph := linearChain(3)
	f := newCompletionFixture(t, graph, mapGMV{})

	existing := createTestInvoice(t, commission.DeliveryEArchive)
	cmd := orderCommand(customer)
	cmd.OrderID = existing.OrderID
	cmd.PartnerID = existing.PartnerID
	cmd.OrderAmount = dec("5000.00")
	cmd.CommissionRate = dec("0.20")

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(existing, nil)

	result, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.True(t, existing.TotalAmount.Equal(result.Invoice.TotalAmount))

	f.ledger.AssertNotCalled(t, "ApplyEntries", mock.Anything, mock.Anything)
	f.reviews.AssertNotCalled(t, "HasOpenCase", mock.Anything, mock.Anything, mock.Anything)
	f.reviews.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCompleteOrder_ConcurrentDuplicateReadsWinner(t *testing.T) {
	customer, _, graph := linearChain(1)
	f := newCompletionFixture(t, graph, mapGMV{})
	cmd := orderCommand(customer)

	winner := createTestInvoice(t, commission.DeliveryPDFOnly)
	winner.OrderID = cmd.OrderID
	winner.PartnerID = cmd.PartnerID

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(nil, nil).Twice()
	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(winner, nil).Once()
	f.profiles.On("FindByPartnerID", mock.Anything, cmd.PartnerID).Return(nil, nil)
	f.ledger.On("ApplyEntries", mock.Anything, mock.Anything).Return(0, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(commission.ErrDuplicateInvoice)

	result, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.Equal(t, winner.ID, result.Invoice.ID)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.invoices.AssertExpectations(t)
}

func TestCompleteOrder_DifferentPartnerOpensReviewCase(t *testing.T) {
	customer, _, graph := linearChain(1)
	f := newCompletionFixture(t, graph, mapGMV{})

	existing := createTestInvoice(t, commission.DeliveryPDFOnly)
	cmd := orderCommand(customer)
	cmd.OrderID = existing.OrderID

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(existing, nil)
	f.reviews.On("HasOpenCase", mock.Anything, cmd.OrderID, commission.ReviewDataIntegrity).Return(false, nil)
	f.reviews.On("Save", mock.Anything, mock.MatchedBy(func(rc *commission.ReviewCase) bool {
		return rc.OrderID == cmd.OrderID &&
			rc.PartnerID == cmd.PartnerID &&
			rc.Category == commission.ReviewDataIntegrity &&
			rc.Status == commission.ReviewPending &&
			rc.Payload != ""
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.CompleteOrder(t.Context(), cmd)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, commission.ErrDataIntegrity)
	f.reviews.AssertExpectations(t)
}

func TestCompleteOrder_ReferralCycleRollsBackAndOpensReviewCase(t *testing.T) {
	customer := uuid.New()
	referrer := uuid.New()
	graph := mapGraph{customer: referrer, referrer: customer}
	f := newCompletionFixture(t, graph, mapGMV{})
	cmd := orderCommand(customer)

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(nil, nil)
	f.reviews.On("HasOpenCase", mock.Anything, cmd.OrderID, commission.ReviewDataIntegrity).Return(false, nil)
	f.reviews.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.Error(t, err)

	var cycle *commission.ReferralCycleError
	assert.True(t, errors.As(err, &cycle))
	assert.ErrorIs(t, err, commission.ErrDataIntegrity)
	f.ledger.AssertNotCalled(t, "ApplyEntries", mock.Anything, mock.Anything)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.reviews.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCompleteOrder_LedgerConflictOpensReviewCaseOnce(t *testing.T) {
	customer, _, graph := linearChain(1)
	f := newCompletionFixture(t, graph, mapGMV{})
	cmd := orderCommand(customer)

	conflict := &commission.LedgerConflictError{OrderID: cmd.OrderID, Level: 1}
	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(nil, nil)
	f.profiles.On("FindByPartnerID", mock.Anything, cmd.PartnerID).Return(nil, nil)
	f.ledger.On("ApplyEntries", mock.Anything, mock.Anything).Return(0, conflict)
	f.reviews.On("HasOpenCase", mock.Anything, cmd.OrderID, commission.ReviewDataIntegrity).Return(true, nil)

	_, err := f.svc.CompleteOrder(t.Context(), cmd)
	assert.ErrorIs(t, err, commission.ErrDataIntegrity)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.reviews.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCompleteOrder_NegativeNetBlocksWithoutReviewCase(t *testing.T) {
	customer, _, graph := linearChain(1)
	f := newCompletionFixture(t, graph, mapGMV{})
	cmd := orderCommand(customer)
	rate := dec("0.99")
	cmd.ReferralRate = &rate

	f.invoices.On("FindByOrderID", mock.Anything, cmd.OrderID).Return(nil, nil)

	_, err := f.svc.CompleteOrder(t.Context(), cmd)
	require.Error(t, err)

	var negative *commission.NegativeNetError
	assert.True(t, errors.As(err, &negative))
	assert.ErrorIs(t, err, commission.ErrConfiguration)
	f.ledger.AssertNotCalled(t, "ApplyEntries", mock.Anything, mock.Anything)
	f.reviews.AssertNotCalled(t, "HasOpenCase", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteOrder_Validation(t *testing.T) {
	f := newCompletionFixture(t, mapGraph{}, mapGMV{})

	tests := []struct {
		name   string
		mutate func(*OrderCompletedCommand)
	}{
		{"missing order", func(c *OrderCompletedCommand) { c.OrderID = uuid.Nil }},
		{"missing partner", func(c *OrderCompletedCommand) { c.PartnerID = uuid.Nil }},
		{"missing customer", func(c *OrderCompletedCommand) { c.CustomerID = uuid.Nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := orderCommand(uuid.New())
			tt.mutate(&cmd)
			_, err := f.svc.CompleteOrder(t.Context(), cmd)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
	f.invoices.AssertNotCalled(t, "FindByOrderID", mock.Anything, mock.Anything)
}

func TestCompletionOutcome(t *testing.T) {
	assert.Equal(t, outcomeCreated, completionOutcome(&OrderCompletionResult{}, nil))
	assert.Equal(t, outcomeReplayed, completionOutcome(&OrderCompletionResult{Replayed: true}, nil))
	assert.Equal(t, outcomeConfiguration, completionOutcome(nil, &commission.NegativeNetError{
		CommissionGross: decimal.Zero, ReferralFee: decimal.Zero, PaymentFee: decimal.Zero,
	}))
	assert.Equal(t, outcomeIntegrity, completionOutcome(nil, &commission.DataIntegrityError{Reason: "x"}))
	assert.Equal(t, outcomeFailed, completionOutcome(nil, errors.New("db down")))
}
