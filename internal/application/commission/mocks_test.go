package commission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Repository mocks
// =============================================================================

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*commission.Invoice, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter commission.InvoiceFilter) ([]commission.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]commission.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindDueForAccounting(ctx context.Context, now time.Time, limit int) ([]commission.Invoice, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]commission.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *commission.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateMutableFields(ctx context.Context, inv *commission.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]commission.LedgerEntry, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]commission.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ApplyEntries(ctx context.Context, planned []commission.LedgerEntry) (int, error) {
	args := m.Called(ctx, planned)
	return args.Int(0), args.Error(1)
}

type MockReviewCaseRepository struct {
	mock.Mock
}

func (m *MockReviewCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.ReviewCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.ReviewCase), args.Error(1)
}

func (m *MockReviewCaseRepository) FindAll(ctx context.Context, filter commission.ReviewCaseFilter) ([]commission.ReviewCase, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]commission.ReviewCase), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewCaseRepository) HasOpenCase(ctx context.Context, orderID uuid.UUID, category commission.ReviewCategory) (bool, error) {
	args := m.Called(ctx, orderID, category)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewCaseRepository) Save(ctx context.Context, rc *commission.ReviewCase) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

type MockBillingProfileReader struct {
	mock.Mock
}

func (m *MockBillingProfileReader) FindByPartnerID(ctx context.Context, partnerID uuid.UUID) (*commission.BillingProfile, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.BillingProfile), args.Error(1)
}

// =============================================================================
// Port mocks
// =============================================================================

type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) EnqueueAccountingSubmission(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

func (m *MockTaskQueue) EnqueuePDFRender(ctx context.Context, task PDFRenderTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

type MockLeaseStore struct {
	mock.Mock
}

func (m *MockLeaseStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaseStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockPDFStore struct {
	mock.Mock
}

func (m *MockPDFStore) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockPDFStore) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockPDFStore) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockPDFStore) ObjectURL(storageKey string) string {
	args := m.Called(storageKey)
	return args.String(0)
}

type MockAccountingGateway struct {
	mock.Mock
}

func (m *MockAccountingGateway) CreateSalesInvoice(ctx context.Context, data commission.SalesInvoiceData) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *MockAccountingGateway) Name() string {
	return "mock"
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// =============================================================================
// Fakes
// =============================================================================

// mapGraph is a ReferralGraph backed by a child -> referrer map
type mapGraph map[uuid.UUID]uuid.UUID

func (g mapGraph) ReferrerOf(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	parent, ok := g[userID]
	return parent, ok, nil
}

// mapGMV is a NetworkGMVSource backed by a map; missing users have zero GMV
type mapGMV map[uuid.UUID]decimal.Decimal

func (s mapGMV) NetworkGMV(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s[userID], nil
}

// sequenceNumbers issues INV-1, INV-2, ...
type sequenceNumbers struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceNumbers) NextInvoiceNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("INV-%d", s.n)
}

// timeoutGateway never answers and returns the context error
type timeoutGateway struct {
	mu    sync.Mutex
	calls int
}

func (g *timeoutGateway) CreateSalesInvoice(ctx context.Context, _ commission.SalesInvoiceData) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

func (g *timeoutGateway) Name() string {
	return "timeout"
}

// =============================================================================
// Helpers
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// linearChain returns a customer and n ancestors where ancestors[0] referred the customer
func linearChain(n int) (uuid.UUID, []uuid.UUID, mapGraph) {
	customer := uuid.New()
	graph := mapGraph{}
	ancestors := make([]uuid.UUID, n)
	child := customer
	for i := 0; i < n; i++ {
		ancestors[i] = uuid.New()
		graph[child] = ancestors[i]
		child = ancestors[i]
	}
	return customer, ancestors, graph
}

// createTestInvoice issues a Scenario A invoice (1000.00 at 12%, referral 45%)
func createTestInvoice(t *testing.T, method commission.DeliveryMethod) *commission.Invoice {
	t.Helper()
	calc := commission.NewFeeCalculator(commission.DefaultRateConfig())
	breakdown, err := calc.ComputeBreakdown(dec("1000.00"), dec("0.12"), dec("0.45"))
	require.NoError(t, err)

	inv, err := commission.NewInvoice(commission.NewInvoiceParams{
		InvoiceNumber:  "INV-" + uuid.NewString()[:8],
		OrderID:        uuid.New(),
		PartnerID:      uuid.New(),
		CustomerID:     uuid.New(),
		Breakdown:      breakdown,
		DeliveryMethod: method,
		IssuedAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}
