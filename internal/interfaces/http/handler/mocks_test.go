package handler

import (
	"context"

	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceQueries implements InvoiceQueries for testing
type MockInvoiceQueries struct {
	mock.Mock
}

func (m *MockInvoiceQueries) List(ctx context.Context, actor commissionapp.Actor, filter commissionapp.InvoiceListFilter) (*commissionapp.InvoiceListResponse, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.InvoiceListResponse), args.Error(1)
}

func (m *MockInvoiceQueries) Get(ctx context.Context, actor commissionapp.Actor, id uuid.UUID) (*commissionapp.InvoiceDTO, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.InvoiceDTO), args.Error(1)
}

func (m *MockInvoiceQueries) GetPDF(ctx context.Context, actor commissionapp.Actor, id uuid.UUID) (*commission.PDFRenderRequest, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.PDFRenderRequest), args.Error(1)
}

func (m *MockInvoiceQueries) AttachPDF(ctx context.Context, id uuid.UUID, req commissionapp.AttachPDFRequest) (*commissionapp.InvoiceDTO, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.InvoiceDTO), args.Error(1)
}

// MockOrderCompleter implements OrderCompleter for testing
type MockOrderCompleter struct {
	mock.Mock
}

func (m *MockOrderCompleter) CompleteOrder(ctx context.Context, cmd commissionapp.OrderCompletedCommand) (*commissionapp.OrderCompletionResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.OrderCompletionResult), args.Error(1)
}

// MockReviewOperations implements ReviewOperations for testing
type MockReviewOperations struct {
	mock.Mock
}

func (m *MockReviewOperations) ListCases(ctx context.Context, filter commissionapp.ReviewCaseListFilter) (*shared.Paginated[commissionapp.ReviewCaseDTO], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[commissionapp.ReviewCaseDTO]), args.Error(1)
}

func (m *MockReviewOperations) ResolveCase(ctx context.Context, id, resolvedBy uuid.UUID, req commissionapp.ResolveReviewCaseRequest) (*commissionapp.ReviewCaseDTO, error) {
	args := m.Called(ctx, id, resolvedBy, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.ReviewCaseDTO), args.Error(1)
}

func (m *MockReviewOperations) RetryAccounting(ctx context.Context, invoiceID uuid.UUID) (*commissionapp.InvoiceDTO, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.InvoiceDTO), args.Error(1)
}

func (m *MockReviewOperations) OrderLedger(ctx context.Context, orderID uuid.UUID) (*commissionapp.OrderLedgerResponse, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.OrderLedgerResponse), args.Error(1)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
