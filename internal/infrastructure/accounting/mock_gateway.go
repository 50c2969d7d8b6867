package accounting

import (
	"context"
	"sync"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
)

// MockGateway accepts every invoice without calling out and returns
// "MOCK-<invoice number>". Failures can be queued for tests and local runs.
type MockGateway struct {
	mu       sync.Mutex
	failures []error
	calls    []commission.SalesInvoiceData
}

// NewMockGateway creates a MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Name identifies the vendor in logs and metrics
func (g *MockGateway) Name() string {
	return "mock"
}

// FailNext makes the next len(errs) calls fail with errs, in order
func (g *MockGateway) FailNext(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = append(g.failures, errs...)
}

// CreateSalesInvoice records the call and returns the deterministic id or
// the next queued failure
func (g *MockGateway) CreateSalesInvoice(ctx context.Context, data commission.SalesInvoiceData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", commission.NewTransientError(opCreateInvoice, 0, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, data)
	if len(g.failures) > 0 {
		err := g.failures[0]
		g.failures = g.failures[1:]
		return "", err
	}
	return "MOCK-" + data.InvoiceNumber, nil
}

// Calls returns the invoices submitted so far
func (g *MockGateway) Calls() []commission.SalesInvoiceData {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]commission.SalesInvoiceData, len(g.calls))
	copy(out, g.calls)
	return out
}

var _ commission.AccountingGateway = (*MockGateway)(nil)
