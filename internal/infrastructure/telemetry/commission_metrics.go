package telemetry

import (
	"context"
	"time"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
)

const commissionMeterName = "commission-engine/commission"

// CommissionMetrics records the business metrics of order completion,
// invoicing and accounting submission.
type CommissionMetrics struct {
	invoicesCreated    *Counter
	ledgerEntries      *Counter
	accountingResults  *Counter
	completionDuration *Histogram
}

// NewCommissionMetrics registers the commission instruments on mp
func NewCommissionMetrics(mp *MeterProvider) (*CommissionMetrics, error) {
	meter := mp.Meter(commissionMeterName)

	invoicesCreated, err := NewCounter(meter,
		"commission_invoices_created_total", "Commission invoices issued", "{invoice}")
	if err != nil {
		return nil, err
	}
	ledgerEntries, err := NewCounter(meter,
		"commission_ledger_entries_total", "Distribution ledger entries written", "{entry}")
	if err != nil {
		return nil, err
	}
	accountingResults, err := NewCounter(meter,
		"commission_accounting_submissions_total", "Accounting submission runs by result", "{submission}")
	if err != nil {
		return nil, err
	}
	completionDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "commission_order_completion_duration_seconds",
		Description: "Time to process an order completion",
		Unit:        "s",
		Boundaries:  CompletionDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &CommissionMetrics{
		invoicesCreated:    invoicesCreated,
		ledgerEntries:      ledgerEntries,
		accountingResults:  accountingResults,
		completionDuration: completionDuration,
	}, nil
}

// InvoiceCreated counts an issued invoice by delivery method
func (m *CommissionMetrics) InvoiceCreated(ctx context.Context, method commission.DeliveryMethod) {
	m.invoicesCreated.Inc(ctx, AttrDeliveryMethod.String(method.String()))
}

// LedgerEntriesWritten counts ledger rows persisted for one order
func (m *CommissionMetrics) LedgerEntriesWritten(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.ledgerEntries.Add(ctx, int64(n))
}

// AccountingSubmission counts one submission run by result
func (m *CommissionMetrics) AccountingSubmission(ctx context.Context, result string) {
	m.accountingResults.Inc(ctx, AttrResult.String(result))
}

// OrderCompletion records how long a completion took and how it ended
func (m *CommissionMetrics) OrderCompletion(ctx context.Context, d time.Duration, outcome string) {
	m.completionDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}
