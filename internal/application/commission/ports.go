package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
)

// TransactionScope provides transactional access to the commission repositories.
// Ledger entries and the invoice of one order are written inside a single
// transaction and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories that share the current transaction.
type TransactionalRepositories interface {
	// LedgerRepo returns the distribution ledger repository scoped to the transaction
	LedgerRepo() commission.LedgerRepository
	// InvoiceRepo returns the invoice repository scoped to the transaction
	InvoiceRepo() commission.InvoiceRepository
}

// NoOpTransactionScope runs the function against plain repositories.
// Used in tests and where transactions are not available.
type NoOpTransactionScope struct {
	ledgerRepo  commission.LedgerRepository
	invoiceRepo commission.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(ledgerRepo commission.LedgerRepository, invoiceRepo commission.InvoiceRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{ledgerRepo: ledgerRepo, invoiceRepo: invoiceRepo}
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LedgerRepo returns the ledger repository
func (s *NoOpTransactionScope) LedgerRepo() commission.LedgerRepository {
	return s.ledgerRepo
}

// InvoiceRepo returns the invoice repository
func (s *NoOpTransactionScope) InvoiceRepo() commission.InvoiceRepository {
	return s.invoiceRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

// PDFRenderTask is handed to the external renderer. UploadURL is a presigned
// PUT for Request.StorageKey.
type PDFRenderTask struct {
	Request         commission.PDFRenderRequest `json:"request"`
	UploadURL       string                      `json:"upload_url"`
	UploadExpiresAt time.Time                   `json:"upload_expires_at"`
}

// TaskQueue schedules work that must not run inside the completion transaction.
type TaskQueue interface {
	// EnqueueAccountingSubmission schedules a submission for invoiceID. Enqueuing
	// an invoice that is already queued is not an error.
	EnqueueAccountingSubmission(ctx context.Context, invoiceID uuid.UUID) error
	// EnqueuePDFRender hands a render job to the PDF renderer
	EnqueuePDFRender(ctx context.Context, task PDFRenderTask) error
}

// LeaseStore grants short exclusive leases so that two workers never submit
// the same invoice at the same time.
type LeaseStore interface {
	// Acquire returns false when another holder owns the key
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// PDFStore is the object storage the renderer writes invoice PDFs to.
type PDFStore interface {
	// GenerateUploadURL returns a presigned PUT URL and its expiry
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	// GenerateDownloadURL returns a presigned GET URL and its expiry
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	// ObjectURL returns the stable, unsigned location of an object
	ObjectURL(storageKey string) string
}

// InvoiceNumberGenerator issues unique invoice numbers
type InvoiceNumberGenerator interface {
	NextInvoiceNumber() string
}

// Metrics records commission business metrics.
type Metrics interface {
	InvoiceCreated(ctx context.Context, method commission.DeliveryMethod)
	LedgerEntriesWritten(ctx context.Context, n int)
	AccountingSubmission(ctx context.Context, result string)
	OrderCompletion(ctx context.Context, d time.Duration, outcome string)
}

// NoopMetrics discards all measurements
type NoopMetrics struct{}

func (NoopMetrics) InvoiceCreated(context.Context, commission.DeliveryMethod) {}
func (NoopMetrics) LedgerEntriesWritten(context.Context, int)                 {}
func (NoopMetrics) AccountingSubmission(context.Context, string)              {}
func (NoopMetrics) OrderCompletion(context.Context, time.Duration, string)    {}

var _ Metrics = NoopMetrics{}
