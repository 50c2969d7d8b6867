package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"go.uber.org/zap"
)

// ErrQueueClosed is returned when enqueuing after Close
var ErrQueueClosed = errors.New("queue is closed")

// LocalQueue runs accounting submissions on in-process goroutines. It keeps
// nothing across restarts; AccountingRecovery re-enqueues what was lost.
// Render jobs have no consumer in-process and are only kept for inspection.
type LocalQueue struct {
	submitter AccountingSubmitter
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]struct{}
	renders []commissionapp.PDFRenderTask
	closed  bool

	jobs chan uuid.UUID
	wg   sync.WaitGroup
	ctx  context.Context
	stop context.CancelFunc
}

// NewLocalQueue starts workers goroutines that feed submitter
func NewLocalQueue(submitter AccountingSubmitter, workers int, logger *zap.Logger) *LocalQueue {
	if workers <= 0 {
		workers = 1
	}
	ctx, stop := context.WithCancel(context.Background())
	q := &LocalQueue{
		submitter: submitter,
		logger:    logger,
		pending:   make(map[uuid.UUID]struct{}),
		jobs:      make(chan uuid.UUID, 256),
		ctx:       ctx,
		stop:      stop,
	}
	for range workers {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// EnqueueAccountingSubmission schedules invoiceID unless it is already pending
func (q *LocalQueue) EnqueueAccountingSubmission(ctx context.Context, invoiceID uuid.UUID) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if _, queued := q.pending[invoiceID]; queued {
		q.mu.Unlock()
		return nil
	}
	q.pending[invoiceID] = struct{}{}
	q.mu.Unlock()

	select {
	case q.jobs <- invoiceID:
		return nil
	case <-ctx.Done():
		q.done(invoiceID)
		return ctx.Err()
	case <-q.ctx.Done():
		q.done(invoiceID)
		return ErrQueueClosed
	}
}

// EnqueuePDFRender records the render job
func (q *LocalQueue) EnqueuePDFRender(_ context.Context, task commissionapp.PDFRenderTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.renders = append(q.renders, task)
	q.logger.Info("PDF render job recorded",
		zap.String("invoice_id", task.Request.InvoiceID.String()),
		zap.String("storage_key", task.Request.StorageKey),
	)
	return nil
}

// RenderJobs returns the render jobs recorded so far
func (q *LocalQueue) RenderJobs() []commissionapp.PDFRenderTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]commissionapp.PDFRenderTask, len(q.renders))
	copy(out, q.renders)
	return out
}

// Close stops accepting work, cancels running submissions and waits for
// the workers
func (q *LocalQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.stop()
	q.wg.Wait()
}

func (q *LocalQueue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case id := <-q.jobs:
			q.done(id)
			outcome, err := q.submitter.Submit(q.ctx, id)
			if err != nil {
				q.logger.Warn("Accounting submission did not finish",
					zap.String("invoice_id", id.String()), zap.Error(err))
				continue
			}
			q.logger.Debug("Accounting submission handled",
				zap.String("invoice_id", id.String()), zap.String("outcome", string(outcome)))
		}
	}
}

// done clears the pending mark so the invoice can be queued again
func (q *LocalQueue) done(id uuid.UUID) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

var _ commissionapp.TaskQueue = (*LocalQueue)(nil)
