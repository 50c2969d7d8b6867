package commission

import (
	"context"
	"sync"
	"time"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"go.uber.org/zap"
)

// AccountingRecoveryConfig holds configuration for the recovery poller
type AccountingRecoveryConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// DefaultAccountingRecoveryConfig returns default configuration
func DefaultAccountingRecoveryConfig() AccountingRecoveryConfig {
	return AccountingRecoveryConfig{
		BatchSize:    100,
		PollInterval: time.Minute,
	}
}

// AccountingRecovery re-enqueues PENDING invoices whose next attempt is due.
// Queue tasks are not durable across every failure; the invoice row is, so
// this poller closes the gap after restarts and lost enqueues.
type AccountingRecovery struct {
	invoiceRepo commission.InvoiceRepository
	queue       TaskQueue
	config      AccountingRecoveryConfig
	logger      *zap.Logger
	now         func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAccountingRecovery creates a new recovery poller
func NewAccountingRecovery(
	invoiceRepo commission.InvoiceRepository,
	queue TaskQueue,
	config AccountingRecoveryConfig,
	logger *zap.Logger,
) *AccountingRecovery {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultAccountingRecoveryConfig().BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultAccountingRecoveryConfig().PollInterval
	}
	return &AccountingRecovery{
		invoiceRepo: invoiceRepo,
		queue:       queue,
		config:      config,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start starts the background polling
func (r *AccountingRecovery) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.processLoop(ctx)

	r.logger.Info("accounting recovery started",
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("poll_interval", r.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the poller
func (r *AccountingRecovery) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("accounting recovery stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *AccountingRecovery) processLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce enqueues one batch of due invoices and returns how many were enqueued.
func (r *AccountingRecovery) RunOnce(ctx context.Context) int {
	due, err := r.invoiceRepo.FindDueForAccounting(ctx, r.now(), r.config.BatchSize)
	if err != nil {
		r.logger.Error("failed to find invoices due for accounting", zap.Error(err))
		return 0
	}

	enqueued := 0
	for i := range due {
		inv := &due[i]
		if !inv.NeedsAccountingSubmission() {
			continue
		}
		if err := r.queue.EnqueueAccountingSubmission(ctx, inv.ID); err != nil {
			r.logger.Error("failed to re-enqueue accounting submission",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		r.logger.Info("re-enqueued pending accounting submissions", zap.Int("count", enqueued))
	}
	return enqueued
}
