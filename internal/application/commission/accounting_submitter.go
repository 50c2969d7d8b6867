package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmissionOutcome is the result of one Submit call
type SubmissionOutcome string

const (
	SubmissionSubmitted    SubmissionOutcome = "submitted"
	SubmissionManualReview SubmissionOutcome = "manual_review"
	SubmissionSkipped      SubmissionOutcome = "skipped"
	// SubmissionDeferred means the run was interrupted; the invoice stays
	// PENDING and AccountingRecovery enqueues it again.
	SubmissionDeferred SubmissionOutcome = "deferred"
)

// AccountingSubmitterConfig holds the retry policy of accounting submissions
type AccountingSubmitterConfig struct {
	// MaxAttempts is the attempt budget of an invoice before manual review
	MaxAttempts int
	// AttemptTimeout bounds each vendor call
	AttemptTimeout time.Duration
	// InitialInterval and MaxInterval shape the exponential backoff between attempts
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// LeaseTTL must outlast a whole run of attempts
	LeaseTTL time.Duration
	// RecoveryDelay is when a PENDING invoice becomes due for the recovery poller
	RecoveryDelay time.Duration
}

// DefaultAccountingSubmitterConfig returns the default retry policy
func DefaultAccountingSubmitterConfig() AccountingSubmitterConfig {
	return AccountingSubmitterConfig{
		MaxAttempts:     3,
		AttemptTimeout:  10 * time.Second,
		InitialInterval: 1 * time.Second,
		MaxInterval:     10 * time.Second,
		LeaseTTL:        2 * time.Minute,
		RecoveryDelay:   5 * time.Minute,
	}
}

// AccountingSubmitterDeps are the collaborators of AccountingSubmitter
type AccountingSubmitterDeps struct {
	InvoiceRepo commission.InvoiceRepository
	Profiles    commission.BillingProfileReader
	Gateway     commission.AccountingGateway
	Leases      LeaseStore
	Publisher   shared.EventPublisher
	VATRate     decimal.Decimal
	Config      AccountingSubmitterConfig
	Metrics     Metrics
	Logger      *zap.Logger
}

// AccountingSubmitter registers E_ARCHIVE invoices with the accounting vendor.
// The invoice's persisted AccountingStatus is the durable record of the
// submission; this type only moves it forward.
type AccountingSubmitter struct {
	invoiceRepo commission.InvoiceRepository
	profiles    commission.BillingProfileReader
	gateway     commission.AccountingGateway
	leases      LeaseStore
	publisher   shared.EventPublisher
	vatRate     decimal.Decimal
	config      AccountingSubmitterConfig
	metrics     Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewAccountingSubmitter creates a new AccountingSubmitter
func NewAccountingSubmitter(deps AccountingSubmitterDeps) *AccountingSubmitter {
	cfg := deps.Config
	defaults := DefaultAccountingSubmitterConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaults.AttemptTimeout
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = defaults.LeaseTTL
	}
	if cfg.RecoveryDelay <= 0 {
		cfg.RecoveryDelay = defaults.RecoveryDelay
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AccountingSubmitter{
		invoiceRepo: deps.InvoiceRepo,
		profiles:    deps.Profiles,
		gateway:     deps.Gateway,
		leases:      deps.Leases,
		publisher:   deps.Publisher,
		vatRate:     deps.VATRate,
		config:      cfg,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit registers one invoice with the accounting vendor.
//
// Invoices that already carry an external accounting ID, or that are not
// waiting for submission, are skipped. Each attempt is bounded by
// AttemptTimeout and recorded on the invoice. A permanent vendor error, or
// running out of attempts, moves the invoice to manual review; that is a
// handled outcome and returns a nil error. Invoice totals are never changed.
func (s *AccountingSubmitter) Submit(ctx context.Context, invoiceID uuid.UUID) (SubmissionOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "accounting", "submit_invoice")
	defer span.End()

	telemetry.SetAttributes(span,
		"invoice_id", invoiceID.String(),
		"gateway", s.gateway.Name(),
	)

	outcome, err := s.submit(ctx, invoiceID)
	if outcome != "" {
		s.metrics.AccountingSubmission(ctx, string(outcome))
		telemetry.SetAttribute(span, "outcome", string(outcome))
	}
	if err != nil {
		if outcome == "" {
			s.metrics.AccountingSubmission(ctx, "error")
		}
		telemetry.RecordError(span, err)
		return outcome, err
	}
	return outcome, nil
}

func (s *AccountingSubmitter) submit(ctx context.Context, invoiceID uuid.UUID) (SubmissionOutcome, error) {
	logger := s.logger.With(zap.String("invoice_id", invoiceID.String()), zap.String("gateway", s.gateway.Name()))

	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv == nil {
		return "", commission.ErrInvoiceNotFound
	}
	if !inv.NeedsAccountingSubmission() {
		logger.Debug("invoice does not need accounting submission",
			zap.String("accounting_status", string(inv.AccountingStatus)),
			zap.Bool("has_external_id", inv.HasExternalAccountingID()),
		)
		return SubmissionSkipped, nil
	}

	key := accountingLeaseKey(invoiceID)
	acquired, err := s.leases.Acquire(ctx, key, s.config.LeaseTTL)
	if err != nil {
		return "", fmt.Errorf("failed to acquire submission lease: %w", err)
	}
	if !acquired {
		logger.Info("another worker is submitting this invoice, skipping")
		return SubmissionSkipped, nil
	}
	defer func() {
		if err := s.leases.Release(context.WithoutCancel(ctx), key); err != nil {
			logger.Warn("failed to release submission lease", zap.Error(err))
		}
	}()

	// Re-read under the lease; the previous holder may have finished.
	inv, err = s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv == nil {
		return "", commission.ErrInvoiceNotFound
	}
	if !inv.NeedsAccountingSubmission() {
		return SubmissionSkipped, nil
	}

	buyer, err := s.buyer(ctx, inv.PartnerID)
	if err != nil {
		return "", err
	}
	data := commission.NewSalesInvoiceData(inv, buyer, s.vatRate)

	remaining := s.config.MaxAttempts - inv.AccountingAttempts
	if remaining < 1 {
		remaining = 1
	}

	var (
		externalID string
		gaveUp     bool
	)
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
		defer cancel()

		id, err := s.gateway.CreateSalesInvoice(attemptCtx, data)
		if err == nil {
			externalID = id
			return nil
		}
		if ctx.Err() != nil {
			// Shutting down: leave the invoice PENDING without spending an attempt.
			return backoff.Permanent(ctx.Err())
		}

		permanent := !commission.IsTransient(err)
		gaveUp = inv.RecordAccountingFailure(err, permanent, s.config.MaxAttempts, s.now().Add(s.config.RecoveryDelay))
		if uerr := s.invoiceRepo.UpdateMutableFields(ctx, inv); uerr != nil {
			logger.Error("failed to persist accounting attempt", zap.Error(uerr))
		}

		logger.Warn("accounting submission attempt failed",
			zap.Int("attempt", inv.AccountingAttempts),
			zap.Int("max_attempts", s.config.MaxAttempts),
			zap.Bool("permanent", permanent),
			zap.Error(err),
		)
		if gaveUp {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.config.InitialInterval
	policy.MaxInterval = s.config.MaxInterval
	policy.MaxElapsedTime = 0
	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(remaining-1)), ctx))

	switch {
	case err == nil:
		if err := inv.MarkSubmitted(externalID); err != nil {
			return "", err
		}
		if err := s.invoiceRepo.UpdateMutableFields(ctx, inv); err != nil {
			logger.Error("vendor accepted invoice but the reference could not be saved",
				zap.String("external_accounting_id", externalID),
				zap.Error(err),
			)
			return "", fmt.Errorf("failed to save external accounting id: %w", err)
		}
		s.publishEvents(ctx, inv)
		logger.Info("invoice registered with accounting",
			zap.String("external_accounting_id", externalID),
			zap.Int("failed_attempts", inv.AccountingAttempts),
		)
		return SubmissionSubmitted, nil

	case gaveUp:
		s.publishEvents(ctx, inv)
		logger.Error("accounting submission moved to manual review",
			zap.Int("attempts", inv.AccountingAttempts),
			zap.String("reason", inv.ReviewReason),
			zap.String("last_error", inv.LastAccountingError),
		)
		return SubmissionManualReview, nil

	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		logger.Info("accounting submission interrupted, recovery will resume it")
		return SubmissionDeferred, err

	default:
		return "", fmt.Errorf("accounting submission failed: %w", err)
	}
}

func (s *AccountingSubmitter) buyer(ctx context.Context, partnerID uuid.UUID) (commission.BillingProfile, error) {
	profile, err := s.profiles.FindByPartnerID(ctx, partnerID)
	if err != nil {
		return commission.BillingProfile{}, fmt.Errorf("failed to load billing profile: %w", err)
	}
	if profile == nil {
		return commission.DefaultBillingProfile(partnerID), nil
	}
	return *profile, nil
}

func (s *AccountingSubmitter) publishEvents(ctx context.Context, inv *commission.Invoice) {
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish invoice events",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
	}
}

func accountingLeaseKey(invoiceID uuid.UUID) string {
	return "commission:accounting:lease:" + invoiceID.String()
}
