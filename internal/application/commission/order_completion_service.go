package commission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultRankLookupConcurrency bounds the parallel network GMV reads of one order
const DefaultRankLookupConcurrency = 5

// Completion outcomes reported to metrics
const (
	outcomeCreated       = "created"
	outcomeReplayed      = "replayed"
	outcomeConfiguration = "configuration_error"
	outcomeIntegrity     = "data_integrity_error"
	outcomeFailed        = "error"
)

// OrderCompletionDeps are the collaborators of OrderCompletionService
type OrderCompletionDeps struct {
	TxScope     TransactionScope
	InvoiceRepo commission.InvoiceRepository
	ReviewRepo  commission.ReviewCaseRepository
	Profiles    commission.BillingProfileReader
	Calculator  *commission.FeeCalculator
	Chain       *commission.ChainResolver
	Ranks       *commission.RankEngine
	Numbers     InvoiceNumberGenerator
	Publisher   shared.EventPublisher
	Metrics     Metrics
	Logger      *zap.Logger
}

// OrderCompletionService turns a completed order into ledger entries and an invoice.
type OrderCompletionService struct {
	txScope         TransactionScope
	invoiceRepo     commission.InvoiceRepository
	reviewRepo      commission.ReviewCaseRepository
	profiles        commission.BillingProfileReader
	calculator      *commission.FeeCalculator
	chain           *commission.ChainResolver
	ranks           *commission.RankEngine
	numbers         InvoiceNumberGenerator
	publisher       shared.EventPublisher
	metrics         Metrics
	logger          *zap.Logger
	rankConcurrency int
	now             func() time.Time
}

// NewOrderCompletionService creates a new OrderCompletionService
func NewOrderCompletionService(deps OrderCompletionDeps) *OrderCompletionService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderCompletionService{
		txScope:         deps.TxScope,
		invoiceRepo:     deps.InvoiceRepo,
		reviewRepo:      deps.ReviewRepo,
		profiles:        deps.Profiles,
		calculator:      deps.Calculator,
		chain:           deps.Chain,
		ranks:           deps.Ranks,
		numbers:         deps.Numbers,
		publisher:       deps.Publisher,
		metrics:         metrics,
		logger:          logger,
		rankConcurrency: DefaultRankLookupConcurrency,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// SetRankLookupConcurrency overrides how many rank lookups run at once
func (s *OrderCompletionService) SetRankLookupConcurrency(n int) {
	if n > 0 {
		s.rankConcurrency = n
	}
}

// completionPlan is everything computed for an order before anything is written
type completionPlan struct {
	breakdown commission.FeeBreakdown
	entries   []commission.LedgerEntry
	invoice   *commission.Invoice
}

// CompleteOrder computes the fee breakdown, distributes the referral fee up the
// referral chain and issues the partner invoice, all in one transaction.
//
// Calling it again for an order that is already invoiced returns the existing
// invoice and writes nothing. A data integrity failure rolls everything back
// and opens a review case; a configuration failure only rolls back.
func (s *OrderCompletionService) CompleteOrder(ctx context.Context, cmd OrderCompletedCommand) (*OrderCompletionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "complete_order")
	defer span.End()

	telemetry.SetAttributes(span,
		"order_id", cmd.OrderID.String(),
		"partner_id", cmd.PartnerID.String(),
		"customer_id", cmd.CustomerID.String(),
	)

	start := time.Now()
	var (
		result *OrderCompletionResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("complete_order", nil), func(c context.Context) {
		result, err = s.completeOrder(c, cmd)
	})
	s.metrics.OrderCompletion(ctx, time.Since(start), completionOutcome(result, err))

	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"invoice_id", result.Invoice.ID.String(),
		"replayed", result.Replayed,
		"ledger_entries_written", result.LedgerEntriesWritten,
	)
	telemetry.SetOK(span)
	return result, nil
}

func (s *OrderCompletionService) completeOrder(ctx context.Context, cmd OrderCompletedCommand) (*OrderCompletionResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	existing, err := s.invoiceRepo.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}
	if existing != nil {
		return s.replay(ctx, cmd, existing)
	}

	var (
		issued   *commission.Invoice
		replayed *commission.Invoice
		inserted int
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.InvoiceRepo().FindByOrderID(ctx, cmd.OrderID)
		if err != nil {
			return fmt.Errorf("failed to check existing invoice: %w", err)
		}
		if current != nil {
			replayed = current
			return nil
		}

		plan, err := s.plan(ctx, cmd)
		if err != nil {
			return err
		}

		n, err := repos.LedgerRepo().ApplyEntries(ctx, plan.entries)
		if err != nil {
			return fmt.Errorf("failed to write distribution ledger: %w", err)
		}
		if err := repos.InvoiceRepo().Create(ctx, plan.invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		issued = plan.invoice
		inserted = n
		return nil
	})

	switch {
	case errors.Is(err, commission.ErrDuplicateInvoice):
		// Another worker committed the same order first.
		winner, rerr := s.invoiceRepo.FindByOrderID(ctx, cmd.OrderID)
		if rerr != nil {
			return nil, fmt.Errorf("failed to re-read invoice after duplicate insert: %w", rerr)
		}
		if winner == nil {
			return nil, fmt.Errorf("invoice for order %s missing after duplicate insert: %w", cmd.OrderID, err)
		}
		return s.replay(ctx, cmd, winner)
	case errors.Is(err, commission.ErrDataIntegrity):
		s.logger.Error("order invoicing failed, pending review",
			zap.String("order_id", cmd.OrderID.String()),
			zap.String("partner_id", cmd.PartnerID.String()),
			zap.Error(err),
		)
		s.openReviewCase(ctx, cmd, err)
		return nil, err
	case errors.Is(err, commission.ErrConfiguration):
		s.logger.Error("order completion blocked by commission configuration",
			zap.String("order_id", cmd.OrderID.String()),
			zap.Error(err),
		)
		return nil, err
	case err != nil:
		return nil, err
	}

	if replayed != nil {
		return s.replay(ctx, cmd, replayed)
	}

	s.metrics.InvoiceCreated(ctx, issued.DeliveryMethod)
	s.metrics.LedgerEntriesWritten(ctx, inserted)

	s.logger.Info("commission invoice issued",
		zap.String("order_id", cmd.OrderID.String()),
		zap.String("invoice_id", issued.ID.String()),
		zap.String("invoice_number", issued.InvoiceNumber),
		zap.String("delivery_method", issued.DeliveryMethod.String()),
		zap.String("total_amount", issued.TotalAmount.String()),
		zap.Int("ledger_entries", inserted),
	)

	s.publishEvents(ctx, issued.GetDomainEvents())
	issued.ClearDomainEvents()

	return &OrderCompletionResult{
		Invoice:              ToInvoiceDTO(issued),
		LedgerEntriesWritten: inserted,
	}, nil
}

// plan computes the breakdown, the ledger entries and the invoice for cmd.
func (s *OrderCompletionService) plan(ctx context.Context, cmd OrderCompletedCommand) (*completionPlan, error) {
	rates := s.calculator.Rates()

	referralRate := rates.DefaultReferralRate
	if cmd.ReferralRate != nil {
		referralRate = *cmd.ReferralRate
	}

	breakdown, err := s.calculator.ComputeBreakdown(cmd.OrderAmount, cmd.CommissionRate, referralRate)
	if err != nil {
		return nil, err
	}

	links, err := s.chain.Resolve(ctx, cmd.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve referral chain: %w", err)
	}

	ranked, err := s.rankLinks(ctx, links)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries, err := commission.PlanDistribution(cmd.OrderID, breakdown.ReferralFee, ranked, rates.Currency.MinorUnitScale(), now)
	if err != nil {
		return nil, err
	}

	profile, err := s.billingProfile(ctx, cmd.PartnerID)
	if err != nil {
		return nil, err
	}

	inv, err := commission.NewInvoice(commission.NewInvoiceParams{
		InvoiceNumber:  s.numbers.NextInvoiceNumber(),
		OrderID:        cmd.OrderID,
		PartnerID:      cmd.PartnerID,
		CustomerID:     cmd.CustomerID,
		Breakdown:      breakdown,
		DeliveryMethod: profile.EffectiveDeliveryMethod(),
		IssuedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	return &completionPlan{breakdown: breakdown, entries: entries, invoice: inv}, nil
}

// rankLinks resolves the current tier of every chain member concurrently.
func (s *OrderCompletionService) rankLinks(ctx context.Context, links []commission.ChainLink) ([]commission.RankedLink, error) {
	ranked := make([]commission.RankedLink, len(links))
	if len(links) == 0 {
		return ranked, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rankConcurrency)
	for i, link := range links {
		g.Go(func() error {
			tier, bonus, err := s.ranks.CurrentRank(gctx, link.UserID)
			if err != nil {
				return err
			}
			ranked[i] = commission.RankedLink{ChainLink: link, Tier: tier, BonusRate: bonus}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve ranks: %w", err)
	}
	return ranked, nil
}

func (s *OrderCompletionService) billingProfile(ctx context.Context, partnerID uuid.UUID) (commission.BillingProfile, error) {
	profile, err := s.profiles.FindByPartnerID(ctx, partnerID)
	if err != nil {
		return commission.BillingProfile{}, fmt.Errorf("failed to load billing profile: %w", err)
	}
	if profile == nil {
		return commission.DefaultBillingProfile(partnerID), nil
	}
	return *profile, nil
}

// replay answers a repeated completion with the invoice already on file.
func (s *OrderCompletionService) replay(ctx context.Context, cmd OrderCompletedCommand, existing *commission.Invoice) (*OrderCompletionResult, error) {
	if existing.PartnerID != cmd.PartnerID {
		err := &commission.DataIntegrityError{Reason: fmt.Sprintf(
			"order %s is already invoiced to partner %s, completion names partner %s",
			cmd.OrderID, existing.PartnerID, cmd.PartnerID)}
		s.logger.Error("order invoicing failed, pending review",
			zap.String("order_id", cmd.OrderID.String()),
			zap.String("invoice_id", existing.ID.String()),
			zap.Error(err),
		)
		s.openReviewCase(ctx, cmd, err)
		return nil, err
	}

	s.logger.Info("order already invoiced, returning existing invoice",
		zap.String("order_id", cmd.OrderID.String()),
		zap.String("invoice_id", existing.ID.String()),
	)
	return &OrderCompletionResult{Invoice: ToInvoiceDTO(existing), Replayed: true}, nil
}

// openReviewCase records the failed order in the operator queue. It runs after
// the rollback in its own write; failures are logged because the caller
// already returns the original error.
func (s *OrderCompletionService) openReviewCase(ctx context.Context, cmd OrderCompletedCommand, cause error) {
	open, err := s.reviewRepo.HasOpenCase(ctx, cmd.OrderID, commission.ReviewDataIntegrity)
	if err != nil {
		s.logger.Error("failed to check open review cases",
			zap.String("order_id", cmd.OrderID.String()),
			zap.Error(err),
		)
		return
	}
	if open {
		return
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		payload = nil
	}
	rc, err := commission.NewReviewCase(cmd.OrderID, cmd.PartnerID, nil, commission.ReviewDataIntegrity, cause.Error(), string(payload))
	if err != nil {
		s.logger.Error("failed to build review case", zap.String("order_id", cmd.OrderID.String()), zap.Error(err))
		return
	}
	if err := s.reviewRepo.Save(ctx, rc); err != nil {
		s.logger.Error("failed to save review case", zap.String("order_id", cmd.OrderID.String()), zap.Error(err))
		return
	}

	s.publishEvents(ctx, rc.GetDomainEvents())
	rc.ClearDomainEvents()
}

func (s *OrderCompletionService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish commission events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func validateCommand(cmd OrderCompletedCommand) error {
	if cmd.OrderID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Order ID is required")
	}
	if cmd.PartnerID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Partner ID is required")
	}
	if cmd.CustomerID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	return nil
}

func completionOutcome(result *OrderCompletionResult, err error) string {
	switch {
	case err == nil && result != nil && result.Replayed:
		return outcomeReplayed
	case err == nil:
		return outcomeCreated
	case errors.Is(err, commission.ErrConfiguration):
		return outcomeConfiguration
	case errors.Is(err, commission.ErrDataIntegrity):
		return outcomeIntegrity
	default:
		return outcomeFailed
	}
}
