package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/metrics"
)

// PaymentUseCaseDeps holds the collaborators of PaymentUseCase. Locker,
// Retrier, Cache and Metrics are optional.
type PaymentUseCaseDeps struct {
	TxManager      TransactionManager
	ObligationRepo ObligationRepository
	EntryRepo      LedgerEntryRepository
	OutboxRepo     OutboxRepository
	IDGen          IDGenerator
	Matcher        *domain.Matcher
	Locker         EntityLocker
	LockTTL        time.Duration // defaults to DefaultLockTTL
	Retrier        Retrier
	Cache          Cache
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// PaymentUseCase applies entity payments to open obligations.
type PaymentUseCase struct {
	txManager      TransactionManager
	obligationRepo ObligationRepository
	entryRepo      LedgerEntryRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	matcher        *domain.Matcher
	locker         EntityLocker
	lockTTL        time.Duration
	retrier        Retrier
	cache          Cache
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(deps PaymentUseCaseDeps) *PaymentUseCase {
	if deps.LockTTL <= 0 {
		deps.LockTTL = DefaultLockTTL
	}

	return &PaymentUseCase{
		txManager:      deps.TxManager,
		obligationRepo: deps.ObligationRepo,
		entryRepo:      deps.EntryRepo,
		outboxRepo:     deps.OutboxRepo,
		idGen:          deps.IDGen,
		matcher:        deps.Matcher,
		locker:         deps.Locker,
		lockTTL:        deps.LockTTL,
		retrier:        deps.Retrier,
		cache:          deps.Cache,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
	}
}

// ReceivePaymentInput represents a payment received from a customer or paid
// to a supplier.
type ReceivePaymentInput struct {
	ReceivedAt *time.Time
	TenantID   string
	EntityID   string
	Method     string
	Note       string
	Kind       domain.ObligationKind
	Amount     decimal.Decimal
	// RequireFullyApplied rejects payments that would leave a remainder.
	RequireFullyApplied bool
}

// PaymentReceipt is the outcome of a received payment.
type PaymentReceipt struct {
	Entry  *domain.LedgerEntry
	Result domain.AllocationResult
}

// ReceivePayment records the payment in the ledger and applies it FIFO to the
// entity's open credit obligations. The whole update commits atomically; a
// part of the payment no obligation can absorb is returned as Remainder.
func (uc *PaymentUseCase) ReceivePayment(ctx context.Context, input ReceivePaymentInput) (*PaymentReceipt, error) {
	if err := validateEntityRef(input.TenantID, input.EntityID, input.Kind); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment must be positive", domain.ErrInvalidAmount)
	}

	if len(input.Note) > domain.MaxNoteLength {
		return nil, fmt.Errorf("%w: note exceeds %d characters", domain.ErrInvalidEntry, domain.MaxNoteLength)
	}

	start := time.Now()

	release, err := uc.lock(ctx, input.TenantID, input.EntityID)
	if err != nil {
		return nil, err
	}
	defer release()

	var receipt *PaymentReceipt
	err = uc.retry(ctx, func() error {
		var err error
		receipt, err = uc.allocateAndRecord(ctx, input)
		if errors.Is(err, domain.ErrVersionConflict) && uc.metrics != nil {
			uc.metrics.AllocationConflicts.Inc()
		}
		return err
	})
	if err != nil {
		uc.recordError(err)
		return nil, err
	}

	invalidateBalances(ctx, uc.cache, uc.logger, input.TenantID, input.EntityID)
	uc.recordAllocation(input.Kind, receipt.Result, time.Since(start))

	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("entity_id", input.EntityID).
		Str("kind", string(input.Kind)).
		Str("payment", input.Amount.String()).
		Str("applied", receipt.Result.TotalApplied.String()).
		Str("remainder", receipt.Result.Remainder.String()).
		Int("obligations", len(receipt.Result.Allocations)).
		Msg("payment allocated")

	return receipt, nil
}

func (uc *PaymentUseCase) allocateAndRecord(ctx context.Context, input ReceivePaymentInput) (*PaymentReceipt, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	obligations, err := uc.obligationRepo.ListForUpdate(txCtx, tx, domain.ObligationFilter{
		TenantID:          input.TenantID,
		EntityID:          input.EntityID,
		Kind:              input.Kind,
		IncludeUnassigned: true,
		OpenOnly:          true,
	})
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(txCtx, domain.EntryFilter{TenantID: input.TenantID, EntityID: input.EntityID})
	if err != nil {
		return nil, err
	}

	attributed, err := uc.matcher.Match(obligations, entries, input.EntityID)
	if err != nil {
		return nil, err
	}

	result, err := domain.Allocate(attributed, input.Amount)
	if err != nil {
		return nil, err
	}

	if input.RequireFullyApplied {
		if err := result.RequireFullyApplied(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	for _, a := range result.Allocations {
		err := uc.obligationRepo.UpdatePaid(txCtx, tx, input.TenantID, a.ObligationID, a.NewAmountPaid, a.Status, a.Version, now)
		if err != nil {
			return nil, err
		}
	}

	receivedAt := now
	if input.ReceivedAt != nil {
		receivedAt = input.ReceivedAt.UTC()
	}

	category, direction := input.Kind.PaymentCategory()
	entry := &domain.LedgerEntry{
		ID:        uc.idGen.Generate(),
		TenantID:  input.TenantID,
		EntityID:  input.EntityID,
		Method:    strings.TrimSpace(input.Method),
		Note:      input.Note,
		Direction: direction,
		Category:  category,
		Amount:    input.Amount,
		Timestamp: receivedAt,
	}

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      input.TenantID,
		AggregateID:   input.EntityID,
		AggregateType: domain.AggregateTypeEntity,
		EventType:     domain.EventTypePaymentAllocated,
		Payload:       domain.PaymentAllocatedPayload(input.EntityID, input.Kind, entry.ID, result),
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return &PaymentReceipt{Entry: entry, Result: result}, nil
}

// PreviewAllocation computes how payment would be split over obligations
// without touching storage.
func (uc *PaymentUseCase) PreviewAllocation(obligations []domain.Obligation, payment decimal.Decimal) (domain.AllocationResult, error) {
	return domain.Allocate(obligations, payment)
}

// RebuildInput represents input for re-deriving per-obligation paid amounts
// from the ledger balance.
type RebuildInput struct {
	TenantID string
	EntityID string
	Kind     domain.ObligationKind
	// Persist writes the derived amounts back. Without it the rebuild is a
	// dry run.
	Persist bool
}

// RebuildAllocations splits the entity's ledger balance over its credit
// obligations FIFO, as if every payment had been allocated oldest first.
// Persisting never lowers a recorded paid amount: a rebuild that would do so
// fails with domain.ErrInvalidState.
func (uc *PaymentUseCase) RebuildAllocations(ctx context.Context, input RebuildInput) (domain.AllocationResult, error) {
	if err := validateEntityRef(input.TenantID, input.EntityID, input.Kind); err != nil {
		return domain.AllocationResult{}, err
	}

	release, err := uc.lock(ctx, input.TenantID, input.EntityID)
	if err != nil {
		return domain.AllocationResult{}, err
	}
	defer release()

	var result domain.AllocationResult
	err = uc.retry(ctx, func() error {
		var err error
		result, err = uc.rebuild(ctx, input)
		return err
	})
	if err != nil {
		return domain.AllocationResult{}, err
	}

	if input.Persist {
		invalidateBalances(ctx, uc.cache, uc.logger, input.TenantID, input.EntityID)
	}

	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("entity_id", input.EntityID).
		Bool("persisted", input.Persist).
		Int("obligations", len(result.Allocations)).
		Msg("allocations rebuilt")

	return result, nil
}

func (uc *PaymentUseCase) rebuild(ctx context.Context, input RebuildInput) (domain.AllocationResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return domain.AllocationResult{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	obligations, err := uc.obligationRepo.ListForUpdate(txCtx, tx, domain.ObligationFilter{
		TenantID:          input.TenantID,
		EntityID:          input.EntityID,
		Kind:              input.Kind,
		IncludeUnassigned: true,
	})
	if err != nil {
		return domain.AllocationResult{}, err
	}

	entries, err := uc.entryRepo.List(txCtx, domain.EntryFilter{TenantID: input.TenantID, EntityID: input.EntityID})
	if err != nil {
		return domain.AllocationResult{}, err
	}

	attributed, err := uc.matcher.Match(obligations, entries, input.EntityID)
	if err != nil {
		return domain.AllocationResult{}, err
	}

	balance, err := domain.ComputeEntityBalance(input.EntityID, input.Kind, entries)
	if err != nil {
		return domain.AllocationResult{}, err
	}

	result, err := domain.AllocateFromBalance(attributed, decimal.Max(balance.Balance, decimal.Zero))
	if err != nil {
		return domain.AllocationResult{}, err
	}

	if !input.Persist {
		return result, nil
	}

	recorded := make(map[string]domain.Obligation, len(attributed))
	for _, o := range attributed {
		recorded[o.ID] = o
	}

	now := time.Now().UTC()
	changed := false
	for _, a := range result.Allocations {
		current := recorded[a.ObligationID]
		switch {
		case a.NewAmountPaid.LessThan(current.AmountPaid):
			return domain.AllocationResult{}, fmt.Errorf("%w: rebuild would lower amount paid on %s from %s to %s",
				domain.ErrInvalidState, a.ObligationID, current.AmountPaid, a.NewAmountPaid)
		case a.NewAmountPaid.Equal(current.AmountPaid):
			continue
		}

		err := uc.obligationRepo.UpdatePaid(txCtx, tx, input.TenantID, a.ObligationID, a.NewAmountPaid, a.Status, current.Version, now)
		if err != nil {
			return domain.AllocationResult{}, err
		}
		changed = true
	}

	if changed {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      input.TenantID,
			AggregateID:   input.EntityID,
			AggregateType: domain.AggregateTypeEntity,
			EventType:     domain.EventTypeAllocationRebuilt,
			Payload:       domain.PaymentAllocatedPayload(input.EntityID, input.Kind, "", result),
			CreatedAt:     now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return domain.AllocationResult{}, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return domain.AllocationResult{}, err
	}

	return result, nil
}

func (uc *PaymentUseCase) lock(ctx context.Context, tenantID, entityID string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	unlock, err := uc.locker.Acquire(ctx, entityLockKey(tenantID, entityID), uc.lockTTL)
	if err != nil {
		return nil, err
	}

	return func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Warn().Err(err).Str("entity_id", entityID).Msg("entity lock release failed")
		}
	}, nil
}

func (uc *PaymentUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *PaymentUseCase) recordAllocation(kind domain.ObligationKind, r domain.AllocationResult, elapsed time.Duration) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.PaymentsReceived.WithLabelValues(string(kind)).Inc()
	uc.metrics.PaymentAmount.Observe(r.Payment.InexactFloat64())
	uc.metrics.AllocationDuration.Observe(elapsed.Seconds())

	for _, a := range r.Allocations {
		if a.IsFullyPaid {
			uc.metrics.ObligationsSettled.WithLabelValues(string(kind)).Inc()
		}
	}

	if r.Remainder.IsPositive() {
		uc.metrics.UnappliedRemainders.WithLabelValues(string(kind)).Inc()
	}
}

func (uc *PaymentUseCase) recordError(err error) {
	if uc.metrics == nil {
		return
	}

	errorType := "internal"
	switch {
	case errors.Is(err, domain.ErrVersionConflict):
		errorType = "version_conflict"
	case errors.Is(err, ErrLockNotAcquired):
		errorType = "locked"
	case errors.Is(err, domain.ErrInvalidState):
		errorType = "invalid_state"
	case errors.Is(err, domain.ErrInvalidObligation):
		errorType = "invalid_obligation"
	case errors.Is(err, domain.ErrAmbiguousMatch):
		errorType = "ambiguous_match"
	}

	uc.metrics.AllocationErrors.WithLabelValues(errorType).Inc()
}

func entityLockKey(tenantID, entityID string) string {
	return fmt.Sprintf("lock:entity:%s:%s", tenantID, entityID)
}
