package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/metrics"
)

// ShiftUseCase opens, reconciles and closes cash-drawer shifts.
type ShiftUseCase struct {
	txManager  TransactionManager
	shiftRepo  ShiftRepository
	entryRepo  LedgerEntryRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	retrier    Retrier
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewShiftUseCase creates a new ShiftUseCase. retrier and metrics may be nil.
func NewShiftUseCase(
	txManager TransactionManager,
	shiftRepo ShiftRepository,
	entryRepo LedgerEntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ShiftUseCase {
	return &ShiftUseCase{
		txManager:  txManager,
		shiftRepo:  shiftRepo,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		retrier:    retrier,
		metrics:    metrics,
		logger:     logger,
	}
}

// OpenShiftInput represents input for opening a shift.
type OpenShiftInput struct {
	TenantID       string
	UserID         string
	OpeningBalance decimal.Decimal
}

// OpenShift starts a shift for the user. A user holds at most one open shift
// per tenant.
func (uc *ShiftUseCase) OpenShift(ctx context.Context, input OpenShiftInput) (*domain.CashShift, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, input.TenantID); err != nil {
		return nil, err
	}

	if err := domain.ValidateID(domain.ErrInvalidEntity, input.UserID); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.OpeningBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	shift, err := domain.OpenShift(uc.idGen.Generate(), input.TenantID, input.UserID, input.OpeningBalance, now)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	_, err = uc.shiftRepo.GetOpenByUser(txCtx, tx, input.TenantID, input.UserID)
	switch {
	case err == nil:
		return nil, domain.ErrShiftAlreadyOpen
	case !errors.Is(err, domain.ErrShiftNotFound):
		return nil, err
	}

	if err := uc.shiftRepo.Create(txCtx, tx, shift); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      shift.TenantID,
		AggregateID:   shift.ID,
		AggregateType: domain.AggregateTypeShift,
		EventType:     domain.EventTypeShiftOpened,
		Payload: map[string]any{
			"shift_id":        shift.ID,
			"user_id":         shift.UserID,
			"opening_balance": shift.OpeningBalance.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ShiftsOpened.Inc()
	}

	uc.logger.Info().
		Str("tenant_id", shift.TenantID).
		Str("shift_id", shift.ID).
		Str("user_id", shift.UserID).
		Msg("shift opened")

	return shift, nil
}

// GetShift retrieves a shift by ID.
func (uc *ShiftUseCase) GetShift(ctx context.Context, tenantID, id string) (*domain.CashShift, error) {
	return uc.shiftRepo.GetByID(ctx, tenantID, id)
}

// ShiftExpectation is the running expected drawer balance of a shift.
type ShiftExpectation struct {
	AsOf     time.Time
	Shift    *domain.CashShift
	Movement decimal.Decimal
	Expected decimal.Decimal
}

// ExpectedBalance computes what the drawer should hold now. For a closed shift
// the figure frozen at close is returned.
func (uc *ShiftUseCase) ExpectedBalance(ctx context.Context, tenantID, id string) (*ShiftExpectation, error) {
	shift, err := uc.shiftRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if !shift.IsOpen() && shift.ExpectedBalance != nil && shift.ClosedAt != nil {
		return &ShiftExpectation{
			AsOf:     *shift.ClosedAt,
			Shift:    shift,
			Movement: shift.ExpectedBalance.Sub(shift.OpeningBalance),
			Expected: *shift.ExpectedBalance,
		}, nil
	}

	now := time.Now().UTC()
	movement, err := uc.cashMovement(ctx, shift, now)
	if err != nil {
		return nil, err
	}

	return &ShiftExpectation{
		AsOf:     now,
		Shift:    shift,
		Movement: movement,
		Expected: shift.Expected(movement),
	}, nil
}

// CloseShiftInput represents input for closing a shift.
type CloseShiftInput struct {
	TenantID      string
	ShiftID       string
	ActualBalance decimal.Decimal
}

// CloseShift reconciles the counted cash against the expected balance and
// closes the shift. Closing a closed shift fails with domain.ErrShiftClosed.
func (uc *ShiftUseCase) CloseShift(ctx context.Context, input CloseShiftInput) (*domain.CashShift, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, input.TenantID); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.ActualBalance); err != nil {
		return nil, err
	}

	var closed *domain.CashShift
	op := func() error {
		var err error
		closed, err = uc.closeShift(ctx, input)
		return err
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ShiftsClosed.WithLabelValues(string(closed.VarianceStatus)).Inc()
		uc.metrics.ShiftVariance.Observe(closed.Variance.Abs().InexactFloat64())
	}

	event := uc.logger.Info()
	if closed.VarianceStatus != domain.VarianceBalanced {
		event = uc.logger.Warn()
	}
	event.
		Str("tenant_id", closed.TenantID).
		Str("shift_id", closed.ID).
		Str("expected", closed.ExpectedBalance.String()).
		Str("actual", closed.ClosingBalance.String()).
		Str("variance", closed.Variance.String()).
		Str("variance_status", string(closed.VarianceStatus)).
		Msg("shift closed")

	return closed, nil
}

func (uc *ShiftUseCase) closeShift(ctx context.Context, input CloseShiftInput) (*domain.CashShift, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	shift, err := uc.shiftRepo.GetByIDForUpdate(txCtx, tx, input.TenantID, input.ShiftID)
	if err != nil {
		return nil, err
	}

	if !shift.IsOpen() {
		return nil, domain.ErrShiftClosed
	}

	now := time.Now().UTC()
	movement, err := uc.cashMovement(txCtx, shift, now)
	if err != nil {
		return nil, err
	}

	if err := shift.Close(input.ActualBalance, shift.Expected(movement), now); err != nil {
		return nil, err
	}

	if err := uc.shiftRepo.Close(txCtx, tx, shift); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      shift.TenantID,
		AggregateID:   shift.ID,
		AggregateType: domain.AggregateTypeShift,
		EventType:     domain.EventTypeShiftClosed,
		Payload:       domain.ShiftClosedPayload(shift),
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return shift, nil
}

func (uc *ShiftUseCase) cashMovement(ctx context.Context, shift *domain.CashShift, now time.Time) (decimal.Decimal, error) {
	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{
		TenantID: shift.TenantID,
		Method:   domain.MethodCash,
		From:     shift.OpenedAt,
		To:       now,
	})
	if err != nil {
		return decimal.Zero, err
	}

	return domain.CashMovement(entries, shift.OpenedAt, now)
}
