package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/metrics"
)

// ObligationUseCase creates and reads sales and purchase orders.
type ObligationUseCase struct {
	txManager      TransactionManager
	obligationRepo ObligationRepository
	entryRepo      LedgerEntryRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	cache          Cache
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewObligationUseCase creates a new ObligationUseCase.
func NewObligationUseCase(
	txManager TransactionManager,
	obligationRepo ObligationRepository,
	entryRepo LedgerEntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ObligationUseCase {
	return &ObligationUseCase{
		txManager:      txManager,
		obligationRepo: obligationRepo,
		entryRepo:      entryRepo,
		outboxRepo:     outboxRepo,
		idGen:          idGen,
		cache:          cache,
		metrics:        metrics,
		logger:         logger,
	}
}

// CreateObligationInput represents input for creating a sale or purchase order.
type CreateObligationInput struct {
	CompletedAt   *time.Time
	TenantID      string
	EntityID      string
	PaymentMethod string
	Kind          domain.ObligationKind
	Items         []domain.LineItem
	// Total defaults to the sum of the line item subtotals.
	Total decimal.Decimal
	// DownPayment is paid at creation on a credit obligation.
	DownPayment decimal.Decimal
}

// CreateObligation stores the obligation and records it in the ledger. A
// credit obligation starts with its down payment paid; any other method
// settles it in full at once.
func (uc *ObligationUseCase) CreateObligation(ctx context.Context, input CreateObligationInput) (*domain.Obligation, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, input.TenantID); err != nil {
		return nil, err
	}

	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidObligation, input.Kind)
	}

	if err := domain.ValidateLineItems(input.Items); err != nil {
		return nil, err
	}

	total := input.Total
	if total.IsZero() {
		for _, li := range input.Items {
			total = total.Add(li.Subtotal())
		}
	}

	if err := domain.ValidateAmount(total); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.DownPayment); err != nil {
		return nil, err
	}

	method := strings.TrimSpace(input.PaymentMethod)
	isCredit := domain.IsCreditMethod(method)
	entityID := strings.TrimSpace(input.EntityID)

	if isCredit && entityID == "" {
		return nil, fmt.Errorf("%w: credit obligations need an entity", domain.ErrInvalidEntity)
	}

	paid := total
	if isCredit {
		paid = input.DownPayment
	}

	now := time.Now().UTC()
	completedAt := now
	if input.CompletedAt != nil {
		completedAt = input.CompletedAt.UTC()
	}

	obligation := &domain.Obligation{
		ID:            uc.idGen.Generate(),
		TenantID:      input.TenantID,
		EntityID:      entityID,
		PaymentMethod: method,
		Kind:          input.Kind,
		Items:         input.Items,
		Total:         total,
		AmountPaid:    paid,
		IsCredit:      isCredit,
		Version:       1,
		CreatedAt:     now,
		CompletedAt:   completedAt,
	}

	if err := obligation.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.obligationRepo.Create(txCtx, tx, obligation); err != nil {
		return nil, err
	}

	for _, entry := range uc.originEntries(obligation) {
		if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
			return nil, err
		}
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      obligation.TenantID,
		AggregateID:   obligation.ID,
		AggregateType: domain.AggregateTypeObligation,
		EventType:     domain.EventTypeObligationCreated,
		Payload: map[string]any{
			"obligation_id":  obligation.ID,
			"entity_id":      obligation.EntityID,
			"kind":           string(obligation.Kind),
			"payment_method": obligation.PaymentMethod,
			"total":          obligation.Total.String(),
			"amount_paid":    obligation.AmountPaid.String(),
			"status":         string(obligation.Status()),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if obligation.EntityID != "" {
		invalidateBalances(ctx, uc.cache, uc.logger, obligation.TenantID, obligation.EntityID)
	}

	if uc.metrics != nil {
		uc.metrics.ObligationsCreated.WithLabelValues(string(obligation.Kind)).Inc()
	}

	uc.logger.Info().
		Str("tenant_id", obligation.TenantID).
		Str("obligation_id", obligation.ID).
		Str("kind", string(obligation.Kind)).
		Bool("credit", obligation.IsCredit).
		Str("total", obligation.Total.String()).
		Msg("obligation created")

	return obligation, nil
}

// originEntries returns the ledger entries recording o: the sale or purchase
// itself and, for a credit obligation with a down payment, that payment.
func (uc *ObligationUseCase) originEntries(o *domain.Obligation) []*domain.LedgerEntry {
	category, direction := o.Kind.OriginCategory()
	entries := []*domain.LedgerEntry{{
		ID:          uc.idGen.Generate(),
		TenantID:    o.TenantID,
		EntityID:    o.EntityID,
		Method:      o.PaymentMethod,
		ReferenceID: o.ID,
		Direction:   direction,
		Category:    category,
		Amount:      o.Total,
		Timestamp:   o.CompletedAt,
	}}

	if o.IsCredit && o.AmountPaid.IsPositive() {
		category, direction := o.Kind.PaymentCategory()
		entries = append(entries, &domain.LedgerEntry{
			ID:          uc.idGen.Generate(),
			TenantID:    o.TenantID,
			EntityID:    o.EntityID,
			Method:      domain.MethodCash,
			ReferenceID: o.ID,
			Note:        "down payment",
			Direction:   direction,
			Category:    category,
			Amount:      o.AmountPaid,
			Timestamp:   o.CompletedAt,
		})
	}

	return entries
}

// GetObligation retrieves an obligation by ID.
func (uc *ObligationUseCase) GetObligation(ctx context.Context, tenantID, id string) (*domain.Obligation, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, tenantID); err != nil {
		return nil, err
	}

	return uc.obligationRepo.GetByID(ctx, tenantID, id)
}

// ListObligationsInput represents input for listing obligations.
type ListObligationsInput struct {
	TenantID string
	EntityID string
	Kind     domain.ObligationKind
	OpenOnly bool
	Limit    int
	Offset   int
}

// ListObligations lists a page of obligations.
func (uc *ObligationUseCase) ListObligations(ctx context.Context, input ListObligationsInput) ([]domain.Obligation, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, input.TenantID); err != nil {
		return nil, err
	}

	if input.Kind != "" && !input.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidObligation, input.Kind)
	}

	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return uc.obligationRepo.List(ctx, domain.ObligationFilter{
		TenantID: input.TenantID,
		EntityID: input.EntityID,
		Kind:     input.Kind,
		OpenOnly: input.OpenOnly,
		Limit:    limit,
		Offset:   offset,
	})
}
