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

// LedgerUseCase records ledger entries and summarizes them.
type LedgerUseCase struct {
	txManager  TransactionManager
	entryRepo  LedgerEntryRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	cache      Cache
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	entryRepo LedgerEntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:  txManager,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// RecordEntryInput represents input for recording a ledger entry.
type RecordEntryInput struct {
	Timestamp   *time.Time
	TenantID    string
	EntityID    string
	Method      string
	ReferenceID string
	Note        string
	Direction   domain.Direction
	Category    domain.Category
	Amount      decimal.Decimal
}

// RecordEntry appends one entry to the tenant's ledger.
func (uc *LedgerUseCase) RecordEntry(ctx context.Context, input RecordEntryInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, input.TenantID); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if len(input.Note) > domain.MaxNoteLength {
		return nil, fmt.Errorf("%w: note exceeds %d characters", domain.ErrInvalidEntry, domain.MaxNoteLength)
	}

	now := time.Now().UTC()
	timestamp := now
	if input.Timestamp != nil {
		timestamp = input.Timestamp.UTC()
	}

	entry := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		TenantID:    input.TenantID,
		EntityID:    strings.TrimSpace(input.EntityID),
		Method:      strings.TrimSpace(input.Method),
		ReferenceID: strings.TrimSpace(input.ReferenceID),
		Note:        input.Note,
		Direction:   input.Direction,
		Category:    input.Category,
		Amount:      input.Amount,
		Timestamp:   timestamp,
	}

	if err := domain.ValidateEntry(entry); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return nil, err
	}

	event := entryRecordedEvent(uc.idGen.Generate(), entry, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if entry.EntityID != "" {
		invalidateBalances(ctx, uc.cache, uc.logger, entry.TenantID, entry.EntityID)
	}

	if uc.metrics != nil {
		uc.metrics.EntriesRecorded.WithLabelValues(string(entry.Category)).Inc()
	}

	uc.logger.Debug().
		Str("tenant_id", entry.TenantID).
		Str("entry_id", entry.ID).
		Str("category", string(entry.Category)).
		Str("amount", entry.Amount.String()).
		Msg("ledger entry recorded")

	return entry, nil
}

// GetEntry retrieves a ledger entry by ID.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, tenantID, id)
}

// ListEntriesInput represents input for listing ledger entries.
type ListEntriesInput struct {
	From     time.Time
	To       time.Time
	TenantID string
	EntityID string
	Method   string
	Limit    int
	Offset   int
}

// ListEntries lists a page of ledger entries.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]domain.LedgerEntry, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, input.TenantID); err != nil {
		return nil, err
	}

	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return uc.entryRepo.List(ctx, domain.EntryFilter{
		TenantID: input.TenantID,
		EntityID: input.EntityID,
		Method:   input.Method,
		From:     input.From,
		To:       input.To,
		Limit:    limit,
		Offset:   offset,
	})
}

// Summary aggregates the tenant's entries in [from, to). Zero bounds are open.
func (uc *LedgerUseCase) Summary(ctx context.Context, tenantID string, from, to time.Time) (domain.LedgerSummary, error) {
	if err := domain.ValidateID(domain.ErrInvalidTenant, tenantID); err != nil {
		return domain.LedgerSummary{}, err
	}

	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return domain.LedgerSummary{}, fmt.Errorf("%w: window ends before it starts", domain.ErrInvalidEntry)
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{TenantID: tenantID, From: from, To: to})
	if err != nil {
		return domain.LedgerSummary{}, err
	}

	return domain.Aggregate(entries)
}

func entryRecordedEvent(id string, e *domain.LedgerEntry, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            id,
		TenantID:      e.TenantID,
		AggregateID:   e.ID,
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeEntryRecorded,
		Payload: map[string]any{
			"entry_id":     e.ID,
			"entity_id":    e.EntityID,
			"category":     string(e.Category),
			"direction":    string(e.Direction),
			"method":       e.Method,
			"reference_id": e.ReferenceID,
			"amount":       e.Amount.String(),
			"timestamp":    e.Timestamp.Format(time.RFC3339Nano),
		},
		CreatedAt: now,
	}
}
