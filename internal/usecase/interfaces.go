package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
)

var (
	// ErrCacheMiss is returned by Cache.Get when the key is absent.
	ErrCacheMiss = errors.New("cache miss")

	// ErrLockNotAcquired is returned when another writer holds an entity lock.
	ErrLockNotAcquired = errors.New("entity is locked by another writer")
)

// LedgerEntryRepository defines data access for ledger entries.
type LedgerEntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	List(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error)
}

// ObligationRepository defines data access for sales and purchase orders.
type ObligationRepository interface {
	Create(ctx context.Context, tx Transaction, obligation *domain.Obligation) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Obligation, error)
	List(ctx context.Context, filter domain.ObligationFilter) ([]domain.Obligation, error)
	// ListForUpdate locks the selected rows until tx ends.
	ListForUpdate(ctx context.Context, tx Transaction, filter domain.ObligationFilter) ([]domain.Obligation, error)
	// UpdatePaid sets the paid amount if the row still carries expectedVersion
	// and returns domain.ErrVersionConflict otherwise.
	UpdatePaid(ctx context.Context, tx Transaction, tenantID, id string, amountPaid decimal.Decimal, status domain.PaymentStatus, expectedVersion int64, updatedAt time.Time) error
}

// ShiftRepository defines data access for cash shifts.
type ShiftRepository interface {
	Create(ctx context.Context, tx Transaction, shift *domain.CashShift) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.CashShift, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.CashShift, error)
	// GetOpenByUser returns domain.ErrShiftNotFound when the user has no open shift.
	GetOpenByUser(ctx context.Context, tx Transaction, tenantID, userID string) (*domain.CashShift, error)
	Close(ctx context.Context, tx Transaction, shift *domain.CashShift) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EntityLocker serializes writers for one (tenant, entity) pair.
type EntityLocker interface {
	// Acquire takes the lock or returns ErrLockNotAcquired. The returned
	// function releases it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// IdempotencyInFlight is the value stored under a key whose first request
// has not finished yet.
const IdempotencyInFlight = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key so the request can be retried.
	Delete(ctx context.Context, key string) error
}
