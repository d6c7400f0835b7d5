package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

const ledgerEntryColumns = `id, tenant_id, entity_id, method, reference_id, note, direction, category, amount, occurred_at`

const insertLedgerEntrySQL = `
INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// LedgerEntryRepository implements usecase.LedgerEntryRepository.
type LedgerEntryRepository struct {
	db querier
}

// NewLedgerEntryRepository creates a new LedgerEntryRepository.
func NewLedgerEntryRepository(pool *pgxpool.Pool) *LedgerEntryRepository {
	return newLedgerEntryRepository(pool)
}

func newLedgerEntryRepository(db querier) *LedgerEntryRepository {
	return &LedgerEntryRepository{db: db}
}

// Create appends an entry within a transaction.
func (r *LedgerEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	_, err := txQuerier(tx).Exec(ctx, insertLedgerEntrySQL,
		entry.ID,
		entry.TenantID,
		entry.EntityID,
		entry.Method,
		entry.ReferenceID,
		entry.Note,
		string(entry.Direction),
		string(entry.Category),
		decimalToNumeric(entry.Amount),
		timeToPgTimestamptz(entry.Timestamp),
	)

	return err
}

// GetByID retrieves an entry by ID.
func (r *LedgerEntryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+ledgerEntryColumns+` FROM ledger_entries WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)

	entry, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return entry, nil
}

// List returns entries matching filter in timestamp order. A zero Limit
// returns every match.
func (r *LedgerEntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	query, args := buildEntryQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

func buildEntryQuery(filter domain.EntryFilter) (string, []any) {
	var (
		conds = []string{"tenant_id = $1"}
		args  = []any{filter.TenantID}
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.EntityID != "" {
		add("entity_id = $%d", filter.EntityID)
	}
	if filter.Method != "" {
		add("lower(method) = lower($%d)", filter.Method)
	}
	if !filter.From.IsZero() {
		add("occurred_at >= $%d", timeToPgTimestamptz(filter.From))
	}
	if !filter.To.IsZero() {
		add("occurred_at < $%d", timeToPgTimestamptz(filter.To))
	}

	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY occurred_at, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	return query, args
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		e          domain.LedgerEntry
		direction  string
		category   string
		amount     pgtype.Numeric
		occurredAt time.Time
	)

	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.EntityID,
		&e.Method,
		&e.ReferenceID,
		&e.Note,
		&direction,
		&category,
		&amount,
		&occurredAt,
	)
	if err != nil {
		return nil, err
	}

	e.Direction = domain.Direction(direction)
	e.Category = domain.Category(category)
	e.Amount = numericToDecimal(amount)
	e.Timestamp = occurredAt.UTC()

	return &e, nil
}
