package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// CurrentObligationSchema is written on every new row. Version 1 rows
// predate per-obligation payment tracking and may lack amount_paid,
// payment_status and completed_at.
const CurrentObligationSchema = 2

const obligationColumns = `id, tenant_id, entity_id, kind, payment_method, is_credit, items, total,
	amount_paid, version, schema_version, created_at, completed_at`

const insertObligationSQL = `
INSERT INTO obligations (id, tenant_id, entity_id, kind, payment_method, is_credit, items, total,
	amount_paid, payment_status, version, schema_version, created_at, completed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $13)`

// updatePaidSQL refuses to lower amount_paid and only matches the version
// the caller read. payment_status is computed by domain.ClassifyPayment.
const updatePaidSQL = `
UPDATE obligations
SET amount_paid = $1,
	payment_status = $2,
	completed_at = COALESCE(completed_at, created_at),
	schema_version = $3,
	version = version + 1,
	updated_at = $4
WHERE tenant_id = $5 AND id = $6 AND version = $7 AND COALESCE(amount_paid, 0) <= $1`

// ObligationRepository implements usecase.ObligationRepository.
type ObligationRepository struct {
	db querier
}

// NewObligationRepository creates a new ObligationRepository.
func NewObligationRepository(pool *pgxpool.Pool) *ObligationRepository {
	return newObligationRepository(pool)
}

func newObligationRepository(db querier) *ObligationRepository {
	return &ObligationRepository{db: db}
}

// Create stores a new obligation within a transaction.
func (r *ObligationRepository) Create(ctx context.Context, tx usecase.Transaction, o *domain.Obligation) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	_, err = txQuerier(tx).Exec(ctx, insertObligationSQL,
		o.ID,
		o.TenantID,
		o.EntityID,
		string(o.Kind),
		o.PaymentMethod,
		o.IsCredit,
		items,
		decimalToNumeric(o.Total),
		decimalToNumeric(o.AmountPaid),
		string(o.Status()),
		o.Version,
		CurrentObligationSchema,
		timeToPgTimestamptz(o.CreatedAt),
		timeToPgTimestamptz(o.CompletedAt),
	)

	return err
}

// GetByID retrieves an obligation by ID.
func (r *ObligationRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Obligation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+obligationColumns+` FROM obligations WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)

	o, err := scanObligation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}

		return nil, err
	}

	return o, nil
}

// List returns obligations matching filter, oldest first.
func (r *ObligationRepository) List(ctx context.Context, filter domain.ObligationFilter) ([]domain.Obligation, error) {
	query, args := buildObligationQuery(filter, false)
	return r.list(ctx, r.db, query, args)
}

// ListForUpdate is List with the matched rows locked until tx ends.
func (r *ObligationRepository) ListForUpdate(ctx context.Context, tx usecase.Transaction, filter domain.ObligationFilter) ([]domain.Obligation, error) {
	query, args := buildObligationQuery(filter, true)
	return r.list(ctx, txQuerier(tx), query, args)
}

func (r *ObligationRepository) list(ctx context.Context, db querier, query string, args []any) ([]domain.Obligation, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obligations []domain.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, *o)
	}

	return obligations, rows.Err()
}

// UpdatePaid sets amount_paid under an optimistic version check.
func (r *ObligationRepository) UpdatePaid(
	ctx context.Context,
	tx usecase.Transaction,
	tenantID, id string,
	amountPaid decimal.Decimal,
	status domain.PaymentStatus,
	expectedVersion int64,
	updatedAt time.Time,
) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: payment status %q", domain.ErrInvalidObligation, status)
	}

	tag, err := txQuerier(tx).Exec(ctx, updatePaidSQL,
		decimalToNumeric(amountPaid),
		string(status),
		CurrentObligationSchema,
		timeToPgTimestamptz(updatedAt),
		tenantID,
		id,
		expectedVersion,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: obligation %s at version %d", domain.ErrVersionConflict, id, expectedVersion)
	}

	return nil
}

func buildObligationQuery(filter domain.ObligationFilter, forUpdate bool) (string, []any) {
	var (
		conds = []string{"tenant_id = $1"}
		args  = []any{filter.TenantID}
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Kind != "" {
		add("kind = $%d", string(filter.Kind))
	}
	if filter.EntityID != "" {
		if filter.IncludeUnassigned {
			add("(entity_id = $%d OR entity_id = '')", filter.EntityID)
		} else {
			add("entity_id = $%d", filter.EntityID)
		}
	}
	if filter.OpenOnly {
		conds = append(conds, "is_credit AND COALESCE(amount_paid, 0) < total")
	}

	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	if forUpdate {
		query += " FOR UPDATE"
	}

	return query, args
}

// obligationRow is the raw storage shape, before normalization.
type obligationRow struct {
	ID            string
	TenantID      string
	EntityID      string
	Kind          string
	PaymentMethod string
	IsCredit      bool
	Items         []byte
	Total         pgtype.Numeric
	AmountPaid    pgtype.Numeric
	Version       int64
	SchemaVersion int32
	CreatedAt     time.Time
	CompletedAt   pgtype.Timestamptz
}

func scanObligation(row pgx.Row) (*domain.Obligation, error) {
	var raw obligationRow

	err := row.Scan(
		&raw.ID,
		&raw.TenantID,
		&raw.EntityID,
		&raw.Kind,
		&raw.PaymentMethod,
		&raw.IsCredit,
		&raw.Items,
		&raw.Total,
		&raw.AmountPaid,
		&raw.Version,
		&raw.SchemaVersion,
		&raw.CreatedAt,
		&raw.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	return normalizeObligationRow(raw)
}

// normalizeObligationRow maps any stored schema version onto the current
// model. A missing amount_paid means nothing was paid on a credit obligation
// and everything was paid on any other; a missing completed_at falls back to
// created_at.
func normalizeObligationRow(raw obligationRow) (*domain.Obligation, error) {
	o := &domain.Obligation{
		ID:            raw.ID,
		TenantID:      raw.TenantID,
		EntityID:      raw.EntityID,
		Kind:          domain.ObligationKind(raw.Kind),
		PaymentMethod: raw.PaymentMethod,
		IsCredit:      raw.IsCredit,
		Total:         numericToDecimal(raw.Total),
		Version:       raw.Version,
		CreatedAt:     raw.CreatedAt.UTC(),
	}

	if len(raw.Items) > 0 {
		if err := json.Unmarshal(raw.Items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of obligation %s: %w", raw.ID, err)
		}
	}

	switch {
	case raw.AmountPaid.Valid:
		o.AmountPaid = numericToDecimal(raw.AmountPaid)
	case o.IsCredit:
		o.AmountPaid = decimal.Zero
	default:
		o.AmountPaid = o.Total
	}

	o.CompletedAt = o.CreatedAt
	if raw.CompletedAt.Valid {
		o.CompletedAt = raw.CompletedAt.Time.UTC()
	}

	return o, nil
}
