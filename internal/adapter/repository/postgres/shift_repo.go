package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

const shiftColumns = `id, tenant_id, user_id, status, opening_balance, closing_balance, expected_balance,
	variance, variance_status, opened_at, closed_at`

// ShiftRepository implements usecase.ShiftRepository.
type ShiftRepository struct {
	db querier
}

// NewShiftRepository creates a new ShiftRepository.
func NewShiftRepository(pool *pgxpool.Pool) *ShiftRepository {
	return newShiftRepository(pool)
}

func newShiftRepository(db querier) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create stores an open shift. The partial unique index on open shifts turns
// a concurrent second open into domain.ErrShiftAlreadyOpen.
func (r *ShiftRepository) Create(ctx context.Context, tx usecase.Transaction, s *domain.CashShift) error {
	_, err := txQuerier(tx).Exec(ctx, `
INSERT INTO cash_shifts (id, tenant_id, user_id, status, opening_balance, opened_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID,
		s.TenantID,
		s.UserID,
		string(s.Status),
		decimalToNumeric(s.OpeningBalance),
		timeToPgTimestamptz(s.OpenedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrShiftAlreadyOpen
	}

	return err
}

// GetByID retrieves a shift by ID.
func (r *ShiftRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.CashShift, error) {
	return r.get(ctx, r.db, `SELECT `+shiftColumns+` FROM cash_shifts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetByIDForUpdate retrieves a shift by ID with a FOR UPDATE lock.
func (r *ShiftRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.CashShift, error) {
	return r.get(ctx, txQuerier(tx), `SELECT `+shiftColumns+` FROM cash_shifts WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

// GetOpenByUser retrieves the user's open shift.
func (r *ShiftRepository) GetOpenByUser(ctx context.Context, tx usecase.Transaction, tenantID, userID string) (*domain.CashShift, error) {
	return r.get(ctx, txQuerier(tx),
		`SELECT `+shiftColumns+` FROM cash_shifts WHERE tenant_id = $1 AND user_id = $2 AND status = 'open' FOR UPDATE`,
		tenantID, userID)
}

// Close persists the reconciliation of a shift that is still open.
func (r *ShiftRepository) Close(ctx context.Context, tx usecase.Transaction, s *domain.CashShift) error {
	tag, err := txQuerier(tx).Exec(ctx, `
UPDATE cash_shifts
SET status = $1,
	closing_balance = $2,
	expected_balance = $3,
	variance = $4,
	variance_status = $5,
	closed_at = $6
WHERE tenant_id = $7 AND id = $8 AND status = 'open'`,
		string(s.Status),
		optionalDecimalToNumeric(s.ClosingBalance),
		optionalDecimalToNumeric(s.ExpectedBalance),
		optionalDecimalToNumeric(s.Variance),
		string(s.VarianceStatus),
		optionalTimeToPgTimestamptz(s.ClosedAt),
		s.TenantID,
		s.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrShiftClosed, s.ID)
	}

	return nil
}

func (r *ShiftRepository) get(ctx context.Context, db querier, query string, args ...any) (*domain.CashShift, error) {
	var (
		s              domain.CashShift
		status         string
		opening        pgtype.Numeric
		closing        pgtype.Numeric
		expected       pgtype.Numeric
		variance       pgtype.Numeric
		varianceStatus pgtype.Text
		openedAt       time.Time
		closedAt       pgtype.Timestamptz
	)

	err := db.QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.TenantID,
		&s.UserID,
		&status,
		&opening,
		&closing,
		&expected,
		&variance,
		&varianceStatus,
		&openedAt,
		&closedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShiftNotFound
		}

		return nil, err
	}

	s.Status = domain.ShiftStatus(status)
	s.OpeningBalance = numericToDecimal(opening)
	s.ClosingBalance = numericToOptionalDecimal(closing)
	s.ExpectedBalance = numericToOptionalDecimal(expected)
	s.Variance = numericToOptionalDecimal(variance)
	s.VarianceStatus = domain.VarianceStatus(varianceStatus.String)
	s.OpenedAt = openedAt.UTC()
	s.ClosedAt = pgTimestamptzToOptionalTime(closedAt)

	return &s, nil
}
