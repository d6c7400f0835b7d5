package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
)

var obligationColumnNames = []string{
	"id", "tenant_id", "entity_id", "kind", "payment_method", "is_credit", "items", "total",
	"amount_paid", "version", "schema_version", "created_at", "completed_at",
}

func beginMockTx(t *testing.T, pool pgxmock.PgxPoolIface) *Tx {
	t.Helper()

	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx.(*Tx)
}

func TestObligationRepositoryUpdatePaid(t *testing.T) {
	pool := newMockPool(t)
	repo := newObligationRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectExec("UPDATE obligations").
		WithArgs(pgxmock.AnyArg(), "partially_paid", CurrentObligationSchema, pgxmock.AnyArg(), "t1", "s1", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdatePaid(context.Background(), tx, "t1", "s1", decimal.NewFromInt(250), domain.PaymentStatusPartiallyPaid, 3, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestObligationRepositoryUpdatePaidVersionConflict(t *testing.T) {
	pool := newMockPool(t)
	repo := newObligationRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectExec("UPDATE obligations").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "t1", "s1", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePaid(context.Background(), tx, "t1", "s1", decimal.NewFromInt(250), domain.PaymentStatusPartiallyPaid, 3, time.Now())
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestObligationRepositoryUpdatePaidRejectsUnknownStatus(t *testing.T) {
	pool := newMockPool(t)
	repo := newObligationRepository(pool)
	tx := beginMockTx(t, pool)

	err := repo.UpdatePaid(context.Background(), tx, "t1", "s1", decimal.NewFromInt(250), domain.PaymentStatus("settled"), 3, time.Now())
	if !errors.Is(err, domain.ErrInvalidObligation) {
		t.Fatalf("expected ErrInvalidObligation, got %v", err)
	}
	assertExpectations(t, pool)
}

func TestObligationRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newObligationRepository(pool)

	pool.ExpectQuery("FROM obligations").
		WithArgs("t1", "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "t1", "missing")
	if !errors.Is(err, domain.ErrObligationNotFound) {
		t.Fatalf("expected ErrObligationNotFound, got %v", err)
	}
}

func TestObligationRepositoryListNormalizesLegacyRows(t *testing.T) {
	pool := newMockPool(t)
	repo := newObligationRepository(pool)

	created := time.Date(2023, 11, 2, 10, 0, 0, 0, time.UTC)
	rows := pool.NewRows(obligationColumnNames).
		AddRow("s-old", "t1", "c1", "sale", "Credit", true, []byte(nil), decimalToNumeric(decimal.NewFromInt(120)),
			nil, int64(1), int32(1), created, nil).
		AddRow("s-new", "t1", "c1", "sale", "Credit", true, []byte(`[{"product_id":"p1","name":"Tea","quantity":"2","unit_price":"1.5"}]`),
			decimalToNumeric(decimal.NewFromInt(3)), decimalToNumeric(decimal.NewFromInt(1)), int64(4), int32(2), created.Add(time.Hour),
			pgtype.Timestamptz{Time: created.Add(2 * time.Hour), Valid: true})

	pool.ExpectQuery("FROM obligations").
		WithArgs("t1", "sale", "c1").
		WillReturnRows(rows)

	obligations, err := repo.List(context.Background(), domain.ObligationFilter{
		TenantID:          "t1",
		EntityID:          "c1",
		Kind:              domain.KindSale,
		IncludeUnassigned: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(obligations) != 2 {
		t.Fatalf("expected 2 obligations, got %d", len(obligations))
	}

	legacy := obligations[0]
	if !legacy.AmountPaid.IsZero() || legacy.Status() != domain.PaymentStatusNotPaid {
		t.Errorf("expected legacy credit sale to be unpaid, got %s", legacy.AmountPaid)
	}
	if !legacy.CompletedAt.Equal(created) {
		t.Errorf("expected completed_at to default to created_at, got %s", legacy.CompletedAt)
	}

	current := obligations[1]
	if len(current.Items) != 1 || !current.Items[0].Subtotal().Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected decoded line item, got %+v", current.Items)
	}
	if current.Status() != domain.PaymentStatusPartiallyPaid || current.Version != 4 {
		t.Errorf("unexpected current row %+v", current)
	}

	assertExpectations(t, pool)
}

func TestNormalizeObligationRowNonCreditDefaultsToPaid(t *testing.T) {
	o, err := normalizeObligationRow(obligationRow{
		ID:       "s1",
		Kind:     "sale",
		IsCredit: false,
		Total:    decimalToNumeric(decimal.NewFromInt(40)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Status() != domain.PaymentStatusPaid {
		t.Fatalf("expected legacy cash sale to be paid, got %s", o.Status())
	}
}

func TestNormalizeObligationRowRejectsCorruptItems(t *testing.T) {
	_, err := normalizeObligationRow(obligationRow{ID: "s1", Items: []byte("{not json")})
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestBuildObligationQuery(t *testing.T) {
	query, args := buildObligationQuery(domain.ObligationFilter{
		TenantID: "t1",
		EntityID: "c1",
		Kind:     domain.KindPurchaseOrder,
		OpenOnly: true,
		Limit:    10,
		Offset:   20,
	}, true)

	for _, want := range []string{
		"tenant_id = $1",
		"kind = $2",
		"entity_id = $3",
		"is_credit AND COALESCE(amount_paid, 0) < total",
		"ORDER BY created_at, id",
		"LIMIT $4 OFFSET $5",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("expected query to contain %q, got %s", want, query)
		}
	}

	if !strings.HasSuffix(query, "FOR UPDATE") {
		t.Errorf("expected locking query, got %s", query)
	}

	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
}
