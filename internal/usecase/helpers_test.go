package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase/mocks"
)

type fixture struct {
	ctrl           *gomock.Controller
	txMgr          *mocks.MockTransactionManager
	tx             *mocks.MockTransaction
	entryRepo      *mocks.MockLedgerEntryRepository
	obligationRepo *mocks.MockObligationRepository
	shiftRepo      *mocks.MockShiftRepository
	outboxRepo     *mocks.MockOutboxRepository
	idGen          *mocks.MockIDGenerator
	cache          *mocks.MockCache
	locker         *mocks.MockEntityLocker
	logger         zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:           ctrl,
		txMgr:          mocks.NewMockTransactionManager(ctrl),
		tx:             mocks.NewMockTransaction(ctrl),
		entryRepo:      mocks.NewMockLedgerEntryRepository(ctrl),
		obligationRepo: mocks.NewMockObligationRepository(ctrl),
		shiftRepo:      mocks.NewMockShiftRepository(ctrl),
		outboxRepo:     mocks.NewMockOutboxRepository(ctrl),
		idGen:          mocks.NewMockIDGenerator(ctrl),
		cache:          mocks.NewMockCache(ctrl),
		locker:         mocks.NewMockEntityLocker(ctrl),
		logger:         zerolog.Nop(),
	}

	seq := 0
	f.idGen.EXPECT().Generate().DoAndReturn(func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}).AnyTimes()
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()

	return f
}

// expectTx expects n transactions to begin.
func (f *fixture) expectTx(n int) {
	f.txMgr.EXPECT().Begin(gomock.Any()).Return(f.tx, nil).Times(n)
}

// expectLock expects one lock round trip and reports whether it was released.
func (f *fixture) expectLock(key string) *bool {
	released := false
	f.locker.EXPECT().Acquire(gomock.Any(), key, usecase.DefaultLockTTL).Return(func(context.Context) error {
		released = true
		return nil
	}, nil)
	return &released
}

func (f *fixture) expectBalanceInvalidation(tenantID, entityID string) {
	f.cache.EXPECT().Delete(gomock.Any(), "balance:"+tenantID+":"+entityID+":sale").Return(nil)
	f.cache.EXPECT().Delete(gomock.Any(), "balance:"+tenantID+":"+entityID+":purchase_order").Return(nil)
}

// conflictRetrier retries once on a version conflict.
type conflictRetrier struct {
	attempts int
}

func (r *conflictRetrier) Retry(_ context.Context, op func() error) error {
	for {
		r.attempts++
		err := op()
		if err == nil || !errors.Is(err, domain.ErrVersionConflict) || r.attempts >= 3 {
			return err
		}
	}
}

type decimalMatcher struct {
	want decimal.Decimal
}

func decEq(v string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(v)}
}

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string {
	return "is decimal " + m.want.String()
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func creditSale(id, entityID, total, paid string, at time.Time) domain.Obligation {
	return domain.Obligation{
		ID:            id,
		TenantID:      "t1",
		EntityID:      entityID,
		Kind:          domain.KindSale,
		PaymentMethod: domain.MethodCredit,
		IsCredit:      true,
		Total:         dec(total),
		AmountPaid:    dec(paid),
		Version:       1,
		CreatedAt:     at,
		CompletedAt:   at,
	}
}

func ledgerEntry(id, entityID string, category domain.Category, method, amount, ref string, at time.Time) domain.LedgerEntry {
	direction := domain.DirectionIn
	if category == domain.CategoryPurchase || category == domain.CategorySupplierPayment || category == domain.CategoryExpense {
		direction = domain.DirectionOut
	}
	return domain.LedgerEntry{
		ID:          id,
		TenantID:    "t1",
		EntityID:    entityID,
		Method:      method,
		ReferenceID: ref,
		Direction:   direction,
		Category:    category,
		Amount:      dec(amount),
		Timestamp:   at,
	}
}
