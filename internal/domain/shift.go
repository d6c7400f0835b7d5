package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ShiftStatus is the state of a cash-drawer session.
type ShiftStatus string

const (
	ShiftStatusOpen   ShiftStatus = "open"
	ShiftStatusClosed ShiftStatus = "closed"
)

// VarianceStatus classifies counted cash against the expected balance.
type VarianceStatus string

const (
	VarianceBalanced VarianceStatus = "balanced"
	VarianceOver     VarianceStatus = "over"
	VarianceShort    VarianceStatus = "short"
)

// ClassifyVariance maps a variance to balanced, over or short.
func ClassifyVariance(variance decimal.Decimal) VarianceStatus {
	switch variance.Sign() {
	case 0:
		return VarianceBalanced
	case 1:
		return VarianceOver
	default:
		return VarianceShort
	}
}

// CashShift is a bounded cash-drawer session. It moves from open to closed
// exactly once; the reconciliation fields are fixed at close.
type CashShift struct {
	OpenedAt        time.Time
	ClosedAt        *time.Time
	ClosingBalance  *decimal.Decimal
	ExpectedBalance *decimal.Decimal
	Variance        *decimal.Decimal
	ID              string
	TenantID        string
	UserID          string
	Status          ShiftStatus
	VarianceStatus  VarianceStatus
	OpeningBalance  decimal.Decimal
}

// OpenShift starts a drawer session.
func OpenShift(id, tenantID, userID string, openingBalance decimal.Decimal, openedAt time.Time) (*CashShift, error) {
	if openingBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance %s", ErrInvalidAmount, openingBalance)
	}

	return &CashShift{
		ID:             id,
		TenantID:       tenantID,
		UserID:         userID,
		OpeningBalance: openingBalance,
		Status:         ShiftStatusOpen,
		OpenedAt:       openedAt,
	}, nil
}

// IsOpen reports whether the shift can still be closed.
func (s *CashShift) IsOpen() bool {
	return s.Status == ShiftStatusOpen
}

// CashMovement nets the cash-method entries timestamped in [from, to): cash
// sales and top-ups count in, drops and cash expenses count out.
func CashMovement(entries []LedgerEntry, from, to time.Time) (decimal.Decimal, error) {
	window := InWindow(from, to)
	cash := FilterEntries(entries, func(e *LedgerEntry) bool {
		return IsCashMethod(e.Method) && window(e)
	})

	s, err := Aggregate(cash)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Net(), nil
}

// Expected is the opening balance plus the cash movement of the shift.
func (s *CashShift) Expected(movement decimal.Decimal) decimal.Decimal {
	return s.OpeningBalance.Add(movement)
}

// ExpectedFromEntries computes the expected balance from the ledger entries
// recorded between the shift opening and now.
func (s *CashShift) ExpectedFromEntries(entries []LedgerEntry, now time.Time) (decimal.Decimal, error) {
	movement, err := CashMovement(entries, s.OpenedAt, now)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Expected(movement), nil
}

// Close reconciles the counted cash against expected and freezes the shift.
func (s *CashShift) Close(actual, expected decimal.Decimal, closedAt time.Time) error {
	if !s.IsOpen() {
		return ErrShiftClosed
	}

	if actual.IsNegative() {
		return fmt.Errorf("%w: counted balance %s", ErrInvalidAmount, actual)
	}

	variance := actual.Sub(expected)

	s.Status = ShiftStatusClosed
	s.ClosingBalance = &actual
	s.ExpectedBalance = &expected
	s.Variance = &variance
	s.VarianceStatus = ClassifyVariance(variance)
	s.ClosedAt = &closedAt

	return nil
}
