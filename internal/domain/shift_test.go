package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashEntry(cat Category, dir Direction, amount string, at time.Time) LedgerEntry {
	return LedgerEntry{
		TenantID:  "t1",
		Category:  cat,
		Direction: dir,
		Method:    MethodCash,
		Amount:    dec(amount),
		Timestamp: at,
	}
}

func TestShift_ReconciliationScenario(t *testing.T) {
	shift, err := OpenShift("sh1", "t1", "cashier-1", dec("1000"), base)
	require.NoError(t, err)

	card := cashEntry(CategorySale, DirectionIn, "400", base.Add(time.Hour))
	card.Method = MethodMobileMoney

	entries := []LedgerEntry{
		cashEntry(CategorySale, DirectionIn, "999", base.Add(-time.Minute)), // before the shift
		cashEntry(CategorySale, DirectionIn, "1500", base.Add(time.Hour)),
		cashEntry(CategorySale, DirectionIn, "1000", base.Add(2*time.Hour)),
		cashEntry(CategoryTransfer, DirectionOut, "300", base.Add(3*time.Hour)), // cash drop
		card,
		cashEntry(CategorySale, DirectionIn, "50", base.Add(9*time.Hour)), // after close
	}

	closeAt := base.Add(8 * time.Hour)
	expected, err := shift.ExpectedFromEntries(entries, closeAt)
	require.NoError(t, err)
	assertDecimal(t, "3200", expected)

	require.NoError(t, shift.Close(dec("3150"), expected, closeAt))

	assert.Equal(t, ShiftStatusClosed, shift.Status)
	assertDecimal(t, "-50", *shift.Variance)
	assertDecimal(t, "3200", *shift.ExpectedBalance)
	assertDecimal(t, "3150", *shift.ClosingBalance)
	assert.Equal(t, VarianceShort, shift.VarianceStatus)
	assert.Equal(t, closeAt, *shift.ClosedAt)
}

func TestShift_CloseTwiceFails(t *testing.T) {
	shift, err := OpenShift("sh1", "t1", "u1", dec("100"), base)
	require.NoError(t, err)

	require.NoError(t, shift.Close(dec("100"), dec("100"), base.Add(time.Hour)))
	assert.Equal(t, VarianceBalanced, shift.VarianceStatus)

	err = shift.Close(dec("90"), dec("100"), base.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidState)
	assertDecimal(t, "0", *shift.Variance, "closed shift must stay frozen")
}

func TestShift_InvalidAmounts(t *testing.T) {
	_, err := OpenShift("sh1", "t1", "u1", dec("-1"), base)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	shift, err := OpenShift("sh1", "t1", "u1", dec("0"), base)
	require.NoError(t, err)

	err = shift.Close(dec("-0.01"), dec("0"), base)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.True(t, shift.IsOpen())
}

func TestClassifyVariance(t *testing.T) {
	assert.Equal(t, VarianceOver, ClassifyVariance(dec("0.01")))
	assert.Equal(t, VarianceShort, ClassifyVariance(dec("-0.01")))
	assert.Equal(t, VarianceBalanced, ClassifyVariance(dec("0")))
}

func TestCashMovement_TopUpAndExpense(t *testing.T) {
	entries := []LedgerEntry{
		cashEntry(CategoryTransfer, DirectionIn, "200", base),
		cashEntry(CategoryExpense, DirectionOut, "35.75", base.Add(time.Minute)),
		cashEntry(CategoryCustomerPayment, DirectionIn, "100", base.Add(2*time.Minute)),
	}

	movement, err := CashMovement(entries, base, base.Add(time.Hour))
	require.NoError(t, err)
	assertDecimal(t, "264.25", movement)
}

func TestCashMovement_RejectsNegativeAmount(t *testing.T) {
	entries := []LedgerEntry{
		cashEntry(CategorySale, DirectionIn, "-500", base),
	}

	_, err := CashMovement(entries, base, base.Add(time.Hour))
	require.ErrorIs(t, err, ErrInvalidAmount)

	shift, err := OpenShift("sh1", "t1", "cashier-1", dec("100"), base)
	require.NoError(t, err)
	_, err = shift.ExpectedFromEntries(entries, base.Add(time.Hour))
	require.ErrorIs(t, err, ErrInvalidAmount)
}
