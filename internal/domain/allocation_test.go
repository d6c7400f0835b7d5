package domain

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func creditSale(id string, total string, paid string, at time.Time) Obligation {
	return Obligation{
		ID:          id,
		Kind:        KindSale,
		Total:       dec(total),
		AmountPaid:  dec(paid),
		CreatedAt:   at,
		CompletedAt: at,
		IsCredit:    true,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestAllocate_ThreeCreditSales(t *testing.T) {
	obs := []Obligation{
		creditSale("s3", "200", "0", base.Add(2*time.Hour)),
		creditSale("s1", "500", "0", base),
		creditSale("s2", "300", "0", base.Add(time.Hour)),
	}

	result, err := Allocate(obs, dec("650"))
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)

	first, second := result.Allocations[0], result.Allocations[1]
	assert.Equal(t, "s1", first.ObligationID)
	assertDecimal(t, "500", first.AmountApplied)
	assert.True(t, first.IsFullyPaid)
	assert.Equal(t, PaymentStatusPaid, first.Status)

	assert.Equal(t, "s2", second.ObligationID)
	assertDecimal(t, "150", second.AmountApplied)
	assertDecimal(t, "150", second.Due())
	assert.False(t, second.IsFullyPaid)
	assert.Equal(t, PaymentStatusPartiallyPaid, second.Status)

	assertDecimal(t, "0", result.Remainder)

	updated := result.Apply(obs)
	assertDecimal(t, "200", updated[0].Due(), "s3 must be untouched")
}

func TestAllocate_OverPaymentReturnsRemainder(t *testing.T) {
	result, err := Allocate([]Obligation{creditSale("s1", "100", "0", base)}, dec("150"))
	require.NoError(t, err)
	require.Len(t, result.Allocations, 1)

	assertDecimal(t, "100", result.Allocations[0].AmountApplied)
	assertDecimal(t, "50", result.Remainder)
	assert.ErrorIs(t, result.RequireFullyApplied(), ErrUnappliedRemainder)
	assert.ErrorIs(t, result.RequireFullyApplied(), ErrInvalidState)
}

func TestAllocate_NoObligations(t *testing.T) {
	result, err := Allocate(nil, dec("100"))
	require.NoError(t, err)

	assert.Empty(t, result.Allocations)
	assertDecimal(t, "100", result.Remainder)
}

func TestAllocate_FIFOOrdering(t *testing.T) {
	d1, d2, d3 := dec("120.40"), dec("300"), dec("75.25")
	obs := []Obligation{
		{ID: "c", Total: d3, CreatedAt: base.Add(3 * time.Hour), IsCredit: true},
		{ID: "a", Total: d1, CreatedAt: base.Add(time.Hour), IsCredit: true},
		{ID: "b", Total: d2, CreatedAt: base.Add(2 * time.Hour), IsCredit: true},
	}

	payment := d1.Add(d2.Div(decimal.NewFromInt(2)))
	result, err := Allocate(obs, payment)
	require.NoError(t, err)

	require.Len(t, result.Allocations, 2)
	assert.Equal(t, "a", result.Allocations[0].ObligationID)
	assert.True(t, result.Allocations[0].IsFullyPaid)
	assert.Equal(t, "b", result.Allocations[1].ObligationID)
	assertDecimal(t, "150", result.Allocations[1].Due())
	assertDecimal(t, "0", result.Remainder)
}

func TestAllocate_TiesBrokenByID(t *testing.T) {
	obs := []Obligation{
		creditSale("b", "10", "0", base),
		creditSale("a", "10", "0", base),
	}

	result, err := Allocate(obs, dec("10"))
	require.NoError(t, err)
	require.Len(t, result.Allocations, 1)
	assert.Equal(t, "a", result.Allocations[0].ObligationID)
}

func TestAllocate_SkipsPaidAndNonCredit(t *testing.T) {
	cash := creditSale("cash", "40", "0", base)
	cash.IsCredit = false

	obs := []Obligation{
		creditSale("paid", "100", "100", base),
		cash,
		creditSale("partial", "100", "30", base.Add(time.Minute)),
	}

	result, err := Allocate(obs, dec("100"))
	require.NoError(t, err)
	require.Len(t, result.Allocations, 1)

	a := result.Allocations[0]
	assert.Equal(t, "partial", a.ObligationID)
	assertDecimal(t, "70", a.AmountApplied)
	assertDecimal(t, "30", a.PreviousPaid)
	assertDecimal(t, "100", a.NewAmountPaid)
	assertDecimal(t, "30", result.Remainder)
}

func TestAllocate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		obs     []Obligation
		payment string
		want    error
	}{
		{
			name:    "negative payment",
			payment: "-1",
			want:    ErrInvalidAmount,
		},
		{
			name:    "zero total",
			obs:     []Obligation{creditSale("z", "0", "0", base)},
			payment: "10",
			want:    ErrInvalidObligation,
		},
		{
			name:    "paid above total",
			obs:     []Obligation{creditSale("x", "10", "11", base)},
			payment: "10",
			want:    ErrInvalidObligation,
		},
		{
			name:    "negative paid",
			obs:     []Obligation{creditSale("n", "10", "-1", base)},
			payment: "10",
			want:    ErrInvalidObligation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(tt.obs, dec(tt.payment))
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
		})
	}
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	obs := []Obligation{
		creditSale("b", "50", "0", base.Add(time.Hour)),
		creditSale("a", "50", "0", base),
	}

	_, err := Allocate(obs, dec("75"))
	require.NoError(t, err)

	assert.Equal(t, "b", obs[0].ID)
	assertDecimal(t, "0", obs[0].AmountPaid)
	assertDecimal(t, "0", obs[1].AmountPaid)
}

func randomObligations(r *rand.Rand, n int) []Obligation {
	obs := make([]Obligation, n)
	for i := range obs {
		total := decimal.New(r.Int63n(100000)+1, -2)
		paid := decimal.Zero
		if r.Intn(3) == 0 {
			paid = decimal.New(r.Int63n(total.Shift(2).IntPart()+1), -2)
		}
		obs[i] = Obligation{
			ID:         string(rune('a'+i%26)) + decimal.NewFromInt(int64(i)).String(),
			Total:      total,
			AmountPaid: paid,
			CreatedAt:  base.Add(time.Duration(r.Intn(1000)) * time.Minute),
			IsCredit:   r.Intn(5) != 0,
		}
	}
	return obs
}

func TestAllocate_ConservationProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		obs := randomObligations(r, r.Intn(12))
		payment := decimal.New(r.Int63n(2000000), -2)

		result, err := Allocate(obs, payment)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, a := range result.Allocations {
			assert.True(t, a.AmountApplied.IsPositive())
			assert.True(t, a.NewAmountPaid.LessThanOrEqual(a.Total))
			sum = sum.Add(a.AmountApplied)
		}

		assert.True(t, sum.Add(result.Remainder).Equal(payment), "iteration %d: %s + %s != %s", i, sum, result.Remainder, payment)
		assert.False(t, result.Remainder.IsNegative())
		assert.True(t, sum.Equal(result.TotalApplied))
	}
}

func TestAllocate_OrderPreservedProperty(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		obs := randomObligations(r, r.Intn(10)+1)
		result, err := Allocate(obs, decimal.New(r.Int63n(500000), -2))
		require.NoError(t, err)

		byID := make(map[string]Obligation, len(obs))
		for _, o := range obs {
			byID[o.ID] = o
		}

		for j := 1; j < len(result.Allocations); j++ {
			prev := byID[result.Allocations[j-1].ObligationID]
			cur := byID[result.Allocations[j].ObligationID]
			assert.False(t, cur.CreatedAt.Before(prev.CreatedAt))
			// Only the last obligation touched may be left partially paid.
			assert.True(t, result.Allocations[j-1].IsFullyPaid)
		}
	}
}

func TestAllocateFromBalance(t *testing.T) {
	obs := []Obligation{
		creditSale("s1", "500", "0", base),
		creditSale("s2", "300", "300", base.Add(time.Hour)),
		creditSale("s3", "200", "0", base.Add(2*time.Hour)),
	}

	result, err := AllocateFromBalance(obs, dec("350"))
	require.NoError(t, err)
	require.Len(t, result.Allocations, 3)

	updated := result.Apply(obs)
	assertDecimal(t, "0", updated[0].Due())
	assertDecimal(t, "150", updated[1].Due())
	assertDecimal(t, "200", updated[2].Due())
	assertDecimal(t, "350", SumDue(updated))
}

func TestAllocateFromBalance_Prepayment(t *testing.T) {
	obs := []Obligation{creditSale("s1", "100", "0", base)}

	result, err := AllocateFromBalance(obs, dec("-20"))
	require.NoError(t, err)
	assertDecimal(t, "20", result.Remainder)
	assertDecimal(t, "0", SumDue(result.Apply(obs)))
}

func TestAllocateFromBalance_OutstandingAboveCredit(t *testing.T) {
	_, err := AllocateFromBalance([]Obligation{creditSale("s1", "100", "0", base)}, dec("101"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAllocateFromBalance_SumProperty(t *testing.T) {
	r := rand.New(rand.NewSource(99))

	for i := 0; i < 300; i++ {
		obs := randomObligations(r, r.Intn(10)+1)
		credit := decimal.Zero
		for _, o := range obs {
			if o.IsCredit {
				credit = credit.Add(o.Total)
			}
		}
		if credit.IsZero() {
			continue
		}

		outstanding := decimal.New(r.Int63n(credit.Shift(2).IntPart()+1), -2)
		result, err := AllocateFromBalance(obs, outstanding)
		require.NoError(t, err)

		assert.True(t, SumDue(result.Apply(obs)).Equal(outstanding), "iteration %d", i)
	}
}
