package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Allocation is the share of a payment applied to one obligation.
type Allocation struct {
	ObligationID  string
	AmountApplied decimal.Decimal
	PreviousPaid  decimal.Decimal
	NewAmountPaid decimal.Decimal
	Total         decimal.Decimal
	Version       int64
	IsFullyPaid   bool
	Status        PaymentStatus
}

// Due returns what is left on the obligation after this allocation.
func (a Allocation) Due() decimal.Decimal {
	return a.Total.Sub(a.NewAmountPaid)
}

// AllocationResult is the outcome of one allocation run. Remainder is the
// part of the payment that no obligation could absorb.
type AllocationResult struct {
	Allocations  []Allocation
	Payment      decimal.Decimal
	TotalApplied decimal.Decimal
	Remainder    decimal.Decimal
}

// RequireFullyApplied fails when part of the payment was left over.
func (r AllocationResult) RequireFullyApplied() error {
	if r.Remainder.IsPositive() {
		return fmt.Errorf("%w: %s of %s left over", ErrUnappliedRemainder, r.Remainder, r.Payment)
	}
	return nil
}

// Apply returns copies of obs with the allocated amounts paid in. Obligations
// not touched by the allocation are returned unchanged.
func (r AllocationResult) Apply(obs []Obligation) []Obligation {
	byID := make(map[string]Allocation, len(r.Allocations))
	for _, a := range r.Allocations {
		byID[a.ObligationID] = a
	}

	out := make([]Obligation, len(obs))
	for i := range obs {
		out[i] = obs[i]
		if a, ok := byID[obs[i].ID]; ok {
			out[i].AmountPaid = a.NewAmountPaid
		}
	}
	return out
}

// Allocate distributes payment over the open credit obligations, oldest
// first. Obligations are ordered by CreatedAt, ties broken by ID. Fully paid
// and non-credit obligations are skipped and do not appear in the result.
func Allocate(obligations []Obligation, payment decimal.Decimal) (AllocationResult, error) {
	if payment.IsNegative() {
		return AllocationResult{}, fmt.Errorf("%w: payment %s", ErrInvalidAmount, payment)
	}

	open, err := openCreditObligations(obligations)
	if err != nil {
		return AllocationResult{}, err
	}

	return allocateSorted(open, payment), nil
}

// AllocateFromBalance back-derives a per-obligation split that is consistent
// with a known outstanding balance. Recorded paid amounts are ignored: the
// amount that should have been paid (credit total minus outstanding) is
// allocated FIFO from zero, so the resulting dues add up to outstanding.
// A negative outstanding balance is a prepayment and comes back as Remainder.
func AllocateFromBalance(obligations []Obligation, outstanding decimal.Decimal) (AllocationResult, error) {
	reset := make([]Obligation, 0, len(obligations))
	creditTotal := decimal.Zero

	for i := range obligations {
		o := obligations[i]
		if !o.IsCredit {
			continue
		}
		if err := o.Validate(); err != nil {
			return AllocationResult{}, err
		}
		o.AmountPaid = decimal.Zero
		creditTotal = creditTotal.Add(o.Total)
		reset = append(reset, o)
	}

	shouldBePaid := creditTotal.Sub(outstanding)
	if shouldBePaid.IsNegative() {
		return AllocationResult{}, fmt.Errorf("%w: outstanding %s exceeds credit total %s", ErrInvalidAmount, outstanding, creditTotal)
	}

	sortFIFO(reset)

	result := allocateSorted(reset, shouldBePaid)

	// Every reset obligation is reported so callers can persist the full split,
	// including obligations that end up with nothing paid.
	applied := make(map[string]bool, len(result.Allocations))
	for _, a := range result.Allocations {
		applied[a.ObligationID] = true
	}
	for _, o := range reset {
		if applied[o.ID] {
			continue
		}
		result.Allocations = append(result.Allocations, Allocation{
			ObligationID:  o.ID,
			AmountApplied: decimal.Zero,
			PreviousPaid:  decimal.Zero,
			NewAmountPaid: decimal.Zero,
			Total:         o.Total,
			Version:       o.Version,
			Status:        PaymentStatusNotPaid,
		})
	}

	return result, nil
}

func openCreditObligations(obligations []Obligation) ([]Obligation, error) {
	open := make([]Obligation, 0, len(obligations))
	for i := range obligations {
		o := obligations[i]
		if err := o.Validate(); err != nil {
			return nil, err
		}
		if !o.IsCredit || !o.IsOpen() {
			continue
		}
		open = append(open, o)
	}

	sortFIFO(open)
	return open, nil
}

func sortFIFO(obs []Obligation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if !obs[i].CreatedAt.Equal(obs[j].CreatedAt) {
			return obs[i].CreatedAt.Before(obs[j].CreatedAt)
		}
		return obs[i].ID < obs[j].ID
	})
}

// allocateSorted walks obs in order; obs must already be sorted and open.
func allocateSorted(obs []Obligation, payment decimal.Decimal) AllocationResult {
	result := AllocationResult{
		Allocations:  make([]Allocation, 0, len(obs)),
		Payment:      payment,
		TotalApplied: decimal.Zero,
	}

	remaining := payment
	for i := range obs {
		if !remaining.IsPositive() {
			break
		}

		o := &obs[i]
		due := o.Due()
		if !due.IsPositive() {
			continue
		}

		applied := decimal.Min(remaining, due)
		newPaid := o.AmountPaid.Add(applied)

		result.Allocations = append(result.Allocations, Allocation{
			ObligationID:  o.ID,
			AmountApplied: applied,
			PreviousPaid:  o.AmountPaid,
			NewAmountPaid: newPaid,
			Total:         o.Total,
			Version:       o.Version,
			IsFullyPaid:   newPaid.GreaterThanOrEqual(o.Total),
			Status:        ClassifyPayment(newPaid, o.Total),
		})

		remaining = remaining.Sub(applied)
		result.TotalApplied = result.TotalApplied.Add(applied)
	}

	result.Remainder = remaining
	return result
}
