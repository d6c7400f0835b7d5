package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSummary holds category-partitioned sums over a set of entries.
type LedgerSummary struct {
	Purchases        decimal.Decimal
	CreditPurchases  decimal.Decimal
	CashPayments     decimal.Decimal
	CreditSales      decimal.Decimal
	DebtPayments     decimal.Decimal
	SupplierPayments decimal.Decimal
	Expenses         decimal.Decimal
	TransfersIn      decimal.Decimal
	TransfersOut     decimal.Decimal
	Adjustments      decimal.Decimal
	TotalIn          decimal.Decimal
	TotalOut         decimal.Decimal
	Count            int
}

// Aggregate folds entries into a LedgerSummary. SALE entries are split into
// credit sales and cash payments by method; PURCHASE entries into credit
// purchases and the overall purchase total. Adjustments are summed signed.
// A negative amount fails the whole fold with ErrInvalidAmount.
func Aggregate(entries []LedgerEntry) (LedgerSummary, error) {
	s := LedgerSummary{
		Purchases:        decimal.Zero,
		CreditPurchases:  decimal.Zero,
		CashPayments:     decimal.Zero,
		CreditSales:      decimal.Zero,
		DebtPayments:     decimal.Zero,
		SupplierPayments: decimal.Zero,
		Expenses:         decimal.Zero,
		TransfersIn:      decimal.Zero,
		TransfersOut:     decimal.Zero,
		Adjustments:      decimal.Zero,
		TotalIn:          decimal.Zero,
		TotalOut:         decimal.Zero,
	}

	for i := range entries {
		e := &entries[i]
		if e.Amount.IsNegative() {
			return LedgerSummary{}, fmt.Errorf("%w: entry %q amount %s", ErrInvalidAmount, e.ID, e.Amount)
		}
		s.Count++

		switch e.Category {
		case CategorySale:
			if IsCreditMethod(e.Method) {
				s.CreditSales = s.CreditSales.Add(e.Amount)
			} else {
				s.CashPayments = s.CashPayments.Add(e.Amount)
			}
		case CategoryPurchase:
			s.Purchases = s.Purchases.Add(e.Amount)
			if IsCreditMethod(e.Method) {
				s.CreditPurchases = s.CreditPurchases.Add(e.Amount)
			}
		case CategoryExpense:
			s.Expenses = s.Expenses.Add(e.Amount)
		case CategoryCustomerPayment:
			s.DebtPayments = s.DebtPayments.Add(e.Amount)
		case CategorySupplierPayment:
			s.SupplierPayments = s.SupplierPayments.Add(e.Amount)
		case CategoryTransfer:
			if e.Direction == DirectionOut {
				s.TransfersOut = s.TransfersOut.Add(e.Amount)
			} else {
				s.TransfersIn = s.TransfersIn.Add(e.Amount)
			}
		case CategoryAdjustment:
			s.Adjustments = s.Adjustments.Add(e.Signed())
		}

		// Credit sales and purchases move no money until they are paid.
		if (e.Category == CategorySale || e.Category == CategoryPurchase) && IsCreditMethod(e.Method) {
			continue
		}

		if e.Direction == DirectionOut {
			s.TotalOut = s.TotalOut.Add(e.Amount)
		} else {
			s.TotalIn = s.TotalIn.Add(e.Amount)
		}
	}

	return s, nil
}

// CustomerBalance is what a customer still owes: credit sales minus the
// debt payments received.
func (s LedgerSummary) CustomerBalance() decimal.Decimal {
	return s.CreditSales.Sub(s.DebtPayments)
}

// SupplierBalance is what the business still owes a supplier.
func (s LedgerSummary) SupplierBalance() decimal.Decimal {
	return s.CreditPurchases.Sub(s.SupplierPayments)
}

// Net is the money that moved in minus the money that moved out.
func (s LedgerSummary) Net() decimal.Decimal {
	return s.TotalIn.Sub(s.TotalOut)
}

// FilterEntries returns the entries for which keep returns true.
func FilterEntries(entries []LedgerEntry, keep func(*LedgerEntry) bool) []LedgerEntry {
	out := make([]LedgerEntry, 0, len(entries))
	for i := range entries {
		if keep(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}

// ForEntity keeps entries that reference entityID.
func ForEntity(entityID string) func(*LedgerEntry) bool {
	return func(e *LedgerEntry) bool {
		return e.EntityID == entityID
	}
}

// InWindow keeps entries with from <= Timestamp < to. A zero bound is open.
func InWindow(from, to time.Time) func(*LedgerEntry) bool {
	return func(e *LedgerEntry) bool {
		if !from.IsZero() && e.Timestamp.Before(from) {
			return false
		}
		if !to.IsZero() && !e.Timestamp.Before(to) {
			return false
		}
		return true
	}
}

// EntityBalance is the derived outstanding balance of one customer or supplier.
type EntityBalance struct {
	EntityID     string
	Kind         ObligationKind
	CreditTotal  decimal.Decimal
	PaymentTotal decimal.Decimal
	Balance      decimal.Decimal
}

// ComputeEntityBalance derives the balance of entityID from the ledger. For
// customers it is credit sales minus customer payments; for suppliers credit
// purchases minus supplier payments.
func ComputeEntityBalance(entityID string, kind ObligationKind, entries []LedgerEntry) (EntityBalance, error) {
	s, err := Aggregate(FilterEntries(entries, ForEntity(entityID)))
	if err != nil {
		return EntityBalance{}, err
	}

	b := EntityBalance{EntityID: entityID, Kind: kind}
	if kind == KindPurchaseOrder {
		b.CreditTotal = s.CreditPurchases
		b.PaymentTotal = s.SupplierPayments
		b.Balance = s.SupplierBalance()
	} else {
		b.CreditTotal = s.CreditSales
		b.PaymentTotal = s.DebtPayments
		b.Balance = s.CustomerBalance()
	}

	return b, nil
}
