package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether money flows into or out of the business.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Category classifies a ledger entry.
type Category string

const (
	CategorySale            Category = "SALE"
	CategoryPurchase        Category = "PURCHASE"
	CategoryExpense         Category = "EXPENSE"
	CategoryCustomerPayment Category = "CUSTOMER_PAYMENT"
	CategorySupplierPayment Category = "SUPPLIER_PAYMENT"
	CategoryTransfer        Category = "TRANSFER"
	CategoryAdjustment      Category = "ADJUSTMENT"
)

var validCategories = map[Category]bool{
	CategorySale:            true,
	CategoryPurchase:        true,
	CategoryExpense:         true,
	CategoryCustomerPayment: true,
	CategorySupplierPayment: true,
	CategoryTransfer:        true,
	CategoryAdjustment:      true,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// Payment methods the core gives meaning to. Any other method string is
// accepted and treated as a settled (non-credit, non-cash) payment.
const (
	MethodCash         = "Cash"
	MethodCredit       = "Credit"
	MethodBankTransfer = "Bank Transfer"
	MethodMobileMoney  = "Mobile Money"
)

// IsCreditMethod reports whether method denotes a sale or purchase on credit.
func IsCreditMethod(method string) bool {
	return strings.EqualFold(strings.TrimSpace(method), MethodCredit)
}

// IsCashMethod reports whether method denotes a cash-drawer movement.
func IsCashMethod(method string) bool {
	return strings.EqualFold(strings.TrimSpace(method), MethodCash)
}

// LedgerEntry is an immutable record of one financial movement.
type LedgerEntry struct {
	Timestamp   time.Time
	ID          string
	TenantID    string
	EntityID    string
	Method      string
	ReferenceID string
	Note        string
	Direction   Direction
	Category    Category
	Amount      decimal.Decimal
}

// HasReference reports whether the entry points at a sale or purchase order.
func (e *LedgerEntry) HasReference() bool {
	return e.ReferenceID != ""
}

// Signed returns the amount as seen by the business: positive for IN,
// negative for OUT.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionOut {
		return e.Amount.Neg()
	}
	return e.Amount
}

// ValidateEntry checks an entry before it is recorded.
func ValidateEntry(e *LedgerEntry) error {
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: entry amount %s", ErrInvalidAmount, e.Amount)
	}

	if e.TenantID == "" {
		return fmt.Errorf("%w: tenant is required", ErrInvalidEntry)
	}

	if e.Direction != DirectionIn && e.Direction != DirectionOut {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidEntry, e.Direction)
	}

	if !e.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidEntry, e.Category)
	}

	return nil
}
