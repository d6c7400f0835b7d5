package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes customer credit sales from supplier purchase orders.
type ObligationKind string

const (
	KindSale          ObligationKind = "sale"
	KindPurchaseOrder ObligationKind = "purchase_order"
)

// IsValid reports whether k is a known kind.
func (k ObligationKind) IsValid() bool {
	return k == KindSale || k == KindPurchaseOrder
}

// LineItem is one product line of a sale or purchase order.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Obligation is a credit sale or a received-but-unpaid purchase order: a
// total and the cumulative amount paid against it. AmountPaid never
// decreases.
type Obligation struct {
	CreatedAt     time.Time
	CompletedAt   time.Time
	ID            string
	TenantID      string
	EntityID      string
	PaymentMethod string
	Kind          ObligationKind
	Items         []LineItem
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	Version       int64
	IsCredit      bool
}

// Due returns the amount still outstanding.
func (o *Obligation) Due() decimal.Decimal {
	return o.Total.Sub(o.AmountPaid)
}

// Status returns the payment status of the obligation.
func (o *Obligation) Status() PaymentStatus {
	return ClassifyPayment(o.AmountPaid, o.Total)
}

// IsOpen reports whether anything is still due.
func (o *Obligation) IsOpen() bool {
	return o.Due().IsPositive()
}

// Validate checks the obligation invariants.
func (o *Obligation) Validate() error {
	if !o.Total.IsPositive() {
		return fmt.Errorf("%w: %s has non-positive total %s", ErrInvalidObligation, o.ID, o.Total)
	}

	if o.AmountPaid.IsNegative() {
		return fmt.Errorf("%w: %s has negative amount paid %s", ErrInvalidObligation, o.ID, o.AmountPaid)
	}

	if o.AmountPaid.GreaterThan(o.Total) {
		return fmt.Errorf("%w: %s has amount paid %s above total %s", ErrInvalidObligation, o.ID, o.AmountPaid, o.Total)
	}

	return nil
}

// ObligationView is the presentation tuple for one obligation.
type ObligationView struct {
	ObligationID string
	Total        decimal.Decimal
	Paid         decimal.Decimal
	Due          decimal.Decimal
	Status       PaymentStatus
	CreatedAt    time.Time
}

// View builds the presentation tuple.
func (o *Obligation) View() ObligationView {
	return ObligationView{
		ObligationID: o.ID,
		Total:        o.Total,
		Paid:         o.AmountPaid,
		Due:          o.Due(),
		Status:       o.Status(),
		CreatedAt:    o.CreatedAt,
	}
}

// SumDue adds up the due amounts of the credit obligations in obs.
func SumDue(obs []Obligation) decimal.Decimal {
	total := decimal.Zero
	for i := range obs {
		if obs[i].IsCredit {
			total = total.Add(obs[i].Due())
		}
	}
	return total
}

// PaymentCategory returns the ledger category and direction a payment
// against obligations of kind k is recorded with.
func (k ObligationKind) PaymentCategory() (Category, Direction) {
	if k == KindPurchaseOrder {
		return CategorySupplierPayment, DirectionOut
	}
	return CategoryCustomerPayment, DirectionIn
}

// OriginCategory returns the ledger category and direction the obligation
// itself is recorded with.
func (k ObligationKind) OriginCategory() (Category, Direction) {
	if k == KindPurchaseOrder {
		return CategoryPurchase, DirectionOut
	}
	return CategorySale, DirectionIn
}
