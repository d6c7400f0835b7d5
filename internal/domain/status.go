package domain

import "github.com/shopspring/decimal"

// PaymentStatus is the tri-state payment progress of a sale or purchase order.
type PaymentStatus string

const (
	PaymentStatusNotPaid       PaymentStatus = "not_paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
)

// ClassifyPayment derives the payment status from the paid and total amounts.
// It is the only place this rule lives.
func ClassifyPayment(amountPaid, total decimal.Decimal) PaymentStatus {
	switch {
	case amountPaid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	case amountPaid.LessThanOrEqual(decimal.Zero):
		return PaymentStatusNotPaid
	default:
		return PaymentStatusPartiallyPaid
	}
}

// IsValid reports whether s is one of the known statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusNotPaid, PaymentStatusPartiallyPaid, PaymentStatusPaid:
		return true
	}
	return false
}
