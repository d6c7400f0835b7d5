package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidTenant  = errors.New("invalid tenant ID")
	ErrInvalidEntity  = errors.New("invalid entity ID")
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")
	ErrTooManyItems   = errors.New("too many line items")
)

// Validation constants
const (
	MaxIDLength   = 64
	MaxAmount     = "1000000000000" // 1 trillion
	MaxLineItems  = 500
	MaxNoteLength = 500
)

var maxAmount = decimal.RequireFromString(MaxAmount)

// ValidateID validates a tenant, entity or user identifier.
func ValidateID(kind error, id string) error {
	id = strings.TrimSpace(id)

	if id == "" {
		return fmt.Errorf("%w: cannot be empty", kind)
	}

	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: exceeds %d characters", kind, MaxIDLength)
	}

	return nil
}

// ValidateAmount validates a money amount supplied by a caller. Zero is allowed.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateLineItems checks line item count and amounts.
func ValidateLineItems(items []LineItem) error {
	if len(items) > MaxLineItems {
		return fmt.Errorf("%w: %d exceeds %d", ErrTooManyItems, len(items), MaxLineItems)
	}

	for _, li := range items {
		if li.Quantity.IsNegative() || li.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line item %s", ErrInvalidAmount, li.ProductID)
		}
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
