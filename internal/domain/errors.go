package domain

import (
	"errors"
	"fmt"
)

var (
	// Amount errors
	ErrInvalidAmount = errors.New("amount must not be negative")

	// Obligation errors
	ErrInvalidObligation  = errors.New("invalid obligation")
	ErrObligationNotFound = errors.New("obligation not found")
	ErrVersionConflict    = errors.New("obligation was modified concurrently")

	// State errors
	ErrInvalidState       = errors.New("invalid state")
	ErrShiftClosed        = fmt.Errorf("%w: shift is already closed", ErrInvalidState)
	ErrShiftAlreadyOpen   = fmt.Errorf("%w: user already has an open shift", ErrInvalidState)
	ErrUnappliedRemainder = fmt.Errorf("%w: payment was not fully applied", ErrInvalidState)
	ErrShiftNotFound      = errors.New("shift not found")

	// Matching errors
	ErrAmbiguousMatch = errors.New("ledger entry matches more than one obligation")

	// Entry errors
	ErrInvalidEntry  = errors.New("invalid ledger entry")
	ErrEntryNotFound = errors.New("ledger entry not found")
)
