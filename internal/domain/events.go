package domain

import "time"

// Event types
const (
	EventTypeEntryRecorded     = "entry.recorded"
	EventTypeObligationCreated = "obligation.created"
	EventTypePaymentAllocated  = "payment.allocated"
	EventTypeAllocationRebuilt = "allocation.rebuilt"
	EventTypeShiftOpened       = "shift.opened"
	EventTypeShiftClosed       = "shift.closed"
)

// Aggregate types
const (
	AggregateTypeEntry      = "entry"
	AggregateTypeObligation = "obligation"
	AggregateTypeEntity     = "entity"
	AggregateTypeShift      = "shift"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PaymentAllocatedPayload builds the payload of a payment.allocated event.
func PaymentAllocatedPayload(entityID string, kind ObligationKind, entryID string, r AllocationResult) map[string]any {
	allocations := make([]map[string]any, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		allocations = append(allocations, map[string]any{
			"obligation_id":   a.ObligationID,
			"amount_applied":  a.AmountApplied.String(),
			"new_amount_paid": a.NewAmountPaid.String(),
			"status":          string(a.Status),
		})
	}

	return map[string]any{
		"entity_id":     entityID,
		"kind":          string(kind),
		"entry_id":      entryID,
		"payment":       r.Payment.String(),
		"total_applied": r.TotalApplied.String(),
		"remainder":     r.Remainder.String(),
		"allocations":   allocations,
	}
}

// ShiftClosedPayload builds the payload of a shift.closed event.
func ShiftClosedPayload(s *CashShift) map[string]any {
	payload := map[string]any{
		"shift_id":        s.ID,
		"user_id":         s.UserID,
		"opening_balance": s.OpeningBalance.String(),
		"variance_status": string(s.VarianceStatus),
	}
	if s.ExpectedBalance != nil {
		payload["expected_balance"] = s.ExpectedBalance.String()
	}
	if s.ClosingBalance != nil {
		payload["closing_balance"] = s.ClosingBalance.String()
	}
	if s.Variance != nil {
		payload["variance"] = s.Variance.String()
	}
	return payload
}
