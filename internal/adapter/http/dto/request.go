package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// RecordEntryRequest represents a request to record a ledger entry.
type RecordEntryRequest struct {
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
	EntityID    string          `json:"entity_id,omitempty"`
	Method      string          `json:"method"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Note        string          `json:"note,omitempty"`
	Direction   string          `json:"direction"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordEntryRequest) ToUseCaseInput(tenantID string) usecase.RecordEntryInput {
	return usecase.RecordEntryInput{
		Timestamp:   r.Timestamp,
		TenantID:    tenantID,
		EntityID:    r.EntityID,
		Method:      r.Method,
		ReferenceID: r.ReferenceID,
		Note:        r.Note,
		Direction:   domain.Direction(r.Direction),
		Category:    domain.Category(r.Category),
		Amount:      r.Amount,
	}
}

// Validate rejects an amount storage would round.
func (r *RecordEntryRequest) Validate() error {
	return checkScale("amount", r.Amount)
}

// LineItemRequest is one line of an obligation.
type LineItemRequest struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateObligationRequest represents a completed sale or purchase order.
type CreateObligationRequest struct {
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	EntityID      string            `json:"entity_id,omitempty"`
	PaymentMethod string            `json:"payment_method"`
	Kind          string            `json:"kind"`
	Items         []LineItemRequest `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	DownPayment   decimal.Decimal   `json:"down_payment"`
}

// Validate rejects money fields storage would round.
func (r *CreateObligationRequest) Validate() error {
	if err := checkScale("total", r.Total); err != nil {
		return err
	}
	if err := checkScale("down_payment", r.DownPayment); err != nil {
		return err
	}
	for i, li := range r.Items {
		if err := checkScale(fmt.Sprintf("items[%d].unit_price", i), li.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

// ToUseCaseInput converts to use case input.
func (r *CreateObligationRequest) ToUseCaseInput(tenantID string) (usecase.CreateObligationInput, error) {
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return usecase.CreateObligationInput{}, err
	}

	items := make([]domain.LineItem, 0, len(r.Items))
	for _, li := range r.Items {
		items = append(items, domain.LineItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		})
	}

	return usecase.CreateObligationInput{
		CompletedAt:   r.CompletedAt,
		TenantID:      tenantID,
		EntityID:      r.EntityID,
		PaymentMethod: r.PaymentMethod,
		Kind:          kind,
		Items:         items,
		Total:         r.Total,
		DownPayment:   r.DownPayment,
	}, nil
}

// ReceivePaymentRequest represents money received from a customer or paid to
// a supplier.
type ReceivePaymentRequest struct {
	ReceivedAt          *time.Time      `json:"received_at,omitempty"`
	Method              string          `json:"method"`
	Note                string          `json:"note,omitempty"`
	Kind                string          `json:"kind"`
	Amount              decimal.Decimal `json:"amount"`
	RequireFullyApplied bool            `json:"require_fully_applied"`
}

// Validate rejects an amount storage would round.
func (r *ReceivePaymentRequest) Validate() error {
	return checkScale("amount", r.Amount)
}

// ToUseCaseInput converts to use case input.
func (r *ReceivePaymentRequest) ToUseCaseInput(tenantID, entityID string) (usecase.ReceivePaymentInput, error) {
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return usecase.ReceivePaymentInput{}, err
	}

	return usecase.ReceivePaymentInput{
		ReceivedAt:          r.ReceivedAt,
		TenantID:            tenantID,
		EntityID:            entityID,
		Method:              r.Method,
		Note:                r.Note,
		Kind:                kind,
		Amount:              r.Amount,
		RequireFullyApplied: r.RequireFullyApplied,
	}, nil
}

// RebuildRequest asks for the per-obligation split to be re-derived from the
// entity's balance.
type RebuildRequest struct {
	Kind    string `json:"kind"`
	Persist bool   `json:"persist"`
}

// ToUseCaseInput converts to use case input.
func (r *RebuildRequest) ToUseCaseInput(tenantID, entityID string) (usecase.RebuildInput, error) {
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return usecase.RebuildInput{}, err
	}

	return usecase.RebuildInput{
		TenantID: tenantID,
		EntityID: entityID,
		Kind:     kind,
		Persist:  r.Persist,
	}, nil
}

// PreviewObligation is an obligation supplied inline for a preview.
type PreviewObligation struct {
	CreatedAt     time.Time       `json:"created_at"`
	ID            string          `json:"id"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
}

// PreviewAllocationRequest runs the allocator without touching storage.
type PreviewAllocationRequest struct {
	Obligations []PreviewObligation `json:"obligations"`
	Payment     decimal.Decimal     `json:"payment"`
}

// Validate applies the same precision limit as persisted amounts so a
// preview matches what a real payment would do.
func (r *PreviewAllocationRequest) Validate() error {
	if err := checkScale("payment", r.Payment); err != nil {
		return err
	}
	for i, o := range r.Obligations {
		if err := checkScale(fmt.Sprintf("obligations[%d].total", i), o.Total); err != nil {
			return err
		}
		if err := checkScale(fmt.Sprintf("obligations[%d].amount_paid", i), o.AmountPaid); err != nil {
			return err
		}
	}
	return nil
}

// ToDomain converts the inline obligations. A missing payment method means
// credit.
func (r *PreviewAllocationRequest) ToDomain() []domain.Obligation {
	obs := make([]domain.Obligation, 0, len(r.Obligations))
	for _, o := range r.Obligations {
		obs = append(obs, domain.Obligation{
			CreatedAt:     o.CreatedAt,
			ID:            o.ID,
			PaymentMethod: o.PaymentMethod,
			Kind:          domain.KindSale,
			Total:         o.Total,
			AmountPaid:    o.AmountPaid,
			IsCredit:      o.PaymentMethod == "" || domain.IsCreditMethod(o.PaymentMethod),
		})
	}
	return obs
}

// OpenShiftRequest represents a request to open a cash shift.
type OpenShiftRequest struct {
	UserID         string          `json:"user_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// Validate rejects a balance storage would round.
func (r *OpenShiftRequest) Validate() error {
	return checkScale("opening_balance", r.OpeningBalance)
}

// ToUseCaseInput converts to use case input.
func (r *OpenShiftRequest) ToUseCaseInput(tenantID string) usecase.OpenShiftInput {
	return usecase.OpenShiftInput{
		TenantID:       tenantID,
		UserID:         r.UserID,
		OpeningBalance: r.OpeningBalance,
	}
}

// CloseShiftRequest carries the counted drawer amount.
type CloseShiftRequest struct {
	ActualBalance decimal.Decimal `json:"actual_balance"`
}

// Validate rejects a balance storage would round.
func (r *CloseShiftRequest) Validate() error {
	return checkScale("actual_balance", r.ActualBalance)
}

// ToUseCaseInput converts to use case input.
func (r *CloseShiftRequest) ToUseCaseInput(tenantID, shiftID string) usecase.CloseShiftInput {
	return usecase.CloseShiftInput{
		TenantID:      tenantID,
		ShiftID:       shiftID,
		ActualBalance: r.ActualBalance,
	}
}

// MaxAmountScale is the number of fractional digits money columns keep.
const MaxAmountScale = 4

// ErrAmountScale is returned for an amount with more fractional digits than
// MaxAmountScale. Trailing zeros do not count.
var ErrAmountScale = fmt.Errorf("%w: more than %d decimal places", domain.ErrInvalidAmount, MaxAmountScale)

func checkScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(MaxAmountScale)) {
		return fmt.Errorf("%w: %s %s", ErrAmountScale, field, d)
	}
	return nil
}

// ErrUnknownKind is returned for an unrecognised obligation kind.
var ErrUnknownKind = fmt.Errorf("%w: unknown obligation kind", domain.ErrInvalidObligation)

// ParseKind maps a kind string to an ObligationKind. Empty means sale;
// "customer" and "supplier" are accepted as aliases.
func ParseKind(s string) (domain.ObligationKind, error) {
	switch s {
	case "", string(domain.KindSale), "customer":
		return domain.KindSale, nil
	case string(domain.KindPurchaseOrder), "supplier":
		return domain.KindPurchaseOrder, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}
