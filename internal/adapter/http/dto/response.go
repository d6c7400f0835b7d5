package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// EntryResponse represents a ledger entry.
type EntryResponse struct {
	Timestamp   time.Time       `json:"timestamp"`
	ID          string          `json:"id"`
	EntityID    string          `json:"entity_id,omitempty"`
	Method      string          `json:"method"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Note        string          `json:"note,omitempty"`
	Direction   string          `json:"direction"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
}

// EntryFromDomain converts a domain ledger entry.
func EntryFromDomain(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		Timestamp:   e.Timestamp,
		ID:          e.ID,
		EntityID:    e.EntityID,
		Method:      e.Method,
		ReferenceID: e.ReferenceID,
		Note:        e.Note,
		Direction:   string(e.Direction),
		Category:    string(e.Category),
		Amount:      e.Amount,
	}
}

// EntriesFromDomain converts a list of ledger entries.
func EntriesFromDomain(entries []domain.LedgerEntry) []EntryResponse {
	result := make([]EntryResponse, len(entries))
	for i := range entries {
		result[i] = EntryFromDomain(&entries[i])
	}
	return result
}

// SummaryResponse represents aggregated ledger totals.
type SummaryResponse struct {
	From             *time.Time      `json:"from,omitempty"`
	To               *time.Time      `json:"to,omitempty"`
	Purchases        decimal.Decimal `json:"purchases"`
	CreditPurchases  decimal.Decimal `json:"credit_purchases"`
	CashPayments     decimal.Decimal `json:"cash_payments"`
	CreditSales      decimal.Decimal `json:"credit_sales"`
	DebtPayments     decimal.Decimal `json:"debt_payments"`
	SupplierPayments decimal.Decimal `json:"supplier_payments"`
	Expenses         decimal.Decimal `json:"expenses"`
	TransfersIn      decimal.Decimal `json:"transfers_in"`
	TransfersOut     decimal.Decimal `json:"transfers_out"`
	Adjustments      decimal.Decimal `json:"adjustments"`
	TotalIn          decimal.Decimal `json:"total_in"`
	TotalOut         decimal.Decimal `json:"total_out"`
	Net              decimal.Decimal `json:"net"`
	Count            int             `json:"count"`
}

// SummaryFromDomain converts a ledger summary over [from, to).
func SummaryFromDomain(s domain.LedgerSummary, from, to time.Time) SummaryResponse {
	resp := SummaryResponse{
		Purchases:        s.Purchases,
		CreditPurchases:  s.CreditPurchases,
		CashPayments:     s.CashPayments,
		CreditSales:      s.CreditSales,
		DebtPayments:     s.DebtPayments,
		SupplierPayments: s.SupplierPayments,
		Expenses:         s.Expenses,
		TransfersIn:      s.TransfersIn,
		TransfersOut:     s.TransfersOut,
		Adjustments:      s.Adjustments,
		TotalIn:          s.TotalIn,
		TotalOut:         s.TotalOut,
		Net:              s.Net(),
		Count:            s.Count,
	}
	if !from.IsZero() {
		resp.From = &from
	}
	if !to.IsZero() {
		resp.To = &to
	}
	return resp
}

// LineItemResponse is one line of an obligation.
type LineItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ObligationResponse represents a sale or purchase order.
type ObligationResponse struct {
	CreatedAt     time.Time          `json:"created_at"`
	CompletedAt   time.Time          `json:"completed_at"`
	ID            string             `json:"id"`
	EntityID      string             `json:"entity_id,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	Kind          string             `json:"kind"`
	PaymentStatus string             `json:"payment_status"`
	Items         []LineItemResponse `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	Due           decimal.Decimal    `json:"due"`
	Version       int64              `json:"version"`
	IsCredit      bool               `json:"is_credit"`
}

// ObligationFromDomain converts a domain obligation.
func ObligationFromDomain(o *domain.Obligation) ObligationResponse {
	items := make([]LineItemResponse, len(o.Items))
	for i, li := range o.Items {
		items[i] = LineItemResponse{
			ProductID: li.ProductID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
			Subtotal:  li.Subtotal(),
		}
	}

	return ObligationResponse{
		CreatedAt:     o.CreatedAt,
		CompletedAt:   o.CompletedAt,
		ID:            o.ID,
		EntityID:      o.EntityID,
		PaymentMethod: o.PaymentMethod,
		Kind:          string(o.Kind),
		PaymentStatus: string(o.Status()),
		Items:         items,
		Total:         o.Total,
		AmountPaid:    o.AmountPaid,
		Due:           o.Due(),
		Version:       o.Version,
		IsCredit:      o.IsCredit,
	}
}

// ObligationsFromDomain converts a list of obligations.
func ObligationsFromDomain(obs []domain.Obligation) []ObligationResponse {
	result := make([]ObligationResponse, len(obs))
	for i := range obs {
		result[i] = ObligationFromDomain(&obs[i])
	}
	return result
}

// BalanceResponse represents an entity's outstanding balance.
type BalanceResponse struct {
	EntityID     string          `json:"entity_id"`
	Kind         string          `json:"kind"`
	CreditTotal  decimal.Decimal `json:"credit_total"`
	PaymentTotal decimal.Decimal `json:"payment_total"`
	Balance      decimal.Decimal `json:"balance"`
}

// BalanceFromDomain converts an entity balance.
func BalanceFromDomain(b domain.EntityBalance) BalanceResponse {
	return BalanceResponse{
		EntityID:     b.EntityID,
		Kind:         string(b.Kind),
		CreditTotal:  b.CreditTotal,
		PaymentTotal: b.PaymentTotal,
		Balance:      b.Balance,
	}
}

// StatementLineResponse is one obligation on a statement.
type StatementLineResponse struct {
	CreatedAt    time.Time       `json:"created_at"`
	ObligationID string          `json:"obligation_id"`
	Status       string          `json:"status"`
	MatchKind    string          `json:"match_kind,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Due          decimal.Decimal `json:"due"`
}

// StatementResponse represents an entity statement.
type StatementResponse struct {
	Balance    BalanceResponse         `json:"balance"`
	Lines      []StatementLineResponse `json:"lines"`
	TotalDue   decimal.Decimal         `json:"total_due"`
	Consistent bool                    `json:"consistent"`
}

// StatementFromUseCase converts a statement.
func StatementFromUseCase(s *usecase.Statement) StatementResponse {
	lines := make([]StatementLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = StatementLineResponse{
			CreatedAt:    l.View.CreatedAt,
			ObligationID: l.View.ObligationID,
			Status:       string(l.View.Status),
			MatchKind:    string(l.MatchKind),
			Total:        l.View.Total,
			Paid:         l.View.Paid,
			Due:          l.View.Due,
		}
	}

	return StatementResponse{
		Balance:    BalanceFromDomain(s.Balance),
		Lines:      lines,
		TotalDue:   s.TotalDue,
		Consistent: s.Consistent,
	}
}

// AllocationResponse is the share of a payment applied to one obligation.
type AllocationResponse struct {
	ObligationID  string          `json:"obligation_id"`
	Status        string          `json:"status"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	PreviousPaid  decimal.Decimal `json:"previous_paid"`
	NewAmountPaid decimal.Decimal `json:"new_amount_paid"`
	Total         decimal.Decimal `json:"total"`
	Due           decimal.Decimal `json:"due"`
	IsFullyPaid   bool            `json:"is_fully_paid"`
}

// AllocationResultResponse represents the outcome of an allocation.
type AllocationResultResponse struct {
	Allocations  []AllocationResponse `json:"allocations"`
	Payment      decimal.Decimal      `json:"payment"`
	TotalApplied decimal.Decimal      `json:"total_applied"`
	Remainder    decimal.Decimal      `json:"remainder"`
}

// AllocationResultFromDomain converts an allocation result.
func AllocationResultFromDomain(r domain.AllocationResult) AllocationResultResponse {
	allocations := make([]AllocationResponse, len(r.Allocations))
	for i, a := range r.Allocations {
		allocations[i] = AllocationResponse{
			ObligationID:  a.ObligationID,
			Status:        string(a.Status),
			AmountApplied: a.AmountApplied,
			PreviousPaid:  a.PreviousPaid,
			NewAmountPaid: a.NewAmountPaid,
			Total:         a.Total,
			Due:           a.Due(),
			IsFullyPaid:   a.IsFullyPaid,
		}
	}

	return AllocationResultResponse{
		Allocations:  allocations,
		Payment:      r.Payment,
		TotalApplied: r.TotalApplied,
		Remainder:    r.Remainder,
	}
}

// PaymentReceiptResponse represents a recorded and allocated payment.
type PaymentReceiptResponse struct {
	Entry      EntryResponse            `json:"entry"`
	Allocation AllocationResultResponse `json:"allocation"`
}

// PaymentReceiptFromUseCase converts a payment receipt.
func PaymentReceiptFromUseCase(r *usecase.PaymentReceipt) PaymentReceiptResponse {
	return PaymentReceiptResponse{
		Entry:      EntryFromDomain(r.Entry),
		Allocation: AllocationResultFromDomain(r.Result),
	}
}

// ShiftResponse represents a cash shift.
type ShiftResponse struct {
	OpenedAt        time.Time        `json:"opened_at"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	ClosingBalance  *decimal.Decimal `json:"closing_balance,omitempty"`
	ExpectedBalance *decimal.Decimal `json:"expected_balance,omitempty"`
	Variance        *decimal.Decimal `json:"variance,omitempty"`
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Status          string           `json:"status"`
	VarianceStatus  string           `json:"variance_status,omitempty"`
	OpeningBalance  decimal.Decimal  `json:"opening_balance"`
}

// ShiftFromDomain converts a domain shift.
func ShiftFromDomain(s *domain.CashShift) ShiftResponse {
	return ShiftResponse{
		OpenedAt:        s.OpenedAt,
		ClosedAt:        s.ClosedAt,
		ClosingBalance:  s.ClosingBalance,
		ExpectedBalance: s.ExpectedBalance,
		Variance:        s.Variance,
		ID:              s.ID,
		UserID:          s.UserID,
		Status:          string(s.Status),
		VarianceStatus:  string(s.VarianceStatus),
		OpeningBalance:  s.OpeningBalance,
	}
}

// ShiftExpectationResponse is the expected drawer amount at a point in time.
type ShiftExpectationResponse struct {
	AsOf     time.Time       `json:"as_of"`
	Shift    ShiftResponse   `json:"shift"`
	Movement decimal.Decimal `json:"cash_movement"`
	Expected decimal.Decimal `json:"expected_balance"`
}

// ShiftExpectationFromUseCase converts a shift expectation.
func ShiftExpectationFromUseCase(e *usecase.ShiftExpectation) ShiftExpectationResponse {
	return ShiftExpectationResponse{
		AsOf:     e.AsOf,
		Shift:    ShiftFromDomain(e.Shift),
		Movement: e.Movement,
		Expected: e.Expected,
	}
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
