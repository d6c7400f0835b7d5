package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// LedgerService is the ledger use case as seen by the handlers.
type LedgerService interface {
	RecordEntry(ctx context.Context, input usecase.RecordEntryInput) (*domain.LedgerEntry, error)
	GetEntry(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]domain.LedgerEntry, error)
	Summary(ctx context.Context, tenantID string, from, to time.Time) (domain.LedgerSummary, error)
}

// ObligationService records and reads sales and purchase orders.
type ObligationService interface {
	CreateObligation(ctx context.Context, input usecase.CreateObligationInput) (*domain.Obligation, error)
	GetObligation(ctx context.Context, tenantID, id string) (*domain.Obligation, error)
	ListObligations(ctx context.Context, input usecase.ListObligationsInput) ([]domain.Obligation, error)
}

// BalanceService derives entity balances and statements.
type BalanceService interface {
	GetBalance(ctx context.Context, tenantID, entityID string, kind domain.ObligationKind) (domain.EntityBalance, error)
	Statement(ctx context.Context, input usecase.StatementInput) (*usecase.Statement, error)
}

// PaymentService allocates payments.
type PaymentService interface {
	ReceivePayment(ctx context.Context, input usecase.ReceivePaymentInput) (*usecase.PaymentReceipt, error)
	PreviewAllocation(obligations []domain.Obligation, payment decimal.Decimal) (domain.AllocationResult, error)
	RebuildAllocations(ctx context.Context, input usecase.RebuildInput) (domain.AllocationResult, error)
}

// ShiftService manages cash shifts.
type ShiftService interface {
	OpenShift(ctx context.Context, input usecase.OpenShiftInput) (*domain.CashShift, error)
	GetShift(ctx context.Context, tenantID, id string) (*domain.CashShift, error)
	ExpectedBalance(ctx context.Context, tenantID, id string) (*usecase.ShiftExpectation, error)
	CloseShift(ctx context.Context, input usecase.CloseShiftInput) (*domain.CashShift, error)
}

var (
	_ LedgerService     = (*usecase.LedgerUseCase)(nil)
	_ ObligationService = (*usecase.ObligationUseCase)(nil)
	_ BalanceService    = (*usecase.BalanceUseCase)(nil)
	_ PaymentService    = (*usecase.PaymentUseCase)(nil)
	_ ShiftService      = (*usecase.ShiftUseCase)(nil)
)
