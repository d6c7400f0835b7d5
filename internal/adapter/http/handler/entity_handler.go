package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// EntityHandler serves customer and supplier balances, statements and
// payments.
type EntityHandler struct {
	balances BalanceService
	payments PaymentService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(balances BalanceService, payments PaymentService) *EntityHandler {
	return &EntityHandler{balances: balances, payments: payments}
}

func entityID(r *http.Request) string {
	return chi.URLParam(r, "entityID")
}

// Balance returns the entity's outstanding balance.
func (h *EntityHandler) Balance(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKindQuery(w, r)
	if !ok {
		return
	}

	b, err := h.balances.GetBalance(r.Context(), tenantID(r), entityID(r), kind)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(b))
}

// Statement returns the balance with a per-obligation breakdown.
func (h *EntityHandler) Statement(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKindQuery(w, r)
	if !ok {
		return
	}

	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))

	s, err := h.balances.Statement(r.Context(), usecase.StatementInput{
		TenantID: tenantID(r),
		EntityID: entityID(r),
		Kind:     kind,
		Strict:   strict,
	})
	if err != nil {
		writeDomainError(w, "failed to build statement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromUseCase(s))
}

// ReceivePayment records a payment and allocates it to open obligations.
func (h *EntityHandler) ReceivePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.ReceivePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(tenantID(r), entityID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind", err.Error())
		return
	}

	receipt, err := h.payments.ReceivePayment(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to receive payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentReceiptFromUseCase(receipt))
}

// Rebuild re-derives the per-obligation split from the entity's balance.
func (h *EntityHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req dto.RebuildRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	input, err := req.ToUseCaseInput(tenantID(r), entityID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind", err.Error())
		return
	}

	result, err := h.payments.RebuildAllocations(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to rebuild allocations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AllocationResultFromDomain(result))
}

// PreviewAllocation runs the allocator over inline obligations.
func (h *EntityHandler) PreviewAllocation(w http.ResponseWriter, r *http.Request) {
	var req dto.PreviewAllocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.payments.PreviewAllocation(req.ToDomain(), req.Payment)
	if err != nil {
		writeDomainError(w, "failed to allocate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AllocationResultFromDomain(result))
}
