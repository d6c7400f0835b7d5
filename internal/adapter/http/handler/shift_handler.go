package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
)

// ShiftHandler handles cash shift requests.
type ShiftHandler struct {
	shifts ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(shifts ShiftService) *ShiftHandler {
	return &ShiftHandler{shifts: shifts}
}

// Open opens a shift for a user.
func (h *ShiftHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenShiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	shift, err := h.shifts.OpenShift(r.Context(), req.ToUseCaseInput(tenantID(r)))
	if err != nil {
		writeDomainError(w, "failed to open shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ShiftFromDomain(shift))
}

// Get retrieves a shift by ID.
func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.GetShift(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get shift", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ShiftFromDomain(shift))
}

// Expected returns the drawer amount the shift should hold now.
func (h *ShiftHandler) Expected(w http.ResponseWriter, r *http.Request) {
	e, err := h.shifts.ExpectedBalance(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to compute expected balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ShiftExpectationFromUseCase(e))
}

// Close closes a shift with the counted drawer amount.
func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req dto.CloseShiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	shift, err := h.shifts.CloseShift(r.Context(), req.ToUseCaseInput(tenantID(r), chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to close shift", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ShiftFromDomain(shift))
}
