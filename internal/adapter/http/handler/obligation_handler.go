package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// ObligationHandler handles sale and purchase order requests.
type ObligationHandler struct {
	obligations ObligationService
}

// NewObligationHandler creates a new ObligationHandler.
func NewObligationHandler(obligations ObligationService) *ObligationHandler {
	return &ObligationHandler{obligations: obligations}
}

// Create records a completed sale or purchase order.
func (h *ObligationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateObligationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(tenantID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind", err.Error())
		return
	}

	o, err := h.obligations.CreateObligation(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create obligation", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ObligationFromDomain(o))
}

// Get retrieves an obligation by ID.
func (h *ObligationHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.obligations.GetObligation(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get obligation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ObligationFromDomain(o))
}

// List lists obligations, optionally only the open ones of one entity.
func (h *ObligationHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKindQuery(w, r)
	if !ok {
		return
	}

	openOnly, _ := strconv.ParseBool(r.URL.Query().Get("open"))

	input := usecase.ListObligationsInput{
		TenantID: tenantID(r),
		EntityID: r.URL.Query().Get("entity_id"),
		Kind:     kind,
		OpenOnly: openOnly,
		Limit:    parseIntQuery(r, "limit", defaultPageSize),
		Offset:   parseIntQuery(r, "offset", 0),
	}

	obs, err := h.obligations.ListObligations(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to list obligations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[dto.ObligationResponse]{
		Items:  dto.ObligationsFromDomain(obs),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
}
