package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// EntryHandler handles ledger entry requests.
type EntryHandler struct {
	ledger LedgerService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledger LedgerService) *EntryHandler {
	return &EntryHandler{ledger: ledger}
}

// Record records a ledger entry.
func (h *EntryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledger.RecordEntry(r.Context(), req.ToUseCaseInput(tenantID(r)))
	if err != nil {
		writeDomainError(w, "failed to record entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledger.GetEntry(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// List lists entries filtered by entity, method and time window.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	input := usecase.ListEntriesInput{
		From:     from,
		To:       to,
		TenantID: tenantID(r),
		EntityID: r.URL.Query().Get("entity_id"),
		Method:   r.URL.Query().Get("method"),
		Limit:    parseIntQuery(r, "limit", defaultPageSize),
		Offset:   parseIntQuery(r, "offset", 0),
	}

	entries, err := h.ledger.ListEntries(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[dto.EntryResponse]{
		Items:  dto.EntriesFromDomain(entries),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
}

// Summary aggregates the tenant's entries over a time window.
func (h *EntryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	summary, err := h.ledger.Summary(r.Context(), tenantID(r), from, to)
	if err != nil {
		writeDomainError(w, "failed to summarize ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromDomain(summary, from, to))
}
