package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

const (
	// maxBodyBytes caps request bodies; a sale carries at most a few hundred lines.
	maxBodyBytes    = 1 << 20
	defaultPageSize = 50
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// validator is implemented by request bodies with field checks.
type validator interface {
	Validate() error
}

// decodeJSON decodes a size-limited request body into v and runs its
// Validate method when it has one.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return err
	}
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrObligationNotFound),
		errors.Is(err, domain.ErrShiftNotFound),
		errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrShiftClosed),
		errors.Is(err, domain.ErrShiftAlreadyOpen),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, usecase.ErrLockNotAcquired):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnappliedRemainder),
		errors.Is(err, domain.ErrAmbiguousMatch),
		errors.Is(err, domain.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidObligation),
		errors.Is(err, domain.ErrInvalidEntry),
		errors.Is(err, domain.ErrInvalidTenant),
		errors.Is(err, domain.ErrInvalidEntity),
		errors.Is(err, domain.ErrTooManyItems):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseTimeQuery parses an RFC 3339 query parameter. Missing means zero.
func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected RFC 3339 timestamp", key)
	}
	return t, nil
}

// parseWindow reads the from/to query parameters.
func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := parseTimeQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time window", err.Error())
		return time.Time{}, time.Time{}, false
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time window", err.Error())
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// parseKindQuery reads the kind query parameter.
func parseKindQuery(w http.ResponseWriter, r *http.Request) (domain.ObligationKind, bool) {
	kind, err := dto.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kind", err.Error())
		return "", false
	}
	return kind, true
}

func tenantID(r *http.Request) string {
	return chi.URLParam(r, "tenantID")
}
