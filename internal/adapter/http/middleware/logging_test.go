package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func TestLoggingMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q", buf.String())
	}

	if line["level"] != "error" || line["status"] != float64(http.StatusServiceUnavailable) || line["path"] != "/ready" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestLoggingMiddlewareLogsTenantAndRoute(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	r := chi.NewRouter()
	r.Use(mw.Wrap)
	r.Get("/api/v1/tenants/{tenantID}/shifts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tenants/t1/shifts/sh-9", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q", buf.String())
	}

	if line["level"] != "warn" || line["tenant_id"] != "t1" || line["route"] != "/api/v1/tenants/{tenantID}/shifts/{id}" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	var buf bytes.Buffer

	rr := httptest.NewRecorder()
	Recovery(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/tenants/t1/entries", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic recovered")) {
		t.Fatalf("expected panic to be logged, got %q", buf.String())
	}
}
