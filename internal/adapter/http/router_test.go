package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/handler"
	apimiddleware "github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/middleware"
	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/metrics"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegisterer(reg)
		cfg.Gatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "omnishop_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestNewRouter_RoutesTenantScopedShift(t *testing.T) {
	shifts := &stubShiftService{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.ShiftHandler = handler.NewShiftHandler(shifts)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tenants/t1/shifts/sh-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if shifts.tenantID != "t1" || shifts.id != "sh-1" {
		t.Fatalf("expected path params to reach the service, got tenant=%s id=%s", shifts.tenantID, shifts.id)
	}
}

func TestNewRouter_PreviewAllocationIsStateless(t *testing.T) {
	router := NewRouter(newRouterConfig())

	body := `{"payment":"250","obligations":[{"id":"s1","total":"100","created_at":"2024-03-01T09:00:00Z"},{"id":"s2","total":"150","created_at":"2024-03-01T10:00:00Z"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/allocations/preview", bytes.NewBufferString(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"remainder":"0"`) {
		t.Fatalf("expected full application, got %s", rec.Body.String())
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/t1/shifts", bytes.NewBufferString(`{"user_id":"u1","opening_balance":"100"}`))
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "idem-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.checked || !store.updated {
		t.Fatalf("expected idempotency store to be used, got checked=%v updated=%v", store.checked, store.updated)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.CORSAllowedOrigins = []string{"https://pos.example"}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tenants/t1/entries", nil)
	req.Header.Set("Origin", "https://pos.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://pos.example" {
		t.Fatalf("expected CORS allow origin header, got %q", got)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	ok := handler.PingFunc(func(context.Context) error { return nil })
	payments := usecase.NewPaymentUseCase(usecase.PaymentUseCaseDeps{Logger: zerolog.Nop()})

	cfg := RouterConfig{
		EntryHandler:      handler.NewEntryHandler(nil),
		ObligationHandler: handler.NewObligationHandler(nil),
		EntityHandler:     handler.NewEntityHandler(nil, payments),
		ShiftHandler:      handler.NewShiftHandler(&stubShiftService{}),
		HealthHandler:     handler.NewHealthHandler(ok, ok),
		Logger:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

type stubShiftService struct {
	tenantID string
	id       string
}

func (s *stubShiftService) OpenShift(ctx context.Context, input usecase.OpenShiftInput) (*domain.CashShift, error) {
	return domain.OpenShift("sh-1", input.TenantID, input.UserID, input.OpeningBalance, time.Now())
}

func (s *stubShiftService) GetShift(ctx context.Context, tenantID, id string) (*domain.CashShift, error) {
	s.tenantID, s.id = tenantID, id
	return domain.OpenShift(id, tenantID, "u1", decimal.Zero, time.Now())
}

func (s *stubShiftService) ExpectedBalance(ctx context.Context, tenantID, id string) (*usecase.ShiftExpectation, error) {
	return nil, domain.ErrShiftNotFound
}

func (s *stubShiftService) CloseShift(ctx context.Context, input usecase.CloseShiftInput) (*domain.CashShift, error) {
	return nil, domain.ErrShiftNotFound
}

type stubIdempotencyStore struct {
	checked bool
	updated bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checked = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updated = true
	return nil
}

func (s *stubIdempotencyStore) Delete(ctx context.Context, key string) error {
	return nil
}
