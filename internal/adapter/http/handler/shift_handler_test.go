package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

type shiftServiceStub struct {
	openFn     func(ctx context.Context, input usecase.OpenShiftInput) (*domain.CashShift, error)
	getFn      func(ctx context.Context, tenantID, id string) (*domain.CashShift, error)
	expectedFn func(ctx context.Context, tenantID, id string) (*usecase.ShiftExpectation, error)
	closeFn    func(ctx context.Context, input usecase.CloseShiftInput) (*domain.CashShift, error)
}

func (s *shiftServiceStub) OpenShift(ctx context.Context, input usecase.OpenShiftInput) (*domain.CashShift, error) {
	return s.openFn(ctx, input)
}

func (s *shiftServiceStub) GetShift(ctx context.Context, tenantID, id string) (*domain.CashShift, error) {
	return s.getFn(ctx, tenantID, id)
}

func (s *shiftServiceStub) ExpectedBalance(ctx context.Context, tenantID, id string) (*usecase.ShiftExpectation, error) {
	return s.expectedFn(ctx, tenantID, id)
}

func (s *shiftServiceStub) CloseShift(ctx context.Context, input usecase.CloseShiftInput) (*domain.CashShift, error) {
	return s.closeFn(ctx, input)
}

var shiftOpenedAt = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func TestShiftHandler_Open(t *testing.T) {
	h := NewShiftHandler(&shiftServiceStub{
		openFn: func(ctx context.Context, input usecase.OpenShiftInput) (*domain.CashShift, error) {
			return domain.OpenShift("sh-1", input.TenantID, input.UserID, input.OpeningBalance, shiftOpenedAt)
		},
	})

	req := withParams(httptest.NewRequest(http.MethodPost, "/shifts",
		bytes.NewBufferString(`{"user_id":"u1","opening_balance":"1000"}`)), map[string]string{"tenantID": "t1"})
	rec := httptest.NewRecorder()

	h.Open(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[dto.ShiftResponse](t, rec)
	if resp.Status != "open" || resp.UserID != "u1" {
		t.Fatalf("unexpected shift %+v", resp)
	}
}

func TestShiftHandler_Open_AlreadyOpen(t *testing.T) {
	h := NewShiftHandler(&shiftServiceStub{
		openFn: func(ctx context.Context, input usecase.OpenShiftInput) (*domain.CashShift, error) {
			return nil, domain.ErrShiftAlreadyOpen
		},
	})

	req := withParams(httptest.NewRequest(http.MethodPost, "/shifts",
		bytes.NewBufferString(`{"user_id":"u1","opening_balance":"0"}`)), map[string]string{"tenantID": "t1"})
	rec := httptest.NewRecorder()

	h.Open(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestShiftHandler_Close_Short(t *testing.T) {
	var captured usecase.CloseShiftInput
	h := NewShiftHandler(&shiftServiceStub{
		closeFn: func(ctx context.Context, input usecase.CloseShiftInput) (*domain.CashShift, error) {
			captured = input
			s, err := domain.OpenShift(input.ShiftID, input.TenantID, "u1", decimal.NewFromInt(1000), shiftOpenedAt)
			if err != nil {
				return nil, err
			}
			if err := s.Close(input.ActualBalance, decimal.NewFromInt(3200), shiftOpenedAt.Add(8*time.Hour)); err != nil {
				return nil, err
			}
			return s, nil
		},
	})

	req := withParams(httptest.NewRequest(http.MethodPost, "/shifts/sh-1/close",
		bytes.NewBufferString(`{"actual_balance":"3150"}`)), map[string]string{"tenantID": "t1", "id": "sh-1"})
	rec := httptest.NewRecorder()

	h.Close(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ShiftID != "sh-1" || captured.TenantID != "t1" {
		t.Fatalf("unexpected input %+v", captured)
	}

	resp := decodeBody[dto.ShiftResponse](t, rec)
	if resp.VarianceStatus != "short" || resp.Variance == nil || !resp.Variance.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("unexpected shift %+v", resp)
	}
}

func TestShiftHandler_Close_AlreadyClosed(t *testing.T) {
	h := NewShiftHandler(&shiftServiceStub{
		closeFn: func(ctx context.Context, input usecase.CloseShiftInput) (*domain.CashShift, error) {
			return nil, domain.ErrShiftClosed
		},
	})

	req := withParams(httptest.NewRequest(http.MethodPost, "/shifts/sh-1/close",
		bytes.NewBufferString(`{"actual_balance":"10"}`)), map[string]string{"tenantID": "t1", "id": "sh-1"})
	rec := httptest.NewRecorder()

	h.Close(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestShiftHandler_Expected(t *testing.T) {
	h := NewShiftHandler(&shiftServiceStub{
		expectedFn: func(ctx context.Context, tenantID, id string) (*usecase.ShiftExpectation, error) {
			s, _ := domain.OpenShift(id, tenantID, "u1", decimal.NewFromInt(1000), shiftOpenedAt)
			return &usecase.ShiftExpectation{
				AsOf:     shiftOpenedAt.Add(time.Hour),
				Shift:    s,
				Movement: decimal.NewFromInt(2200),
				Expected: decimal.NewFromInt(3200),
			}, nil
		},
	})

	req := withParams(httptest.NewRequest(http.MethodGet, "/shifts/sh-1/expected", nil), map[string]string{"tenantID": "t1", "id": "sh-1"})
	rec := httptest.NewRecorder()

	h.Expected(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody[dto.ShiftExpectationResponse](t, rec)
	if !resp.Expected.Equal(decimal.NewFromInt(3200)) || resp.Shift.ID != "sh-1" {
		t.Fatalf("unexpected expectation %+v", resp)
	}
}

func TestShiftHandler_Get_NotFound(t *testing.T) {
	h := NewShiftHandler(&shiftServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.CashShift, error) {
			return nil, domain.ErrShiftNotFound
		},
	})

	req := withParams(httptest.NewRequest(http.MethodGet, "/shifts/nope", nil), map[string]string{"tenantID": "t1", "id": "nope"})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
