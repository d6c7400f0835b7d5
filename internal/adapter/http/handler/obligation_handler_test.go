package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

type obligationServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateObligationInput) (*domain.Obligation, error)
	getFn    func(ctx context.Context, tenantID, id string) (*domain.Obligation, error)
	listFn   func(ctx context.Context, input usecase.ListObligationsInput) ([]domain.Obligation, error)
}

func (s *obligationServiceStub) CreateObligation(ctx context.Context, input usecase.CreateObligationInput) (*domain.Obligation, error) {
	return s.createFn(ctx, input)
}

func (s *obligationServiceStub) GetObligation(ctx context.Context, tenantID, id string) (*domain.Obligation, error) {
	return s.getFn(ctx, tenantID, id)
}

func (s *obligationServiceStub) ListObligations(ctx context.Context, input usecase.ListObligationsInput) ([]domain.Obligation, error) {
	return s.listFn(ctx, input)
}

func TestObligationHandler_Create_CreditSale(t *testing.T) {
	var captured usecase.CreateObligationInput
	h := NewObligationHandler(&obligationServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateObligationInput) (*domain.Obligation, error) {
			captured = input
			return &domain.Obligation{
				ID:            "s1",
				EntityID:      input.EntityID,
				PaymentMethod: input.PaymentMethod,
				Kind:          input.Kind,
				Total:         decimal.RequireFromString("32.25"),
				AmountPaid:    input.DownPayment,
				IsCredit:      true,
			}, nil
		},
	})

	body := `{"entity_id":"c1","payment_method":"Credit","items":[{"product_id":"p1","quantity":"3","unit_price":"10.75"}],"down_payment":"10"}`
	req := withParams(httptest.NewRequest(http.MethodPost, "/obligations", bytes.NewBufferString(body)), map[string]string{"tenantID": "t1"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.TenantID != "t1" || captured.Kind != domain.KindSale || len(captured.Items) != 1 {
		t.Fatalf("unexpected input %+v", captured)
	}

	resp := decodeBody[dto.ObligationResponse](t, rec)
	if resp.PaymentStatus != "partially_paid" || !resp.Due.Equal(decimal.RequireFromString("22.25")) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestObligationHandler_Create_UnknownKind(t *testing.T) {
	h := NewObligationHandler(&obligationServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateObligationInput) (*domain.Obligation, error) {
			t.Fatal("CreateObligation should not be called")
			return nil, nil
		},
	})

	req := withParams(httptest.NewRequest(http.MethodPost, "/obligations", bytes.NewBufferString(`{"kind":"rental"}`)), map[string]string{"tenantID": "t1"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestObligationHandler_Get_NotFound(t *testing.T) {
	h := NewObligationHandler(&obligationServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.Obligation, error) {
			if id != "s9" {
				t.Fatalf("unexpected id %s", id)
			}
			return nil, domain.ErrObligationNotFound
		},
	})

	req := withParams(httptest.NewRequest(http.MethodGet, "/obligations/s9", nil), map[string]string{"tenantID": "t1", "id": "s9"})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestObligationHandler_List(t *testing.T) {
	var captured usecase.ListObligationsInput
	h := NewObligationHandler(&obligationServiceStub{
		listFn: func(ctx context.Context, input usecase.ListObligationsInput) ([]domain.Obligation, error) {
			captured = input
			return []domain.Obligation{{ID: "po-1", Kind: domain.KindPurchaseOrder, Total: decimal.NewFromInt(90)}}, nil
		},
	})

	req := withParams(httptest.NewRequest(http.MethodGet, "/obligations?entity_id=s1&kind=supplier&open=true", nil), map[string]string{"tenantID": "t1"})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Kind != domain.KindPurchaseOrder || !captured.OpenOnly || captured.EntityID != "s1" || captured.Limit != defaultPageSize {
		t.Fatalf("unexpected input %+v", captured)
	}
}
