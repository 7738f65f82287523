package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carstoreapp/carstore-backend/api/middleware"
	checkoutsvc "github.com/carstoreapp/carstore-backend/internal/checkout"
	orderssvc "github.com/carstoreapp/carstore-backend/internal/orders"
	"github.com/carstoreapp/carstore-backend/pkg/enums"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
	"github.com/carstoreapp/carstore-backend/pkg/pagination"
	"github.com/carstoreapp/carstore-backend/pkg/types"
)

type stubCheckout struct {
	result   *checkoutsvc.SubmitResult
	err      error
	shipping types.ShippingInfo
	calls    int
}

func (s *stubCheckout) Submit(_ context.Context, _ uuid.UUID, shipping types.ShippingInfo) (*checkoutsvc.SubmitResult, error) {
	s.calls++
	s.shipping = shipping
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubOrders struct {
	order *orderssvc.OrderDTO
	list  *orderssvc.OrderListResult
	err   error
}

func (s *stubOrders) GetOrder(context.Context, uuid.UUID) (*orderssvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrders) GetUserOrder(context.Context, uuid.UUID, uuid.UUID) (*orderssvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrders) ListUserOrders(context.Context, uuid.UUID, pagination.Params) (*orderssvc.OrderListResult, error) {
	return s.list, s.err
}

func (s *stubOrders) ListOrders(context.Context, pagination.Params, orderssvc.OrderListFilters) (*orderssvc.OrderListResult, error) {
	return s.list, s.err
}

func (s *stubOrders) UpdateStatus(_ context.Context, _ uuid.UUID, next enums.OrderStatus) (*orderssvc.OrderDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	order := *s.order
	order.Status = next
	return &order, nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestOrderSubmitReturnsRedirectURL(t *testing.T) {
	svc := &stubCheckout{result: &checkoutsvc.SubmitResult{
		OrderID:     uuid.New(),
		RedirectURL: "https://square.link/u/abc123",
	}}
	handler := OrderSubmit(svc, nil)

	body := `{"items":[{"product":"` + uuid.NewString() + `","quantity":2}],"address":"1 Main St","contactNo":"555-0100","city":"Austin"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	require.Equal(t, http.StatusCreated, resp.Code)

	var envelope struct {
		Message string `json:"message"`
		Data    string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "Order placed successfully", envelope.Message)
	assert.Equal(t, "https://square.link/u/abc123", envelope.Data, "redirect url passes through untouched")
	assert.Equal(t, "1 Main St", svc.shipping.Address)
}

func TestOrderSubmitRequiresShippingFields(t *testing.T) {
	svc := &stubCheckout{result: &checkoutsvc.SubmitResult{RedirectURL: "https://square.link/u/abc123"}}
	handler := OrderSubmit(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", `{"address":"1 Main St"}`))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, svc.calls, "service is not reached on invalid payloads")
}

func TestOrderSubmitRequiresAuthContext(t *testing.T) {
	handler := OrderSubmit(&stubCheckout{}, nil)

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestOrderSubmitSurfacesStateConflicts(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock for Brake Pads")}
	handler := OrderSubmit(svc, nil)

	body := `{"address":"1 Main St","contactNo":"555-0100","city":"Austin"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestOrderDetailParsesPathID(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrders{order: &orderssvc.OrderDTO{ID: orderID, Status: enums.OrderStatusPending}}

	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderId}", OrderDetail(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), ""))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", ""))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
