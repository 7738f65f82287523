package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderssvc "github.com/carstoreapp/carstore-backend/internal/orders"
	"github.com/carstoreapp/carstore-backend/pkg/enums"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
)

func newAdminOrderRouter(svc orderssvc.Service) http.Handler {
	router := chi.NewRouter()
	router.Get("/api/admin/v1/orders", AdminOrderList(svc, nil))
	router.Get("/api/admin/v1/orders/{orderId}", AdminOrderDetail(svc, nil))
	router.Patch("/api/admin/v1/orders/{orderId}/status", AdminOrderUpdateStatus(svc, nil))
	return router
}

func TestAdminOrderUpdateStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrders{order: &orderssvc.OrderDTO{ID: orderID, Status: enums.OrderStatusPending}}
	router := newAdminOrderRouter(svc)

	resp := httptest.NewRecorder()
	req := authedRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID.String()+"/status", `{"status":"Processing"}`)
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data orderssvc.OrderDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, enums.OrderStatusProcessing, envelope.Data.Status)
}

func TestAdminOrderUpdateStatusRejectsUnknownStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrders{order: &orderssvc.OrderDTO{ID: orderID, Status: enums.OrderStatusPending}}
	router := newAdminOrderRouter(svc)

	resp := httptest.NewRecorder()
	req := authedRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID.String()+"/status", `{"status":"Lost"}`)
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminOrderUpdateStatusSurfacesIllegalTransition(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrders{
		order: &orderssvc.OrderDTO{ID: orderID, Status: enums.OrderStatusDelivered},
		err:   pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from Delivered to Pending"),
	}
	router := newAdminOrderRouter(svc)

	resp := httptest.NewRecorder()
	req := authedRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID.String()+"/status", `{"status":"Pending"}`)
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestAdminOrderListRejectsBadStatusFilter(t *testing.T) {
	svc := &stubOrders{list: &orderssvc.OrderListResult{Orders: []orderssvc.OrderDTO{}}}
	router := newAdminOrderRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/admin/v1/orders?status=Bogus", ""))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/admin/v1/orders?status=Pending", ""))
	assert.Equal(t, http.StatusOK, resp.Code)
}
