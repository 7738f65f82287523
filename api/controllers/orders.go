package controllers

import (
	"net/http"
	"strings"

	"github.com/carstoreapp/carstore-backend/api/responses"
	"github.com/carstoreapp/carstore-backend/api/validators"
	checkoutsvc "github.com/carstoreapp/carstore-backend/internal/checkout"
	orderssvc "github.com/carstoreapp/carstore-backend/internal/orders"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
	"github.com/carstoreapp/carstore-backend/pkg/logger"
	"github.com/carstoreapp/carstore-backend/pkg/pagination"
	"github.com/carstoreapp/carstore-backend/pkg/types"
)

type submitOrderItem struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// submitOrderRequest mirrors what storefront clients send. The items list is
// the client's view of the cart; the server-side cart stays authoritative and
// every line is repriced and stock-checked before the order exists.
type submitOrderRequest struct {
	Items     []submitOrderItem `json:"items" validate:"omitempty,dive"`
	Address   string            `json:"address" validate:"required"`
	ContactNo string            `json:"contactNo" validate:"required"`
	City      string            `json:"city" validate:"required"`
}

// OrderSubmit turns the active cart into a pending order and hands back the
// gateway redirect URL under "data", untouched.
func OrderSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), userID, types.ShippingInfo{
			Address:   body.Address,
			ContactNo: body.ContactNo,
			City:      body.City,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusCreated, "Order placed successfully", result.RedirectURL)
	}
}

// OrderList pages through the caller's own orders.
func OrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListUserOrders(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// OrderDetail serves one order, only to its owner.
func OrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetUserOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
