package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/celiafashion/storefront/internal/cart"
	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/orders"
)

type OrderHandler struct {
	Orders *orders.Service
	Log    *slog.Logger
}

// orderView decorates an order with the derived delivery estimate. The
// estimate is presentational and never stored.
type orderView struct {
	models.Order
	EstimatedDelivery string `json:"estimatedDelivery"`
}

func newOrderView(o models.Order, now time.Time) orderView {
	view := orderView{Order: o}
	if eta, ok := orders.EstimatedDelivery(o.Status, now); ok {
		view.EstimatedDelivery = eta.Format("Mon, Jan 2")
	} else {
		view.EstimatedDelivery = "Delivered"
	}
	return view
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	var req orders.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.DeliveryDetails.Name == "" || req.DeliveryDetails.Address == "" || req.DeliveryDetails.Phone == "" {
		return errorResponse(c, http.StatusBadRequest, "Delivery name, address and phone are required")
	}

	order, err := h.Orders.Checkout(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyCart):
			return errorResponse(c, http.StatusBadRequest, "Cart is empty. Add items before checkout.")
		case errors.Is(err, cart.ErrInvalidCoupon):
			return errorResponse(c, http.StatusBadRequest, "Invalid coupon")
		}
		h.Log.Error("checkout failed", "error", err)
		return errorResponse(c, http.StatusInternalServerError, "Failed to place order")
	}
	return c.JSON(http.StatusCreated, newOrderView(order, time.Now()))
}

func (h *OrderHandler) List(c echo.Context) error {
	now := time.Now()
	all := h.Orders.List()
	views := make([]orderView, 0, len(all))
	for _, o := range all {
		views = append(views, newOrderView(o, now))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.Orders.Get(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	return c.JSON(http.StatusOK, newOrderView(order, time.Now()))
}

// Cancel removes an order still in Processing; later stages are refused.
func (h *OrderHandler) Cancel(c echo.Context) error {
	err := h.Orders.Cancel(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			return errorResponse(c, http.StatusNotFound, "Order not found")
		case errors.Is(err, orders.ErrNotCancellable):
			return errorResponse(c, http.StatusConflict, "Only orders still in Processing can be cancelled")
		}
		h.Log.Error("order cancel failed", "error", err)
		return errorResponse(c, http.StatusInternalServerError, "Failed to cancel order")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Order cancelled successfully"})
}
