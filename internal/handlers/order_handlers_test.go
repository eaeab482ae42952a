package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/celiafashion/storefront/internal/cart"
	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/orders"
	"github.com/celiafashion/storefront/internal/storage"
)

func newOrderHandler(t *testing.T) (*OrderHandler, *cart.Service) {
	t.Helper()
	store, err := storage.Open("", filepath.Join(t.TempDir(), "state.db"), slog.Default())
	require.NoError(t, err)
	cartSvc := &cart.Service{Store: store}
	return &OrderHandler{Orders: orders.NewService(store, nil, slog.Default()), Log: slog.Default()}, cartSvc
}

const checkoutBody = `{"deliveryDetails":{"name":"Ada","address":"1 Main St","city":"Pune","pin":"411001","phone":"555-0100"},"paymentMethod":"Cash on Delivery"}`

func TestCheckoutCreatesOrder(t *testing.T) {
	h, cartSvc := newOrderHandler(t)
	_, err := cartSvc.Add(models.Product{ID: "1001", Name: "Chair", Price: 1000})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodPost, "/api/checkout", checkoutBody)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var view orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, models.StatusProcessing, view.Status)
	require.Equal(t, 1000.0, view.Amount)
	require.NotEmpty(t, view.EstimatedDelivery)
	require.NotEqual(t, "Delivered", view.EstimatedDelivery)

	require.Empty(t, cartSvc.Items(), "checkout clears the cart")
}

func TestCheckoutEmptyCartIs400(t *testing.T) {
	h, _ := newOrderHandler(t)

	c, rec := doRequest(http.MethodPost, "/api/checkout", checkoutBody)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Cart is empty. Add items before checkout.", body.Error)
}

func TestCheckoutMissingDeliveryDetailsIs400(t *testing.T) {
	h, cartSvc := newOrderHandler(t)
	_, err := cartSvc.Add(models.Product{ID: "1001", Name: "Chair", Price: 50})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodPost, "/api/checkout", `{"deliveryDetails":{"name":"Ada"},"paymentMethod":"Card"}`)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutInvalidCouponIs400(t *testing.T) {
	h, cartSvc := newOrderHandler(t)
	_, err := cartSvc.Add(models.Product{ID: "1001", Name: "Chair", Price: 50})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodPost, "/api/checkout",
		`{"deliveryDetails":{"name":"Ada","address":"1 Main St","phone":"555-0100"},"paymentMethod":"Card","couponCode":"SAVE99"}`)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownOrderIs404(t *testing.T) {
	h, _ := newOrderHandler(t)

	c, rec := doRequest(http.MethodGet, "/api/orders/12345", "")
	c.SetParamNames("id")
	c.SetParamValues("12345")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelShippedOrderIs409(t *testing.T) {
	h, cartSvc := newOrderHandler(t)
	_, err := cartSvc.Add(models.Product{ID: "1001", Name: "Chair", Price: 50})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodPost, "/api/checkout", checkoutBody)
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var view orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	require.NoError(t, h.Orders.AdvanceAll())

	c, rec = doRequest(http.MethodDelete, "/api/orders/"+view.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(view.ID)
	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Only orders still in Processing can be cancelled", body.Error)
}

func TestCancelProcessingOrder(t *testing.T) {
	h, cartSvc := newOrderHandler(t)
	_, err := cartSvc.Add(models.Product{ID: "1001", Name: "Chair", Price: 50})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodPost, "/api/checkout", checkoutBody)
	require.NoError(t, h.Checkout(c))

	var view orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	c, rec = doRequest(http.MethodDelete, "/api/orders/"+view.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(view.ID)
	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = doRequest(http.MethodGet, "/api/orders", "")
	require.NoError(t, h.List(c))
	var views []orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Empty(t, views)
}
