package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celiafashion/storefront/internal/cart"
	"github.com/celiafashion/storefront/internal/models"
)

type CartHandler struct {
	Cart *cart.Service
	Log  *slog.Logger
}

type cartView struct {
	Items  []models.CartItem `json:"items"`
	Saved  []models.CartItem `json:"saved"`
	Totals cart.Totals       `json:"totals"`
}

func (h *CartHandler) view() cartView {
	items := h.Cart.Items()
	totals, _ := cart.ComputeTotals(items, "")
	return cartView{Items: items, Saved: h.Cart.Saved(), Totals: totals}
}

func (h *CartHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.view())
}

func (h *CartHandler) Add(c echo.Context) error {
	var p models.Product
	if err := c.Bind(&p); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	if p.ID == "" || p.Name == "" {
		return errorResponse(c, http.StatusBadRequest, "Product id and name are required")
	}

	if _, err := h.Cart.Add(p); err != nil {
		h.Log.Error("cart add failed", "product", p.ID, "error", err)
		return errorResponse(c, http.StatusInternalServerError, "Failed to update cart")
	}
	return c.JSON(http.StatusOK, h.view())
}

func (h *CartHandler) SetQuantity(c echo.Context) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}

	if _, err := h.Cart.SetQuantity(c.Param("id"), req.Quantity); err != nil {
		return h.cartError(c, err)
	}
	return c.JSON(http.StatusOK, h.view())
}

func (h *CartHandler) Remove(c echo.Context) error {
	if _, err := h.Cart.Remove(c.Param("id")); err != nil {
		return h.cartError(c, err)
	}
	return c.JSON(http.StatusOK, h.view())
}

func (h *CartHandler) SaveForLater(c echo.Context) error {
	if err := h.Cart.SaveForLater(c.Param("id")); err != nil {
		return h.cartError(c, err)
	}
	return c.JSON(http.StatusOK, h.view())
}

func (h *CartHandler) MoveToCart(c echo.Context) error {
	if err := h.Cart.MoveToCart(c.Param("id")); err != nil {
		return h.cartError(c, err)
	}
	return c.JSON(http.StatusOK, h.view())
}

// ApplyCoupon validates the code against the current cart and returns the
// discounted totals. Nothing is persisted; the discount is applied again at
// checkout.
func (h *CartHandler) ApplyCoupon(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}

	totals, err := cart.ComputeTotals(h.Cart.Items(), req.Code)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid coupon")
	}
	return c.JSON(http.StatusOK, totals)
}

func (h *CartHandler) Wishlist(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Cart.Wishlist())
}

func (h *CartHandler) ToggleWishlist(c echo.Context) error {
	var p models.Product
	if err := c.Bind(&p); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	if p.ID == "" {
		return errorResponse(c, http.StatusBadRequest, "Product id is required")
	}

	added, err := h.Cart.ToggleWishlist(p)
	if err != nil {
		h.Log.Error("wishlist toggle failed", "product", p.ID, "error", err)
		return errorResponse(c, http.StatusInternalServerError, "Failed to update wishlist")
	}
	return c.JSON(http.StatusOK, echo.Map{"added": added, "wishlist": h.Cart.Wishlist()})
}

func (h *CartHandler) cartError(c echo.Context, err error) error {
	if errors.Is(err, cart.ErrNotInCart) || errors.Is(err, cart.ErrNotInSaved) {
		return errorResponse(c, http.StatusNotFound, err.Error())
	}
	h.Log.Error("cart update failed", "error", err)
	return errorResponse(c, http.StatusInternalServerError, "Failed to update cart")
}
