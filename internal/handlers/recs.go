package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/recs"
	"github.com/celiafashion/storefront/internal/storage"
)

type RecsHandler struct {
	Recs  *recs.Client
	Store *storage.Store
	Log   *slog.Logger
}

// Recommendations returns products related to the purchase history, falling
// back to the cart for first-time shoppers. The recs client itself degrades
// through its fallback chain and never errors.
func (h *RecsHandler) Recommendations(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	history := []models.CartItem{}
	h.Store.Read(storage.KeyPurchaseHistory, &history)
	if len(history) == 0 {
		h.Store.Read(storage.KeyCart, &history)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"recommendations": h.Recs.Recommend(c.Request().Context(), history, limit),
	})
}

// TrackView records a product view, best effort; the caller never waits.
func (h *RecsHandler) TrackView(c echo.Context) error {
	h.Recs.TrackView(c.Param("id"))
	return c.NoContent(http.StatusAccepted)
}

// The AI widget endpoints all proxy their JSON body to the ML backend.

func (h *RecsHandler) Assist(c echo.Context) error {
	return h.forward(c, "/ai/assist")
}

func (h *RecsHandler) AnalyzeCart(c echo.Context) error {
	return h.forward(c, "/ai/analyze_cart")
}

func (h *RecsHandler) SEOArticle(c echo.Context) error {
	return h.forward(c, "/ai/generate_seo_article")
}

func (h *RecsHandler) SizeGuide(c echo.Context) error {
	return h.forward(c, "/ai/size_guide")
}

func (h *RecsHandler) forward(c echo.Context, path string) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}

	data, err := h.Recs.Forward(c.Request().Context(), path, body)
	if err != nil {
		h.Log.Warn("ai passthrough failed", "path", path, "error", err)
		return errorResponse(c, http.StatusBadGateway, "Assistant is unavailable right now")
	}
	return c.JSONBlob(http.StatusOK, data)
}
