package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/celiafashion/storefront/internal/aggregator"
	"github.com/celiafashion/storefront/internal/catalog"
	"github.com/celiafashion/storefront/internal/events"
	"github.com/celiafashion/storefront/internal/feed"
	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/search"
)

// LocalCatalog is the slice of the catalog repository the handlers need.
type LocalCatalog interface {
	Get(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, p catalog.NewProduct) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

// FeedGetter looks a single product up by its upstream (pre-offset) id.
type FeedGetter interface {
	Get(ctx context.Context, upstreamID int) (models.Product, error)
}

type ProductHandler struct {
	Catalog  LocalCatalog
	Feed     FeedGetter
	Agg      *aggregator.Service
	Producer *events.Producer
	Indexer  *search.Indexer
	Log      *slog.Logger
}

func (h *ProductHandler) Live(c echo.Context) error {
	return c.String(http.StatusOK, "API is running (catalog + demo feed)")
}

// List returns the merged catalog, optionally narrowed to one category. A
// failed source degrades to an empty contribution inside the aggregator.
func (h *ProductHandler) List(c echo.Context) error {
	category := c.QueryParam("category")
	return c.JSON(http.StatusOK, h.Agg.Merged(c.Request().Context(), category))
}

// Get resolves ObjectID-shaped ids locally and numeric ids at/above the
// offset against the demo feed. Everything else is a 404.
func (h *ProductHandler) Get(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	if catalog.IsLocalID(id) && h.Catalog != nil {
		product, err := h.Catalog.Get(ctx, id)
		if err == nil {
			return c.JSON(http.StatusOK, product)
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			h.Log.Error("local product lookup failed", "id", id, "error", err)
			return errorResponse(c, http.StatusInternalServerError, "Failed to fetch product")
		}
	}

	if n, err := strconv.Atoi(id); err == nil && n >= models.FeedIDOffset && h.Feed != nil {
		product, err := h.Feed.Get(ctx, n-models.FeedIDOffset)
		if err == nil {
			return c.JSON(http.StatusOK, product)
		}
		if !errors.Is(err, feed.ErrNotFound) {
			h.Log.Error("feed product lookup failed", "id", id, "error", err)
			return errorResponse(c, http.StatusInternalServerError, "Failed to fetch product")
		}
	}

	return errorResponse(c, http.StatusNotFound, "Product not found")
}

func (h *ProductHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Agg.Categories(c.Request().Context()))
}

type addProductRequest struct {
	Name        string `json:"name"`
	Price       any    `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Create validates and stores a new local product.
func (h *ProductHandler) Create(c echo.Context) error {
	var req addProductRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}

	if req.Name == "" || req.Price == nil || req.Category == "" {
		return errorResponse(c, http.StatusBadRequest, "Name, price, and category are required")
	}
	name := strings.TrimSpace(req.Name)
	if len(name) < 3 {
		return errorResponse(c, http.StatusBadRequest, "Product name must be at least 3 characters")
	}
	price, err := parsePrice(req.Price)
	if err != nil || price <= 0 {
		return errorResponse(c, http.StatusBadRequest, "Price must be a positive number")
	}
	if h.Catalog == nil {
		return errorResponse(c, http.StatusInternalServerError, "DB not connected")
	}

	product, err := h.Catalog.Create(c.Request().Context(), catalog.NewProduct{
		Name:        name,
		Price:       price,
		Image:       req.Image,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
	})
	if err != nil {
		h.Log.Error("product create failed", "error", err)
		return errorResponse(c, http.StatusInternalServerError, "Failed to add product")
	}

	h.Producer.PublishAsync(product.ID, map[string]any{
		"type":    "product_created",
		"product": product.ID,
		"name":    product.Name,
	})
	h.Indexer.Product(c.Request().Context(), product)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product added successfully",
		"product": product,
	})
}

// Delete removes a local product. Demo-feed ids are rejected up front, before
// any catalog call.
func (h *ProductHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	if err := aggregator.CanDelete(id); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Demo-feed products cannot be deleted")
	}
	if !catalog.IsLocalID(id) {
		return errorResponse(c, http.StatusBadRequest, "Invalid product ID format")
	}
	if h.Catalog == nil {
		return errorResponse(c, http.StatusInternalServerError, "DB not connected")
	}

	if err := h.Catalog.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return errorResponse(c, http.StatusNotFound, "Product not found")
		}
		h.Log.Error("product delete failed", "id", id, "error", err)
		return errorResponse(c, http.StatusInternalServerError, "Failed to delete product")
	}

	h.Producer.PublishAsync(id, map[string]any{
		"type":    "product_deleted",
		"product": id,
	})
	h.Indexer.Forget(c.Request().Context(), id)

	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

func parsePrice(v any) (float64, error) {
	switch p := v.(type) {
	case float64:
		return p, nil
	case string:
		return strconv.ParseFloat(p, 64)
	default:
		return 0, fmt.Errorf("unsupported price type %T", v)
	}
}
