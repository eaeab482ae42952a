package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/celiafashion/storefront/internal/aggregator"
	"github.com/celiafashion/storefront/internal/search"
	"github.com/celiafashion/storefront/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
	Agg   *aggregator.Service
	Log   *slog.Logger
}

// Search answers free-text product queries. With Elasticsearch configured it
// searches the index; otherwise it filters the merged catalog in memory with
// the same predicate the grid uses.
func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return errorResponse(c, http.StatusBadRequest, "Query parameter q is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	ctx := c.Request().Context()

	if h.ES != nil {
		total, products, err := search.Search(ctx, h.ES, h.Index, q, from, size)
		if err == nil {
			return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
		}
		h.Log.Warn("elasticsearch query failed, using in-memory filter", "error", err)
	}

	filter := aggregator.NewFilter()
	filter.Search = q
	filter.Category = c.QueryParam("category")
	if filter.Category == "" {
		filter.Category = aggregator.AllCategories
	}
	if v, err := strconv.ParseFloat(c.QueryParam("minPrice"), 64); err == nil {
		filter.MinPrice = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("maxPrice"), 64); err == nil {
		filter.MaxPrice = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("minRating"), 64); err == nil {
		filter.MinRating = v
	}

	matched := aggregator.Apply(h.Agg.Merged(ctx, ""), filter)
	total := len(matched)
	if from > total {
		from = total
	}
	end := from + size
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": matched[from:end]})
}
