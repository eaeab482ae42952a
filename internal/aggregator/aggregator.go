package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/celiafashion/storefront/internal/models"
)

// ErrFeedProduct is returned when a delete targets a demo-feed product. The
// guard fires before any catalog call is made.
var ErrFeedProduct = errors.New("demo-feed products cannot be deleted")

// AllCategories is the synthetic no-filter sentinel prepended to the category
// list.
const AllCategories = "All"

type LocalSource interface {
	List(ctx context.Context, category string) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type FeedSource interface {
	List(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Service produces the unified catalog both browsing surfaces render. Either
// source may fail independently; a failed source contributes nothing instead
// of blocking the merge.
type Service struct {
	Local LocalSource
	Feed  FeedSource
	Log   *slog.Logger
}

// Merged returns local products followed by feed products, optionally
// narrowed to one category. Records violating the id namespace invariant are
// dropped and logged rather than silently merged.
func (s *Service) Merged(ctx context.Context, category string) []models.Product {
	var out []models.Product

	if s.Local != nil {
		local, err := s.Local.List(ctx, category)
		if err != nil {
			s.Log.Error("local catalog unavailable, contributing nothing", "error", err)
		} else {
			out = appendValid(out, local, s.Log)
		}
	}

	if s.Feed != nil {
		feed, err := s.Feed.List(ctx)
		if err != nil {
			s.Log.Error("demo feed unavailable, contributing nothing", "error", err)
		} else {
			if category != "" && category != AllCategories {
				feed = filterCategory(feed, category)
			}
			out = appendValid(out, feed, s.Log)
		}
	}

	if out == nil {
		out = []models.Product{}
	}
	return out
}

// Categories returns the unique category set across both sources with the
// "All" sentinel first.
func (s *Service) Categories(ctx context.Context) []string {
	seen := map[string]bool{}
	var names []string

	collect := func(values []string, err error, source string) {
		if err != nil {
			s.Log.Error("categories unavailable", "source", source, "error", err)
			return
		}
		for _, v := range values {
			if v != "" && !seen[v] {
				seen[v] = true
				names = append(names, v)
			}
		}
	}

	if s.Local != nil {
		values, err := s.Local.Categories(ctx)
		collect(values, err, "local")
	}
	if s.Feed != nil {
		values, err := s.Feed.Categories(ctx)
		collect(values, err, "feed")
	}

	sort.Strings(names)
	return append([]string{AllCategories}, names...)
}

// CheckNamespace enforces the id namespace invariant: feed ids are numeric
// and at/above the offset, local ids never parse as numbers in that range.
func CheckNamespace(p models.Product) error {
	n, numeric := numericID(p.ID)
	switch p.Origin {
	case models.OriginFeed:
		if !numeric || n < models.FeedIDOffset {
			return fmt.Errorf("feed product %q below id offset", p.ID)
		}
	case models.OriginLocal:
		if numeric && n >= models.FeedIDOffset {
			return fmt.Errorf("local product %q collides with feed id space", p.ID)
		}
	default:
		return fmt.Errorf("product %q has unknown origin %q", p.ID, p.Origin)
	}
	return nil
}

// CanDelete rejects deletes aimed at demo-feed products before the catalog
// service is ever contacted.
func CanDelete(id string) error {
	if n, ok := numericID(id); ok && n >= models.FeedIDOffset {
		return ErrFeedProduct
	}
	return nil
}

// Filter is the conjunctive browse predicate.
type Filter struct {
	Search    string
	Category  string
	MinPrice  float64
	MaxPrice  float64
	MinRating float64
}

// NewFilter returns the default, effectively unbounded filter.
func NewFilter() Filter {
	return Filter{Category: AllCategories, MaxPrice: 5000}
}

func (f Filter) Match(p models.Product) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.Category != "" && f.Category != AllCategories && p.Category != f.Category {
		return false
	}
	if p.Price < f.MinPrice || p.Price > f.MaxPrice {
		return false
	}
	if p.Rating < f.MinRating {
		return false
	}
	return true
}

func Apply(items []models.Product, f Filter) []models.Product {
	out := make([]models.Product, 0, len(items))
	for _, p := range items {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func appendValid(dst, src []models.Product, log *slog.Logger) []models.Product {
	for _, p := range src {
		if err := CheckNamespace(p); err != nil {
			log.Warn("dropping product violating id namespace", "error", err)
			continue
		}
		dst = append(dst, p)
	}
	return dst
}

func filterCategory(items []models.Product, category string) []models.Product {
	out := make([]models.Product, 0, len(items))
	for _, p := range items {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func numericID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil
}
