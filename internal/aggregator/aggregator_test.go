package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/celiafashion/storefront/internal/models"
)

type fakeLocal struct {
	products []models.Product
	fail     bool
}

func (f *fakeLocal) List(_ context.Context, category string) ([]models.Product, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	if category == "" || category == AllCategories {
		return f.products, nil
	}
	var out []models.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLocal) Categories(context.Context) ([]string, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range f.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}

type fakeFeed struct {
	products []models.Product
	fail     bool
}

func (f *fakeFeed) List(context.Context) ([]models.Product, error) {
	if f.fail {
		return nil, errors.New("feed down")
	}
	return f.products, nil
}

func (f *fakeFeed) Categories(context.Context) ([]string, error) {
	if f.fail {
		return nil, errors.New("feed down")
	}
	return []string{"beauty", "furniture"}, nil
}

func localProduct(id, category string) models.Product {
	return models.Product{ID: id, Name: "local " + id, Price: 100, Category: category, Origin: models.OriginLocal}
}

func feedProduct(upstream int, category string) models.Product {
	return models.Product{
		ID:       strconv.Itoa(upstream + models.FeedIDOffset),
		Name:     "feed " + strconv.Itoa(upstream),
		Price:    50,
		Category: category,
		Origin:   models.OriginFeed,
	}
}

func newService(local *fakeLocal, feed *fakeFeed) *Service {
	return &Service{Local: local, Feed: feed, Log: slog.Default()}
}

func TestMergedCombinesBothSources(t *testing.T) {
	local := &fakeLocal{products: []models.Product{localProduct("507f1f77bcf86cd799439011", "dresses")}}
	feed := &fakeFeed{products: []models.Product{feedProduct(1, "beauty"), feedProduct(2, "furniture")}}

	merged := newService(local, feed).Merged(context.Background(), "")
	require.Len(t, merged, 3)
	require.Equal(t, models.OriginLocal, merged[0].Origin)
	require.Equal(t, "1001", merged[1].ID)
}

func TestMergedFeedFailureKeepsLocalProducts(t *testing.T) {
	local := &fakeLocal{products: []models.Product{
		localProduct("507f1f77bcf86cd799439011", "dresses"),
		localProduct("507f1f77bcf86cd799439012", "shoes"),
	}}
	feed := &fakeFeed{fail: true}

	merged := newService(local, feed).Merged(context.Background(), "")
	require.Len(t, merged, 2)
	for _, p := range merged {
		require.Equal(t, models.OriginLocal, p.Origin)
	}
}

func TestMergedLocalFailureKeepsFeedProducts(t *testing.T) {
	local := &fakeLocal{fail: true}
	feed := &fakeFeed{products: []models.Product{feedProduct(1, "beauty")}}

	merged := newService(local, feed).Merged(context.Background(), "")
	require.Len(t, merged, 1)
	require.Equal(t, models.OriginFeed, merged[0].Origin)
}

func TestMergedCategoryFiltersBothSources(t *testing.T) {
	local := &fakeLocal{products: []models.Product{
		localProduct("507f1f77bcf86cd799439011", "beauty"),
		localProduct("507f1f77bcf86cd799439012", "shoes"),
	}}
	feed := &fakeFeed{products: []models.Product{feedProduct(1, "beauty"), feedProduct(2, "furniture")}}

	svc := newService(local, feed)

	merged := svc.Merged(context.Background(), "beauty")
	require.Len(t, merged, 2)
	for _, p := range merged {
		require.Equal(t, "beauty", p.Category)
	}

	require.Len(t, svc.Merged(context.Background(), AllCategories), 4)
}

func TestMergedDropsNamespaceViolations(t *testing.T) {
	local := &fakeLocal{products: []models.Product{
		// A numeric local id inside the feed range would collide.
		{ID: "1500", Name: "rogue", Price: 1, Category: "misc", Origin: models.OriginLocal},
		localProduct("507f1f77bcf86cd799439011", "dresses"),
	}}
	feed := &fakeFeed{products: []models.Product{
		// A feed id below the offset means the transform was skipped.
		{ID: "7", Name: "raw feed", Price: 1, Category: "misc", Origin: models.OriginFeed},
		feedProduct(7, "misc"),
	}}

	merged := newService(local, feed).Merged(context.Background(), "")
	require.Len(t, merged, 2)
	require.Equal(t, "507f1f77bcf86cd799439011", merged[0].ID)
	require.Equal(t, "1007", merged[1].ID)
}

func TestFeedIDsCarryOffset(t *testing.T) {
	feed := &fakeFeed{products: []models.Product{feedProduct(1, "beauty"), feedProduct(100, "misc")}}

	merged := newService(&fakeLocal{}, feed).Merged(context.Background(), "")
	for _, p := range merged {
		n, err := strconv.Atoi(p.ID)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, models.FeedIDOffset)
	}
}

func TestCategoriesPrependsAllSentinel(t *testing.T) {
	local := &fakeLocal{products: []models.Product{localProduct("507f1f77bcf86cd799439011", "dresses")}}
	feed := &fakeFeed{}

	categories := newService(local, feed).Categories(context.Background())
	require.Equal(t, AllCategories, categories[0])
	require.Contains(t, categories, "dresses")
	require.Contains(t, categories, "beauty")
}

func TestCategoriesDegradesPerSource(t *testing.T) {
	categories := newService(&fakeLocal{fail: true}, &fakeFeed{}).Categories(context.Background())
	require.Equal(t, []string{AllCategories, "beauty", "furniture"}, categories)
}

func TestCanDeleteRejectsFeedIDs(t *testing.T) {
	require.ErrorIs(t, CanDelete("1001"), ErrFeedProduct)
	require.ErrorIs(t, CanDelete("1000"), ErrFeedProduct)
	require.NoError(t, CanDelete("507f1f77bcf86cd799439011"))
	require.NoError(t, CanDelete("999"))
}

func TestFilterMatch(t *testing.T) {
	p := models.Product{Name: "Summer Dress", Price: 1200, Category: "dresses", Rating: 4.2}

	f := NewFilter()
	require.True(t, f.Match(p))

	f.Search = "DRESS"
	require.True(t, f.Match(p), "search is case-insensitive substring")

	f.Search = "jacket"
	require.False(t, f.Match(p))

	f = NewFilter()
	f.Category = "shoes"
	require.False(t, f.Match(p))
	f.Category = "dresses"
	require.True(t, f.Match(p))

	f = NewFilter()
	f.MaxPrice = 1000
	require.False(t, f.Match(p))
	f.MaxPrice = 1200
	require.True(t, f.Match(p), "price range is inclusive")

	f = NewFilter()
	f.MinRating = 5
	require.False(t, f.Match(p))

	unrated := models.Product{Name: "New Arrival", Price: 10, Category: "misc"}
	f = NewFilter()
	f.MinRating = 1
	require.False(t, f.Match(unrated), "missing rating counts as zero")
	f.MinRating = 0
	require.True(t, f.Match(unrated))
}

func TestApplyIsConjunctive(t *testing.T) {
	items := []models.Product{
		{Name: "Red Dress", Price: 500, Category: "dresses", Rating: 4},
		{Name: "Red Shoes", Price: 500, Category: "shoes", Rating: 4},
		{Name: "Blue Dress", Price: 9000, Category: "dresses", Rating: 4},
	}

	f := NewFilter()
	f.Search = "red"
	f.Category = "dresses"
	out := Apply(items, f)
	require.Len(t, out, 1)
	require.Equal(t, "Red Dress", out[0].Name)
}
