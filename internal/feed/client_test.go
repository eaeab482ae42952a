package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/resilience"
)

func testClient(url string) *Client {
	policy := resilience.New()
	policy.Backoff = time.Millisecond
	return NewClient(url, policy)
}

func TestListNormalizesFeedProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"products":[
			{"id":1,"title":"Mascara","price":9.99,"thumbnail":"https://cdn/x.png","description":"d","category":"beauty","rating":4.5},
			{"id":2,"title":"Uncategorized","price":5},
			{"id":101,"title":"Out of range","price":1}
		]}`))
	}))
	defer srv.Close()

	products, err := testClient(srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2, "ids outside 1..100 are dropped")

	first := products[0]
	require.Equal(t, "1001", first.ID)
	require.Equal(t, "Mascara", first.Name)
	require.Equal(t, "https://cdn/x.png", first.Image)
	require.Equal(t, models.OriginFeed, first.Origin)

	require.Equal(t, models.DefaultCategory, products[1].Category)
}

func TestGetAppliesOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/7", r.URL.Path)
		w.Write([]byte(`{"id":7,"title":"Chair","price":49.5,"thumbnail":"t","category":"furniture"}`))
	}))
	defer srv.Close()

	p, err := testClient(srv.URL).Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "1007", p.ID)
	require.Equal(t, "Chair", p.Name)
}

func TestGetNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Get(context.Background(), 7)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetRejectsOutOfRangeIDsLocally(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Get(context.Background(), 0)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = testClient(srv.URL).Get(context.Background(), 101)
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, calls.Load())
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestCategoriesAcceptsBothShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["beauty","furniture"]`))
	}))
	categories, err := testClient(srv.URL).Categories(context.Background())
	srv.Close()
	require.NoError(t, err)
	require.Equal(t, []string{"beauty", "furniture"}, categories)

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"slug":"beauty","name":"Beauty","url":"u"},{"slug":"furniture","name":"Furniture","url":"u"}]`))
	}))
	defer srv.Close()
	categories, err = testClient(srv.URL).Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"beauty", "furniture"}, categories)
}
