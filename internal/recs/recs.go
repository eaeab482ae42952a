package recs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/celiafashion/storefront/internal/aggregator"
	"github.com/celiafashion/storefront/internal/events"
	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/resilience"
)

// ErrUnavailable is returned by the AI passthrough when the ML backend cannot
// be reached.
var ErrUnavailable = errors.New("ml backend unavailable")

const defaultLimit = 6

// Client talks to the external recommendation/AI service. Recommendations
// never fail the caller: the ML backend, a category match, the demo feed and
// a hardcoded list are tried in that order, each failure caught
// independently.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Policy  *resilience.Policy
	Agg     *aggregator.Service
	Feed    aggregator.FeedSource
	Events  *events.Producer
	Log     *slog.Logger
}

// Recommend returns up to limit products related to the purchase history.
func (c *Client) Recommend(ctx context.Context, history []models.CartItem, limit int) []models.Product {
	if limit <= 0 {
		limit = defaultLimit
	}

	if c.BaseURL != "" {
		if recs, err := c.fromML(ctx, history, limit); err != nil {
			c.Log.Warn("ml recommendations unavailable, falling back", "error", err)
		} else if len(recs) > 0 {
			return recs
		}
	}

	if recs := c.fromCategories(ctx, history, limit); len(recs) > 0 {
		return recs
	}
	if recs := c.fromFeed(ctx, history, limit); len(recs) > 0 {
		return recs
	}
	return hardcoded(limit)
}

func (c *Client) fromML(ctx context.Context, history []models.CartItem, limit int) ([]models.Product, error) {
	payload := map[string]any{"history": history, "limit": limit}
	var resp struct {
		Recommendations []models.Product `json:"recommendations"`
	}
	if err := c.postJSON(ctx, "/recommend", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}

// fromCategories picks merged-catalog products sharing a category with the
// history, excluding products already bought.
func (c *Client) fromCategories(ctx context.Context, history []models.CartItem, limit int) []models.Product {
	if c.Agg == nil || len(history) == 0 {
		return nil
	}
	wanted := map[string]bool{}
	bought := map[string]bool{}
	for _, it := range history {
		wanted[it.Category] = true
		bought[it.ID] = true
	}

	var out []models.Product
	for _, p := range c.Agg.Merged(ctx, "") {
		if len(out) == limit {
			break
		}
		if wanted[p.Category] && !bought[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func (c *Client) fromFeed(ctx context.Context, history []models.CartItem, limit int) []models.Product {
	if c.Feed == nil {
		return nil
	}
	items, err := c.Feed.List(ctx)
	if err != nil {
		c.Log.Warn("feed recommendations unavailable", "error", err)
		return nil
	}
	bought := map[string]bool{}
	for _, it := range history {
		bought[it.ID] = true
	}

	var out []models.Product
	for _, p := range items {
		if len(out) == limit {
			break
		}
		if !bought[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// hardcoded is the last-resort list shown when every remote source is down.
func hardcoded(limit int) []models.Product {
	all := []models.Product{
		{ID: "1001", Name: "Essence Mascara Lash Princess", Price: 9.99, Category: "beauty", Origin: models.OriginFeed},
		{ID: "1006", Name: "Calvin Klein CK One", Price: 49.99, Category: "fragrances", Origin: models.OriginFeed},
		{ID: "1016", Name: "Apple", Price: 1.99, Category: "groceries", Origin: models.OriginFeed},
		{ID: "1031", Name: "Decoration Swing", Price: 59.99, Category: "furniture", Origin: models.OriginFeed},
	}
	if limit < len(all) {
		return all[:limit]
	}
	return all
}

// TrackView records a product view, best effort: a Kafka event plus a
// fire-and-forget call to the ML backend. Failures are logged, never
// surfaced.
func (c *Client) TrackView(productID string) {
	c.Events.PublishAsync(productID, map[string]any{
		"type":    "product_viewed",
		"product": productID,
	})
	if c.BaseURL == "" {
		return
	}
	go func() {
		payload := map[string]any{"product_id": productID}
		if err := c.postJSON(context.Background(), "/track-view", payload, nil); err != nil {
			c.Log.Debug("view tracking failed", "product", productID, "error", err)
		}
	}()
}

// Forward proxies a raw JSON body to an ML backend AI endpoint and returns
// the response body. Used by the chat-assistant, cart-analysis, blog and
// size-guide widgets.
func (c *Client) Forward(ctx context.Context, path string, body []byte) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, ErrUnavailable
	}
	var out []byte
	err := c.Policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return resilience.Permanent(fmt.Errorf("ml backend rejected request: %s", resp.Status))
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("ml backend error: %s", resp.Status)
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := c.Forward(ctx, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
