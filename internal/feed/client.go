package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/celiafashion/storefront/internal/models"
	"github.com/celiafashion/storefront/internal/resilience"
)

var ErrNotFound = errors.New("feed product not found")

// maxUpstreamID bounds the demo feed's id space; anything outside it is
// dropped so the offset scheme cannot collide with local ids.
const maxUpstreamID = 100

// Client reads the public demo product API. Every product it returns already
// carries the offset id and the normalized field names.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Policy  *resilience.Policy
}

func NewClient(baseURL string, policy *resilience.Policy) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
		Policy:  policy,
	}
}

type feedProduct struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
}

func (p feedProduct) normalize() models.Product {
	category := p.Category
	if category == "" {
		category = models.DefaultCategory
	}
	return models.Product{
		ID:          strconv.Itoa(p.ID + models.FeedIDOffset),
		Name:        p.Title,
		Price:       p.Price,
		Image:       p.Thumbnail,
		Description: p.Description,
		Category:    category,
		Rating:      p.Rating,
		Origin:      models.OriginFeed,
	}
}

// List fetches up to 100 feed products.
func (c *Client) List(ctx context.Context) ([]models.Product, error) {
	var payload struct {
		Products []feedProduct `json:"products"`
	}
	url := fmt.Sprintf("%s/products?limit=%d", c.BaseURL, maxUpstreamID)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		if p.ID <= 0 || p.ID > maxUpstreamID {
			continue
		}
		out = append(out, p.normalize())
	}
	return out, nil
}

// Get fetches one product by its upstream id (before the offset).
func (c *Client) Get(ctx context.Context, upstreamID int) (models.Product, error) {
	if upstreamID <= 0 || upstreamID > maxUpstreamID {
		return models.Product{}, ErrNotFound
	}
	var p feedProduct
	url := fmt.Sprintf("%s/products/%d", c.BaseURL, upstreamID)
	if err := c.getJSON(ctx, url, &p); err != nil {
		return models.Product{}, err
	}
	return p.normalize(), nil
}

// Categories returns the feed's category names. The feed has served both a
// plain string array and an object array over time, so both are accepted.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	url := c.BaseURL + "/products/categories"
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names, nil
	}
	var objs []struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("decode feed categories: %w", err)
	}
	names = make([]string, 0, len(objs))
	for _, o := range objs {
		if o.Slug != "" {
			names = append(names, o.Slug)
		} else if o.Name != "" {
			names = append(names, o.Name)
		}
	}
	return names, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	return c.Policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return resilience.Permanent(err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return resilience.Permanent(ErrNotFound)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return resilience.Permanent(fmt.Errorf("feed rejected request: %s", resp.Status))
		case resp.StatusCode >= 500:
			return fmt.Errorf("feed unavailable: %s", resp.Status)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
