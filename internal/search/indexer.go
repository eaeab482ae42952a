package search

import (
	"context"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/celiafashion/storefront/internal/models"
)

// Indexer keeps the product index in sync with catalog writes, best effort. A
// nil Indexer drops everything, so catalog handlers call it unconditionally.
type Indexer struct {
	ES        *elasticsearch.Client
	IndexName string
	Log       *slog.Logger
}

func NewIndexer(es *elasticsearch.Client, index string, log *slog.Logger) *Indexer {
	if es == nil {
		return nil
	}
	return &Indexer{ES: es, IndexName: index, Log: log}
}

func (i *Indexer) Product(ctx context.Context, p models.Product) {
	if i == nil {
		return
	}
	if err := Index(ctx, i.ES, i.IndexName, p); err != nil {
		i.Log.Warn("product indexing failed", "product", p.ID, "error", err)
	}
}

func (i *Indexer) Forget(ctx context.Context, id string) {
	if i == nil {
		return
	}
	if err := Remove(ctx, i.ES, i.IndexName, id); err != nil {
		i.Log.Warn("product index removal failed", "product", id, "error", err)
	}
}
