package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/celiafashion/storefront/internal/aggregator"
	"github.com/celiafashion/storefront/internal/cart"
	"github.com/celiafashion/storefront/internal/catalog"
	"github.com/celiafashion/storefront/internal/config"
	"github.com/celiafashion/storefront/internal/events"
	"github.com/celiafashion/storefront/internal/feed"
	"github.com/celiafashion/storefront/internal/handlers"
	"github.com/celiafashion/storefront/internal/logging"
	"github.com/celiafashion/storefront/internal/mongodb"
	"github.com/celiafashion/storefront/internal/orders"
	"github.com/celiafashion/storefront/internal/recs"
	"github.com/celiafashion/storefront/internal/resilience"
	"github.com/celiafashion/storefront/internal/search"
	"github.com/celiafashion/storefront/internal/storage"
	httpserver "github.com/celiafashion/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The server still serves feed products when the document store is down,
	// so a failed connect only disables the local contribution.
	var repo *catalog.Repo
	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("document store unavailable, serving feed products only", "error", err)
	}
	if mongoClient != nil {
		repo = catalog.NewRepo(mongoClient.Database(cfg.MongoDB).Collection("products"))
	}

	store, err := storage.Open(cfg.StateDSN, cfg.StatePath, logger)
	if err != nil {
		logger.Error("state store init failed", "error", err)
		os.Exit(1)
	}

	producer := events.NewProducer(cfg.KafkaAddress, cfg.KafkaTopic, logger)

	policy := resilience.New()
	feedClient := feed.NewClient(cfg.FeedURL, policy)

	agg := &aggregator.Service{Feed: feedClient, Log: logger}
	if repo != nil {
		agg.Local = repo
	}

	cartSvc := &cart.Service{Store: store}
	orderSvc := orders.NewService(store, producer, logger)

	recsClient := &recs.Client{
		BaseURL: cfg.MLBackendURL,
		HTTP:    &http.Client{},
		Policy:  policy,
		Agg:     agg,
		Feed:    feedClient,
		Events:  producer,
		Log:     logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))

	deps := httpserver.Deps{
		Product: &handlers.ProductHandler{
			Feed: feedClient, Agg: agg, Producer: producer, Log: logger,
		},
		Cart:   &handlers.CartHandler{Cart: cartSvc, Log: logger},
		Order:  &handlers.OrderHandler{Orders: orderSvc, Log: logger},
		Recs:   &handlers.RecsHandler{Recs: recsClient, Store: store, Log: logger},
		Search: &handlers.SearchHandler{Index: cfg.ESIndex, Agg: agg, Log: logger},
	}
	if repo != nil {
		deps.Product.Catalog = repo
	}

	if cfg.ESURL != "" {
		esConn, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("search index unavailable, using in-memory search", "error", err)
		} else {
			deps.Search.ES = esConn
			deps.Product.Indexer = search.NewIndexer(esConn, cfg.ESIndex, logger)
		}
	}

	httpserver.Register(e, &deps)

	// Background status advancement for the order list view. Detail views run
	// their own scoped trackers through the same transactional advance.
	tracker := &orders.Tracker{Service: orderSvc, Interval: cfg.OrderTick}
	go tracker.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.Error("mongodb disconnect error", "error", err)
		}
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
