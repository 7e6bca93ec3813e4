// Package main wires together the content crawler service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/localmark/content-crawler/internal/api"
	"github.com/localmark/content-crawler/internal/clock/system"
	"github.com/localmark/content-crawler/internal/config"
	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/extract"
	"github.com/localmark/content-crawler/internal/id/uuid"
	"github.com/localmark/content-crawler/internal/logging"
	"github.com/localmark/content-crawler/internal/metrics"
	"github.com/localmark/content-crawler/internal/pipeline"
	pubsubpublisher "github.com/localmark/content-crawler/internal/publisher/pubsub"
	"github.com/localmark/content-crawler/internal/scrape/direct"
	"github.com/localmark/content-crawler/internal/scrape/firecrawl"
	"github.com/localmark/content-crawler/internal/search"
	"github.com/localmark/content-crawler/internal/storage/gcs"
	"github.com/localmark/content-crawler/internal/storage/memory"
	"github.com/localmark/content-crawler/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	clock := system.New()
	idGen := uuid.New()

	scraper, searcher, err := buildScraper(cfg, logger)
	if err != nil {
		return err
	}

	generator, err := extract.NewGoogleAIGenerator(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}
	extractor, err := extract.New(extract.Config{
		ModelCandidates: cfg.Gemini.ModelCandidates,
		MaxPromptChars:  cfg.Pipeline.MaxPromptChars,
		Timeout:         time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	}, generator, logger.Named("extract"))
	if err != nil {
		return fmt.Errorf("init extractor: %w", err)
	}

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, err := buildBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	publisher, stopPublisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopPublisher()

	pipe, err := pipeline.New(
		pipeline.Config{
			MinContentChars:    cfg.Pipeline.MinContentChars,
			BatchDelay:         cfg.BatchDelay(),
			EventTopic:         cfg.PubSub.TopicName,
			ArchiveContentType: cfg.Archive.ContentType,
		},
		pipeline.Options{
			Scraper:   scraper,
			Extractor: extractor,
			Store:     store,
			Blobs:     blobs,
			Publisher: publisher,
			Clock:     clock,
			IDs:       idGen,
			Logger:    logger.Named("pipeline"),
		},
	)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	collector, err := search.New(search.Config{
		Region:       cfg.Search.Region,
		AllowedHosts: cfg.Search.AllowedHosts,
		Limit:        cfg.Search.Limit,
	}, searcher, logger.Named("search"))
	if err != nil {
		return fmt.Errorf("init search collector: %w", err)
	}

	apiServer := api.NewServer(pipe, collector, store, clock, api.Config{
		RequestTimeout: cfg.ServerTimeout(),
		AuthEnabled:    cfg.Auth.Enabled,
		APIKey:         cfg.Auth.APIKey,
	}, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// buildScraper selects the fetch provider. Firecrawl also serves keyword
// search; the direct fetcher has no search capability, so search endpoints
// still require a Firecrawl key.
func buildScraper(cfg config.Config, logger *zap.Logger) (content.Scraper, content.Searcher, error) {
	fcClient, fcErr := firecrawl.New(firecrawl.Config{
		APIKey:            cfg.Firecrawl.APIKey,
		BaseURL:           cfg.Firecrawl.BaseURL,
		Timeout:           time.Duration(cfg.Firecrawl.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Firecrawl.RequestsPerSecond,
	}, logger.Named("firecrawl"))

	switch cfg.Scraper.Provider {
	case "firecrawl":
		if fcErr != nil {
			return nil, nil, fmt.Errorf("init firecrawl client: %w", fcErr)
		}
		return fcClient, fcClient, nil
	case "direct":
		fetcher := direct.New(direct.Config{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		})
		if fcErr != nil {
			logger.Warn("firecrawl not configured, keyword search endpoints will fail", zap.Error(fcErr))
			return fetcher, searchUnavailable{}, nil
		}
		return fetcher, fcClient, nil
	default:
		return nil, nil, fmt.Errorf("unknown scraper.provider %q", cfg.Scraper.Provider)
	}
}

// searchUnavailable stands in when no search-capable provider is configured.
type searchUnavailable struct{}

func (searchUnavailable) Search(context.Context, string, int) ([]string, error) {
	return nil, fmt.Errorf("keyword search requires firecrawl.api_key")
}

// buildStore picks Postgres when a DSN is configured and the in-memory store
// otherwise, which keeps local development free of infrastructure.
func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (content.Store, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Warn("db.dsn not set, using in-memory store")
		return memory.NewContentStore(), func() {}, nil
	}
	store, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		ContentTable:    cfg.DB.ContentTable,
		StoreTable:      cfg.DB.StoreTable,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: time.Duration(cfg.DB.LifetimeMinutes) * time.Minute,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init postgres store: %w", err)
	}
	return store, store.Close, nil
}

func buildBlobStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (content.BlobStore, error) {
	if cfg.Archive.GCSBucket == "" {
		logger.Info("archive.gcs_bucket not set, raw page archival disabled")
		return nil, nil
	}
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init gcs client: %w", err)
	}
	blobs, err := gcs.New(client, gcs.Config{
		Bucket: cfg.Archive.GCSBucket,
		Prefix: cfg.Archive.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	return blobs, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (content.Publisher, func(), error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		logger.Info("pubsub not configured, ingest events disabled")
		return nil, func() {}, nil
	}
	client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("init pubsub client: %w", err)
	}
	publisher, err := pubsubpublisher.New(client)
	if err != nil {
		return nil, nil, fmt.Errorf("init publisher: %w", err)
	}
	return publisher, publisher.Stop, nil
}
