package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapshot-keeper/internal/cache"
	"snapshot-keeper/internal/config"
	"snapshot-keeper/internal/handler"
	"snapshot-keeper/internal/job"
	"snapshot-keeper/internal/metrics"
	"snapshot-keeper/internal/provider"
	"snapshot-keeper/internal/service"
	"snapshot-keeper/internal/store"
	"snapshot-keeper/pkg/logging"
	"snapshot-keeper/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "snapshot-keeper/docs"
)

const (
	serviceName    = "snapshot-keeper"
	serviceVersion = "1.0.0"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	setupLogging   = logging.Setup
	initTracerFunc = tracing.InitTracer
	initRedisFunc  = cache.NewRedis
	openStoreFunc  = store.Open
	newFetcherFunc = func(tracer trace.Tracer, cfg provider.SnapshotConfig) service.SnapshotFetcher {
		return provider.NewSnapshotProvider(tracer, cfg)
	}
	newFearGreedFunc = func(tracer trace.Tracer, timeout time.Duration) service.FearGreedSource {
		return provider.NewFearGreedProvider(tracer, timeout)
	}
	startJobFunc           = func(start func(context.Context), ctx context.Context) { go start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Snapshot Keeper API
// @version         1.0
// @description     Fetches a crypto market snapshot, persists it and maintains a ranked derived list.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()
	setupLogging(config.LoggingFromEnv())

	cfg := loadConfigFunc()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, serviceName, serviceVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	// Redis is optional; without it every cache lookup misses.
	var redisClient cache.RedisClient
	if rdb, err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without caches")
	} else {
		redisClient = rdb
		defer rdb.Close()
	}

	contentStore, err := openStoreFunc(tracer, cfg.StoreBackend, store.GitHubConfig{
		APIURL:  cfg.GitHubAPIURL,
		Token:   cfg.GitHubToken,
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Branch:  cfg.GitHubBranch,
		Timeout: cfg.RequestTimeout(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open content store")
	}

	pipelineMetrics := metrics.NewPipelineMetrics()
	fetcher := newFetcherFunc(tracer, provider.SnapshotConfig{
		URL:          cfg.SnapshotURL,
		APIKey:       cfg.SnapshotAPIKey,
		APIKeyHeader: cfg.SnapshotAPIKeyHeader,
		Timeout:      cfg.RequestTimeout(),
	})
	pipeline := service.NewPipelineService(tracer, service.PipelineConfig{
		RawPath:              cfg.RawPath,
		DerivedPath:          cfg.DerivedPath,
		Capacity:             cfg.DerivedCapacity,
		RequestTimeout:       cfg.RequestTimeout(),
		PreviousReadAttempts: cfg.PreviousReadAttempts,
		PreviousReadBackoff:  cfg.PreviousReadBackoff(),
	}, fetcher, contentStore, pipelineMetrics)

	reader := service.NewSnapshotReader(
		tracer,
		contentStore,
		cache.NewDocumentCache(redisClient, cfg.SnapshotCacheTTL()),
		cfg.RawPath,
		cfg.DerivedPath,
	)
	runCache := cache.NewRunCache(redisClient, cfg.SnapshotCacheTTL())

	pipelineJob := job.NewPipelineJob(tracer, pipeline, runCache, reader, pipelineMetrics, cfg.SnapshotPollInterval())
	startJobFunc(pipelineJob.Start, ctx)

	h := handler.New(tracer, reader, pipelineJob)
	h.SetMetricsHandler(pipelineMetrics.Handler())
	h.SetAPIKey(cfg.APIKey)

	if cfg.SentimentEnabled {
		sentiment := service.NewSentimentService(tracer, newFearGreedFunc(tracer, cfg.RequestTimeout()), contentStore, cfg.DerivedPath)
		h.SetSentimentRefresher(sentiment)
		startJobFunc(job.NewSentimentJob(tracer, sentiment, cfg.SentimentPollInterval()).Start, ctx)
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware(serviceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()
	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreBackend).Msg("server started")

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
