package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"snapshot-keeper/internal/cache"
	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/job"
	"snapshot-keeper/internal/metrics"
	"snapshot-keeper/internal/provider"
	"snapshot-keeper/internal/service"
	"snapshot-keeper/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

var (
	openStoreFunc  = store.Open
	initRedisFunc  = cache.NewRedis
	newFetcherFunc = func(tracer trace.Tracer, cfg provider.SnapshotConfig) service.SnapshotFetcher {
		return provider.NewSnapshotProvider(tracer, cfg)
	}
)

func newRunCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run and print its outcome",
		Long: `Execute one pipeline run and print the outcome as JSON. A run finished
within SNAPSHOT_CACHE_TTL_SECS is reported as skipped unless --force is set.
The command exits non-zero when the run fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			outcome, err := runPipeline(ctx, force)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcome); err != nil {
				return err
			}
			if !outcome.Success {
				return fmt.Errorf("pipeline failed at %s: %s", outcome.Stage, outcome.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Run even if a recent successful outcome is cached")
	return cmd
}

// runPipeline wires one pipeline from the environment. Configuration errors
// are reported as a failed outcome so the caller prints them like any other.
func runPipeline(ctx context.Context, force bool) (domain.Outcome, error) {
	cfg := loadConfigFunc()
	if err := cfg.Validate(); err != nil {
		stageErr := &domain.StageError{Stage: domain.StageConfig, Err: err}
		now := time.Now().UTC()
		return domain.Outcome{
			RunID:      uuid.NewString(),
			StartedAt:  now,
			FinishedAt: now,
			Stage:      domain.StageConfig,
			Error:      stageErr.Error(),
		}, nil
	}
	tracer := trace.NewNoopTracerProvider().Tracer("snapshot-cli")

	contentStore, err := openStoreFunc(tracer, cfg.StoreBackend, store.GitHubConfig{
		APIURL:  cfg.GitHubAPIURL,
		Token:   cfg.GitHubToken,
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Branch:  cfg.GitHubBranch,
		Timeout: cfg.RequestTimeout(),
	})
	if err != nil {
		return domain.Outcome{}, err
	}

	var redisClient cache.RedisClient
	if rdb, err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Debug().Err(err).Msg("redis unavailable, run cache disabled")
	} else {
		redisClient = rdb
		defer rdb.Close()
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
	reader := service.NewSnapshotReader(tracer, contentStore, cache.NewDocumentCache(redisClient, cfg.SnapshotCacheTTL()), cfg.RawPath, cfg.DerivedPath)

	pipelineJob := job.NewPipelineJob(tracer, pipeline, cache.NewRunCache(redisClient, cfg.SnapshotCacheTTL()), reader, pipelineMetrics, cfg.SnapshotPollInterval())
	return pipelineJob.Trigger(ctx, force), nil
}
