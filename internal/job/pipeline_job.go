package job

import (
	"context"
	"sync"
	"time"

	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/metrics"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PipelineRunner interface {
	Run(ctx context.Context) domain.Outcome
}

// OutcomeCache remembers outcomes across triggers and processes.
type OutcomeCache interface {
	Fresh(ctx context.Context) (*domain.Outcome, error)
	Last(ctx context.Context) (*domain.Outcome, error)
	Remember(ctx context.Context, outcome domain.Outcome) error
}

// Invalidator drops cached reads of the persisted documents.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// PipelineJob triggers pipeline runs on a ticker and on demand. A run is
// skipped while the cache still holds a fresh successful outcome.
type PipelineJob struct {
	tracer       trace.Tracer
	runner       PipelineRunner
	cache        OutcomeCache
	invalidator  Invalidator
	metrics      *metrics.PipelineMetrics
	pollInterval time.Duration

	mu   sync.Mutex
	last *domain.Outcome
}

func NewPipelineJob(
	tracer trace.Tracer,
	runner PipelineRunner,
	cache OutcomeCache,
	invalidator Invalidator,
	pipelineMetrics *metrics.PipelineMetrics,
	pollInterval time.Duration,
) *PipelineJob {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	return &PipelineJob{
		tracer:       tracer,
		runner:       runner,
		cache:        cache,
		invalidator:  invalidator,
		metrics:      pipelineMetrics,
		pollInterval: pollInterval,
	}
}

func (j *PipelineJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Info().Msg("pipeline job disabled: no runner")
		<-ctx.Done()
		return
	}

	j.Trigger(ctx, false)
	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Trigger(ctx, false)
		}
	}
}

// Trigger runs the pipeline unless a fresh outcome is cached and force is
// false, in which case that outcome is returned marked Skipped.
func (j *PipelineJob) Trigger(ctx context.Context, force bool) domain.Outcome {
	ctx, span := j.tracer.Start(ctx, "pipeline-job.trigger")
	defer span.End()
	span.SetAttributes(attribute.Bool("force", force))

	if !force && j.cache != nil {
		fresh, err := j.cache.Fresh(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("run cache lookup failed, running pipeline")
		} else if fresh != nil {
			skipped := *fresh
			skipped.Skipped = true
			span.SetAttributes(attribute.Bool("skipped", true))
			log.Debug().Str("run_id", fresh.RunID).Msg("pipeline run skipped, cached outcome still fresh")
			j.metrics.ObserveRun(skipped)
			return skipped
		}
	}

	outcome := j.runner.Run(ctx)
	j.remember(outcome)

	if j.cache != nil {
		if err := j.cache.Remember(ctx, outcome); err != nil {
			log.Warn().Err(err).Msg("failed to cache pipeline outcome")
		}
	}
	if outcome.Success && j.invalidator != nil {
		if err := j.invalidator.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate document cache")
		}
	}
	return outcome
}

// Last returns the most recent outcome, preferring the shared cache over this
// process's own memory.
func (j *PipelineJob) Last(ctx context.Context) (*domain.Outcome, error) {
	if j.cache != nil {
		last, err := j.cache.Last(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("run cache read failed")
		} else if last != nil {
			return last, nil
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return nil, nil
	}
	last := *j.last
	return &last, nil
}

func (j *PipelineJob) remember(outcome domain.Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = &outcome
}
