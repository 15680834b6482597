package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"snapshot-keeper/internal/derive"
	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/metrics"
	"snapshot-keeper/internal/store"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) (json.RawMessage, error)
}

type PipelineConfig struct {
	RawPath              string
	DerivedPath          string
	Capacity             int
	RequestTimeout       time.Duration
	PreviousReadAttempts int
	PreviousReadBackoff  time.Duration
}

func (c PipelineConfig) Validate() error {
	switch {
	case c.RawPath == "" || c.DerivedPath == "":
		return fmt.Errorf("%w: raw and derived paths are required", domain.ErrConfiguration)
	case c.RawPath == c.DerivedPath:
		return fmt.Errorf("%w: raw and derived paths must differ", domain.ErrConfiguration)
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", domain.ErrConfiguration, c.Capacity)
	}
	return nil
}

// PipelineService runs fetch -> persist raw -> filter -> merge -> persist
// derived. Runs share no state; concurrent runs are arbitrated by the store's
// revision preconditions.
type PipelineService struct {
	tracer  trace.Tracer
	cfg     PipelineConfig
	fetcher SnapshotFetcher
	store   store.ContentStore
	metrics *metrics.PipelineMetrics
	now     func() time.Time
}

func NewPipelineService(
	tracer trace.Tracer,
	cfg PipelineConfig,
	fetcher SnapshotFetcher,
	contentStore store.ContentStore,
	pipelineMetrics *metrics.PipelineMetrics,
) *PipelineService {
	if cfg.PreviousReadAttempts <= 0 {
		cfg.PreviousReadAttempts = 1
	}
	return &PipelineService{
		tracer:  tracer,
		cfg:     cfg,
		fetcher: fetcher,
		store:   contentStore,
		metrics: pipelineMetrics,
		now:     time.Now,
	}
}

// previousDerived is what the best-effort read of the derived document found.
// entries is nil when there is nothing usable to merge.
type previousDerived struct {
	entries  domain.DerivedList
	revision string
	warning  string
	failed   bool
}

// Run executes one pipeline run. Failures are reported in the returned
// Outcome, never as a panic or error return.
func (s *PipelineService) Run(ctx context.Context) domain.Outcome {
	ctx, span := s.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	outcome := domain.Outcome{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
		Stage:     domain.StageConfig,
	}
	span.SetAttributes(attribute.String("run_id", outcome.RunID))
	logger := log.With().Str("run_id", outcome.RunID).Logger()

	fail := func(stage domain.Stage, err error) domain.Outcome {
		stageErr := &domain.StageError{Stage: stage, Err: err}
		outcome.Stage = stage
		outcome.Error = stageErr.Error()
		outcome.FinishedAt = s.now().UTC()
		span.RecordError(stageErr)
		span.SetStatus(codes.Error, stageErr.Error())
		logger.Error().Err(err).Str("stage", string(stage)).Msg("pipeline run failed")
		s.metrics.ObserveRun(outcome)
		return outcome
	}

	if err := s.cfg.Validate(); err != nil {
		return fail(domain.StageConfig, err)
	}
	if s.fetcher == nil || s.store == nil {
		return fail(domain.StageConfig, fmt.Errorf("%w: fetcher and store are required", domain.ErrConfiguration))
	}

	var pretty []byte
	raw, err := s.fetchRaw(ctx)
	if err == nil {
		if pretty, err = derive.PrettyJSON(raw); err != nil {
			err = fmt.Errorf("snapshot is not valid JSON: %w", err)
		}
	}
	if err != nil {
		return fail(domain.StageFetchRaw, err)
	}
	outcome.RawSize = len(pretty)

	// The raw revision lookup and the previous derived read touch different
	// documents and neither can fail the run.
	var (
		rawRevision, rawWarning string
		previous                previousDerived
		g                       errgroup.Group
	)
	g.Go(func() error {
		rawRevision, rawWarning = s.lookupRevision(ctx, s.cfg.RawPath, logger)
		return nil
	})
	g.Go(func() error {
		previous = s.readPrevious(ctx, logger)
		return nil
	})
	_ = g.Wait()
	for _, w := range []string{rawWarning, previous.warning} {
		if w != "" {
			outcome.Warnings = append(outcome.Warnings, w)
		}
	}

	stamp := outcome.StartedAt.Format(time.RFC3339)
	outcome.Stage = domain.StagePersistRaw
	err = s.timed(domain.StagePersistRaw, func() error {
		putCtx, cancel := s.callContext(ctx)
		defer cancel()
		rev, err := s.store.Put(putCtx, s.cfg.RawPath, pretty, rawRevision, "snapshot: update raw market data "+stamp)
		outcome.RawRevision = rev
		return err
	})
	if err != nil {
		return fail(domain.StagePersistRaw, err)
	}

	outcome.Stage = domain.StageFilter
	var fresh domain.DerivedList
	_ = s.timed(domain.StageFilter, func() error {
		assets, err := derive.ExtractAssets(raw)
		if err != nil {
			logger.Warn().Err(err).Msg("snapshot has no asset sequence, writing empty derived list")
			outcome.Warnings = append(outcome.Warnings, err.Error())
		}
		outcome.AssetCount = len(assets)
		fresh = derive.FilterAssets(assets, s.cfg.Capacity)
		return nil
	})
	outcome.FilteredSize = len(fresh)

	outcome.Stage = domain.StageMerge
	var content []byte
	err = s.timed(domain.StageMerge, func() error {
		merged := derive.Preserve(fresh, previous.entries)
		outcome.SideEntryPreserved = merged.FindSymbol(domain.SideEntrySymbol) >= 0 &&
			previous.entries.FindSymbol(domain.SideEntrySymbol) >= 0
		var err error
		content, err = derive.Encode(merged)
		return err
	})
	if err != nil {
		return fail(domain.StageMerge, err)
	}

	// A read that gave up only means there is no side entry to keep; the
	// write still needs the current revision to replace the document.
	derivedRevision := previous.revision
	if previous.failed {
		var w string
		derivedRevision, w = s.lookupRevision(ctx, s.cfg.DerivedPath, logger)
		if w != "" {
			outcome.Warnings = append(outcome.Warnings, w)
		}
	}

	outcome.Stage = domain.StagePersistDerived
	err = s.timed(domain.StagePersistDerived, func() error {
		putCtx, cancel := s.callContext(ctx)
		defer cancel()
		rev, err := s.store.Put(putCtx, s.cfg.DerivedPath, content, derivedRevision, "snapshot: update derived market data "+stamp)
		outcome.DerivedRevision = rev
		return err
	})
	if err != nil {
		return fail(domain.StagePersistDerived, err)
	}

	outcome.Stage = domain.StageDone
	outcome.Success = true
	outcome.FinishedAt = s.now().UTC()
	span.SetAttributes(
		attribute.Int("pipeline.assets", outcome.AssetCount),
		attribute.Int("pipeline.filtered", outcome.FilteredSize),
	)
	logger.Info().
		Int("raw_size", outcome.RawSize).
		Int("assets", outcome.AssetCount).
		Int("filtered", outcome.FilteredSize).
		Bool("side_entry_preserved", outcome.SideEntryPreserved).
		Dur("elapsed", outcome.Duration()).
		Msg("pipeline run complete")
	s.metrics.ObserveRun(outcome)
	return outcome
}

func (s *PipelineService) fetchRaw(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.timed(domain.StageFetchRaw, func() error {
		fetchCtx, cancel := s.callContext(ctx)
		defer cancel()
		var err error
		raw, err = s.fetcher.FetchSnapshot(fetchCtx)
		return err
	})
	return raw, err
}

// lookupRevision returns the current revision of path, or "" when the
// document is absent or could not be read; the write then acts as a create.
func (s *PipelineService) lookupRevision(ctx context.Context, path string, logger zerolog.Logger) (string, string) {
	getCtx, cancel := s.callContext(ctx)
	defer cancel()

	doc, err := s.store.Get(getCtx, path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("revision lookup failed, writing as create")
		return "", fmt.Sprintf("revision lookup for %s failed: %v", path, err)
	}
	if doc == nil {
		return "", ""
	}
	return doc.Revision, ""
}

// readPrevious loads the persisted derived list for side entry preservation.
// Read errors are retried with a fixed backoff; nothing here fails the run.
func (s *PipelineService) readPrevious(ctx context.Context, logger zerolog.Logger) previousDerived {
	var (
		doc     *store.Document
		attempt int
	)
	start := time.Now()

	read := func() error {
		attempt++
		getCtx, cancel := s.callContext(ctx)
		defer cancel()

		d, err := s.store.Get(getCtx, s.cfg.DerivedPath)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("path", s.cfg.DerivedPath).Msg("previous derived read failed")
			if errors.Is(err, store.ErrUnauthorized) {
				return backoff.Permanent(err)
			}
			return err
		}
		doc = d
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.PreviousReadBackoff), uint64(s.cfg.PreviousReadAttempts-1)),
		ctx,
	)
	err := backoff.Retry(read, policy)
	s.metrics.ObserveStage(domain.StageReadPreviousDerived, time.Since(start), err)
	if err != nil {
		return previousDerived{failed: true, warning: fmt.Sprintf("previous derived read failed after %d attempt(s): %v", attempt, err)}
	}
	if doc == nil {
		return previousDerived{}
	}

	entries, err := derive.Decode(doc.Content)
	if err != nil {
		logger.Warn().Err(err).Str("path", s.cfg.DerivedPath).Msg("previous derived document unreadable, side entry dropped")
		return previousDerived{revision: doc.Revision, warning: err.Error()}
	}
	return previousDerived{entries: entries, revision: doc.Revision}
}

func (s *PipelineService) timed(stage domain.Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveStage(stage, time.Since(start), err)
	return err
}

func (s *PipelineService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
