package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapshot-keeper/internal/derive"
	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/provider"
	"snapshot-keeper/internal/store"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	sentimentWriteAttempts = 3
	sentimentRetryDelay    = 250 * time.Millisecond
)

type FearGreedSource interface {
	FetchRecent(ctx context.Context, limit int) ([]provider.FearGreedPoint, error)
}

// SentimentService maintains the side entry of the derived document. It never
// touches the ranked entries the pipeline writes.
type SentimentService struct {
	tracer      trace.Tracer
	source      FearGreedSource
	store       store.ContentStore
	derivedPath string
	retryDelay  time.Duration
	now         func() time.Time
}

func NewSentimentService(tracer trace.Tracer, source FearGreedSource, contentStore store.ContentStore, derivedPath string) *SentimentService {
	return &SentimentService{
		tracer:      tracer,
		source:      source,
		store:       contentStore,
		derivedPath: derivedPath,
		retryDelay:  sentimentRetryDelay,
		now:         time.Now,
	}
}

// SideEntry builds the derived entry for the latest reading; h24 is the change
// against the previous daily reading, or 0 when there is none.
func SideEntry(points []provider.FearGreedPoint) (domain.DerivedEntry, error) {
	if len(points) == 0 {
		return domain.DerivedEntry{}, errors.New("no fear & greed readings")
	}
	entry := domain.DerivedEntry{
		Symbol: domain.SideEntrySymbol,
		Name:   domain.SideEntryName,
		Price:  float64(points[0].Value),
	}
	if len(points) > 1 {
		entry.H24 = float64(points[0].Value - points[1].Value)
	}
	return entry, nil
}

// RefreshSentiment fetches the index and upserts it into the derived document.
// A revision conflict with a concurrent pipeline write is retried from a fresh
// read.
func (s *SentimentService) RefreshSentiment(ctx context.Context) (domain.DerivedEntry, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment.refresh")
	defer span.End()

	points, err := s.source.FetchRecent(ctx, 2)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.DerivedEntry{}, fmt.Errorf("fetch fear & greed: %w", err)
	}
	entry, err := SideEntry(points)
	if err != nil {
		return domain.DerivedEntry{}, err
	}
	span.SetAttributes(attribute.Float64("sentiment.value", entry.Price))

	write := func() error {
		err := s.upsert(ctx, entry)
		if err != nil && !errors.Is(err, store.ErrConflict) {
			return backoff.Permanent(err)
		}
		if err != nil {
			log.Warn().Err(err).Msg("sentiment write conflicted, retrying")
		}
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), sentimentWriteAttempts-1),
		ctx,
	)
	if err := backoff.Retry(write, policy); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.DerivedEntry{}, err
	}

	log.Info().Float64("value", entry.Price).Float64("h24", entry.H24).Msg("sentiment entry updated")
	return entry, nil
}

func (s *SentimentService) upsert(ctx context.Context, entry domain.DerivedEntry) error {
	doc, err := s.store.Get(ctx, s.derivedPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.derivedPath, err)
	}

	var (
		list     domain.DerivedList
		revision string
	)
	if doc != nil {
		if list, err = derive.Decode(doc.Content); err != nil {
			return fmt.Errorf("%s: %w", s.derivedPath, err)
		}
		revision = doc.Revision
	}

	content, err := derive.Encode(derive.UpsertSideEntry(list, entry))
	if err != nil {
		return err
	}
	message := "snapshot: update fear & greed index " + s.now().UTC().Format(time.RFC3339)
	if _, err := s.store.Put(ctx, s.derivedPath, content, revision, message); err != nil {
		return fmt.Errorf("write %s: %w", s.derivedPath, err)
	}
	return nil
}
