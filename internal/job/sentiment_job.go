package job

import (
	"context"
	"time"

	"snapshot-keeper/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type SentimentRefresher interface {
	RefreshSentiment(ctx context.Context) (domain.DerivedEntry, error)
}

type SentimentJob struct {
	tracer       trace.Tracer
	refresher    SentimentRefresher
	pollInterval time.Duration
}

func NewSentimentJob(tracer trace.Tracer, refresher SentimentRefresher, pollInterval time.Duration) *SentimentJob {
	if pollInterval <= 0 {
		pollInterval = time.Hour
	}
	return &SentimentJob{tracer: tracer, refresher: refresher, pollInterval: pollInterval}
}

func (j *SentimentJob) Start(ctx context.Context) {
	if j.refresher == nil {
		log.Info().Msg("sentiment job disabled: no refresher")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *SentimentJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "sentiment-job.run-once")
	defer span.End()

	if _, err := j.refresher.RefreshSentiment(ctx); err != nil {
		log.Error().Err(err).Msg("sentiment refresh failed")
	}
}
