package handler

import (
	"context"
	"net/http"

	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/service"
	"snapshot-keeper/internal/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type SnapshotSource interface {
	Raw(ctx context.Context) (*store.Document, error)
	Derived(ctx context.Context) (*service.DerivedDocument, error)
}

type PipelineTrigger interface {
	Trigger(ctx context.Context, force bool) domain.Outcome
	Last(ctx context.Context) (*domain.Outcome, error)
}

type SentimentRefresher interface {
	RefreshSentiment(ctx context.Context) (domain.DerivedEntry, error)
}

type Handler struct {
	tracer    trace.Tracer
	snapshots SnapshotSource
	pipeline  PipelineTrigger
	sentiment SentimentRefresher
	metrics   http.Handler
	apiKey    string
}

func New(tracer trace.Tracer, snapshots SnapshotSource, pipeline PipelineTrigger) *Handler {
	return &Handler{
		tracer:    tracer,
		snapshots: snapshots,
		pipeline:  pipeline,
	}
}

// SetSentimentRefresher enables POST /api/sentiment/refresh.
func (h *Handler) SetSentimentRefresher(refresher SentimentRefresher) {
	h.sentiment = refresher
}

func (h *Handler) SetMetricsHandler(metrics http.Handler) {
	h.metrics = metrics
}

// SetAPIKey guards the mutating routes. An empty key leaves them open.
func (h *Handler) SetAPIKey(key string) {
	h.apiKey = key
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/snapshot/raw", h.GetRawSnapshot)
	r.GET("/api/snapshot/derived", h.GetDerivedSnapshot)
	r.GET("/api/pipeline/last", h.GetLastOutcome)

	protected := r.Group("/api", APIKeyAuth(h.apiKey))
	protected.POST("/pipeline/run", h.TriggerPipelineRun)
	protected.POST("/sentiment/refresh", h.RefreshSentiment)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
}
