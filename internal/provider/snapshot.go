package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HTTPError is a non-2xx answer from an upstream API.
type HTTPError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Source, e.StatusCode, e.Body)
}

type SnapshotConfig struct {
	URL          string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
}

// SnapshotProvider fetches the raw market snapshot from the configured source.
// Calls are rate limited and pass through a circuit breaker so a failing
// source is not hammered by the scheduler.
type SnapshotProvider struct {
	client       *http.Client
	url          string
	apiKey       string
	apiKeyHeader string
	tracer       trace.Tracer
	limiter      *RateLimiter
	breaker      *gobreaker.CircuitBreaker
}

// NewSnapshotProvider allows 10 requests per minute (one token every 6 seconds).
func NewSnapshotProvider(tracer trace.Tracer, cfg SnapshotConfig) *SnapshotProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	header := cfg.APIKeyHeader
	if header == "" {
		header = "X-API-KEY"
	}

	return &SnapshotProvider{
		client:       &http.Client{Timeout: timeout},
		url:          cfg.URL,
		apiKey:       cfg.APIKey,
		apiKeyHeader: header,
		tracer:       tracer,
		limiter:      NewRateLimiter(10, 6*time.Second),
		breaker:      newSnapshotBreaker(),
	}
}

func newSnapshotBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "snapshot-source",
		Interval: 5 * time.Minute,
		Timeout:  2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// A 4xx is a request problem, not an outage.
		IsSuccessful: func(err error) bool {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				return httpErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

// FetchSnapshot returns the snapshot body verbatim. The body must be JSON;
// its shape is not checked here.
func (p *SnapshotProvider) FetchSnapshot(ctx context.Context) (json.RawMessage, error) {
	ctx, span := p.tracer.Start(ctx, "snapshot.fetch")
	defer span.End()

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.doRequest(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	body := out.([]byte)
	span.SetAttributes(attribute.Int("snapshot.bytes", len(body)))
	if !json.Valid(body) {
		return nil, fmt.Errorf("fetch snapshot: response is not valid JSON")
	}
	return json.RawMessage(body), nil
}

func (p *SnapshotProvider) doRequest(ctx context.Context) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set(p.apiKeyHeader, p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{Source: "snapshot", StatusCode: resp.StatusCode, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}
