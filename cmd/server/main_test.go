package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"snapshot-keeper/internal/config"
	"snapshot-keeper/internal/provider"
	"snapshot-keeper/internal/service"
	"snapshot-keeper/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore, served := stubServerDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}

	srv := <-served
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/pipeline/run?force=true", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected pipeline run 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot/derived", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected derived 200, got %d", w.Code)
	}
	var body struct {
		Size int `json:"size"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Size != 1 {
		t.Fatalf("unexpected derived body %s (%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", w.Code)
	}
}

func TestMainSetsUpLoggingBeforeLoadingConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore, _ := stubServerDeps(t)
	defer restore()

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "console")

	var calls []string
	stubbedLoad := loadConfigFunc
	loadConfigFunc = func() *config.Config {
		calls = append(calls, "config")
		return stubbedLoad()
	}
	setupLogging = func(level, format string) {
		calls = append(calls, "logging:"+level+":"+format)
	}

	main()

	if len(calls) < 2 || calls[0] != "logging:warn:console" || calls[1] != "config" {
		t.Fatalf("unexpected bootstrap order: %v", calls)
	}
}

func stubServerDeps(t *testing.T) (func(), <-chan *http.Server) {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origSetupLogging := setupLogging
	origInitTracer := initTracerFunc
	origInitRedis := initRedisFunc
	origNewFetcher := newFetcherFunc
	origNewFearGreed := newFearGreedFunc
	origStartJob := startJobFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	served := make(chan *http.Server, 1)

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SnapshotURL:          "http://snapshot.test/assets",
			StoreBackend:         store.BackendMemory,
			RawPath:              "data/raw.json",
			DerivedPath:          "data/derived.json",
			DerivedCapacity:      16,
			RequestTimeoutSecs:   1,
			PreviousReadAttempts: 1,
			SnapshotPollSecs:     60,
			SentimentEnabled:     true,
			SentimentPollSecs:    60,
			HTTPAddr:             ":0",
		}
	}
	setupLogging = func(string, string) {}
	initTracerFunc = func(ctx context.Context, name, version string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	initRedisFunc = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("no redis in tests")
	}
	newFetcherFunc = func(trace.Tracer, provider.SnapshotConfig) service.SnapshotFetcher {
		return stubFetcher{}
	}
	newFearGreedFunc = func(trace.Tracer, time.Duration) service.FearGreedSource {
		return stubFearGreed{}
	}
	startJobFunc = func(func(context.Context), context.Context) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(srv *http.Server) error {
		served <- srv
		return http.ErrServerClosed
	}
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		setupLogging = origSetupLogging
		initTracerFunc = origInitTracer
		initRedisFunc = origInitRedis
		newFetcherFunc = origNewFetcher
		newFearGreedFunc = origNewFearGreed
		startJobFunc = origStartJob
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}, served
}

type stubFetcher struct{}

func (stubFetcher) FetchSnapshot(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[{"id":1,"symbol":"BTC","name":"Bitcoin","price":1,"percentChange":{"h24":1}}]`), nil
}

type stubFearGreed struct{}

func (stubFearGreed) FetchRecent(ctx context.Context, limit int) ([]provider.FearGreedPoint, error) {
	return []provider.FearGreedPoint{{Value: 50}}, nil
}
