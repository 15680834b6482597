package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func snapshotStub(fn roundTripFunc) *SnapshotProvider {
	p := NewSnapshotProvider(trace.NewNoopTracerProvider().Tracer("test"), SnapshotConfig{
		URL:    "http://example/v1/assets",
		APIKey: "k3y",
	})
	p.client = &http.Client{Transport: fn}
	p.limiter = NewRateLimiter(100, time.Millisecond)
	return p
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestSnapshotFetchReturnsBodyVerbatim(t *testing.T) {
	body := `{"data":[{"symbol":"BTC","name":"Bitcoin","price":50000}]}`
	p := snapshotStub(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/assets" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.Header.Get("X-API-KEY") != "k3y" {
			t.Fatalf("api key header missing: %v", req.Header)
		}
		return jsonResponse(http.StatusOK, body), nil
	})

	raw, err := p.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != body {
		t.Fatalf("unexpected body: %s", raw)
	}
}

func TestSnapshotFetchCustomHeaderAndNoKey(t *testing.T) {
	p := NewSnapshotProvider(trace.NewNoopTracerProvider().Tracer("test"), SnapshotConfig{
		URL:          "http://example/",
		APIKeyHeader: "X-CMC_PRO_API_KEY",
	})
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if _, ok := req.Header["X-Cmc_pro_api_key"]; ok {
			t.Fatal("no key configured, header must be absent")
		}
		return jsonResponse(http.StatusOK, `[]`), nil
	})}

	if _, err := p.FetchSnapshot(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.apiKeyHeader != "X-CMC_PRO_API_KEY" {
		t.Fatalf("header override lost: %s", p.apiKeyHeader)
	}
}

func TestSnapshotFetchHTTPError(t *testing.T) {
	p := snapshotStub(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"error":"bad key"}`), nil
	})

	_, err := p.FetchSnapshot(context.Background())
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", httpErr.StatusCode)
	}
}

func TestSnapshotFetchRejectsNonJSON(t *testing.T) {
	p := snapshotStub(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `<html>maintenance</html>`), nil
	})
	if _, err := p.FetchSnapshot(context.Background()); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestSnapshotBreakerOpensAfterServerErrors(t *testing.T) {
	var calls int32
	p := snapshotStub(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusBadGateway, "upstream down"), nil
	})

	for i := 0; i < 3; i++ {
		if _, err := p.FetchSnapshot(context.Background()); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	_, err := p.FetchSnapshot(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("open breaker must not reach the source, calls=%d", calls)
	}
}

func TestSnapshotBreakerIgnoresClientErrors(t *testing.T) {
	p := snapshotStub(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, "nope"), nil
	})
	for i := 0; i < 5; i++ {
		_, err := p.FetchSnapshot(context.Background())
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("4xx responses must not open the breaker (call %d)", i)
		}
	}
}
