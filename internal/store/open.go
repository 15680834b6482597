package store

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

const (
	BackendGitHub = "github"
	BackendMemory = "memory"
)

// Open returns the ContentStore for backend. The memory backend does not
// survive a restart and is meant for local runs.
func Open(tracer trace.Tracer, backend string, cfg GitHubConfig) (ContentStore, error) {
	switch backend {
	case BackendGitHub, "":
		return NewGitHubStore(tracer, cfg), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
