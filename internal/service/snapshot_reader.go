package service

import (
	"context"
	"fmt"

	"snapshot-keeper/internal/cache"
	"snapshot-keeper/internal/derive"
	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/store"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type DerivedDocument struct {
	Entries  domain.DerivedList
	Revision string
}

// SnapshotReader serves the persisted documents, read-through a DocumentCache.
// Cache failures degrade to direct store reads.
type SnapshotReader struct {
	tracer      trace.Tracer
	store       store.ContentStore
	cache       *cache.DocumentCache
	rawPath     string
	derivedPath string
}

func NewSnapshotReader(tracer trace.Tracer, contentStore store.ContentStore, documentCache *cache.DocumentCache, rawPath, derivedPath string) *SnapshotReader {
	return &SnapshotReader{
		tracer:      tracer,
		store:       contentStore,
		cache:       documentCache,
		rawPath:     rawPath,
		derivedPath: derivedPath,
	}
}

// Raw returns the raw document, or nil when it has not been written yet.
func (r *SnapshotReader) Raw(ctx context.Context) (*store.Document, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot.raw")
	defer span.End()

	return r.read(ctx, r.rawPath)
}

// Derived returns the decoded derived document, or nil when absent.
func (r *SnapshotReader) Derived(ctx context.Context) (*DerivedDocument, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot.derived")
	defer span.End()

	doc, err := r.read(ctx, r.derivedPath)
	if err != nil || doc == nil {
		return nil, err
	}
	entries, err := derive.Decode(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.derivedPath, err)
	}
	span.SetAttributes(attribute.Int("snapshot.entries", len(entries)))
	return &DerivedDocument{Entries: entries, Revision: doc.Revision}, nil
}

// Invalidate drops both documents from the cache after a write.
func (r *SnapshotReader) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Invalidate(ctx, r.rawPath, r.derivedPath)
}

func (r *SnapshotReader) read(ctx context.Context, path string) (*store.Document, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("document cache read failed")
		} else if cached != nil {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	doc, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if doc == nil {
		return nil, nil
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, *doc); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("document cache write failed")
		}
	}
	return doc, nil
}
