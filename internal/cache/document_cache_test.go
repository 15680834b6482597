package cache

import (
	"context"
	"testing"
	"time"

	"snapshot-keeper/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := NewDocumentCache(fake, 30*time.Second)

	miss, err := c.Get(ctx, "data/derived.json")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, store.Document{Path: "data/derived.json", Content: []byte(`[]`), Revision: "abc"}))
	assert.Equal(t, 30*time.Second, fake.ttls[documentKeyPrefix+"data/derived.json"])

	got, err := c.Get(ctx, "data/derived.json")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "[]", string(got.Content))
	assert.Equal(t, "abc", got.Revision)

	require.NoError(t, c.Invalidate(ctx, "data/derived.json", "data/raw.json"))
	got, err = c.Get(ctx, "data/derived.json")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocumentCacheWithoutRedis(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache(nil, time.Second)
	require.NoError(t, c.Set(ctx, store.Document{Path: "x"}))
	require.NoError(t, c.Invalidate(ctx, "x"))
	got, err := c.Get(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, got)
}
