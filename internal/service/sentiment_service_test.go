package service

import (
	"context"
	"errors"
	"testing"

	"snapshot-keeper/internal/derive"
	"snapshot-keeper/internal/domain"
	"snapshot-keeper/internal/provider"
	"snapshot-keeper/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFearGreed struct {
	points []provider.FearGreedPoint
	err    error
	limit  int
}

func (s *stubFearGreed) FetchRecent(ctx context.Context, limit int) ([]provider.FearGreedPoint, error) {
	s.limit = limit
	return s.points, s.err
}

// conflictOnceStore reports a conflict on the first write, as if the pipeline
// had committed in between.
type conflictOnceStore struct {
	*store.MemoryStore
	conflicted bool
}

func (s *conflictOnceStore) Put(ctx context.Context, path string, content []byte, expectedRevision, message string) (string, error) {
	if !s.conflicted {
		s.conflicted = true
		return "", store.ErrConflict
	}
	return s.MemoryStore.Put(ctx, path, content, expectedRevision, message)
}

func newTestSentimentService(source FearGreedSource, st store.ContentStore) *SentimentService {
	svc := NewSentimentService(testTracer, source, st, derivedPath)
	svc.retryDelay = 0
	return svc
}

func TestSideEntry(t *testing.T) {
	entry, err := SideEntry([]provider.FearGreedPoint{{Value: 70}, {Value: 64}})
	require.NoError(t, err)
	assert.Equal(t, domain.DerivedEntry{Symbol: "FGI", Name: domain.SideEntryName, Price: 70, H24: 6}, entry)

	entry, err = SideEntry([]provider.FearGreedPoint{{Value: 30}})
	require.NoError(t, err)
	assert.Zero(t, entry.H24)

	_, err = SideEntry(nil)
	assert.Error(t, err)
}

func TestRefreshSentimentCreatesDocument(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	source := &stubFearGreed{points: []provider.FearGreedPoint{{Value: 55}, {Value: 60}}}
	svc := newTestSentimentService(source, st)

	entry, err := svc.RefreshSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, source.limit)
	assert.Equal(t, -5.0, entry.H24)
	assert.Equal(t, domain.DerivedList{entry}, readDerived(t, st))
}

func TestRefreshSentimentKeepsRankedEntries(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ranked := domain.DerivedList{
		{Symbol: "BTC", Name: "Bitcoin", Price: 1, H24: 1},
		{Symbol: "FGI", Name: domain.SideEntryName, Price: 10},
		{Symbol: "XYZ", Name: "Xyz", Price: 2, H24: 3},
	}
	seedDerived(t, st, ranked)

	svc := newTestSentimentService(&stubFearGreed{points: []provider.FearGreedPoint{{Value: 80}}}, st)
	_, err := svc.RefreshSentiment(context.Background())
	require.NoError(t, err)

	got := readDerived(t, st)
	require.Len(t, got, 3)
	assert.Equal(t, ranked[0], got[0])
	assert.Equal(t, 80.0, got[1].Price)
	assert.Equal(t, ranked[2], got[2])
}

func TestRefreshSentimentRetriesConflict(t *testing.T) {
	t.Parallel()

	st := &conflictOnceStore{MemoryStore: store.NewMemoryStore()}
	svc := newTestSentimentService(&stubFearGreed{points: []provider.FearGreedPoint{{Value: 40}}}, st)

	_, err := svc.RefreshSentiment(context.Background())
	require.NoError(t, err)
	assert.True(t, st.conflicted)
	assert.Equal(t, 0, readDerived(t, st.MemoryStore).FindSymbol(domain.SideEntrySymbol))
}

func TestRefreshSentimentSourceFailureWritesNothing(t *testing.T) {
	t.Parallel()

	st := newFlakyStore()
	svc := newTestSentimentService(&stubFearGreed{err: errors.New("boom")}, st)

	_, err := svc.RefreshSentiment(context.Background())
	require.Error(t, err)
	assert.Empty(t, st.puts)
}

func TestRefreshSentimentRefusesUnreadableDocument(t *testing.T) {
	t.Parallel()

	st := newFlakyStore()
	_, err := st.MemoryStore.Put(context.Background(), derivedPath, []byte("garbage"), "", "seed")
	require.NoError(t, err)
	svc := newTestSentimentService(&stubFearGreed{points: []provider.FearGreedPoint{{Value: 40}}}, st)

	_, err = svc.RefreshSentiment(context.Background())
	require.Error(t, err)
	assert.Empty(t, st.puts)

	doc, err := st.MemoryStore.Get(context.Background(), derivedPath)
	require.NoError(t, err)
	_, decodeErr := derive.Decode(doc.Content)
	assert.Error(t, decodeErr)
}
