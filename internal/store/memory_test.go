package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	doc, err := s.Get(context.Background(), "data/raw.json")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryStoreCreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rev1, err := s.Put(ctx, "d.json", []byte("one"), "", "create")
	require.NoError(t, err)
	assert.Equal(t, BlobRevision([]byte("one")), rev1)

	_, err = s.Put(ctx, "d.json", []byte("two"), "", "create again")
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.Put(ctx, "d.json", []byte("two"), "stale", "update")
	require.ErrorIs(t, err, ErrConflict)

	rev2, err := s.Put(ctx, "d.json", []byte("two"), rev1, "update")
	require.NoError(t, err)
	assert.NotEqual(t, rev1, rev2)

	doc, err := s.Get(ctx, "d.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(doc.Content))
	assert.Equal(t, rev2, doc.Revision)
}

func TestMemoryStoreUpdateMissingIsConflict(t *testing.T) {
	_, err := NewMemoryStore().Put(context.Background(), "x", []byte("a"), "abc", "update")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Put(ctx, "x", []byte("abc"), "", "create")
	require.NoError(t, err)

	doc, _ := s.Get(ctx, "x")
	doc.Content[0] = 'z'

	again, _ := s.Get(ctx, "x")
	assert.Equal(t, "abc", string(again.Content))
}

func TestBlobRevisionMatchesGit(t *testing.T) {
	// git hash-object of "hello\n"
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", BlobRevision([]byte("hello\n")))
}
