package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
)

// MemoryStore keeps documents in process. Revisions are git blob hashes, so
// identical content yields identical revisions.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return nil, nil
	}
	doc.Content = append([]byte(nil), doc.Content...)
	return &doc, nil
}

func (s *MemoryStore) Put(ctx context.Context, path string, content []byte, expectedRevision, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.docs[path]
	switch {
	case exists && expectedRevision == "":
		return "", fmt.Errorf("create %s: %w", path, ErrConflict)
	case !exists && expectedRevision != "":
		return "", fmt.Errorf("update %s: document missing: %w", path, ErrConflict)
	case exists && current.Revision != expectedRevision:
		return "", fmt.Errorf("update %s: have %s, expected %s: %w", path, current.Revision, expectedRevision, ErrConflict)
	}

	rev := BlobRevision(content)
	s.docs[path] = Document{Path: path, Content: append([]byte(nil), content...), Revision: rev}
	return rev, nil
}

// BlobRevision returns the git blob SHA-1 of content.
func BlobRevision(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
