// Package store reads and writes named text documents in a versioned content
// store. Overwrites are guarded by the revision the caller last observed.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrConflict means the expected revision did not match the stored one.
	ErrConflict = errors.New("revision conflict")
	// ErrUnauthorized means the store rejected the credentials.
	ErrUnauthorized = errors.New("store unauthorized")
)

// Document is a stored blob together with its revision token.
type Document struct {
	Path     string
	Content  []byte
	Revision string
}

// ContentStore is the contract the pipeline needs from the store.
//
// Get returns (nil, nil) when the document does not exist. Put creates the
// document when expectedRevision is empty and overwrites it otherwise; both
// fail with ErrConflict when the stored state disagrees. Put returns the new
// revision.
type ContentStore interface {
	Get(ctx context.Context, path string) (*Document, error)
	Put(ctx context.Context, path string, content []byte, expectedRevision, message string) (string, error)
}

// APIError is a store response that maps to no more specific error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store API error %d: %s", e.StatusCode, e.Message)
}
