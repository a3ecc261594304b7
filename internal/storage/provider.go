// Package storage defines the interfaces for an object storage provider.
// This abstraction allows the pipeline to be independent of a specific
// backend (Amazon S3 in production, an in-memory store in tests).
package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports that no object exists at the requested key. It is the
// only error a caller may treat as a silent-continue condition (the durable
// store's first-cycle bootstrap).
var ErrNotFound = errors.New("storage: object not found")

// Provider defines the common interface for an object store. Writes are
// whole-object overwrites; there is no read-modify-write and the provider
// itself never retries. Retry policy belongs to the caller.
type Provider interface {
	// Put uploads data to the given key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get downloads the full object at key, returning ErrNotFound when the
	// key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
}

// NoOpProvider discards all writes and reports every key as absent. Useful
// for dry runs where payloads are fetched but not persisted.
type NoOpProvider struct{}

// Put for NoOpProvider does nothing and always succeeds.
func (NoOpProvider) Put(_ context.Context, _ string, _ []byte, _ string) error { return nil }

// Get for NoOpProvider always reports the object as missing.
func (NoOpProvider) Get(_ context.Context, _ string) ([]byte, error) { return nil, ErrNotFound }
