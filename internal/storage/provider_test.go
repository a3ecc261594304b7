package storage

import (
	"context"
	"errors"
	"testing"
)

// TestNoOpProviderDiscardsWrites checks dry-run semantics: every Put
// succeeds without persisting, so a following Get still reports absence.
func TestNoOpProviderDiscardsWrites(t *testing.T) {
	t.Parallel()

	sink := NoOpProvider{}
	ctx := context.Background()

	if err := sink.Put(ctx, "stage/latest.json", []byte(`{"x":1}`), "application/json"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := sink.Get(ctx, "stage/latest.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}
