package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-odds-ingest/internal/market"
	"github.com/JakeFAU/realtime-odds-ingest/internal/storage/memory"
)

func TestPublishWritesCanonicalJSON(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	p := New(store, "stage/latest.json", nil)

	row := market.NewRow(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 0.5, 42)
	require.NoError(t, p.Publish(context.Background(), row))

	data, err := store.Get(context.Background(), "stage/latest.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"scraped_at":"2025-01-01T00:00:00Z","value1":0.5,"value2":42}`, string(data))
	require.Equal(t, "application/json", store.ContentType("stage/latest.json"))
}

func TestPublishOverwritesPriorContent(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	p := New(store, "stage/latest.json", nil)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, market.NewRow(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1, 1)))
	require.NoError(t, p.Publish(ctx, market.NewRow(time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC), 2, 2)))

	data, err := store.Get(ctx, "stage/latest.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"scraped_at":"2025-01-01T00:05:00Z","value1":2,"value2":2}`, string(data))
	require.Equal(t, 1, store.Len(), "latest pointer is a singleton")
}
