package durable

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/realtime-odds-ingest/internal/market"
	"github.com/JakeFAU/realtime-odds-ingest/internal/storage/memory"
)

const testKey = "stage/db/odds.db"

func row(minute int) market.Row {
	return market.NewRow(time.Date(2025, 1, 1, 0, minute, 0, 0, time.UTC), 0.5, 42)
}

// snapshotRows reopens an uploaded snapshot and counts committed rows.
func snapshotRows(t *testing.T, data []byte) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM observations").Scan(&count))
	return count
}

func TestFirstCycleCreatesStore(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	sync := New(store, testKey, nil)

	require.NoError(t, sync.Append(context.Background(), row(0)))

	require.Len(t, store.Keys("stage/db/"), 1, "exactly one durable-store object")
	data, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	require.Equal(t, 1, snapshotRows(t, data))
}

func TestSecondCycleAppendsAndPreserves(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	sync := New(store, testKey, nil)
	ctx := context.Background()

	require.NoError(t, sync.Append(ctx, row(0)))
	require.NoError(t, sync.Append(ctx, row(5)))

	data, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	require.Equal(t, 2, snapshotRows(t, data))

	// Both timestamps survive the round trip.
	path := filepath.Join(t.TempDir(), "check.db")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT scraped_at FROM observations ORDER BY scraped_at")
	require.NoError(t, err)
	defer rows.Close()

	var stamps []time.Time
	for rows.Next() {
		var ts time.Time
		require.NoError(t, rows.Scan(&ts))
		stamps = append(stamps, ts)
	}
	require.NoError(t, rows.Err())
	require.Len(t, stamps, 2)
	require.True(t, stamps[0].Before(stamps[1]))
}

type faultyStore struct {
	*memory.Store
	getErr error
	putErr error
}

func (f *faultyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *faultyStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, key, data, contentType)
}

func TestAcquireFailureAbortsBeforeMutation(t *testing.T) {
	t.Parallel()

	store := &faultyStore{Store: memory.NewStore(), getErr: errors.New("forbidden")}
	sync := New(store, testKey, nil)

	opened := false
	sync.openDB = func(path string) (*sql.DB, error) {
		opened = true
		return sql.Open("duckdb", path)
	}

	require.Error(t, sync.Append(context.Background(), row(0)))
	require.False(t, opened, "a non-not-found acquire failure must abort before opening the store")
}

func TestOpenFailurePreservesRemoteSnapshot(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()
	sync := New(store, testKey, nil)
	require.NoError(t, sync.Append(ctx, row(0)))

	before, err := store.Get(ctx, testKey)
	require.NoError(t, err)

	sync.openDB = func(string) (*sql.DB, error) { return nil, errors.New("corrupt file") }
	require.Error(t, sync.Append(ctx, row(5)))

	after, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	require.Equal(t, before, after, "failed cycle must not overwrite the committed snapshot")
}

func TestPublishFailureSurfaces(t *testing.T) {
	t.Parallel()

	store := &faultyStore{Store: memory.NewStore(), putErr: errors.New("upload refused")}
	sync := New(store, testKey, nil)

	err := sync.Append(context.Background(), row(0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "publish")
}

func TestPublishFailureLogsDroppedRow(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	store := &faultyStore{Store: memory.NewStore(), putErr: errors.New("upload refused")}
	sync := New(store, testKey, zap.New(core))

	dropped := row(0)
	require.Error(t, sync.Append(context.Background(), dropped))

	entries := logs.FilterMessage("snapshot upload failed, committed row dropped").All()
	require.Len(t, entries, 1, "dropped row must be logged")
	fields := entries[0].ContextMap()
	require.Equal(t, testKey, fields["key"])
	require.Equal(t, dropped.ScrapedAt, fields["scraped_at"])
}
