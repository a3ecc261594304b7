// Package durable round-trips the embedded analytical database through the
// object store: download snapshot, append one row, checkpoint, re-upload.
package durable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-odds-ingest/internal/market"
	"github.com/JakeFAU/realtime-odds-ingest/internal/storage"
)

// ContentType is the media type recorded on the snapshot object.
const ContentType = "application/octet-stream"

const createTableSQL = `
CREATE TABLE IF NOT EXISTS observations (
    scraped_at TIMESTAMP,
    value1     DOUBLE,
    value2     BIGINT
)`

const insertSQL = `INSERT INTO observations (scraped_at, value1, value2) VALUES (?, ?, ?)`

// Synchronizer appends rows to the remotely persisted database snapshot.
// Exactly one cycle may run at a time; there is no conditional-write guard
// on the upload, so concurrent cycles can lose updates. Deployments must
// serialize invocations.
type Synchronizer struct {
	store  storage.Provider
	key    string
	logger *zap.Logger

	// openDB is swapped in tests to observe the local database lifecycle.
	openDB func(path string) (*sql.DB, error)
}

// New builds a Synchronizer for the snapshot stored at key.
func New(store storage.Provider, key string, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		store:  store,
		key:    key,
		logger: logger,
		openDB: func(path string) (*sql.DB, error) { return sql.Open("duckdb", path) },
	}
}

// Append runs one synchronization cycle: acquire the last committed
// snapshot (or start fresh when none exists), insert row, checkpoint,
// and publish the new snapshot. Any failure before the upload leaves the
// previous durable state untouched and the row is dropped; that loss is
// logged, never silent.
func (s *Synchronizer) Append(ctx context.Context, row market.Row) error {
	scratch, err := os.MkdirTemp("", "durable-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)
	local := filepath.Join(scratch, filepath.Base(s.key))

	if err := s.acquire(ctx, local); err != nil {
		return err
	}
	if err := s.appendLocal(ctx, local, row); err != nil {
		s.logger.Error("cycle aborted before publish, row dropped",
			zap.String("key", s.key),
			zap.Time("scraped_at", row.ScrapedAt),
			zap.Error(err),
		)
		return err
	}
	if err := s.publish(ctx, local); err != nil {
		s.logger.Error("snapshot upload failed, committed row dropped",
			zap.String("key", s.key),
			zap.Time("scraped_at", row.ScrapedAt),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// acquire fetches the remote snapshot into the local scratch path. A
// missing snapshot is the sanctioned silent-continue: the next step
// creates the schema fresh. Any other failure aborts the cycle before any
// mutation, so there is no data-loss risk.
func (s *Synchronizer) acquire(ctx context.Context, local string) error {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Info("no existing snapshot, creating fresh store", zap.String("key", s.key))
			return nil
		}
		return fmt.Errorf("acquire snapshot %s: %w", s.key, err)
	}
	if err := os.WriteFile(local, data, 0o600); err != nil {
		return fmt.Errorf("write scratch snapshot: %w", err)
	}
	return nil
}

// appendLocal opens the local store, ensures the schema, inserts the row,
// checkpoints so the file is a complete self-consistent snapshot, and
// closes the handle.
func (s *Synchronizer) appendLocal(ctx context.Context, local string, row market.Row) error {
	db, err := s.openDB(local)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, insertSQL, row.ScrapedAt, row.Value1, row.Value2); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint store: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// publish uploads the checkpointed file back to the snapshot key,
// overwriting the previous snapshot in full. Last committed wins: a crash
// between checkpoint and upload loses the row.
func (s *Synchronizer) publish(ctx context.Context, local string) error {
	data, err := os.ReadFile(local)
	if err != nil {
		return fmt.Errorf("read checkpointed store: %w", err)
	}
	if err := s.store.Put(ctx, s.key, data, ContentType); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", s.key, err)
	}
	s.logger.Info("snapshot published", zap.String("key", s.key), zap.Int("bytes", len(data)))
	return nil
}
