// Package snapshot maintains the singleton "latest" pointer for
// low-latency downstream reads.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-odds-ingest/internal/market"
	"github.com/JakeFAU/realtime-odds-ingest/internal/storage"
)

// Publisher overwrites the latest-pointer object with the newest row.
type Publisher struct {
	store  storage.Provider
	key    string
	logger *zap.Logger
}

// New builds a Publisher for the given latest-pointer key.
func New(store storage.Provider, key string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{store: store, key: key, logger: logger}
}

// Publish replaces the latest object with row's canonical JSON encoding.
// Always a full overwrite, never a merge with prior content.
func (p *Publisher) Publish(ctx context.Context, row market.Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode latest row: %w", err)
	}
	if err := p.store.Put(ctx, p.key, data, "application/json"); err != nil {
		return fmt.Errorf("publish latest %s: %w", p.key, err)
	}
	p.logger.Info("latest pointer updated", zap.String("key", p.key))
	return nil
}
