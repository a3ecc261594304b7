// Package pipeline wires the fetch, transcode, and persistence stages into
// the two ingest paths and shapes the invocation result.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-odds-ingest/internal/catalog"
	"github.com/JakeFAU/realtime-odds-ingest/internal/columnar"
	"github.com/JakeFAU/realtime-odds-ingest/internal/config"
	"github.com/JakeFAU/realtime-odds-ingest/internal/market"
	"github.com/JakeFAU/realtime-odds-ingest/internal/metrics"
	"github.com/JakeFAU/realtime-odds-ingest/internal/naming"
	"github.com/JakeFAU/realtime-odds-ingest/internal/storage"
)

// Result is the structured invocation payload. The boundary always
// returns one of these; errors never escape past it.
type Result struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool { return r.Status == "ok" }

func ok() Result { return Result{Status: "ok"} }

func fail(err error) Result { return Result{Status: "error", Error: err.Error()} }

// Clock supplies timestamps so tests can pin filenames.
type Clock interface {
	Now() time.Time
}

// Synchronizer appends one row to the durable store. Satisfied by
// durable.Synchronizer.
type Synchronizer interface {
	Append(ctx context.Context, row market.Row) error
}

// Publisher overwrites the latest pointer. Satisfied by
// snapshot.Publisher.
type Publisher interface {
	Publish(ctx context.Context, row market.Row) error
}

// Pipeline executes the catalog-walk and single-row ingest paths against
// injected collaborators. All dependencies are constructed by the caller;
// there is no package-level state.
type Pipeline struct {
	walker *catalog.Walker
	sink   storage.Provider
	keys   naming.Keys
	sync   Synchronizer
	latest Publisher
	clock  Clock
	logger *zap.Logger
}

// New assembles a Pipeline.
func New(
	walker *catalog.Walker,
	sink storage.Provider,
	keys naming.Keys,
	sync Synchronizer,
	latest Publisher,
	clock Clock,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		walker: walker,
		sink:   sink,
		keys:   keys,
		sync:   sync,
		latest: latest,
		clock:  clock,
		logger: logger,
	}
}

// RunCatalog walks the endpoint tree and writes every successful leaf
// payload to its raw key. Leaf failures are logged and counted, never
// fatal; the run fails only when every leaf failed.
func (p *Pipeline) RunCatalog(ctx context.Context, cat config.Catalog) Result {
	var succeeded, failed int
	for res := range p.walker.Walk(ctx, cat) {
		if res.Err != nil {
			failed++
			metrics.ObserveLeaf("error")
			continue
		}
		stamp := naming.Stamp(p.clock.Now())
		key := p.keys.RawLeaf(res.Endpoint.League, res.Endpoint.CategorySlug(), res.Endpoint.SubCategorySlug(), stamp)
		if err := p.sink.Put(ctx, key, res.Body, "application/json"); err != nil {
			failed++
			metrics.ObserveLeaf("error")
			p.logger.Error("raw leaf write failed", zap.String("key", key), zap.Error(err))
			continue
		}
		succeeded++
		metrics.ObserveLeaf("success")
		metrics.ObserveObject("raw")
		p.logger.Info("leaf stored", zap.String("key", key))
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("catalog walk interrupted: %w", err))
	}
	p.logger.Info("catalog walk complete", zap.Int("succeeded", succeeded), zap.Int("failed", failed))
	if succeeded == 0 && failed > 0 {
		return fail(fmt.Errorf("all %d catalog leaves failed", failed))
	}
	return ok()
}

// RunRow ingests one observation through all four destinations in order:
// raw JSON, processed parquet, durable-store append, latest pointer. Later
// steps are not attempted once an earlier required step fails.
func (p *Pipeline) RunRow(ctx context.Context, row market.Row) Result {
	stamp := naming.Stamp(p.clock.Now())

	rawJSON, err := json.Marshal(row)
	if err != nil {
		return fail(fmt.Errorf("encode row: %w", err))
	}
	rawKey := p.keys.Raw(stamp)
	if err := p.sink.Put(ctx, rawKey, rawJSON, "application/json"); err != nil {
		return fail(fmt.Errorf("raw write: %w", err))
	}
	metrics.ObserveObject("raw")

	artifact, err := columnar.Transcode([]market.Row{row})
	if err != nil {
		return fail(fmt.Errorf("transcode row: %w", err))
	}
	processedKey := p.keys.Processed(stamp)
	if err := p.sink.Put(ctx, processedKey, artifact, columnar.ContentType); err != nil {
		return fail(fmt.Errorf("processed write: %w", err))
	}
	metrics.ObserveObject("processed")

	if err := p.sync.Append(ctx, row); err != nil {
		metrics.ObserveSyncCycle("error")
		return fail(fmt.Errorf("durable append: %w", err))
	}
	metrics.ObserveSyncCycle("success")
	metrics.ObserveObject("db")

	if err := p.latest.Publish(ctx, row); err != nil {
		return fail(fmt.Errorf("latest publish: %w", err))
	}
	metrics.ObserveObject("latest")

	p.logger.Info("row ingested",
		zap.String("raw_key", rawKey),
		zap.String("processed_key", processedKey),
		zap.Time("scraped_at", row.ScrapedAt),
	)
	return ok()
}
