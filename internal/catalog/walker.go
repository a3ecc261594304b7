// Package catalog traverses the league/category/sub-category endpoint tree,
// fetching one payload per leaf with per-leaf failure isolation.
package catalog

import (
	"context"
	"fmt"
	"iter"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-odds-ingest/internal/config"
	"github.com/JakeFAU/realtime-odds-ingest/internal/naming"
)

// Endpoint identifies one leaf fetch. Constructed fresh per traversal and
// never persisted.
type Endpoint struct {
	League          string
	EventGroupID    int
	CategoryID      int
	CategoryName    string
	SubCategoryID   int
	SubCategoryName string
	URL             string
}

// CategorySlug is the storage-key token for the category name.
func (e Endpoint) CategorySlug() string { return naming.Slugify(e.CategoryName) }

// SubCategorySlug is the storage-key token for the sub-category name.
func (e Endpoint) SubCategorySlug() string { return naming.Slugify(e.SubCategoryName) }

// Result is the tagged outcome of one leaf attempt. Exactly one of Body
// and Err is meaningful.
type Result struct {
	Endpoint Endpoint
	Body     []byte
	Err      error
}

// Getter fetches one URL. Satisfied by fetch.Client.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Walker drives the Getter across every leaf of a catalog tree. A single
// leaf's failure is reported in its Result and the walk continues; after
// every leaf the walker sleeps a uniform random duration inside the
// configured pacing window.
type Walker struct {
	baseURL string
	client  Getter
	paceMin time.Duration
	paceMax time.Duration
	sleep   func(ctx context.Context, d time.Duration)
	logger  *zap.Logger
}

// New constructs a Walker. The pacing bounds come from configuration; the
// documented defaults are 3s and 10s.
func New(baseURL string, client Getter, paceMin, paceMax time.Duration, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		paceMin: paceMin,
		paceMax: paceMax,
		sleep:   pause,
		logger:  logger,
	}
}

// Walk yields one Result per leaf, lazily. Re-walking the same tree yields
// the same endpoints in the same order: league, category, and sub-category
// names are each visited in sorted order so the sequence is reproducible
// within a run.
func (w *Walker) Walk(ctx context.Context, cat config.Catalog) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for _, leagueName := range sortedKeys(cat) {
			league := cat[leagueName]
			for _, categoryName := range sortedKeys(league.Categories) {
				category := league.Categories[categoryName]
				for _, subName := range sortedKeys(category.SubCategories) {
					if ctx.Err() != nil {
						return
					}
					ep := Endpoint{
						League:          leagueName,
						EventGroupID:    league.EventGroupID,
						CategoryID:      category.CategoryID,
						CategoryName:    categoryName,
						SubCategoryID:   category.SubCategories[subName],
						SubCategoryName: subName,
						URL:             w.leafURL(league.EventGroupID, category.CategoryID, category.SubCategories[subName]),
					}
					if !yield(w.visit(ctx, ep)) {
						return
					}
					w.pace(ctx)
				}
			}
		}
	}
}

func (w *Walker) visit(ctx context.Context, ep Endpoint) Result {
	body, err := w.client.Get(ctx, ep.URL)
	if err != nil {
		w.logger.Error("leaf fetch failed",
			zap.String("league", ep.League),
			zap.String("category", ep.CategoryName),
			zap.String("subcategory", ep.SubCategoryName),
			zap.String("url", ep.URL),
			zap.Error(err),
		)
		return Result{Endpoint: ep, Err: err}
	}
	return Result{Endpoint: ep, Body: body}
}

// pace sleeps a uniform random duration in [paceMin, paceMax]. This is a
// politeness contract with the remote API, not a correctness requirement.
func (w *Walker) pace(ctx context.Context) {
	if w.paceMax <= 0 {
		return
	}
	window := w.paceMax - w.paceMin
	delay := w.paceMin
	if window > 0 {
		delay += time.Duration(rand.Int64N(int64(window) + 1))
	}
	w.logger.Debug("pacing before next leaf", zap.Duration("delay", delay))
	w.sleep(ctx, delay)
}

func (w *Walker) leafURL(eventGroupID, categoryID, subCategoryID int) string {
	return fmt.Sprintf("%s/leagues/%d/categories/%d/subcategories/%d",
		w.baseURL, eventGroupID, categoryID, subCategoryID)
}

func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
