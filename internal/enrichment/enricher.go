// =============================================================================
// Sales Analytics - Enrichment Module
// =============================================================================
//
// This module attaches a product category to every validated transaction.
//
// CACHING:
//   Each call to Enrich builds a fresh cache keyed by ProductName. The first
//   occurrence of a name is looked up; every later occurrence is served from
//   the cache, including names that resolved to "Unknown".
//
// PACING:
//   Lookups that miss the cache are spaced by Options.Pacing using a token
//   bucket. Cache hits are never delayed.
//
// CONCURRENCY:
//   With Options.Workers > 1 records are enriched by a bounded worker group.
//   Output order always equals input order and each distinct name is still
//   looked up at most once.
//
// =============================================================================

package enrichment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ginjaninja78/sales-analytics/internal/lookup"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// DefaultPacing is the delay between consecutive remote lookups.
const DefaultPacing = 100 * time.Millisecond

// Options tunes an Enricher.
type Options struct {
	// Pacing is the minimum spacing between cache-miss lookups. Zero
	// disables pacing.
	Pacing time.Duration

	// Workers bounds how many records are enriched at once. Values below 1
	// mean sequential enrichment.
	Workers int
}

// Result is the outcome of one enrichment run.
type Result struct {
	// Records holds one enriched record per input transaction, in order.
	Records []types.EnrichedTransaction

	// Enriched counts records whose category is not Unknown.
	Enriched int

	// Total is len(Records).
	Total int

	// UniqueProducts is the number of distinct product names seen.
	UniqueProducts int

	// Lookups is the number of lookup calls made.
	Lookups int

	// CacheHits is the number of records served from the cache.
	CacheHits int
}

// SuccessRate is Enriched/Total as a percentage, or 0 when Total is 0.
func (r *Result) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Enriched) / float64(r.Total) * 100
}

// Enricher resolves categories through a Lookup.
type Enricher struct {
	lookup lookup.Lookup
	opts   Options
	logger *zap.Logger
}

// New creates an Enricher. A nil logger discards output.
func New(l lookup.Lookup, opts Options, logger *zap.Logger) *Enricher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Pacing < 0 {
		opts.Pacing = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		lookup: l,
		opts:   opts,
		logger: logger.Named("enrichment"),
	}
}

// Enrich returns one EnrichedTransaction per input transaction.
//
// PARAMETERS:
//   - ctx: Cancelling it stops enrichment; no partial result is returned.
//   - transactions: Validated transactions.
//
// RETURNS:
//   - The enriched records and run counters.
//   - An error only when ctx is cancelled.
func (e *Enricher) Enrich(ctx context.Context, transactions []types.Transaction) (*Result, error) {
	start := time.Now()
	c := newCache()

	var limiter *rate.Limiter
	if e.opts.Pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(e.opts.Pacing), 1)
	}

	fetch := func(name string) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return "", err
				}
			}
			category := types.UnknownCategory
			if e.lookup != nil {
				category = e.lookup.Category(ctx, name)
			}
			if category == "" {
				category = types.UnknownCategory
			}
			if err := ctx.Err(); err != nil {
				return "", err
			}
			e.logger.Debug("looked up category",
				zap.String("product", name),
				zap.String("category", category))
			return category, nil
		}
	}

	records := make([]types.EnrichedTransaction, len(transactions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, tx := range transactions {
		if gctx.Err() != nil {
			break
		}
		i, tx := i, tx
		g.Go(func() error {
			category, err := c.resolve(gctx, tx.ProductName, fetch(tx.ProductName))
			if err != nil {
				return err
			}
			records[i] = types.EnrichedTransaction{Transaction: tx, Category: category}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrichment interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrichment interrupted: %w", err)
	}

	result := &Result{
		Records:        records,
		Total:          len(records),
		UniqueProducts: c.size(),
		Lookups:        c.lookups(),
	}
	result.CacheHits = result.Total - result.Lookups
	for _, r := range records {
		if r.IsEnriched() {
			result.Enriched++
		}
	}

	e.logger.Info("enrichment complete",
		zap.Int("records", result.Total),
		zap.Int("enriched", result.Enriched),
		zap.Int("unique_products", result.UniqueProducts),
		zap.Int("lookups", result.Lookups),
		zap.Int("cache_hits", result.CacheHits),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}
