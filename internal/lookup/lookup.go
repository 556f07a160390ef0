// =============================================================================
// Sales Analytics - Category Lookup
// =============================================================================
//
// A Lookup maps a product name to a category. Implementations are TOTAL: they
// never return an error. Any failure (network, timeout, bad payload, no
// match) yields types.UnknownCategory.
//
// IMPLEMENTATIONS:
//   - Client : remote product search over HTTP
//   - Static : fixed table, used for configured overrides and in tests
//   - Chain  : asks several lookups in order, first real answer wins
//
// =============================================================================

package lookup

import (
	"context"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Lookup resolves the category of a product.
type Lookup interface {
	Category(ctx context.Context, productName string) string
}

// Func adapts a plain function to the Lookup interface.
type Func func(ctx context.Context, productName string) string

// Category calls f.
func (f Func) Category(ctx context.Context, productName string) string {
	return normalize(f(ctx, productName))
}

// normalize maps an empty answer to the Unknown sentinel.
func normalize(category string) string {
	if strings.TrimSpace(category) == "" {
		return types.UnknownCategory
	}
	return category
}

// =============================================================================
// STATIC TABLE
// =============================================================================

// Static answers from a fixed ProductName -> Category table. Names must match
// exactly.
type Static map[string]string

// Category returns the table entry or Unknown.
func (s Static) Category(_ context.Context, productName string) string {
	return normalize(s[productName])
}

// =============================================================================
// CHAIN
// =============================================================================

type chain []Lookup

// Chain returns a Lookup that consults each lookup in order and returns the
// first answer that is not Unknown. Nil entries are skipped.
func Chain(lookups ...Lookup) Lookup {
	var c chain
	for _, l := range lookups {
		if l != nil {
			c = append(c, l)
		}
	}
	return c
}

func (c chain) Category(ctx context.Context, productName string) string {
	for _, l := range c {
		if ctx.Err() != nil {
			break
		}
		if category := normalize(l.Category(ctx, productName)); category != types.UnknownCategory {
			return category
		}
	}
	return types.UnknownCategory
}
