// =============================================================================
// Sales Analytics - Aggregation Module
// =============================================================================
//
// Pure functions over validated transactions. Nothing here performs I/O.
//
// AGGREGATES:
//   - SummaryStats     : total revenue, count, average order value, date range
//   - RegionBreakdown  : revenue, count and share of total per region
//   - TopProducts      : top 5 products by revenue (with quantity)
//   - TopCustomers     : top 5 customers by revenue (with order count)
//   - DailyTrend       : revenue, count and distinct customers per date
//
// ORDERING:
//   Every grouping keeps first-seen order. Rankings use a stable sort on
//   revenue only, so ties resolve to first-seen order.
//
// =============================================================================

package analytics

import (
	"sort"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// TopN is the length of the product and customer rankings.
const TopN = 5

// DateLayout is the strict layout dates must follow for the date range.
const DateLayout = "2006-01-02"

// =============================================================================
// SUMMARY STATISTICS
// =============================================================================

// DateRange is the span of transaction dates. When Valid is false at least one
// date failed to parse and Start/End are zero.
type DateRange struct {
	Start time.Time
	End   time.Time
	Valid bool
	Empty bool
}

// String renders "YYYY-MM-DD to YYYY-MM-DD", or a sentinel.
func (d DateRange) String() string {
	switch {
	case d.Empty:
		return "N/A"
	case !d.Valid:
		return "Invalid Dates Found"
	default:
		return d.Start.Format(DateLayout) + " to " + d.End.Format(DateLayout)
	}
}

// Summary holds the overall statistics.
type Summary struct {
	TotalRevenue      float64
	TotalTransactions int
	AvgOrderValue     float64
	DateRange         DateRange
}

// SummaryStats computes the overall statistics.
//
// The date range is all-or-nothing: one unparseable date makes the whole
// range invalid while the other figures stay correct.
func SummaryStats(transactions []types.Transaction) Summary {
	if len(transactions) == 0 {
		return Summary{DateRange: DateRange{Empty: true}}
	}

	var total float64
	for _, tx := range transactions {
		total += tx.Revenue()
	}

	return Summary{
		TotalRevenue:      total,
		TotalTransactions: len(transactions),
		AvgOrderValue:     total / float64(len(transactions)),
		DateRange:         computeDateRange(transactions),
	}
}

func computeDateRange(transactions []types.Transaction) DateRange {
	var r DateRange

	for i, tx := range transactions {
		d, err := time.Parse(DateLayout, tx.Date)
		if err != nil {
			return DateRange{}
		}
		if i == 0 || d.Before(r.Start) {
			r.Start = d
		}
		if i == 0 || d.After(r.End) {
			r.End = d
		}
	}

	r.Valid = true
	return r
}

// =============================================================================
// REGION BREAKDOWN
// =============================================================================

// RegionStat is the aggregate for one region.
type RegionStat struct {
	Region     string
	Revenue    float64
	Count      int
	Percentage float64
}

// RegionBreakdown groups revenue by region, in first-seen order.
// Percentages are relative to total revenue; a total of exactly zero is
// treated as 1.
func RegionBreakdown(transactions []types.Transaction) []RegionStat {
	var total float64
	for _, tx := range transactions {
		total += tx.Revenue()
	}
	if total == 0 {
		total = 1
	}

	index := make(map[string]int)
	var stats []RegionStat

	for _, tx := range transactions {
		i, ok := index[tx.Region]
		if !ok {
			i = len(stats)
			index[tx.Region] = i
			stats = append(stats, RegionStat{Region: tx.Region})
		}
		stats[i].Revenue += tx.Revenue()
		stats[i].Count++
	}

	for i := range stats {
		stats[i].Percentage = stats[i].Revenue / total * 100
	}

	return stats
}

// SortRegionsByRevenue returns a copy sorted by revenue descending. Ties keep
// their original order.
func SortRegionsByRevenue(stats []RegionStat) []RegionStat {
	sorted := append([]RegionStat(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Revenue > sorted[j].Revenue
	})
	return sorted
}

// RegionAverage returns revenue divided by count for one region. Matching is
// exact. An absent region averages to 0.
func RegionAverage(stats []RegionStat, region string) float64 {
	for _, s := range stats {
		if s.Region == region && s.Count > 0 {
			return s.Revenue / float64(s.Count)
		}
	}
	return 0
}

// =============================================================================
// RANKINGS
// =============================================================================

// ProductStat is the aggregate for one product.
type ProductStat struct {
	ProductName string
	Revenue     float64
	Quantity    int
}

// CustomerStat is the aggregate for one customer.
type CustomerStat struct {
	CustomerID string
	Revenue    float64
	Count      int
}

// TopProducts ranks products by summed revenue and returns at most TopN.
func TopProducts(transactions []types.Transaction) []ProductStat {
	index := make(map[string]int)
	var stats []ProductStat

	for _, tx := range transactions {
		i, ok := index[tx.ProductName]
		if !ok {
			i = len(stats)
			index[tx.ProductName] = i
			stats = append(stats, ProductStat{ProductName: tx.ProductName})
		}
		stats[i].Revenue += tx.Revenue()
		stats[i].Quantity += tx.Quantity.Value
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Revenue > stats[j].Revenue
	})

	return limit(stats, TopN)
}

// TopCustomers ranks customers by summed revenue and returns at most TopN.
func TopCustomers(transactions []types.Transaction) []CustomerStat {
	index := make(map[string]int)
	var stats []CustomerStat

	for _, tx := range transactions {
		i, ok := index[tx.CustomerID]
		if !ok {
			i = len(stats)
			index[tx.CustomerID] = i
			stats = append(stats, CustomerStat{CustomerID: tx.CustomerID})
		}
		stats[i].Revenue += tx.Revenue()
		stats[i].Count++
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Revenue > stats[j].Revenue
	})

	return limit(stats, TopN)
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// =============================================================================
// DAILY TREND
// =============================================================================

// DailyStat is the aggregate for one date string.
type DailyStat struct {
	Date         string
	Revenue      float64
	Transactions int
	Customers    map[string]struct{}
}

// UniqueCustomers returns the number of distinct customers that day.
func (d DailyStat) UniqueCustomers() int {
	return len(d.Customers)
}

// DailyTrend groups by the unparsed Date string, in first-seen order.
func DailyTrend(transactions []types.Transaction) []DailyStat {
	index := make(map[string]int)
	var stats []DailyStat

	for _, tx := range transactions {
		i, ok := index[tx.Date]
		if !ok {
			i = len(stats)
			index[tx.Date] = i
			stats = append(stats, DailyStat{Date: tx.Date, Customers: make(map[string]struct{})})
		}
		stats[i].Revenue += tx.Revenue()
		stats[i].Transactions++
		stats[i].Customers[tx.CustomerID] = struct{}{}
	}

	return stats
}

// RecentDays returns the n latest dates, sorted by date string descending.
func RecentDays(trend []DailyStat, n int) []DailyStat {
	sorted := append([]DailyStat(nil), trend...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	return limit(sorted, n)
}

// BestSellingDay returns the day with the highest revenue. The earliest-seen
// day wins a tie. ok is false when trend is empty.
func BestSellingDay(trend []DailyStat) (best DailyStat, ok bool) {
	for i, d := range trend {
		if i == 0 || d.Revenue > best.Revenue {
			best = d
			ok = true
		}
	}
	return best, ok
}

// =============================================================================
// ENRICHMENT SUMMARY
// =============================================================================

// Enrichment summarises how many records received a real category.
type Enrichment struct {
	Enriched    int
	Total       int
	SuccessRate float64
}

// EnrichmentSummary counts enriched records. The rate is 0 for no records.
func EnrichmentSummary(records []types.EnrichedTransaction) Enrichment {
	e := Enrichment{Total: len(records)}
	for _, r := range records {
		if r.IsEnriched() {
			e.Enriched++
		}
	}
	if e.Total > 0 {
		e.SuccessRate = float64(e.Enriched) / float64(e.Total) * 100
	}
	return e
}
