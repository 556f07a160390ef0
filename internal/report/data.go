package report

import (
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/analytics"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// RecentDayCount is how many dates the daily trend section shows.
const RecentDayCount = 5

// FocusRegion is the region whose average transaction value is reported.
const FocusRegion = "North"

// Quality describes how much of the input survived each stage.
type Quality struct {
	Source            string
	Encoding          string
	Lines             int
	Blank             int
	DroppedStructural int
	Parsed            int
	Invalid           int
	Filter            types.FilterStats
	Criteria          types.Criteria
}

// Meta identifies one run.
type Meta struct {
	RunID          string
	GeneratedAt    time.Time
	CurrencySymbol string
}

// Data is everything a report renderer needs, computed once per run.
type Data struct {
	Meta Meta

	Summary      analytics.Summary
	Regions      []analytics.RegionStat // sorted by revenue, descending
	TopProducts  []analytics.ProductStat
	TopCustomers []analytics.CustomerStat
	Trend        []analytics.DailyStat // first-seen order
	RecentDays   []analytics.DailyStat
	BestDay      analytics.DailyStat
	HasBestDay   bool
	FocusAverage float64
	Enrichment   analytics.Enrichment

	Records []types.EnrichedTransaction
	Quality Quality
}

// Build aggregates the surviving transactions and their enriched records.
func Build(transactions []types.Transaction, records []types.EnrichedTransaction, quality Quality, meta Meta) Data {
	regions := analytics.RegionBreakdown(transactions)
	trend := analytics.DailyTrend(transactions)
	best, ok := analytics.BestSellingDay(trend)

	return Data{
		Meta:         meta,
		Summary:      analytics.SummaryStats(transactions),
		Regions:      analytics.SortRegionsByRevenue(regions),
		TopProducts:  analytics.TopProducts(transactions),
		TopCustomers: analytics.TopCustomers(transactions),
		Trend:        trend,
		RecentDays:   analytics.RecentDays(trend, RecentDayCount),
		BestDay:      best,
		HasBestDay:   ok,
		FocusAverage: analytics.RegionAverage(regions, FocusRegion),
		Enrichment:   analytics.EnrichmentSummary(records),
		Records:      records,
		Quality:      quality,
	}
}
