package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Aggregator is a single-pass reduction over the records of one bucket.
type Aggregator string

const (
	// AggSum adds up Amount
	AggSum Aggregator = "sum"
	// AggCount counts records
	AggCount Aggregator = "count"
	// AggTickets counts records with a non-empty ticket cell. It counts
	// occurrences, not distinct ticket IDs.
	AggTickets Aggregator = "tickets"
)

var one = decimal.NewFromInt(1)

func (a Aggregator) step(acc decimal.Decimal, tx domain.Transaction) decimal.Decimal {
	switch a {
	case AggSum:
		return acc.Add(decimal.NewFromFloat(tx.Amount))
	case AggCount:
		return acc.Add(one)
	case AggTickets:
		if tx.HasTicket {
			return acc.Add(one)
		}
		return acc
	default:
		panic(fmt.Sprintf("dataprocessing: unknown aggregator %q", string(a)))
	}
}

// MetricDef names one output metric and the aggregator that computes it.
type MetricDef struct {
	Name string
	Agg  Aggregator
}

// ViewDef states a view's grouping key and its metrics explicitly.
// Records for which Include returns false are left out of the view.
type ViewDef[K comparable] struct {
	Name    string
	Key     func(domain.Transaction) K
	Less    func(a, b K) bool
	Include func(domain.Transaction) bool
	Metrics []MetricDef
}

// Bucket is one group of a view with its metric values in MetricDef order.
type Bucket[K comparable] struct {
	Key    K
	Values []decimal.Decimal
}

// Value returns the metric called name
func (b Bucket[K]) Value(def ViewDef[K], name string) decimal.Decimal {
	for i, m := range def.Metrics {
		if m.Name == name {
			return b.Values[i]
		}
	}
	panic(fmt.Sprintf("dataprocessing: view %s has no metric %q", def.Name, name))
}

// GroupBy reduces records into one bucket per distinct key, ordered by def.Less.
// Every key present among the included records appears exactly once.
func GroupBy[K comparable](records []domain.Transaction, def ViewDef[K]) []Bucket[K] {
	index := make(map[K]int)
	var buckets []Bucket[K]

	for _, tx := range records {
		if def.Include != nil && !def.Include(tx) {
			continue
		}
		k := def.Key(tx)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket[K]{Key: k, Values: make([]decimal.Decimal, len(def.Metrics))})
		}
		for m, metric := range def.Metrics {
			buckets[i].Values[m] = metric.Agg.step(buckets[i].Values[m], tx)
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return def.Less(buckets[i].Key, buckets[j].Key)
	})
	return buckets
}

// Metric names as they appear in the serialized views
const (
	MetricTotal             = "total"
	MetricTransactions      = "transactions"
	MetricSum               = "sum"
	MetricCount             = "count"
	MetricTotalSales        = "total_sales"
	MetricTotalTransactions = "total_transactions"
	MetricTicketsSold       = "tickets_sold"
	MetricPercentage        = "percentage"
)

// DailyView groups by calendar date
var DailyView = ViewDef[time.Time]{
	Name: "daily_sales",
	Key:  func(tx domain.Transaction) time.Time { return tx.Date() },
	Less: func(a, b time.Time) bool { return a.Before(b) },
	Metrics: []MetricDef{
		{Name: MetricTotal, Agg: AggSum},
		{Name: MetricTransactions, Agg: AggCount},
	},
}

// HourlyView groups by hour of day (0-23)
var HourlyView = ViewDef[int]{
	Name: "hourly_stats",
	Key:  func(tx domain.Transaction) int { return tx.Timestamp.Hour() },
	Less: func(a, b int) bool { return a < b },
	Metrics: []MetricDef{
		{Name: MetricCount, Agg: AggCount},
	},
}

// ProfileView groups by profile label. Rows without a profile have no key
// and are left out, as they are from the profile list of the filter options.
var ProfileView = ViewDef[string]{
	Name:    "profile_stats",
	Key:     func(tx domain.Transaction) string { return tx.Profile },
	Less:    func(a, b string) bool { return a < b },
	Include: func(tx domain.Transaction) bool { return tx.Profile != "" },
	Metrics: []MetricDef{
		{Name: MetricTotalSales, Agg: AggSum},
		{Name: MetricTotalTransactions, Agg: AggCount},
		{Name: MetricTicketsSold, Agg: AggTickets},
	},
}

// WeeklyView groups by week label under the given numbering policy
func WeeklyView(weeks WeekNumbering) ViewDef[string] {
	return ViewDef[string]{
		Name: "weekly_sales",
		Key:  func(tx domain.Transaction) string { return weeks.Label(tx.Timestamp) },
		Less: func(a, b string) bool { return a < b },
		Metrics: []MetricDef{
			{Name: MetricSum, Agg: AggSum},
			{Name: MetricCount, Agg: AggCount},
		},
	}
}

// AggregateDaily computes the daily view
func AggregateDaily(records []domain.Transaction) []domain.DailySales {
	buckets := GroupBy(records, DailyView)
	out := make([]domain.DailySales, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, domain.DailySales{
			Date:         b.Key,
			Total:        b.Value(DailyView, MetricTotal),
			Transactions: b.Value(DailyView, MetricTransactions).IntPart(),
		})
	}
	return out
}

// AggregateWeekly computes the weekly view
func AggregateWeekly(records []domain.Transaction, weeks WeekNumbering) []domain.WeeklySales {
	def := WeeklyView(weeks)
	buckets := GroupBy(records, def)
	out := make([]domain.WeeklySales, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, domain.WeeklySales{
			Week:  b.Key,
			Sum:   b.Value(def, MetricSum),
			Count: b.Value(def, MetricCount).IntPart(),
		})
	}
	return out
}

// AggregateHourly computes the hour-of-day view. Only hours with records appear.
func AggregateHourly(records []domain.Transaction) []domain.HourlyStats {
	buckets := GroupBy(records, HourlyView)
	out := make([]domain.HourlyStats, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, domain.HourlyStats{
			Hour:  b.Key,
			Count: b.Value(HourlyView, MetricCount).IntPart(),
		})
	}
	return out
}

// AggregateProfiles computes the by-profile view. Percentages are shares of
// all tickets sold, in hundredths, apportioned by largest remainder so that
// they add up to exactly 100.00. A single value may therefore sit 0.01 away
// from its independently rounded share: three equal profiles get 33.34,
// 33.33 and 33.33 rather than 33.33 each. It fails with an
// AggregationInvariantError when profiles exist but no tickets were sold.
func AggregateProfiles(records []domain.Transaction) ([]domain.ProfileStats, error) {
	buckets := GroupBy(records, ProfileView)
	out := make([]domain.ProfileStats, 0, len(buckets))
	if len(buckets) == 0 {
		return out, nil
	}

	tickets := make([]int64, len(buckets))
	var total int64
	for i, b := range buckets {
		tickets[i] = b.Value(ProfileView, MetricTicketsSold).IntPart()
		total += tickets[i]
	}
	if total == 0 {
		return nil, apperrors.NewAggregationError(
			fmt.Sprintf("cannot compute ticket percentages: %d profiles sold zero tickets in total", len(buckets)))
	}

	shares := apportionPercentages(tickets, total)
	for i, b := range buckets {
		out = append(out, domain.ProfileStats{
			Profile:           b.Key,
			TotalSales:        b.Value(ProfileView, MetricTotalSales),
			TotalTransactions: b.Value(ProfileView, MetricTotalTransactions).IntPart(),
			TicketsSold:       tickets[i],
			Percentage:        shares[i],
		})
	}
	return out, nil
}

// apportionPercentages rounds each part*100/total to two decimals so the
// rounded values sum to exactly 100. Each result is the floor or the ceiling
// of its exact share; ties on remainder go to the earlier bucket.
func apportionPercentages(parts []int64, total int64) []decimal.Decimal {
	const scale = 10000 // hundredths of a percent

	floors := make([]int64, len(parts))
	remainders := make([]int64, len(parts))
	var assigned int64
	for i, p := range parts {
		// p*scale fits comfortably in int64 for any realistic row count
		floors[i] = p * scale / total
		remainders[i] = p * scale % total
		assigned += floors[i]
	}

	order := make([]int, len(parts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for _, i := range order[:scale-assigned] {
		floors[i]++
	}

	out := make([]decimal.Decimal, len(parts))
	for i, f := range floors {
		out[i] = decimal.New(f, -2)
	}
	return out
}
