// Package analytics derives dashboard metrics from the immutable
// order/order-item history. All computations are read-only and tolerate
// racing status transitions: each order is seen either before or after
// a transition, never half-way.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Amoghsy/CampoBite/internal/domain/order"
)

// Range selects the trend-series bucketing.
type Range string

const (
	RangeDaily   Range = "daily"   // 24 hourly buckets of the anchor day
	RangeWeekly  Range = "weekly"  // 7 daily buckets ending on the anchor day
	RangeMonthly Range = "monthly" // 30 daily buckets ending on the anchor day
)

// PeakHourNone is the label returned when the window holds no orders.
const PeakHourNone = "-"

// Hours of the hourly activity pattern; the counter is open 09:00-21:59.
const (
	patternFirstHour = 9
	patternLastHour  = 21
)

const demandTopN = 6

// ParseRange validates a wire-format range string, defaulting to weekly.
func ParseRange(s string) (Range, error) {
	switch s {
	case "":
		return RangeWeekly, nil
	case string(RangeDaily), string(RangeWeekly), string(RangeMonthly):
		return Range(s), nil
	}
	return "", errors.Errorf("unknown range %q", s)
}

// OrderRecord is the slice of an order the aggregator needs.
type OrderRecord struct {
	ID          int64
	Status      order.Status
	TotalAmount int64
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// ItemSales is the total quantity sold for one menu item, name frozen
// from the order items themselves.
type ItemSales struct {
	MenuItemID int64
	Name       string
	Sold       int64
}

// Store is the read-only view of order history the aggregator consumes.
// All windows are half-open [start, end).
type Store interface {
	OrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]OrderRecord, error)
	CompletedOrdersBetween(ctx context.Context, start, end time.Time) ([]OrderRecord, error)
	RevenueBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountCompletedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	TopSellingItems(ctx context.Context, start, end time.Time, limit int) ([]ItemSales, error)
}

// TrendPoint is one bucket of the sales trend series.
type TrendPoint struct {
	Label   string `json:"label"`
	Revenue int64  `json:"revenue"`
}

// DemandItem classifies one menu item's sales volume relative to the
// top seller of the window.
type DemandItem struct {
	Name       string `json:"name"`
	OrderCount int64  `json:"orderCount"`
	Demand     string `json:"demand"`
}

// HourlyPoint is one bucket of the counter-hours activity pattern.
type HourlyPoint struct {
	Hour   string `json:"hour"`
	Orders int64  `json:"orders"`
}

// Dashboard is the aggregated metrics object served to the admin UI.
type Dashboard struct {
	ActiveOrders   int64         `json:"activeOrders"`
	CompletedToday int64         `json:"completedToday"`
	TotalOrders    int64         `json:"totalOrders"`
	RevenueToday   int64         `json:"revenueToday"`
	RevenueWeekly  int64         `json:"revenueWeekly"`
	RevenueMonthly int64         `json:"revenueMonthly"`
	PeakHour       string        `json:"peakHour"`
	AvgWaitMinutes int64         `json:"avgWaitTime"`
	DemandAnalysis []DemandItem  `json:"demandAnalysis"`
	SalesTrend     []TrendPoint  `json:"salesTrend"`
	HourlyPattern  []HourlyPoint `json:"hourlyPattern"`
}

// Service computes dashboards from a Store.
type Service struct {
	store Store
}

// NewService creates an analytics Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Dashboard computes all metrics relative to the anchor date. Per-day
// metrics (revenue today, peak hour, wait time, demand, hourly pattern)
// use the anchor day; weekly and monthly revenue use trailing windows
// ending on the anchor day; the trend series window follows rng. The
// independent queries are fanned out concurrently.
func (s *Service) Dashboard(ctx context.Context, rng Range, anchor time.Time) (*Dashboard, error) {
	dayStart := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekStart := dayStart.AddDate(0, 0, -6)
	monthStart := dayStart.AddDate(0, 0, -29)

	trendStart := dayStart
	switch rng {
	case RangeWeekly:
		trendStart = weekStart
	case RangeMonthly:
		trendStart = monthStart
	}

	var (
		d           Dashboard
		dayOrders   []OrderRecord
		trendOrders []OrderRecord
		completed   []OrderRecord
		topItems    []ItemSales
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.ActiveOrders, err = s.store.CountActive(gctx)
		return errors.Wrap(err, "count active")
	})
	g.Go(func() (err error) {
		d.TotalOrders, err = s.store.CountAll(gctx)
		return errors.Wrap(err, "count all")
	})
	g.Go(func() (err error) {
		d.CompletedToday, err = s.store.CountCompletedBetween(gctx, dayStart, dayEnd)
		return errors.Wrap(err, "count completed today")
	})
	g.Go(func() (err error) {
		d.RevenueToday, err = s.store.RevenueBetween(gctx, dayStart, dayEnd)
		return errors.Wrap(err, "revenue today")
	})
	g.Go(func() (err error) {
		d.RevenueWeekly, err = s.store.RevenueBetween(gctx, weekStart, dayEnd)
		return errors.Wrap(err, "revenue weekly")
	})
	g.Go(func() (err error) {
		d.RevenueMonthly, err = s.store.RevenueBetween(gctx, monthStart, dayEnd)
		return errors.Wrap(err, "revenue monthly")
	})
	g.Go(func() (err error) {
		dayOrders, err = s.store.OrdersCreatedBetween(gctx, dayStart, dayEnd)
		return errors.Wrap(err, "day orders")
	})
	g.Go(func() (err error) {
		trendOrders, err = s.store.OrdersCreatedBetween(gctx, trendStart, dayEnd)
		return errors.Wrap(err, "trend orders")
	})
	g.Go(func() (err error) {
		completed, err = s.store.CompletedOrdersBetween(gctx, dayStart, dayEnd)
		return errors.Wrap(err, "completed orders")
	})
	g.Go(func() (err error) {
		topItems, err = s.store.TopSellingItems(gctx, dayStart, dayEnd, demandTopN)
		return errors.Wrap(err, "top selling items")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.PeakHour = peakHourLabel(dayOrders)
	d.AvgWaitMinutes = averageWaitMinutes(completed)
	d.DemandAnalysis = demandTiers(topItems)
	d.SalesTrend = trendSeries(rng, trendStart, trendOrders)
	d.HourlyPattern = hourlyPattern(dayOrders)
	return &d, nil
}

// peakHourLabel finds the hour-of-day with the most order creations.
// Ties break toward the lowest hour; an empty window yields the "none"
// sentinel.
func peakHourLabel(orders []OrderRecord) string {
	var counts [24]int
	for _, o := range orders {
		counts[o.CreatedAt.Hour()]++
	}
	peak, max := -1, 0
	for h, c := range counts {
		if c > max {
			peak, max = h, c
		}
	}
	if peak < 0 {
		return PeakHourNone
	}
	return fmt.Sprintf("%02d:00", peak)
}

// averageWaitMinutes computes the mean completion latency in whole
// minutes over orders that carry both timestamps, 0 when none qualify.
func averageWaitMinutes(completed []OrderRecord) int64 {
	var (
		total float64
		count int
	)
	for _, o := range completed {
		if o.CompletedAt == nil {
			continue
		}
		total += o.CompletedAt.Sub(o.CreatedAt).Minutes()
		count++
	}
	if count == 0 {
		return 0
	}
	return int64(math.Round(total / float64(count)))
}

// demandTiers classifies items against the top seller: >=80% of the max
// is high demand, >=40% medium, the rest low. The input is ordered by
// quantity sold descending with stable id tie-breaking.
func demandTiers(items []ItemSales) []DemandItem {
	out := make([]DemandItem, 0, len(items))
	if len(items) == 0 {
		return out
	}
	max := items[0].Sold
	if max < 1 {
		max = 1
	}
	for _, it := range items {
		tier := "low"
		switch {
		case float64(it.Sold) >= float64(max)*0.8:
			tier = "high"
		case float64(it.Sold) >= float64(max)*0.4:
			tier = "medium"
		}
		out = append(out, DemandItem{
			Name:       it.Name,
			OrderCount: it.Sold,
			Demand:     tier,
		})
	}
	return out
}

// trendSeries buckets revenue of non-cancelled orders by creation time.
// Every bucket is present even when zero: 24 hourly buckets for daily,
// 7 daily buckets for weekly, 30 for monthly.
func trendSeries(rng Range, start time.Time, orders []OrderRecord) []TrendPoint {
	if rng == RangeDaily {
		points := make([]TrendPoint, 24)
		for h := range points {
			points[h].Label = fmt.Sprintf("%02d:00", h)
		}
		for _, o := range orders {
			if o.Status == order.StatusCancelled {
				continue
			}
			points[o.CreatedAt.Hour()].Revenue += o.TotalAmount
		}
		return points
	}

	days := 7
	layout := "Mon"
	if rng == RangeMonthly {
		days = 30
		layout = "02 Jan"
	}

	points := make([]TrendPoint, days)
	for i := range points {
		points[i].Label = start.AddDate(0, 0, i).Format(layout)
	}
	for _, o := range orders {
		if o.Status == order.StatusCancelled {
			continue
		}
		idx := daysBetween(start, o.CreatedAt)
		if idx >= 0 && idx < days {
			points[idx].Revenue += o.TotalAmount
		}
	}
	return points
}

// hourlyPattern counts order creations per hour during counter hours.
func hourlyPattern(orders []OrderRecord) []HourlyPoint {
	var counts [24]int64
	for _, o := range orders {
		counts[o.CreatedAt.Hour()]++
	}
	out := make([]HourlyPoint, 0, patternLastHour-patternFirstHour+1)
	for h := patternFirstHour; h <= patternLastHour; h++ {
		out = append(out, HourlyPoint{
			Hour:   fmt.Sprintf("%02d:00", h),
			Orders: counts[h],
		})
	}
	return out
}

// daysBetween counts whole calendar days from start to t.
func daysBetween(start, t time.Time) int {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return int(day.Sub(start).Hours() / 24)
}
