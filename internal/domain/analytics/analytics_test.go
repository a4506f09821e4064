package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amoghsy/CampoBite/internal/domain/order"
)

type mockStore struct {
	created   []OrderRecord
	completed []OrderRecord
	revenue   map[string]int64 // keyed by start date, "*" as fallback
	topItems  []ItemSales

	active         int64
	all            int64
	completedCount int64

	err error
}

func (m *mockStore) OrdersCreatedBetween(_ context.Context, start, end time.Time) ([]OrderRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []OrderRecord
	for _, o := range m.created {
		if !o.CreatedAt.Before(start) && o.CreatedAt.Before(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockStore) CompletedOrdersBetween(_ context.Context, _, _ time.Time) ([]OrderRecord, error) {
	return m.completed, m.err
}

func (m *mockStore) RevenueBetween(_ context.Context, start, _ time.Time) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if v, ok := m.revenue[start.Format(time.DateOnly)]; ok {
		return v, nil
	}
	return m.revenue["*"], nil
}

func (m *mockStore) CountCompletedBetween(_ context.Context, _, _ time.Time) (int64, error) {
	return m.completedCount, m.err
}

func (m *mockStore) CountActive(_ context.Context) (int64, error) { return m.active, m.err }
func (m *mockStore) CountAll(_ context.Context) (int64, error)    { return m.all, m.err }

func (m *mockStore) TopSellingItems(_ context.Context, _, _ time.Time, _ int) ([]ItemSales, error) {
	return m.topItems, m.err
}

var anchor = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestParseRange(t *testing.T) {
	rng, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeWeekly, rng)

	for _, s := range []string{"daily", "weekly", "monthly"} {
		rng, err := ParseRange(s)
		require.NoError(t, err)
		assert.Equal(t, Range(s), rng)
	}

	_, err = ParseRange("yearly")
	assert.Error(t, err)
}

func TestDashboard_EmptyWindow(t *testing.T) {
	svc := NewService(&mockStore{})

	d, err := svc.Dashboard(context.Background(), RangeWeekly, anchor)
	require.NoError(t, err)

	assert.Equal(t, PeakHourNone, d.PeakHour)
	assert.Zero(t, d.AvgWaitMinutes)
	assert.Empty(t, d.DemandAnalysis)

	// Bucket skeletons are always full, even with no data.
	assert.Len(t, d.SalesTrend, 7)
	assert.Len(t, d.HourlyPattern, 13)
	for _, p := range d.SalesTrend {
		assert.Zero(t, p.Revenue)
	}
}

func TestDashboard_Counts(t *testing.T) {
	svc := NewService(&mockStore{
		active:         3,
		all:            120,
		completedCount: 17,
		revenue: map[string]int64{
			"2025-03-10": 50_000,  // today
			"2025-03-04": 300_000, // trailing week
			"2025-02-09": 900_000, // trailing month
		},
	})

	d, err := svc.Dashboard(context.Background(), RangeWeekly, anchor)
	require.NoError(t, err)

	assert.Equal(t, int64(3), d.ActiveOrders)
	assert.Equal(t, int64(120), d.TotalOrders)
	assert.Equal(t, int64(17), d.CompletedToday)
	assert.Equal(t, int64(50_000), d.RevenueToday)
	assert.Equal(t, int64(300_000), d.RevenueWeekly)
	assert.Equal(t, int64(900_000), d.RevenueMonthly)
}

func TestDashboard_StoreErrorPropagates(t *testing.T) {
	svc := NewService(&mockStore{err: errors.New("db down")})

	_, err := svc.Dashboard(context.Background(), RangeDaily, anchor)
	require.Error(t, err)
}

func TestPeakHourLabel(t *testing.T) {
	t.Run("busiest hour wins", func(t *testing.T) {
		orders := []OrderRecord{
			{CreatedAt: at(12, 5)},
			{CreatedAt: at(12, 40)},
			{CreatedAt: at(9, 10)},
		}
		assert.Equal(t, "12:00", peakHourLabel(orders))
	})

	t.Run("tie breaks toward lowest hour", func(t *testing.T) {
		orders := []OrderRecord{
			{CreatedAt: at(9, 0)},
			{CreatedAt: at(13, 0)},
		}
		assert.Equal(t, "09:00", peakHourLabel(orders))
	})

	t.Run("empty window", func(t *testing.T) {
		assert.Equal(t, PeakHourNone, peakHourLabel(nil))
	})
}

func TestAverageWaitMinutes(t *testing.T) {
	done := func(created time.Time, wait time.Duration) OrderRecord {
		completedAt := created.Add(wait)
		return OrderRecord{CreatedAt: created, CompletedAt: &completedAt}
	}

	t.Run("rounds to nearest minute", func(t *testing.T) {
		completed := []OrderRecord{
			done(at(12, 0), 10*time.Minute),
			done(at(12, 0), 15*time.Minute),
		}
		assert.Equal(t, int64(13), averageWaitMinutes(completed)) // 12.5 rounds up
	})

	t.Run("skips orders without completion time", func(t *testing.T) {
		completed := []OrderRecord{
			done(at(12, 0), 10*time.Minute),
			{CreatedAt: at(12, 0)},
		}
		assert.Equal(t, int64(10), averageWaitMinutes(completed))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Zero(t, averageWaitMinutes(nil))
	})
}

func TestDemandTiers(t *testing.T) {
	items := []ItemSales{
		{MenuItemID: 1, Name: "Dosa", Sold: 100},
		{MenuItemID: 2, Name: "Thali", Sold: 80}, // exactly 80% -> high
		{MenuItemID: 3, Name: "Roll", Sold: 79},  // just under -> medium
		{MenuItemID: 4, Name: "Chai", Sold: 40},  // exactly 40% -> medium
		{MenuItemID: 5, Name: "Samosa", Sold: 39},
		{MenuItemID: 6, Name: "Coffee", Sold: 0},
	}

	tiers := demandTiers(items)
	require.Len(t, tiers, 6)
	assert.Equal(t, "high", tiers[0].Demand)
	assert.Equal(t, "high", tiers[1].Demand)
	assert.Equal(t, "medium", tiers[2].Demand)
	assert.Equal(t, "medium", tiers[3].Demand)
	assert.Equal(t, "low", tiers[4].Demand)
	assert.Equal(t, "low", tiers[5].Demand)

	assert.Empty(t, demandTiers(nil))

	// All-zero sales must not divide by zero.
	zero := demandTiers([]ItemSales{{Name: "Dosa", Sold: 0}})
	require.Len(t, zero, 1)
	assert.Equal(t, "low", zero[0].Demand)
}

func TestTrendSeries(t *testing.T) {
	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("daily has 24 hourly buckets", func(t *testing.T) {
		orders := []OrderRecord{
			{Status: order.StatusCompleted, TotalAmount: 100, CreatedAt: at(9, 15)},
			{Status: order.StatusOrdered, TotalAmount: 50, CreatedAt: at(9, 45)},
			{Status: order.StatusCancelled, TotalAmount: 999, CreatedAt: at(9, 50)},
		}

		points := trendSeries(RangeDaily, dayStart, orders)
		require.Len(t, points, 24)
		assert.Equal(t, "00:00", points[0].Label)
		assert.Equal(t, "09:00", points[9].Label)
		assert.Equal(t, int64(150), points[9].Revenue) // cancelled excluded
	})

	t.Run("weekly has 7 daily buckets ending on anchor", func(t *testing.T) {
		start := dayStart.AddDate(0, 0, -6)
		orders := []OrderRecord{
			{Status: order.StatusCompleted, TotalAmount: 700, CreatedAt: dayStart.Add(10 * time.Hour)},
			{Status: order.StatusCompleted, TotalAmount: 100, CreatedAt: start.Add(8 * time.Hour)},
		}

		points := trendSeries(RangeWeekly, start, orders)
		require.Len(t, points, 7)
		assert.Equal(t, start.Format("Mon"), points[0].Label)
		assert.Equal(t, int64(100), points[0].Revenue)
		assert.Equal(t, int64(700), points[6].Revenue)
	})

	t.Run("monthly has 30 buckets", func(t *testing.T) {
		start := dayStart.AddDate(0, 0, -29)
		points := trendSeries(RangeMonthly, start, nil)
		require.Len(t, points, 30)
		assert.Equal(t, start.Format("02 Jan"), points[0].Label)
		assert.Equal(t, dayStart.Format("02 Jan"), points[29].Label)
	})
}

func TestHourlyPattern(t *testing.T) {
	orders := []OrderRecord{
		{CreatedAt: at(8, 59)},  // before counter hours
		{CreatedAt: at(9, 0)},   // first bucket
		{CreatedAt: at(13, 30)}, // lunch
		{CreatedAt: at(13, 45)},
		{CreatedAt: at(21, 59)}, // last bucket
		{CreatedAt: at(22, 0)},  // after counter hours
	}

	pattern := hourlyPattern(orders)
	require.Len(t, pattern, 13)
	assert.Equal(t, "09:00", pattern[0].Hour)
	assert.Equal(t, int64(1), pattern[0].Orders)
	assert.Equal(t, "13:00", pattern[4].Hour)
	assert.Equal(t, int64(2), pattern[4].Orders)
	assert.Equal(t, "21:00", pattern[12].Hour)
	assert.Equal(t, int64(1), pattern[12].Orders)
}
