package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amoghsy/CampoBite/internal/domain/analytics"
	"github.com/Amoghsy/CampoBite/internal/domain/order"
)

var _ analytics.Store = (*AnalyticsStore)(nil)

// AnalyticsStore implements analytics.Store with aggregate queries over
// the order history. It never writes.
type AnalyticsStore struct {
	pool *pgxpool.Pool
}

// NewAnalyticsStore returns an AnalyticsStore that uses the given pool.
func NewAnalyticsStore(pool *pgxpool.Pool) *AnalyticsStore {
	return &AnalyticsStore{pool: pool}
}

// OrdersCreatedBetween returns orders created in [start, end).
func (s *AnalyticsStore) OrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]analytics.OrderRecord, error) {
	return s.records(ctx,
		`SELECT id, status, total_amount, created_at, completed_at
		 FROM orders
		 WHERE created_at >= $1 AND created_at < $2`, start, end)
}

// CompletedOrdersBetween returns COMPLETED orders whose completion time
// falls in [start, end).
func (s *AnalyticsStore) CompletedOrdersBetween(ctx context.Context, start, end time.Time) ([]analytics.OrderRecord, error) {
	return s.records(ctx,
		`SELECT id, status, total_amount, created_at, completed_at
		 FROM orders
		 WHERE status = $1 AND completed_at >= $2 AND completed_at < $3`,
		order.StatusCompleted, start, end)
}

// RevenueBetween sums completed-order revenue over [start, end).
func (s *AnalyticsStore) RevenueBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var revenue int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0)
		 FROM orders
		 WHERE status = $1 AND completed_at >= $2 AND completed_at < $3`,
		order.StatusCompleted, start, end).Scan(&revenue)
	if err != nil {
		return 0, errors.Wrap(err, "sum revenue")
	}
	return revenue, nil
}

// CountCompletedBetween counts completions in [start, end).
func (s *AnalyticsStore) CountCompletedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders
		 WHERE status = $1 AND completed_at >= $2 AND completed_at < $3`,
		order.StatusCompleted, start, end).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count completed")
	}
	return n, nil
}

// CountActive is the live gauge of orders in the kitchen queue.
func (s *AnalyticsStore) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = ANY($1)`,
		statusStrings(order.ActiveStatuses())).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count active")
	}
	return n, nil
}

// CountAll counts every order ever placed.
func (s *AnalyticsStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count orders")
	}
	return n, nil
}

// TopSellingItems ranks menu items by quantity sold across orders
// created in [start, end). Ties break by menu item id so the order is
// stable.
func (s *AnalyticsStore) TopSellingItems(ctx context.Context, start, end time.Time, limit int) ([]analytics.ItemSales, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT oi.menu_item_id, MIN(oi.name), SUM(oi.quantity) AS sold
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.created_at >= $1 AND o.created_at < $2
		 GROUP BY oi.menu_item_id
		 ORDER BY sold DESC, oi.menu_item_id
		 LIMIT $3`, start, end, limit)
	if err != nil {
		return nil, errors.Wrap(err, "top selling items")
	}
	defer rows.Close()

	var sales []analytics.ItemSales
	for rows.Next() {
		var it analytics.ItemSales
		if err := rows.Scan(&it.MenuItemID, &it.Name, &it.Sold); err != nil {
			return nil, errors.Wrap(err, "scan item sales")
		}
		sales = append(sales, it)
	}
	return sales, rows.Err()
}

func (s *AnalyticsStore) records(ctx context.Context, query string, args ...any) ([]analytics.OrderRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	var records []analytics.OrderRecord
	for rows.Next() {
		var rec analytics.OrderRecord
		if err := rows.Scan(&rec.ID, &rec.Status, &rec.TotalAmount, &rec.CreatedAt, &rec.CompletedAt); err != nil {
			return nil, errors.Wrap(err, "scan order record")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func statusStrings(statuses []order.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
