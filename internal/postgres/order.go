package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amoghsy/CampoBite/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `o.id, o.token_number, o.user_id, u.email, u.name, o.status,
	o.total_amount, o.coupon_code, o.discount_amount, o.item_names,
	COALESCE(o.otp, ''), o.otp_expiry, o.version, o.created_at, o.completed_at`

// Create persists the order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (token_number, user_id, status, total_amount,
			coupon_code, discount_amount, item_names, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		o.TokenNumber, o.UserID, o.Status, o.TotalAmount,
		o.CouponCode, o.DiscountAmount, o.ItemNames, o.Version, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			it.OrderID, it.MenuItemID, it.Name, it.UnitPrice, it.Quantity,
		).Scan(&it.ID)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// GetByID returns an order with its items and owner contact info, or
// order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o JOIN users u ON u.id = o.user_id
		 WHERE o.id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}

	if err := r.attachItems(ctx, []*order.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o JOIN users u ON u.id = o.user_id
		 WHERE o.user_id = $1
		 ORDER BY o.created_at DESC`, userID)
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o JOIN users u ON u.id = o.user_id
		 ORDER BY o.created_at DESC`)
}

// UpdateStatus applies a transition using an optimistic version check.
// When the row exists but the version moved on, the caller lost a
// concurrent race and gets order.ErrConflict.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	var otp any
	if o.OTP != "" {
		otp = o.OTP
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET status = $1, otp = $2, otp_expiry = $3, completed_at = $4,
		     version = version + 1
		 WHERE id = $5 AND version = $6`,
		o.Status, otp, o.OTPExpiry, o.CompletedAt, o.ID, o.Version)
	if err != nil {
		return errors.Wrapf(err, "update order %d", o.ID)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists)
		if err != nil {
			return errors.Wrapf(err, "check order %d", o.ID)
		}
		if !exists {
			return order.ErrNotFound
		}
		return order.ErrConflict
	}

	o.Version++
	return nil
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of the given orders in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, menu_item_id, name, unit_price, quantity
		 FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	defer rows.Close()

	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return errors.Wrap(err, "scan order item")
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.TokenNumber, &o.UserID, &o.UserEmail, &o.UserName,
		&o.Status, &o.TotalAmount, &o.CouponCode, &o.DiscountAmount, &o.ItemNames,
		&o.OTP, &o.OTPExpiry, &o.Version, &o.CreatedAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
