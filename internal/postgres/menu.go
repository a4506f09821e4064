package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amoghsy/CampoBite/internal/domain/menu"
)

var _ menu.Catalog = (*MenuRepository)(nil)

// MenuRepository implements menu.Catalog backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

const menuColumns = `id, name, description, category, price, available, preparation_time, stock_quantity, image_url`

// GetByID returns a single menu item, or menu.ErrNotFound.
func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*menu.Item, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id)

	var it menu.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Category, &it.Price,
		&it.Available, &it.PreparationTime, &it.StockQuantity, &it.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get menu item %d", id)
	}
	return &it, nil
}

// ListAvailable returns all items currently marked available.
func (r *MenuRepository) ListAvailable(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE available ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list menu items")
	}
	defer rows.Close()

	var items []menu.Item
	for rows.Next() {
		var it menu.Item
		err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Category, &it.Price,
			&it.Available, &it.PreparationTime, &it.StockQuantity, &it.ImageURL)
		if err != nil {
			return nil, errors.Wrap(err, "scan menu item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
