// Package menu provides the read-only catalog of sellable items used to
// price orders at submission time.
package menu

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a menu item id does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item is a catalog entry. Price is in integer minor currency units.
// Orders never reference an Item live; they copy name and price at
// creation time so later catalog edits cannot rewrite history.
type Item struct {
	ID              int64
	Name            string
	Description     string
	Category        string
	Price           int64
	Available       bool
	PreparationTime int
	StockQuantity   int
	ImageURL        string
}

// Catalog is the read-only snapshot of the menu.
type Catalog interface {
	// GetByID returns the item with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Item, error)
	// ListAvailable returns all items currently marked available.
	ListAvailable(ctx context.Context) ([]Item, error)
}
