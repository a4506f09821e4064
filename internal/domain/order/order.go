// Package order implements the order lifecycle: creation with coupon
// pricing, the status state machine, and OTP-gated pickup completion.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for order operations.
var (
	ErrEmptyItems = errors.New("order must contain at least one item")
	ErrNotFound   = errors.New("order not found")
	ErrForbidden  = errors.New("order belongs to another user")
	ErrInvalidOTP = errors.New("invalid otp")
	ErrOTPExpired = errors.New("otp expired")
	// ErrConflict is returned when a concurrent transition won the
	// optimistic version check. The caller may retry from a fresh read.
	ErrConflict = errors.New("order was modified concurrently")
)

// ItemNotFoundError indicates a requested menu item does not exist.
type ItemNotFoundError struct {
	MenuItemID int64
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %d not found", e.MenuItemID)
}

// ItemUnavailableError indicates a menu item is not currently sellable.
type ItemUnavailableError struct {
	MenuItemID int64
	Name       string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("menu item %q is not available", e.Name)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	MenuItemID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for menu item %d", e.MenuItemID)
}

// InvalidTransitionError indicates an illegal status edge was requested.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Item is a line of an order. Name and UnitPrice are frozen copies of
// the menu item at order time.
type Item struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Name       string
	UnitPrice  int64
	Quantity   int
}

// Order is the aggregate mutated only by the lifecycle Service. Amounts
// are integer minor currency units. OTP and OTPExpiry are set only
// while Status is READY. CompletedAt is set exactly once, when the
// order completes.
type Order struct {
	ID             int64
	TokenNumber    int
	UserID         int64
	UserEmail      string
	UserName       string
	Status         Status
	TotalAmount    int64
	CouponCode     string
	DiscountAmount int64
	ItemNames      string
	OTP            string
	OTPExpiry      *time.Time
	Version        int32
	CreatedAt      time.Time
	CompletedAt    *time.Time
	Items          []Item
}

// summarizeItems builds the human-readable item summary stored on the
// order, e.g. "Masala Dosa x2, Chai x1".
func summarizeItems(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s x%d", it.Name, it.Quantity)
	}
	return strings.Join(parts, ", ")
}

// Repository provides persistence for orders. Create persists the order
// and its items atomically. UpdateStatus applies a transition with an
// optimistic check on Version and returns ErrConflict when it loses a
// race; on success it increments the in-memory Version to match.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
}
