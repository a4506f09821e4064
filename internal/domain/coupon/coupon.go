// Package coupon holds the coupon model and the resolver that validates
// codes and computes discounts.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a coupon code is unknown.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when a coupon exists but is switched off.
	ErrInactive = errors.New("coupon is inactive")
	// ErrExpired is returned when a coupon's expiry date has passed.
	ErrExpired = errors.New("coupon has expired")
	// ErrDuplicateCode is returned when creating a coupon whose code
	// already exists.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Coupon grants a percentage discount on an order subtotal. Codes are
// stored upper-cased; lookups normalize the input the same way.
type Coupon struct {
	ID                 int64
	Code               string
	DiscountPercentage int
	ExpiryDate         *time.Time
	Active             bool
}

// DiscountFor computes the discount in minor currency units for the given
// subtotal, using integer floor division. The result is never negative
// and never exceeds the subtotal since the percentage is within [0,100].
func (c *Coupon) DiscountFor(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return subtotal * int64(c.DiscountPercentage) / 100
}

// Repository provides persistence for coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id int64) error
}
