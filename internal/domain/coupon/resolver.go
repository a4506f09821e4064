package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Resolver validates a coupon code at a point in time and returns the
// matching coupon when it is usable.
type Resolver interface {
	Resolve(ctx context.Context, code string, at time.Time) (*Coupon, error)
}

// RepoResolver implements Resolver by looking up codes in a Repository.
type RepoResolver struct {
	repo Repository
}

// NewRepoResolver creates a RepoResolver backed by the given Repository.
func NewRepoResolver(repo Repository) *RepoResolver {
	return &RepoResolver{repo: repo}
}

// Resolve normalizes the code, looks it up, and checks the active flag
// and expiry date. The expiry check is date-granular: a coupon expiring
// today is still valid for the whole day.
func (r *RepoResolver) Resolve(ctx context.Context, code string, at time.Time) (*Coupon, error) {
	c, err := r.repo.FindByCode(ctx, Normalize(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.Active {
		return nil, ErrInactive
	}
	if c.ExpiryDate != nil {
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
		if c.ExpiryDate.Before(day) {
			return nil, ErrExpired
		}
	}

	return c, nil
}

// Normalize upper-cases and trims a coupon code for storage and lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
