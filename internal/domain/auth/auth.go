// Package auth defines the trusted principal attached to authenticated
// requests. Identity itself is an external collaborator; this service
// only consumes API keys that map to known users.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// Roles a principal may hold.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// ErrUnauthorized is returned when no valid principal can be resolved.
var ErrUnauthorized = errors.New("unauthorized")

// Principal is the identity behind an API key.
type Principal struct {
	UserID  int64
	Email   string
	Name    string
	Role    string
	KeyHash string
}

// IsAdmin reports whether the principal may call admin endpoints.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Repository resolves API keys, stored as HMAC-SHA256 hex digests.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Principal, error)
}
