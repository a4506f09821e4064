package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amoghsy/CampoBite/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository implements auth.Repository backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash resolves an API key digest to its owning user. Returns
// auth.ErrUnauthorized when the key is unknown.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT k.key_hash, u.id, u.email, u.name, u.role
		 FROM api_keys k JOIN users u ON u.id = k.user_id
		 WHERE k.key_hash = $1`, hash)

	var p auth.Principal
	if err := row.Scan(&p.KeyHash, &p.UserID, &p.Email, &p.Name, &p.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}
	return &p, nil
}
