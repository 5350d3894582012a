package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the customer does not exist.
var ErrNotFound = errors.New("customers: not found")

// Repository provides read-only access to the customer directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile fetches one customer profile by ID.
func (r *Repository) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	query := `
		SELECT id, customer_type, COALESCE(prefix, ''), COALESCE(first_name, ''),
			COALESCE(last_name, ''), COALESCE(company_name, ''),
			COALESCE(phone, ''), COALESCE(address, '')
		FROM customers
		WHERE id = $1`
	var p Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Type, &p.Prefix, &p.FirstName, &p.LastName,
		&p.CompanyName, &p.Phone, &p.Address,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
