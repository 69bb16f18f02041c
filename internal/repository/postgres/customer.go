package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/repository"
	"github.com/utafrali/PatronScore/pkg/database"
	apperrors "github.com/utafrali/PatronScore/pkg/errors"
)

const customerColumns = `id, lookup_key, display_name, created_at`

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	pool database.DBTX
	now  func() time.Time
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository creates a new PostgreSQL-backed customer repository.
func NewCustomerRepository(pool database.DBTX) *CustomerRepository {
	return &CustomerRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Upsert inserts a customer for lookupKey or returns the existing one. A
// concurrent first review for the same number resolves to a single row.
func (r *CustomerRepository) Upsert(ctx context.Context, lookupKey string, displayName *string) (_ *domain.Customer, err error) {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lookup_key) DO UPDATE
		SET display_name = COALESCE(EXCLUDED.display_name, customers.display_name)
		RETURNING ` + customerColumns

	ctx, end := database.TraceQuery(ctx, "UpsertCustomer", query)
	defer func() { end(err) }()

	var c domain.Customer
	err = r.pool.QueryRow(ctx, query, uuid.New().String(), lookupKey, displayName, r.now()).Scan(
		&c.ID,
		&c.LookupKey,
		&c.DisplayName,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return &c, nil
}

// GetByLookupKey retrieves a customer by its lookup key.
func (r *CustomerRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE lookup_key = $1`
	return r.scanCustomer(ctx, "GetCustomerByLookupKey", query, lookupKey)
}

// GetByID retrieves a customer by its ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanCustomer(ctx, "GetCustomerByID", query, id)
}

func (r *CustomerRepository) scanCustomer(ctx context.Context, op, query string, args ...any) (_ *domain.Customer, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var c domain.Customer
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.LookupKey,
		&c.DisplayName,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}
