package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/repository"
	"github.com/utafrali/PatronScore/pkg/database"
	apperrors "github.com/utafrali/PatronScore/pkg/errors"
)

const reviewColumns = `id, customer_id, overall, behavior, payment, maintenance, comment, role, business_name, seq, created_at, updated_at`

// Reviews of one customer, newest first; seq breaks timestamp ties.
const newestFirst = `ORDER BY created_at DESC, seq DESC`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review and reads back the assigned sequence number.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (id, customer_id, overall, behavior, payment, maintenance, comment, role, business_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		rv.ID,
		rv.CustomerID,
		rv.Overall,
		rv.Behavior,
		rv.Payment,
		rv.Maintenance,
		rv.Comment,
		rv.Role,
		rv.BusinessName,
		rv.CreatedAt,
		rv.UpdatedAt,
	).Scan(&rv.Seq)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetReviewByID", query)
	defer func() { end(err) }()

	var rv domain.Review
	if err = scanReview(r.pool.QueryRow(ctx, query, id), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rv, nil
}

// Update stores the ratings, comment, role and business of a review.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) (err error) {
	query := `
		UPDATE reviews
		SET overall = $1, behavior = $2, payment = $3, maintenance = $4,
		    comment = $5, role = $6, business_name = $7, updated_at = $8
		WHERE id = $9`

	ctx, end := database.TraceQuery(ctx, "UpdateReview", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		rv.Overall,
		rv.Behavior,
		rv.Payment,
		rv.Maintenance,
		rv.Comment,
		rv.Role,
		rv.BusinessName,
		rv.UpdatedAt,
		rv.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", rv.ID)
	}
	return nil
}

// Delete removes a review by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteReview", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

// ListByCustomer returns all reviews of a customer, newest first.
func (r *ReviewRepository) ListByCustomer(ctx context.Context, customerID string) (_ []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE customer_id = $1 ` + newestFirst

	ctx, end := database.TraceQuery(ctx, "ListReviewsByCustomer", query)
	defer func() { end(err) }()

	return r.query(ctx, query, customerID)
}

// ListRecentByCustomer returns at most limit reviews of a customer, newest first.
func (r *ReviewRepository) ListRecentByCustomer(ctx context.Context, customerID string, limit int) (_ []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE customer_id = $1 ` + newestFirst + ` LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListRecentReviewsByCustomer", query)
	defer func() { end(err) }()

	return r.query(ctx, query, customerID, limit)
}

// StatsByCustomer returns the number of reviews of a customer and the latest
// updated_at among them.
func (r *ReviewRepository) StatsByCustomer(ctx context.Context, customerID string) (_ repository.ReviewStats, err error) {
	query := `SELECT count(*), max(updated_at) FROM reviews WHERE customer_id = $1`

	ctx, end := database.TraceQuery(ctx, "ReviewStatsByCustomer", query)
	defer func() { end(err) }()

	var stats repository.ReviewStats
	if err = r.pool.QueryRow(ctx, query, customerID).Scan(&stats.Count, &stats.LastUpdatedAt); err != nil {
		return repository.ReviewStats{}, fmt.Errorf("review stats: %w", err)
	}
	return stats, nil
}

// ListByBusiness returns a page of reviews left at a business, matched
// case-insensitively, along with the total count.
func (r *ReviewRepository) ListByBusiness(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, _ int, err error) {
	query := `
		SELECT ` + reviewColumns + `, count(*) OVER() AS total_count
		FROM reviews
		WHERE lower(business_name) = lower($1)
		` + newestFirst + `
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListReviewsByBusiness", query)
	defer func() { end(err) }()

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	rows, err := r.pool.Query(ctx, query, filter.BusinessName, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews by business: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(append(reviewDest(&rv), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, totalCount, nil
}

func (r *ReviewRepository) query(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

func reviewDest(rv *domain.Review) []any {
	return []any{
		&rv.ID,
		&rv.CustomerID,
		&rv.Overall,
		&rv.Behavior,
		&rv.Payment,
		&rv.Maintenance,
		&rv.Comment,
		&rv.Role,
		&rv.BusinessName,
		&rv.Seq,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	}
}

func scanReview(row pgx.Row, rv *domain.Review) error {
	return row.Scan(reviewDest(rv)...)
}
