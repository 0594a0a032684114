package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores a review
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, comment, rating, date)
		VALUES (:id, :product_id, :user_id, :comment, :rating, :date)
	`
	_, err := r.db.NamedExecContext(ctx, query, review)
	return err
}

// ListByProductID returns the reviews of a product, newest first
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string) ([]*domain.Review, error) {
	query := `
		SELECT id, product_id, user_id, comment, rating, date
		FROM reviews
		WHERE product_id = $1
		ORDER BY date DESC
	`

	reviews := []*domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, err
	}
	return reviews, nil
}

// DeleteByProductID removes every review of a product
func (r *ReviewRepository) DeleteByProductID(ctx context.Context, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE product_id = $1`, productID)
	return err
}
