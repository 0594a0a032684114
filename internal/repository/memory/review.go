package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository in process memory
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string][]*domain.Review
}

// NewReviewRepository creates an empty in-memory review repository
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{reviews: make(map[string][]*domain.Review)}
}

// Add stores a review under its product
func (r *ReviewRepository) Add(review *domain.Review) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *review
	r.reviews[review.ProductID] = append(r.reviews[review.ProductID], &c)
}

// Create stores a review
func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.Add(review)
	return nil
}

// ListByProductID returns the reviews of a product, newest first
func (r *ReviewRepository) ListByProductID(_ context.Context, productID string) ([]*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*domain.Review, 0, len(r.reviews[productID]))
	for _, rv := range r.reviews[productID] {
		c := *rv
		list = append(list, &c)
	}
	slices.SortStableFunc(list, func(a, b *domain.Review) int {
		return b.Date.Compare(a.Date)
	})
	return list, nil
}

// DeleteByProductID removes every review of a product
func (r *ReviewRepository) DeleteByProductID(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.reviews, productID)
	return nil
}
