package domain

import (
	"context"
	"time"
)

// Review is a customer review attached to a product
type Review struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	ProductID string    `json:"productId" bson:"productId" db:"product_id"`
	UserID    string    `json:"userId" bson:"userId" db:"user_id"`
	Comment   string    `json:"comment" bson:"comment" db:"comment"`
	Rating    float64   `json:"rating" bson:"rating" db:"rating"`
	Date      time.Time `json:"date" bson:"date" db:"date"`
}

// ReviewRepository defines read access to reviews plus the cascade used on product delete
type ReviewRepository interface {
	// ListByProductID returns all reviews of a product, newest first
	ListByProductID(ctx context.Context, productID string) ([]*Review, error)

	// DeleteByProductID removes every review of a product
	DeleteByProductID(ctx context.Context, productID string) error
}
