package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

const reviewsCollection = "reviews"

// ReviewRepository implements domain.ReviewRepository for MongoDB
type ReviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a new MongoDB review repository
func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(reviewsCollection)}
}

// EnsureIndexes indexes reviews by product
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "productId", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

// Create stores a review
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	_, err := r.coll.InsertOne(ctx, review)
	return err
}

// ListByProductID returns the reviews of a product, newest first
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string) ([]*domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []*domain.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// DeleteByProductID removes every review of a product
func (r *ReviewRepository) DeleteByProductID(ctx context.Context, productID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"productId": productID})
	return err
}
