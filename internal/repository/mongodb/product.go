package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

const productsCollection = "products"

// ProductRepository implements domain.ProductRepository for MongoDB
type ProductRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a new MongoDB product repository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

// EnsureIndexes creates the indexes used by filters, facets and top lists
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	fields := []string{
		"category", "brand", "material", "color", "location",
		domain.FieldFinalPrice, domain.FieldRating, domain.FieldViews, domain.FieldSales, domain.FieldCreatedAt,
	}

	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Update sets the editable fields of a product. Counters and createdAt are left alone.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	update := bson.M{"$set": bson.M{
		"title":         product.Title,
		"description":   product.Description,
		"about":         product.About,
		"category":      product.Category,
		"image":         product.Image,
		"origin":        product.Origin,
		"originalPrice": product.OriginalPrice,
		"discount":      product.Discount,
		"finalPrice":    product.FinalPrice,
		"quantity":      product.Quantity,
		"material":      product.Material,
		"color":         product.Color,
		"stock":         product.Stock,
		"dimension":     product.Dimension,
		"rating":        product.Rating,
		"brand":         product.Brand,
		"weight":        product.Weight,
		"location":      product.Location,
		"updatedAt":     product.UpdatedAt,
	}}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Find returns the window of matching products in sort order
func (r *ProductRepository) Find(ctx context.Context, filter domain.ProductFilter, sort domain.SortSpec, window domain.Window) ([]*domain.Product, error) {
	opts := options.Find().SetSort(buildSort(sort))
	if window.Offset > 0 {
		opts.SetSkip(window.Offset)
	}
	if window.Limit > 0 {
		opts.SetLimit(window.Limit)
	}

	cursor, err := r.coll.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Count returns the number of matching products
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, buildFilter(filter))
}

// Distinct returns the distinct non-empty values of a facet field
func (r *ProductRepository) Distinct(ctx context.Context, field domain.FacetField) ([]string, error) {
	raw, err := r.coll.Distinct(ctx, string(field), bson.M{})
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	return values, nil
}

// AddToCounter adds delta to a counter and returns the updated product
func (r *ProductRepository) AddToCounter(ctx context.Context, id string, counter domain.Counter, delta int64) (*domain.Product, error) {
	var field string
	switch counter {
	case domain.CounterViews:
		field = domain.FieldViews
	case domain.CounterSales:
		field = domain.FieldSales
	default:
		return nil, domain.ErrInvalidInput
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product domain.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, counterUpdate(field, delta, time.Now().UTC()), opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}
