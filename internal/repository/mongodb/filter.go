package mongodb

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

// buildFilter translates a product filter into a MongoDB query document.
// Find and Count both go through here.
func buildFilter(f domain.ProductFilter) bson.M {
	filter := bson.M{}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := make(bson.A, 0, len(domain.SearchFields))
		for _, field := range domain.SearchFields {
			or = append(or, bson.M{field: bson.M{"$regex": pattern}})
		}
		filter["$or"] = or
	}

	// $in matches any element when the stored field is an array
	for _, field := range domain.Facets {
		if values := f.Facets[field]; len(values) > 0 {
			filter[string(field)] = bson.M{"$in": values}
		}
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter[domain.FieldFinalPrice] = price
	}

	if f.MinRating != nil {
		filter[domain.FieldRating] = bson.M{"$gte": *f.MinRating}
	}
	if f.MinDiscount != nil {
		filter["discount"] = bson.M{"$gte": *f.MinDiscount}
	}

	return filter
}

func buildSort(spec domain.SortSpec) bson.D {
	sort := make(bson.D, 0, len(spec))
	for _, key := range spec {
		sort = append(sort, bson.E{Key: key.Field, Value: int(key.Direction)})
	}
	return sort
}

// counterUpdate adds delta to a counter in one atomic pipeline update, clamping at zero
func counterUpdate(field string, delta int64, now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: field, Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}},
					delta,
				}}},
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
}
