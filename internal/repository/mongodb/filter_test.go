package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestBuildFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(domain.ProductFilter{}))
}

func TestBuildFilter_Search(t *testing.T) {
	filter := buildFilter(domain.ProductFilter{Search: "oak (solid)"})

	or, ok := filter["$or"].(bson.A)
	assert.True(t, ok)
	assert.Len(t, or, len(domain.SearchFields))

	want := primitive.Regex{Pattern: `oak \(solid\)`, Options: "i"}
	assert.Equal(t, bson.M{"title": bson.M{"$regex": want}}, or[0])
	assert.Equal(t, bson.M{"material": bson.M{"$regex": want}}, or[4])
}

func TestBuildFilter_FacetsAndBounds(t *testing.T) {
	filter := buildFilter(domain.ProductFilter{
		Facets: map[domain.FacetField][]string{
			domain.FacetCategory: {"sofa"},
			domain.FacetColor:    {"#000000", "#FFFFFF"},
			domain.FacetBrand:    {},
		},
		MinPrice:    ptr(100),
		MaxPrice:    ptr(300),
		MinRating:   ptr(4),
		MinDiscount: ptr(10),
	})

	assert.Equal(t, bson.M{
		"category":   bson.M{"$in": []string{"sofa"}},
		"color":      bson.M{"$in": []string{"#000000", "#FFFFFF"}},
		"finalPrice": bson.M{"$gte": 100.0, "$lte": 300.0},
		"rating":     bson.M{"$gte": 4.0},
		"discount":   bson.M{"$gte": 10.0},
	}, filter)
}

func TestBuildFilter_OnlyMaxPrice(t *testing.T) {
	filter := buildFilter(domain.ProductFilter{MaxPrice: ptr(50)})
	assert.Equal(t, bson.M{"finalPrice": bson.M{"$lte": 50.0}}, filter)
}

func TestBuildSort(t *testing.T) {
	sort := buildSort(domain.SortSpec{
		{Field: "finalPrice", Direction: domain.Descending},
		{Field: "_id", Direction: domain.Descending},
	})

	assert.Equal(t, bson.D{{Key: "finalPrice", Value: -1}, {Key: "_id", Value: -1}}, sort)
}

func TestCounterUpdate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pipeline := counterUpdate("sales", -1, now)

	assert.Len(t, pipeline, 1)
	set := pipeline[0][0]
	assert.Equal(t, "$set", set.Key)

	fields := set.Value.(bson.D)
	assert.Equal(t, "sales", fields[0].Key)
	assert.Equal(t, bson.D{{Key: "$max", Value: bson.A{
		0,
		bson.D{{Key: "$add", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$sales", 0}}},
			int64(-1),
		}}},
	}}}, fields[0].Value)
	assert.Equal(t, bson.E{Key: "updatedAt", Value: now}, fields[1])
}
