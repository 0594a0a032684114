package domain

import (
	"context"
	"math"
	"time"
)

// Dimension holds free-text measurements as entered by catalog editors
type Dimension struct {
	Length string `json:"length" bson:"length"`
	Width  string `json:"width" bson:"width"`
	Height string `json:"height" bson:"height"`
}

// Product represents a catalog item
type Product struct {
	ID            string    `json:"id" bson:"_id"`
	Title         string    `json:"title" bson:"title" validate:"required,min=1,max=255"`
	Description   string    `json:"description" bson:"description"`
	About         string    `json:"about" bson:"about"`
	Category      string    `json:"category" bson:"category" validate:"required,max=100"`
	Image         string    `json:"image" bson:"image"`
	Origin        string    `json:"origin" bson:"origin"`
	OriginalPrice float64   `json:"originalPrice" bson:"originalPrice" validate:"gte=0"`
	Discount      float64   `json:"discount" bson:"discount" validate:"gte=0,lte=100"`
	FinalPrice    float64   `json:"finalPrice" bson:"finalPrice"`
	Quantity      int       `json:"quantity" bson:"quantity" validate:"gte=0"`
	Material      string    `json:"material" bson:"material"`
	Color         []string  `json:"color" bson:"color" validate:"dive,facetvalue"`
	Stock         int       `json:"stock" bson:"stock" validate:"gte=0"`
	Dimension     Dimension `json:"dimension" bson:"dimension"`
	Rating        float64   `json:"rating" bson:"rating" validate:"gte=0,lte=5"`
	Brand         string    `json:"brand" bson:"brand"`
	Weight        float64   `json:"weight" bson:"weight" validate:"gte=0"`
	Location      []string  `json:"location" bson:"location" validate:"dive,facetvalue"`
	Views         int64     `json:"views" bson:"views"`
	Sales         int64     `json:"sales" bson:"sales"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PriceAfterDiscount returns originalPrice reduced by the discount percentage, rounded to cents
func (p *Product) PriceAfterDiscount() float64 {
	return math.Round(p.OriginalPrice*(1-p.Discount/100)*100) / 100
}

// Counter names a product counter that can be bumped atomically
type Counter string

const (
	CounterViews Counter = "views"
	CounterSales Counter = "sales"
)

// ProductRepository defines the interface for product data access.
// Find and Count must apply the same filter translation.
type ProductRepository interface {
	// Create inserts a new product; ID and timestamps must already be set
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id string) (*Product, error)

	// Update replaces the editable fields of a product
	Update(ctx context.Context, product *Product) error

	// Delete removes a product
	Delete(ctx context.Context, id string) error

	// Find returns the window of products matching filter in sort order
	Find(ctx context.Context, filter ProductFilter, sort SortSpec, window Window) ([]*Product, error)

	// Count returns the number of products matching filter, ignoring any window
	Count(ctx context.Context, filter ProductFilter) (int64, error)

	// Distinct returns the distinct non-empty values of a facet field
	Distinct(ctx context.Context, field FacetField) ([]string, error)

	// AddToCounter adds delta to a counter and returns the updated product.
	// A negative delta never takes the counter below zero.
	AddToCounter(ctx context.Context, id string, counter Counter, delta int64) (*Product, error)
}
