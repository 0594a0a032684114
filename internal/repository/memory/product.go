package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

// ProductRepository implements domain.ProductRepository in process memory.
// It is meant for local development and tests.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

// NewProductRepository creates an empty in-memory product repository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]*domain.Product)}
}

// Create creates a new product
func (r *ProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.products[product.ID] = clone(product)
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(p), nil
}

// Update updates an existing product
func (r *ProductRepository) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return domain.ErrNotFound
	}
	r.products[product.ID] = clone(product)
	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// Find returns the window of matching products in sort order
func (r *ProductRepository) Find(ctx context.Context, filter domain.ProductFilter, sort domain.SortSpec, window domain.Window) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(p, filter) {
			matched = append(matched, clone(p))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *domain.Product) int {
		for _, key := range sort {
			if c := compareField(a, b, key.Field); c != 0 {
				return c * int(key.Direction)
			}
		}
		return 0
	})

	start := min(max(window.Offset, 0), int64(len(matched)))
	end := int64(len(matched))
	if window.Limit > 0 {
		end = min(start+window.Limit, end)
	}
	return matched[start:end], nil
}

// Count returns the number of matching products
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if matches(p, filter) {
			n++
		}
	}
	return n, nil
}

// Distinct returns the distinct non-empty values of a facet field
func (r *ProductRepository) Distinct(_ context.Context, field domain.FacetField) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range r.products {
		for _, v := range facetValues(p, field) {
			if v != "" {
				seen[v] = struct{}{}
			}
		}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	slices.Sort(values)
	return values, nil
}

// AddToCounter adds delta to a counter, never going below zero
func (r *ProductRepository) AddToCounter(_ context.Context, id string, counter domain.Counter, delta int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	switch counter {
	case domain.CounterViews:
		p.Views = max(p.Views+delta, 0)
	case domain.CounterSales:
		p.Sales = max(p.Sales+delta, 0)
	default:
		return nil, domain.ErrInvalidInput
	}
	p.UpdatedAt = time.Now().UTC()

	return clone(p), nil
}

func matches(p *domain.Product, f domain.ProductFilter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		found := false
		for _, field := range domain.SearchFields {
			if strings.Contains(strings.ToLower(stringField(p, field)), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for field, wanted := range f.Facets {
		if len(wanted) == 0 {
			continue
		}
		hit := false
		for _, v := range facetValues(p, field) {
			if slices.Contains(wanted, v) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if f.MinPrice != nil && p.FinalPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.FinalPrice > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.MinDiscount != nil && p.Discount < *f.MinDiscount {
		return false
	}
	return true
}

func facetValues(p *domain.Product, field domain.FacetField) []string {
	switch field {
	case domain.FacetColor:
		return p.Color
	case domain.FacetLocation:
		return p.Location
	default:
		return []string{stringField(p, string(field))}
	}
}

func stringField(p *domain.Product, field string) string {
	switch field {
	case domain.FieldID:
		return p.ID
	case domain.FieldTitle:
		return p.Title
	case "description":
		return p.Description
	case "category":
		return p.Category
	case "brand":
		return p.Brand
	case "material":
		return p.Material
	case "origin":
		return p.Origin
	}
	return ""
}

func numberField(p *domain.Product, field string) (float64, bool) {
	switch field {
	case "originalPrice":
		return p.OriginalPrice, true
	case "discount":
		return p.Discount, true
	case domain.FieldFinalPrice:
		return p.FinalPrice, true
	case "quantity":
		return float64(p.Quantity), true
	case "stock":
		return float64(p.Stock), true
	case domain.FieldRating:
		return p.Rating, true
	case "weight":
		return p.Weight, true
	case domain.FieldViews:
		return float64(p.Views), true
	case domain.FieldSales:
		return float64(p.Sales), true
	}
	return 0, false
}

func compareField(a, b *domain.Product, field string) int {
	switch field {
	case domain.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	if x, ok := numberField(a, field); ok {
		y, _ := numberField(b, field)
		return cmp.Compare(x, y)
	}
	return cmp.Compare(stringField(a, field), stringField(b, field))
}

func clone(p *domain.Product) *domain.Product {
	c := *p
	c.Color = slices.Clone(p.Color)
	c.Location = slices.Clone(p.Location)
	return &c
}
