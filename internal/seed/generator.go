// Package seed generates demo furniture products.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

var (
	categories = []string{
		"sofa", "recliner", "dining-table", "double-bed", "study", "mattress", "chair", "center-table",
		"wardrobe", "vase", "outdoor", "dressing-table", "shoe-rack", "bookshelf", "desk", "bed",
	}
	brands = []string{
		"IKEA", "Ashley Furniture Industries", "West Elm", "Restoration Hardware (RH)", "Crate & Barrel",
		"Herman Miller", "La-Z-Boy", "Ethan Allen", "Williams-Sonoma Home", "Pottery Barn",
	}
	materials = []string{"Wood", "Fabric", "Metal", "Plastic"}
	origins   = []string{"Italy", "Denmark", "Sweden", "Germany", "France", "United States", "Norway", "Spain"}
	colors    = []string{"#808080", "#FFFFFF", "#000000", "#F5F5DC", "#DEB887", "#654321", "#000080", "#50C878"}
	locations = []string{
		"Mumbai", "Delhi", "Bangalore", "Kolkata", "Chennai", "Hyderabad", "Pune", "Ahmedabad", "Jaipur", "Chandigarh",
		"Surat", "Lucknow", "Kochi", "Indore", "Nagpur", "Patna", "Visakhapatnam", "Vadodara", "Bhopal", "Coimbatore",
	}
)

const (
	colorsPerProduct    = 3
	locationsPerProduct = 5
	reviewsPerProduct   = 2
	reviewAgeSpan       = 10_000_000 * time.Second
)

// ProductCreator stores a new product, assigning its ID
type ProductCreator interface {
	Create(ctx context.Context, product *domain.Product) error
}

// ReviewCreator stores a review
type ReviewCreator interface {
	Create(ctx context.Context, review *domain.Review) error
}

// Generator builds random but plausible furniture products
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator; equal seeds yield equal products
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

func (g *Generator) pick(list []string) string {
	return list[g.rnd.IntN(len(list))]
}

// pickDistinct returns n distinct entries of list
func (g *Generator) pickDistinct(list []string, n int) []string {
	idx := g.rnd.Perm(len(list))[:min(n, len(list))]
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = list[j]
	}
	return out
}

// Product returns a product without ID; the creator assigns one
func (g *Generator) Product() *domain.Product {
	category := g.pick(categories)
	material := g.pick(materials)
	brand := g.pick(brands)

	return &domain.Product{
		Title:         fmt.Sprintf("%s %s %s", brand, material, category),
		Description:   fmt.Sprintf("A %s %s from %s.", material, category, brand),
		About:         "Demo product generated by catalogctl seed.",
		Category:      category,
		Image:         fmt.Sprintf("https://images.example.com/%s/%s.png", category, uuid.NewString()),
		Origin:        g.pick(origins),
		OriginalPrice: float64(100 + g.rnd.IntN(1000)),
		Discount:      float64(g.rnd.IntN(80)),
		Quantity:      g.rnd.IntN(100),
		Material:      material,
		Color:         g.pickDistinct(colors, colorsPerProduct),
		Stock:         g.rnd.IntN(50) + 1,
		Dimension: domain.Dimension{
			Length: fmt.Sprintf("%dcm", 100+g.rnd.IntN(100)),
			Width:  fmt.Sprintf("%dcm", 50+g.rnd.IntN(50)),
			Height: fmt.Sprintf("%dcm", 50+g.rnd.IntN(50)),
		},
		Rating:   math.Round(g.rnd.Float64()*50) / 10,
		Brand:    brand,
		Weight:   float64(10 + g.rnd.IntN(100)),
		Location: g.pickDistinct(locations, locationsPerProduct),
	}
}

// Reviews returns n reviews of a product dated within the last ~115 days
func (g *Generator) Reviews(productID string, n int) []*domain.Review {
	reviews := make([]*domain.Review, n)
	for i := range reviews {
		reviews[i] = &domain.Review{
			ID:        uuid.NewString(),
			ProductID: productID,
			UserID:    fmt.Sprintf("User%d", g.rnd.IntN(1000)),
			Comment:   "This is a great product. Highly recommended!",
			Rating:    float64(g.rnd.IntN(5) + 1),
			Date:      g.now().Add(-time.Duration(g.rnd.Int64N(int64(reviewAgeSpan)))).UTC(),
		}
	}
	return reviews
}

// Seeder inserts generated products at a bounded rate
type Seeder struct {
	products  ProductCreator
	reviews   ReviewCreator
	generator *Generator
	limiter   *rate.Limiter
	logger    *logger.Logger
}

// NewSeeder creates a seeder inserting at most perSecond products per second.
// perSecond <= 0 removes the limit.
func NewSeeder(products ProductCreator, reviews ReviewCreator, generator *Generator, perSecond float64, log *logger.Logger) *Seeder {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Seeder{
		products:  products,
		reviews:   reviews,
		generator: generator,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    log,
	}
}

// Run inserts count products with their reviews and returns how many were stored
func (s *Seeder) Run(ctx context.Context, count int) (int, error) {
	for i := 0; i < count; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return i, err
		}

		product := s.generator.Product()
		if err := s.products.Create(ctx, product); err != nil {
			return i, fmt.Errorf("create product %d: %w", i+1, err)
		}

		if s.reviews != nil {
			for _, review := range s.generator.Reviews(product.ID, reviewsPerProduct) {
				if err := s.reviews.Create(ctx, review); err != nil {
					return i, fmt.Errorf("create review for %s: %w", product.ID, err)
				}
			}
		}

		if (i+1)%100 == 0 {
			s.logger.Infof("Seeded %d/%d products", i+1, count)
		}
	}

	return count, nil
}
