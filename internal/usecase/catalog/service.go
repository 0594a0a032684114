package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/furniture_catalog/internal/pkg/validator"
)

// Cache stores derived catalog reads. Getters return domain.ErrNotFound on a miss.
type Cache interface {
	GetFacetValues(ctx context.Context, field domain.FacetField) ([]string, error)
	SetFacetValues(ctx context.Context, field domain.FacetField, values []string) error
	GetTopList(ctx context.Context, scope domain.CacheScope, limit int) ([]*domain.Product, error)
	SetTopList(ctx context.Context, scope domain.CacheScope, limit int, products []*domain.Product) error
	InvalidateScopes(ctx context.Context, scopes ...domain.CacheScope) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

const publishTimeout = 5 * time.Second

// Options configures list defaults and limits
type Options struct {
	DefaultLimit int
	MaxLimit     int
	TopLimit     int
	StrictSort   bool
}

// Service implements catalog reads, product administration and counters
type Service struct {
	products  domain.ProductRepository
	reviews   domain.ReviewRepository
	cache     Cache
	publisher EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
	opts      Options
	now       func() time.Time
}

// NewService creates a new catalog service. cache and publisher may be nil.
func NewService(
	products domain.ProductRepository,
	reviews domain.ReviewRepository,
	cache Cache,
	publisher EventPublisher,
	log *logger.Logger,
	opts Options,
) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 12
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = 10
	}
	return &Service{
		products:  products,
		reviews:   reviews,
		cache:     cache,
		publisher: publisher,
		validate:  pkgvalidator.Get(),
		logger:    log,
		opts:      opts,
		now:       time.Now,
	}
}

// ParseQuery normalises list parameters using the service limits
func (s *Service) ParseQuery(values url.Values) QueryRequest {
	return ParseQuery(values, QueryOptions{
		DefaultLimit: s.opts.DefaultLimit,
		MaxLimit:     s.opts.MaxLimit,
		StrictSort:   s.opts.StrictSort,
	})
}

// Search runs a filtered, sorted, paginated product query.
//
// The page and the total are fetched by two independent queries built from the
// same filter. They are not isolated from concurrent writes, so under writes the
// total may disagree with the returned page.
func (s *Service) Search(ctx context.Context, req QueryRequest) (*domain.ProductPage, error) {
	sortSpec, err := ResolveSort(req.SortBy, s.opts.StrictSort)
	if err != nil {
		return nil, err
	}
	filter := BuildFilter(req)

	var (
		products []*domain.Product
		total    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.Find(gctx, filter, sortSpec, req.Window())
		if err != nil {
			return fmt.Errorf("find products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.products.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to search products", err)
		return nil, err
	}

	if products == nil {
		products = []*domain.Product{}
	}

	return &domain.ProductPage{
		Products:    products,
		Total:       total,
		TotalPages:  TotalPages(total, req.Limit),
		CurrentPage: req.Page,
		Limit:       req.Limit,
	}, nil
}

// GetByID returns a product together with its reviews
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Product, []*domain.Review, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, nil, err
	}

	reviews, err := s.reviews.ListByProductID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list product reviews", err)
		return nil, nil, err
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}

	return product, reviews, nil
}

// Reviews returns the reviews of a product and their average rating rounded to one decimal
func (s *Service) Reviews(ctx context.Context, productID string) ([]*domain.Review, float64, error) {
	reviews, err := s.reviews.ListByProductID(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to list product reviews", err)
		return nil, 0, err
	}
	if len(reviews) == 0 {
		return nil, 0, domain.ErrNotFound
	}

	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := math.Round(sum/float64(len(reviews))*10) / 10

	return reviews, avg, nil
}

// Trending returns the most viewed products
func (s *Service) Trending(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.top(ctx, domain.ScopeTrending, domain.FieldViews, limit)
}

// BestSellers returns the best selling products
func (s *Service) BestSellers(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.top(ctx, domain.ScopeBestSellers, domain.FieldSales, limit)
}

// NewArrivals returns the most recently created products
func (s *Service) NewArrivals(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.top(ctx, domain.ScopeNewArrivals, domain.FieldCreatedAt, limit)
}

func (s *Service) top(ctx context.Context, scope domain.CacheScope, field string, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = s.opts.TopLimit
	}
	if s.opts.MaxLimit > 0 && limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	if s.cache != nil {
		products, err := s.cache.GetTopList(ctx, scope, limit)
		if err == nil {
			s.logger.Debugf("Cache hit for %s (limit=%d)", scope, limit)
			return products, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warnf("Failed to read %s from cache: %v", scope, err)
		}
	}

	sortSpec := domain.SortSpec{
		{Field: field, Direction: domain.Descending},
		{Field: domain.FieldID, Direction: domain.Descending},
	}
	products, err := s.products.Find(ctx, domain.ProductFilter{}, sortSpec, domain.Window{Limit: int64(limit)})
	if err != nil {
		s.logger.Errorf(err, "Failed to load %s products", scope)
		return nil, err
	}
	if products == nil {
		products = []*domain.Product{}
	}

	if s.cache != nil {
		if err := s.cache.SetTopList(ctx, scope, limit, products); err != nil {
			s.logger.Warnf("Failed to cache %s (limit=%d): %v", scope, limit, err)
		}
	}

	return products, nil
}

// FacetValues returns the sorted distinct non-empty values of a facet
func (s *Service) FacetValues(ctx context.Context, field domain.FacetField) ([]string, error) {
	if s.cache != nil {
		values, err := s.cache.GetFacetValues(ctx, field)
		if err == nil {
			return values, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warnf("Failed to read %s values from cache: %v", field, err)
		}
	}

	raw, err := s.products.Distinct(ctx, field)
	if err != nil {
		s.logger.Errorf(err, "Failed to list distinct %s values", field)
		return nil, err
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	values = slices.Compact(values)

	if s.cache != nil {
		if err := s.cache.SetFacetValues(ctx, field, values); err != nil {
			s.logger.Warnf("Failed to cache %s values: %v", field, err)
		}
	}

	return values, nil
}

// Create validates and stores a new product. finalPrice is derived from
// originalPrice and discount; a supplied value is overwritten.
func (s *Service) Create(ctx context.Context, product *domain.Product) error {
	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate product id: %w", err)
	}

	now := s.now().UTC()
	product.ID = id.String()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.FinalPrice = product.PriceAfterDiscount()
	normalizeLists(product)

	if err := s.products.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	s.invalidate(ctx, domain.AllScopes...)
	s.publishEvent(domain.EventProductCreated, product.ID)

	s.logger.WithFields(map[string]any{
		"product_id": product.ID,
		"title":      product.Title,
	}).Info("Product created successfully")

	return nil
}

// Update replaces the editable fields of a product. Counters and createdAt are preserved.
func (s *Service) Update(ctx context.Context, product *domain.Product) error {
	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	existing, err := s.products.GetByID(ctx, product.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get existing product", err)
		}
		return err
	}

	product.Views = existing.Views
	product.Sales = existing.Sales
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.now().UTC()
	product.FinalPrice = product.PriceAfterDiscount()
	normalizeLists(product)

	if err := s.products.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", err)
		return err
	}

	s.invalidate(ctx, domain.AllScopes...)
	s.publishEvent(domain.EventProductUpdated, product.ID)

	s.logger.WithFields(map[string]any{
		"product_id": product.ID,
		"title":      product.Title,
	}).Info("Product updated successfully")

	return nil
}

// Delete removes a product and then its reviews
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete product", err)
		}
		return err
	}

	// Product is gone even if the review cascade fails
	s.invalidate(ctx, domain.AllScopes...)
	s.publishEvent(domain.EventProductDeleted, id)

	if err := s.reviews.DeleteByProductID(ctx, id); err != nil {
		s.logger.Error("Failed to delete product reviews", err)
		return fmt.Errorf("delete reviews of product %s: %w", id, err)
	}

	s.logger.WithFields(map[string]any{
		"product_id": id,
	}).Info("Product deleted successfully")

	return nil
}

// IncrementViews bumps the view counter of a product
func (s *Service) IncrementViews(ctx context.Context, id string) (*domain.Product, error) {
	return s.addToCounter(ctx, id, domain.CounterViews, 1, domain.EventProductViewed)
}

// IncrementSales bumps the sales counter of a product
func (s *Service) IncrementSales(ctx context.Context, id string) (*domain.Product, error) {
	return s.addToCounter(ctx, id, domain.CounterSales, 1, domain.EventProductSold)
}

// DecrementSales lowers the sales counter of a product, stopping at zero
func (s *Service) DecrementSales(ctx context.Context, id string) (*domain.Product, error) {
	return s.addToCounter(ctx, id, domain.CounterSales, -1, domain.EventProductSold)
}

// Counter bumps only publish an event; the cache worker debounces the invalidation.
func (s *Service) addToCounter(ctx context.Context, id string, counter domain.Counter, delta int64, eventType string) (*domain.Product, error) {
	product, err := s.products.AddToCounter(ctx, id, counter, delta)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Errorf(err, "Failed to update %s counter", counter)
		}
		return nil, err
	}

	s.publishEvent(eventType, id)
	return product, nil
}

func (s *Service) invalidate(ctx context.Context, scopes ...domain.CacheScope) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateScopes(ctx, scopes...); err != nil {
		s.logger.Warnf("Failed to invalidate cache scopes %v: %v", scopes, err)
	}
}

// publishEvent publishes a product event without blocking the request
func (s *Service) publishEvent(eventType, productID string) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(domain.ProductEvent{
		EventType: eventType,
		Timestamp: s.now().UTC(),
		ProductID: productID,
	})
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal %s event for product %s", eventType, productID)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, domain.EventsSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish %s event for product %s", eventType, productID)
		}
	}()
}

func normalizeLists(p *domain.Product) {
	if p.Color == nil {
		p.Color = []string{}
	}
	if p.Location == nil {
		p.Location = []string{}
	}
}
