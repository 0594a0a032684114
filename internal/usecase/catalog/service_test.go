package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Find(ctx context.Context, filter domain.ProductFilter, sort domain.SortSpec, window domain.Window) ([]*domain.Product, error) {
	args := m.Called(ctx, filter, sort, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Distinct(ctx context.Context, field domain.FacetField) ([]string, error) {
	args := m.Called(ctx, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) AddToCounter(ctx context.Context, id string, counter domain.Counter, delta int64) (*domain.Product, error) {
	args := m.Called(ctx, id, counter, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// MockReviewRepository is a mock implementation of domain.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) ListByProductID(ctx context.Context, productID string) ([]*domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) DeleteByProductID(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFacetValues(ctx context.Context, field domain.FacetField) ([]string, error) {
	args := m.Called(ctx, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCache) SetFacetValues(ctx context.Context, field domain.FacetField, values []string) error {
	args := m.Called(ctx, field, values)
	return args.Error(0)
}

func (m *MockCache) GetTopList(ctx context.Context, scope domain.CacheScope, limit int) ([]*domain.Product, error) {
	args := m.Called(ctx, scope, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockCache) SetTopList(ctx context.Context, scope domain.CacheScope, limit int, products []*domain.Product) error {
	args := m.Called(ctx, scope, limit, products)
	return args.Error(0)
}

func (m *MockCache) InvalidateScopes(ctx context.Context, scopes ...domain.CacheScope) error {
	args := m.Called(ctx, scopes)
	return args.Error(0)
}

// chanPublisher records published payloads on a channel
type chanPublisher struct {
	ch chan []byte
}

func (p *chanPublisher) Publish(_ context.Context, _ string, data []byte) error {
	p.ch <- data
	return nil
}

var testOptions = Options{DefaultLimit: 12, MaxLimit: 100, TopLimit: 10}

func newTestService(products *MockProductRepository, reviews *MockReviewRepository, cache Cache) *Service {
	return NewService(products, reviews, cache, nil, logger.Nop(), testOptions)
}

func TestService_Search_Success(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	req := service.ParseQuery(url.Values{"category": {"sofa"}, "limit": {"5"}, "page": {"2"}})
	filter := BuildFilter(req)
	sortSpec := domain.SortSpec{{Field: "_id", Direction: domain.Descending}}

	page := []*domain.Product{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	products.On("Find", mock.Anything, filter, sortSpec, domain.Window{Offset: 5, Limit: 5}).Return(page, nil)
	products.On("Count", mock.Anything, filter).Return(int64(14), nil)

	result, err := service.Search(context.Background(), req)

	require.NoError(t, err)
	assert.Len(t, result.Products, 5)
	assert.Equal(t, int64(14), result.Total)
	assert.Equal(t, int64(3), result.TotalPages)
	assert.Equal(t, 2, result.CurrentPage)
	products.AssertExpectations(t)
}

func TestService_Search_CountAndFindShareFilter(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	req := service.ParseQuery(url.Values{"search": {"oak"}, "minPrice": {"50"}, "color": {"#000000", "#FFFFFF"}})

	var findFilter, countFilter domain.ProductFilter
	products.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { findFilter = args.Get(1).(domain.ProductFilter) }).
		Return([]*domain.Product{{ID: "a"}}, nil)
	products.On("Count", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { countFilter = args.Get(1).(domain.ProductFilter) }).
		Return(int64(1), nil)

	_, err := service.Search(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, findFilter, countFilter)
	assert.Equal(t, "oak", findFilter.Search)
}

func TestService_Search_EmptyResultIsNotAnError(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	products.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	products.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	result, err := service.Search(context.Background(), service.ParseQuery(url.Values{"minRating": {"4.5"}}))

	require.NoError(t, err)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
	assert.Equal(t, int64(0), result.Total)
	assert.Equal(t, int64(0), result.TotalPages)
}

func TestService_Search_StoreError(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	storeErr := errors.New("connection reset")
	products.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr)
	products.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()

	result, err := service.Search(context.Background(), service.ParseQuery(url.Values{}))

	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, result)
}

func TestService_Search_StrictSortRejects(t *testing.T) {
	products := new(MockProductRepository)
	opts := testOptions
	opts.StrictSort = true
	service := NewService(products, new(MockReviewRepository), nil, nil, logger.Nop(), opts)

	_, err := service.Search(context.Background(), service.ParseQuery(url.Values{"sortBy": {"weight"}}))

	assert.ErrorIs(t, err, domain.ErrInvalidSort)
	products.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_GetByID_WithReviews(t *testing.T) {
	products := new(MockProductRepository)
	reviews := new(MockReviewRepository)
	service := newTestService(products, reviews, nil)

	product := &domain.Product{ID: "p1", Title: "Sofa"}
	products.On("GetByID", mock.Anything, "p1").Return(product, nil)
	reviews.On("ListByProductID", mock.Anything, "p1").Return(nil, nil)

	got, gotReviews, err := service.GetByID(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, product, got)
	assert.NotNil(t, gotReviews)
	assert.Empty(t, gotReviews)
}

func TestService_GetByID_NotFound(t *testing.T) {
	products := new(MockProductRepository)
	reviews := new(MockReviewRepository)
	service := newTestService(products, reviews, nil)

	products.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	_, _, err := service.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	reviews.AssertNotCalled(t, "ListByProductID", mock.Anything, mock.Anything)
}

func TestService_Reviews_Average(t *testing.T) {
	reviews := new(MockReviewRepository)
	service := newTestService(new(MockProductRepository), reviews, nil)

	reviews.On("ListByProductID", mock.Anything, "p1").Return([]*domain.Review{
		{ID: "r1", Rating: 5}, {ID: "r2", Rating: 4}, {ID: "r3", Rating: 4},
	}, nil)

	list, avg, err := service.Reviews(context.Background(), "p1")

	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 4.3, avg)
}

func TestService_Reviews_NoneIsNotFound(t *testing.T) {
	reviews := new(MockReviewRepository)
	service := newTestService(new(MockProductRepository), reviews, nil)

	reviews.On("ListByProductID", mock.Anything, "p1").Return([]*domain.Review{}, nil)

	_, _, err := service.Reviews(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Trending_CacheMissLoadsAndStores(t *testing.T) {
	products := new(MockProductRepository)
	cache := new(MockCache)
	service := newTestService(products, new(MockReviewRepository), cache)

	top := []*domain.Product{{ID: "a", Views: 90}, {ID: "b", Views: 40}}
	sortSpec := domain.SortSpec{
		{Field: "views", Direction: domain.Descending},
		{Field: "_id", Direction: domain.Descending},
	}

	cache.On("GetTopList", mock.Anything, domain.ScopeTrending, 10).Return(nil, domain.ErrNotFound)
	products.On("Find", mock.Anything, domain.ProductFilter{}, sortSpec, domain.Window{Limit: 10}).Return(top, nil)
	cache.On("SetTopList", mock.Anything, domain.ScopeTrending, 10, top).Return(nil)

	got, err := service.Trending(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, top, got)
	products.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_BestSellers_CacheHit(t *testing.T) {
	products := new(MockProductRepository)
	cache := new(MockCache)
	service := newTestService(products, new(MockReviewRepository), cache)

	cached := []*domain.Product{{ID: "a", Sales: 7}}
	cache.On("GetTopList", mock.Anything, domain.ScopeBestSellers, 3).Return(cached, nil)

	got, err := service.BestSellers(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, cached, got)
	products.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_NewArrivals_LimitIsCapped(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	products.On("Find", mock.Anything, domain.ProductFilter{}, mock.Anything, domain.Window{Limit: 100}).
		Return([]*domain.Product{}, nil)

	_, err := service.NewArrivals(context.Background(), 1000)

	require.NoError(t, err)
	products.AssertExpectations(t)
}

func TestService_Top_CacheErrorFallsBackToStore(t *testing.T) {
	products := new(MockProductRepository)
	cache := new(MockCache)
	service := newTestService(products, new(MockReviewRepository), cache)

	cache.On("GetTopList", mock.Anything, domain.ScopeNewArrivals, 5).Return(nil, errors.New("redis down"))
	products.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Product{{ID: "x"}}, nil)
	cache.On("SetTopList", mock.Anything, domain.ScopeNewArrivals, 5, mock.Anything).Return(errors.New("redis down"))

	got, err := service.NewArrivals(context.Background(), 5)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestService_FacetValues_SortedDeduplicated(t *testing.T) {
	products := new(MockProductRepository)
	cache := new(MockCache)
	service := newTestService(products, new(MockReviewRepository), cache)

	cache.On("GetFacetValues", mock.Anything, domain.FacetBrand).Return(nil, domain.ErrNotFound)
	products.On("Distinct", mock.Anything, domain.FacetBrand).Return([]string{"West Elm", "", "IKEA", "West Elm"}, nil)
	cache.On("SetFacetValues", mock.Anything, domain.FacetBrand, []string{"IKEA", "West Elm"}).Return(nil)

	values, err := service.FacetValues(context.Background(), domain.FacetBrand)

	require.NoError(t, err)
	assert.Equal(t, []string{"IKEA", "West Elm"}, values)
	cache.AssertExpectations(t)
}

func TestService_Create_DerivesFinalPrice(t *testing.T) {
	products := new(MockProductRepository)
	cache := new(MockCache)
	service := newTestService(products, new(MockReviewRepository), cache)

	product := &domain.Product{
		Title:         "Chesterfield",
		Category:      "sofa",
		OriginalPrice: 1000,
		Discount:      25,
		FinalPrice:    1,
	}

	products.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.ID != "" && p.FinalPrice == 750 && !p.CreatedAt.IsZero() && p.Color != nil
	})).Return(nil)
	cache.On("InvalidateScopes", mock.Anything, domain.AllScopes).Return(nil)

	err := service.Create(context.Background(), product)

	require.NoError(t, err)
	assert.Equal(t, 750.0, product.FinalPrice)
	products.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_Create_InvalidInput(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	tests := []struct {
		name    string
		product *domain.Product
	}{
		{"missing title", &domain.Product{Category: "sofa"}},
		{"missing category", &domain.Product{Title: "Sofa"}},
		{"discount over 100", &domain.Product{Title: "Sofa", Category: "sofa", Discount: 120}},
		{"rating over 5", &domain.Product{Title: "Sofa", Category: "sofa", Rating: 6}},
		{"negative price", &domain.Product{Title: "Sofa", Category: "sofa", OriginalPrice: -1}},
		{"blank color", &domain.Product{Title: "Sofa", Category: "sofa", Color: []string{"#000000", " "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Create(context.Background(), tt.product)
			assert.Equal(t, domain.ErrInvalidInput, err)
		})
	}
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_PublishesEvent(t *testing.T) {
	products := new(MockProductRepository)
	publisher := &chanPublisher{ch: make(chan []byte, 1)}
	service := NewService(products, new(MockReviewRepository), nil, publisher, logger.Nop(), testOptions)

	products.On("Create", mock.Anything, mock.Anything).Return(nil)

	product := &domain.Product{Title: "Desk", Category: "desk"}
	require.NoError(t, service.Create(context.Background(), product))

	select {
	case data := <-publisher.ch:
		var event domain.ProductEvent
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, domain.EventProductCreated, event.EventType)
		assert.Equal(t, product.ID, event.ProductID)
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
}

func TestService_Update_PreservesCounters(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	existing := &domain.Product{ID: "p1", Title: "Old", Category: "sofa", Views: 12, Sales: 3, CreatedAt: created}
	products.On("GetByID", mock.Anything, "p1").Return(existing, nil)
	products.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Views == 12 && p.Sales == 3 && p.CreatedAt.Equal(created) && p.FinalPrice == 180
	})).Return(nil)

	update := &domain.Product{ID: "p1", Title: "New", Category: "sofa", OriginalPrice: 200, Discount: 10, Views: 999}
	err := service.Update(context.Background(), update)

	require.NoError(t, err)
	products.AssertExpectations(t)
}

func TestService_Update_NotFound(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	products.On("GetByID", mock.Anything, "p1").Return(nil, domain.ErrNotFound)

	err := service.Update(context.Background(), &domain.Product{ID: "p1", Title: "New", Category: "sofa"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Delete_CascadesReviews(t *testing.T) {
	products := new(MockProductRepository)
	reviews := new(MockReviewRepository)
	service := newTestService(products, reviews, nil)

	products.On("Delete", mock.Anything, "p1").Return(nil)
	reviews.On("DeleteByProductID", mock.Anything, "p1").Return(nil)

	require.NoError(t, service.Delete(context.Background(), "p1"))
	products.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestService_Delete_ReviewFailureStillInvalidates(t *testing.T) {
	products := new(MockProductRepository)
	reviews := new(MockReviewRepository)
	cache := new(MockCache)
	publisher := &chanPublisher{ch: make(chan []byte, 1)}
	service := NewService(products, reviews, cache, publisher, logger.Nop(), testOptions)

	products.On("Delete", mock.Anything, "p1").Return(nil)
	reviews.On("DeleteByProductID", mock.Anything, "p1").Return(assert.AnError)
	cache.On("InvalidateScopes", mock.Anything, domain.AllScopes).Return(nil)

	err := service.Delete(context.Background(), "p1")

	assert.ErrorIs(t, err, assert.AnError)
	cache.AssertExpectations(t)

	select {
	case data := <-publisher.ch:
		var event domain.ProductEvent
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, domain.EventProductDeleted, event.EventType)
		assert.Equal(t, "p1", event.ProductID)
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	products := new(MockProductRepository)
	reviews := new(MockReviewRepository)
	service := newTestService(products, reviews, nil)

	products.On("Delete", mock.Anything, "p1").Return(domain.ErrNotFound)

	err := service.Delete(context.Background(), "p1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	reviews.AssertNotCalled(t, "DeleteByProductID", mock.Anything, mock.Anything)
}

func TestService_Counters(t *testing.T) {
	products := new(MockProductRepository)
	service := newTestService(products, new(MockReviewRepository), nil)

	products.On("AddToCounter", mock.Anything, "p1", domain.CounterViews, int64(1)).Return(&domain.Product{ID: "p1", Views: 1}, nil)
	products.On("AddToCounter", mock.Anything, "p1", domain.CounterSales, int64(1)).Return(&domain.Product{ID: "p1", Sales: 1}, nil)
	products.On("AddToCounter", mock.Anything, "p1", domain.CounterSales, int64(-1)).Return(&domain.Product{ID: "p1", Sales: 0}, nil)

	p, err := service.IncrementViews(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Views)

	p, err = service.IncrementSales(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Sales)

	p, err = service.DecrementSales(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Sales)

	products.AssertExpectations(t)
}
