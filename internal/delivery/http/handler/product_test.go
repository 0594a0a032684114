package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/repository/memory"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"
)

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
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

var testOptions = catalog.Options{DefaultLimit: 12, MaxLimit: 100, TopLimit: 10}

func newMemoryHandler(t *testing.T) (*ProductHandler, *memory.ProductRepository, *memory.ReviewRepository) {
	t.Helper()

	products := memory.NewProductRepository()
	reviews := memory.NewReviewRepository()
	service := catalog.NewService(products, reviews, nil, nil, logger.Nop(), testOptions)
	return NewProductHandler(service, logger.Nop()), products, reviews
}

func seedSofas(t *testing.T, repo *memory.ProductRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &domain.Product{
			ID:         fmt.Sprintf("sofa-%02d", i),
			Title:      fmt.Sprintf("Sofa %02d", i),
			Category:   "sofa",
			Brand:      "IKEA",
			FinalPrice: float64(100 + i),
			CreatedAt:  time.Now(),
		}))
	}
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestProductHandler_List_Success(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)
	seedSofas(t, products, 14)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?category=sofa&limit=5&page=2", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Products fetched successfully", body["message"])
	assert.Equal(t, 14.0, body["totalProducts"])
	assert.Equal(t, 3.0, body["totalPages"])
	assert.Equal(t, 2.0, body["currentPage"])
	assert.Len(t, body["products"], 5)
}

func TestProductHandler_List_NoMatches(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)
	seedSofas(t, products, 3)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?minRating=4.5", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No products found", body["message"])
	assert.Equal(t, 0.0, body["totalProducts"])
	assert.Equal(t, 0.0, body["totalPages"])
	assert.NotContains(t, body, "products")
}

func TestProductHandler_List_StoreError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := catalog.NewService(mockRepo, memory.NewReviewRepository(), nil, nil, logger.Nop(), testOptions)
	handler := NewProductHandler(service, logger.Nop())

	mockRepo.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	mockRepo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to fetch products", body["message"])
	assert.Contains(t, body["error"], "connection refused")
}

func TestProductHandler_List_StrictSort(t *testing.T) {
	opts := testOptions
	opts.StrictSort = true
	service := catalog.NewService(memory.NewProductRepository(), memory.NewReviewRepository(), nil, nil, logger.Nop(), opts)
	handler := NewProductHandler(service, logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?sortBy=weight", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_ByFilter(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)
	seedSofas(t, products, 4)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/brand/IKEA?limit=2", nil)
	req = withParams(req, map[string]string{"id": "brand", "filterValue": "IKEA"})
	w := httptest.NewRecorder()

	handler.ByFilter(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 4.0, body["totalProducts"])
	assert.Len(t, body["products"], 2)
}

func TestProductHandler_ByFilter_UnknownType(t *testing.T) {
	handler, _, _ := newMemoryHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/price/10", nil)
	req = withParams(req, map[string]string{"id": "price", "filterValue": "10"})
	w := httptest.NewRecorder()

	handler.ByFilter(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid filter type", decode(t, w)["message"])
}

func TestProductHandler_Create_Success(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)

	body := `{"title":"Chesterfield","category":"sofa","originalPrice":1000,"discount":25,"finalPrice":1,"color":["#000000"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	product := resp["product"].(map[string]any)
	assert.Equal(t, 750.0, product["finalPrice"])
	assert.NotEmpty(t, product["id"])

	stored, err := products.GetByID(context.Background(), product["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "Chesterfield", stored.Title)
}

func TestProductHandler_Create_InvalidJSON(t *testing.T) {
	handler, _, _ := newMemoryHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w)["message"])
}

func TestProductHandler_Create_ValidationError(t *testing.T) {
	handler, _, _ := newMemoryHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products", bytes.NewBufferString(`{"title":"No category"}`))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input", decode(t, w)["message"])
}

func TestProductHandler_GetByID_WithReviews(t *testing.T) {
	handler, products, reviews := newMemoryHandler(t)
	seedSofas(t, products, 1)
	reviews.Add(&domain.Review{ID: "r1", ProductID: "sofa-00", Rating: 4, Date: time.Now()})

	req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/sofa-00", nil),
		map[string]string{"id": "sofa-00"})
	w := httptest.NewRecorder()

	handler.GetByID(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Product fetched successfully", body["message"])
	assert.Equal(t, "sofa-00", body["product"].(map[string]any)["id"])
	assert.Len(t, body["review"], 1)
}

func TestProductHandler_GetByID_NotFound(t *testing.T) {
	handler, _, _ := newMemoryHandler(t)

	req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/missing", nil),
		map[string]string{"id": "missing"})
	w := httptest.NewRecorder()

	handler.GetByID(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Product not found"}`, w.Body.String())
}

func TestProductHandler_Update_KeepsCounters(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)
	seedSofas(t, products, 1)
	_, err := products.AddToCounter(context.Background(), "sofa-00", domain.CounterViews, 5)
	require.NoError(t, err)

	body := `{"title":"Renamed","category":"sofa","originalPrice":200,"discount":50}`
	req := withParams(httptest.NewRequest(http.MethodPut, "/api/v1/catalog/products/sofa-00", bytes.NewBufferString(body)),
		map[string]string{"id": "sofa-00"})
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	stored, err := products.GetByID(context.Background(), "sofa-00")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, 100.0, stored.FinalPrice)
	assert.Equal(t, int64(5), stored.Views)
}

func TestProductHandler_Delete(t *testing.T) {
	handler, products, reviews := newMemoryHandler(t)
	seedSofas(t, products, 1)
	reviews.Add(&domain.Review{ID: "r1", ProductID: "sofa-00", Rating: 5})

	req := withParams(httptest.NewRequest(http.MethodDelete, "/api/v1/catalog/products/sofa-00", nil),
		map[string]string{"id": "sofa-00"})
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Product deleted successfully"}`, w.Body.String())

	left, err := reviews.ListByProductID(context.Background(), "sofa-00")
	require.NoError(t, err)
	assert.Empty(t, left)

	w = httptest.NewRecorder()
	handler.Delete(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandler_Reviews(t *testing.T) {
	handler, _, reviews := newMemoryHandler(t)
	reviews.Add(&domain.Review{ID: "r1", ProductID: "p1", Rating: 5, Date: time.Now()})
	reviews.Add(&domain.Review{ID: "r2", ProductID: "p1", Rating: 4, Date: time.Now()})

	req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/p1/reviews", nil),
		map[string]string{"id": "p1"})
	w := httptest.NewRecorder()

	handler.Reviews(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 4.5, body["averageRating"])
	assert.Len(t, body["reviews"], 2)

	req = withParams(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/p2/reviews", nil),
		map[string]string{"id": "p2"})
	w = httptest.NewRecorder()
	handler.Reviews(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No reviews found for this product", decode(t, w)["message"])
}

func TestProductHandler_Counters(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)
	seedSofas(t, products, 1)

	params := map[string]string{"id": "sofa-00"}

	w := httptest.NewRecorder()
	handler.IncrementViews(w, withParams(httptest.NewRequest(http.MethodPatch, "/", nil), params))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["product"].(map[string]any)["views"])

	w = httptest.NewRecorder()
	handler.DecrementSales(w, withParams(httptest.NewRequest(http.MethodPatch, "/", nil), params))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["product"].(map[string]any)["sales"])

	w = httptest.NewRecorder()
	handler.IncrementSales(w, withParams(httptest.NewRequest(http.MethodPatch, "/", nil), map[string]string{"id": "missing"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandler_TopLists(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)
	seedSofas(t, products, 15)

	w := httptest.NewRecorder()
	handler.Trending(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/trending", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 10)

	w = httptest.NewRecorder()
	handler.NewArrivals(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/newArrivals?limit=3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 3)
}

func TestProductHandler_Facets(t *testing.T) {
	handler, products, _ := newMemoryHandler(t)
	seedSofas(t, products, 2)

	w := httptest.NewRecorder()
	handler.Brands(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/brands", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Fetched successfully","brands":["IKEA"]}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.Materials(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/materials", nil))
	assert.JSONEq(t, `{"success":true,"message":"Fetched successfully","materials":[]}`, w.Body.String())
}
