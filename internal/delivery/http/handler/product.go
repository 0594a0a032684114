package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	service *catalog.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *catalog.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// ProductRequest represents the request body for creating or replacing a product.
// finalPrice is derived from originalPrice and discount.
type ProductRequest struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	About         string           `json:"about"`
	Category      string           `json:"category"`
	Image         string           `json:"image"`
	Origin        string           `json:"origin"`
	OriginalPrice float64          `json:"originalPrice"`
	Discount      float64          `json:"discount"`
	Quantity      int              `json:"quantity"`
	Material      string           `json:"material"`
	Color         []string         `json:"color"`
	Stock         int              `json:"stock"`
	Dimension     domain.Dimension `json:"dimension"`
	Rating        float64          `json:"rating"`
	Brand         string           `json:"brand"`
	Weight        float64          `json:"weight"`
	Location      []string         `json:"location"`
}

func (req ProductRequest) toDomain(id string) *domain.Product {
	return &domain.Product{
		ID:            id,
		Title:         req.Title,
		Description:   req.Description,
		About:         req.About,
		Category:      req.Category,
		Image:         req.Image,
		Origin:        req.Origin,
		OriginalPrice: req.OriginalPrice,
		Discount:      req.Discount,
		Quantity:      req.Quantity,
		Material:      req.Material,
		Color:         req.Color,
		Stock:         req.Stock,
		Dimension:     req.Dimension,
		Rating:        req.Rating,
		Brand:         req.Brand,
		Weight:        req.Weight,
		Location:      req.Location,
	}
}

// List handles GET /api/v1/catalog/products
// @Summary List products
// @Description Filter, sort and paginate the catalog. Facet parameters accept repeated keys or the bracket form (color[]=a).
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(12)
// @Param sortBy query string false "priceHighToLow, priceLowToHigh, ratingHighToLow, ratingLowToHigh, alphabeticalAZ, alphabeticalZA"
// @Param search query string false "Case-insensitive text search"
// @Param category query []string false "Category filter" collectionFormat(multi)
// @Param brand query []string false "Brand filter" collectionFormat(multi)
// @Param material query []string false "Material filter" collectionFormat(multi)
// @Param color query []string false "Color filter" collectionFormat(multi)
// @Param location query []string false "Location filter" collectionFormat(multi)
// @Param minPrice query number false "Minimum final price"
// @Param maxPrice query number false "Maximum final price"
// @Param minRating query number false "Minimum rating"
// @Param discount query number false "Minimum discount"
// @Success 200 {object} response.ProductListResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ProductListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, h.service.ParseQuery(r.URL.Query()))
}

// ByFilter handles GET /api/v1/catalog/products/{filterType}/{filterValue}.
// The first segment shares the {id} parameter with the single product routes.
// @Summary List products by facet
// @Description List products with one facet forced; every other list parameter still applies
// @Tags Products
// @Produce json
// @Param filterType path string true "category, brand, material, color or location"
// @Param filterValue path string true "Facet value"
// @Success 200 {object} response.ProductListResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ProductListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{filterType}/{filterValue} [get]
func (h *ProductHandler) ByFilter(w http.ResponseWriter, r *http.Request) {
	filterType, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid filter type")
		return
	}
	facet, ok := domain.ParseFacet(filterType)
	if !ok {
		h.handleError(w, domain.ErrInvalidFilter, "")
		return
	}

	value, err := request.GetStringParam(r, "filterValue")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid filter value")
		return
	}

	h.search(w, r, h.service.ParseQuery(r.URL.Query()).WithFacet(facet, value))
}

// ByCategory handles GET /api/v1/catalog/category/{category}
// @Summary List products of a category
// @Tags Products
// @Produce json
// @Param category path string true "Category"
// @Success 200 {object} response.ProductListResponse
// @Failure 404 {object} response.ProductListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /category/{category} [get]
func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := request.GetStringParam(r, "category")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category")
		return
	}

	h.search(w, r, h.service.ParseQuery(r.URL.Query()).WithFacet(domain.FacetCategory, category))
}

func (h *ProductHandler) search(w http.ResponseWriter, r *http.Request, req catalog.QueryRequest) {
	page, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.handleError(w, err, "Failed to fetch products")
		return
	}

	response.ProductList(w, page)
}

// Create handles POST /api/v1/catalog/products
// @Summary Create a product
// @Tags Products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Product details"
// @Success 201 {object} response.ProductResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product := req.toDomain("")
	if err := h.service.Create(r.Context(), product); err != nil {
		h.handleError(w, err, "Failed to create product")
		return
	}

	response.Product(w, http.StatusCreated, "Product created successfully", product)
}

// GetByID handles GET /api/v1/catalog/products/{id}
// @Summary Get a product
// @Description Get a product together with its reviews, newest first
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.ProductDetailResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, reviews, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "Failed to fetch product")
		return
	}

	response.ProductDetail(w, product, reviews)
}

// Update handles PUT /api/v1/catalog/products/{id}
// @Summary Replace a product
// @Description Replace the editable fields of a product; views, sales and createdAt are kept
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body ProductRequest true "Product details"
// @Success 200 {object} response.ProductResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req ProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product := req.toDomain(id)
	if err := h.service.Update(r.Context(), product); err != nil {
		h.handleError(w, err, "Failed to update product")
		return
	}

	response.Product(w, http.StatusOK, "Product updated successfully", product)
}

// Delete handles DELETE /api/v1/catalog/products/{id}
// @Summary Delete a product
// @Description Delete a product and all its reviews
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.ErrorResponse "success is true"
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err, "Failed to delete product")
		return
	}

	response.Message(w, http.StatusOK, "Product deleted successfully")
}

// Reviews handles GET /api/v1/catalog/products/{id}/reviews
// @Summary List product reviews
// @Tags Reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.ReviewsResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id}/reviews [get]
func (h *ProductHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	reviews, avg, err := h.service.Reviews(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "No reviews found for this product")
			return
		}
		h.handleError(w, err, "Failed to fetch reviews")
		return
	}

	response.JSON(w, http.StatusOK, response.ReviewsResponse{
		Success:       true,
		Message:       "Reviews fetched successfully",
		Reviews:       reviews,
		AverageRating: avg,
	})
}

// IncrementViews handles PATCH /api/v1/catalog/products/{id}/views
// @Summary Count a product view
// @Tags Counters
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.ProductResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id}/views [patch]
func (h *ProductHandler) IncrementViews(w http.ResponseWriter, r *http.Request) {
	h.counter(w, r, h.service.IncrementViews, "Views incremented")
}

// IncrementSales handles PATCH /api/v1/catalog/products/{id}/sales
// @Summary Count a product sale
// @Tags Counters
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.ProductResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id}/sales [patch]
func (h *ProductHandler) IncrementSales(w http.ResponseWriter, r *http.Request) {
	h.counter(w, r, h.service.IncrementSales, "Sales incremented")
}

// DecrementSales handles PATCH /api/v1/catalog/products/{id}/decrement-sales
// @Summary Take back a product sale
// @Description Sales never go below zero
// @Tags Counters
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.ProductResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id}/decrement-sales [patch]
func (h *ProductHandler) DecrementSales(w http.ResponseWriter, r *http.Request) {
	h.counter(w, r, h.service.DecrementSales, "Sales decremented")
}

type counterFunc func(ctx context.Context, id string) (*domain.Product, error)

func (h *ProductHandler) counter(w http.ResponseWriter, r *http.Request, bump counterFunc, message string) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := bump(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "Failed to update product counter")
		return
	}

	response.Product(w, http.StatusOK, message, product)
}

// Trending handles GET /api/v1/catalog/trending
// @Summary Most viewed products
// @Tags Highlights
// @Produce json
// @Param limit query int false "Number of products" default(10)
// @Success 200 {object} response.TopListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /trending [get]
func (h *ProductHandler) Trending(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Trending(r.Context(), request.GetIntQuery(r, "limit", 0))
	if err != nil {
		h.handleError(w, err, "Failed to fetch trending products")
		return
	}
	response.TopList(w, "Trending products fetched successfully", products)
}

// BestSellers handles GET /api/v1/catalog/bestsellers
// @Summary Best selling products
// @Tags Highlights
// @Produce json
// @Param limit query int false "Number of products" default(10)
// @Success 200 {object} response.TopListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /bestsellers [get]
func (h *ProductHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.BestSellers(r.Context(), request.GetIntQuery(r, "limit", 0))
	if err != nil {
		h.handleError(w, err, "Failed to fetch best sellers")
		return
	}
	response.TopList(w, "Best sellers fetched successfully", products)
}

// NewArrivals handles GET /api/v1/catalog/newArrivals
// @Summary Most recently added products
// @Tags Highlights
// @Produce json
// @Param limit query int false "Number of products" default(10)
// @Success 200 {object} response.TopListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /newArrivals [get]
func (h *ProductHandler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.NewArrivals(r.Context(), request.GetIntQuery(r, "limit", 0))
	if err != nil {
		h.handleError(w, err, "Failed to fetch new arrivals")
		return
	}
	response.TopList(w, "New arrivals fetched successfully", products)
}

// Categories handles GET /api/v1/catalog/category
// @Summary Distinct categories
// @Tags Facets
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} response.ErrorResponse
// @Router /category [get]
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.facet(w, r, domain.FacetCategory, "category")
}

// Brands handles GET /api/v1/catalog/brands
// @Summary Distinct brands
// @Tags Facets
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} response.ErrorResponse
// @Router /brands [get]
func (h *ProductHandler) Brands(w http.ResponseWriter, r *http.Request) {
	h.facet(w, r, domain.FacetBrand, "brands")
}

// Materials handles GET /api/v1/catalog/materials
// @Summary Distinct materials
// @Tags Facets
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} response.ErrorResponse
// @Router /materials [get]
func (h *ProductHandler) Materials(w http.ResponseWriter, r *http.Request) {
	h.facet(w, r, domain.FacetMaterial, "materials")
}

func (h *ProductHandler) facet(w http.ResponseWriter, r *http.Request, field domain.FacetField, key string) {
	values, err := h.service.FacetValues(r.Context(), field)
	if err != nil {
		h.handleError(w, err, "Failed to fetch "+key)
		return
	}
	response.Facet(w, key, values)
}

// handleError maps service errors to HTTP responses. failure is the message used on 500.
func (h *ProductHandler) handleError(w http.ResponseWriter, err error, failure string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrInvalidSort):
		response.Error(w, http.StatusBadRequest, "Invalid sortBy value")
	case errors.Is(err, domain.ErrInvalidFilter):
		response.Error(w, http.StatusBadRequest, "Invalid filter type")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Product already exists")
	default:
		h.logger.Error("Internal error in product handler", err)
		response.ServerError(w, failure, err)
	}
}
