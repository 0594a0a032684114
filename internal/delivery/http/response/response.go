package response

import (
	"encoding/json"
	"net/http"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

// ErrorResponse is the body of every failed request.
// Error carries the underlying error text on 500 responses only.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ProductListResponse is the body of a product list query
type ProductListResponse struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	TotalProducts int64             `json:"totalProducts"`
	TotalPages    int64             `json:"totalPages"`
	CurrentPage   int               `json:"currentPage"`
	Products      []*domain.Product `json:"products,omitempty"`
}

// ProductResponse is the body of a single product write or counter update
type ProductResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Product *domain.Product `json:"product"`
}

// ProductDetailResponse is the body of a product read, reviews included
type ProductDetailResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Product *domain.Product  `json:"product"`
	Review  []*domain.Review `json:"review"`
}

// ReviewsResponse is the body of a product reviews read
type ReviewsResponse struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	Reviews       []*domain.Review `json:"reviews"`
	AverageRating float64          `json:"averageRating"`
}

// TopListResponse is the body of the trending, best sellers and new arrivals reads
type TopListResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Products []*domain.Product `json:"products"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes an error response
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, ErrorResponse{Success: false, Message: message})
}

// ServerError writes a 500 response that includes the error text
func ServerError(w http.ResponseWriter, message string, err error) {
	body := ErrorResponse{Success: false, Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	JSON(w, http.StatusInternalServerError, body)
}

// Message writes a bare success response
func Message(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, map[string]any{
		"success": true,
		"message": message,
	})
}

// ProductList writes a page of products. An empty page is reported as 404.
func ProductList(w http.ResponseWriter, page *domain.ProductPage) {
	body := ProductListResponse{
		TotalProducts: page.Total,
		TotalPages:    page.TotalPages,
		CurrentPage:   page.CurrentPage,
	}

	if len(page.Products) == 0 {
		body.Message = "No products found"
		JSON(w, http.StatusNotFound, body)
		return
	}

	body.Success = true
	body.Message = "Products fetched successfully"
	body.Products = page.Products
	JSON(w, http.StatusOK, body)
}

// Product writes a single product envelope
func Product(w http.ResponseWriter, statusCode int, message string, product *domain.Product) {
	JSON(w, statusCode, ProductResponse{
		Success: true,
		Message: message,
		Product: product,
	})
}

// ProductDetail writes a product together with its reviews
func ProductDetail(w http.ResponseWriter, product *domain.Product, reviews []*domain.Review) {
	JSON(w, http.StatusOK, ProductDetailResponse{
		Success: true,
		Message: "Product fetched successfully",
		Product: product,
		Review:  reviews,
	})
}

// Facet writes the distinct values of a facet under key
func Facet(w http.ResponseWriter, key string, values []string) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Fetched successfully",
		key:       values,
	})
}

// TopList writes a top-N product list
func TopList(w http.ResponseWriter, message string, products []*domain.Product) {
	JSON(w, http.StatusOK, TopListResponse{
		Success:  true,
		Message:  message,
		Products: products,
	})
}
