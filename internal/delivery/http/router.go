package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/handler"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/middleware"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

const requestTimeout = 30 * time.Second

// Router holds HTTP handlers and router configuration
type Router struct {
	productHandler *handler.ProductHandler
	limiter        middleware.RateLimiter
	logger         *logger.Logger
	cfg            *config.Config
}

// NewRouter creates a new HTTP router. limiter may be nil to disable rate limiting.
func NewRouter(
	productHandler *handler.ProductHandler,
	limiter middleware.RateLimiter,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		productHandler: productHandler,
		limiter:        limiter,
		logger:         log,
		cfg:            cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1/catalog", func(r chi.Router) {
		if rt.limiter != nil && rt.cfg.RateLimit.Requests > 0 {
			r.Use(middleware.RateLimit(rt.limiter, rt.logger))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", rt.productHandler.List)
			r.Post("/", rt.productHandler.Create)
			r.Get("/{id}", rt.productHandler.GetByID)
			r.Put("/{id}", rt.productHandler.Update)
			r.Delete("/{id}", rt.productHandler.Delete)
			r.Get("/{id}/reviews", rt.productHandler.Reviews)
			r.Patch("/{id}/views", rt.productHandler.IncrementViews)
			r.Patch("/{id}/sales", rt.productHandler.IncrementSales)
			r.Patch("/{id}/decrement-sales", rt.productHandler.DecrementSales)
			r.Get("/{id}/{filterValue}", rt.productHandler.ByFilter)
		})

		r.Get("/trending", rt.productHandler.Trending)
		r.Get("/bestsellers", rt.productHandler.BestSellers)
		r.Get("/newArrivals", rt.productHandler.NewArrivals)
		r.Get("/category", rt.productHandler.Categories)
		r.Get("/category/{category}", rt.productHandler.ByCategory)
		r.Get("/brands", rt.productHandler.Brands)
		r.Get("/materials", rt.productHandler.Materials)
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
