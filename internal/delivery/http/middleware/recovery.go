package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

// Recovery returns a middleware that recovers from panics
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					log.WithFields(map[string]any{
						"panic":      rec,
						"method":     r.Method,
						"path":       r.URL.Path,
						"request_id": chimw.GetReqID(r.Context()),
					}).Error("Panic recovered", nil)

					response.Error(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
