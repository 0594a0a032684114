package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxRequestBodySize = 1 << 20 // 1MB

// DecodeJSON decodes JSON request body into the provided struct with size limit
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	limitedReader := io.LimitReader(r.Body, maxRequestBodySize)

	if err := json.NewDecoder(limitedReader).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// GetStringParam extracts a non-blank URL parameter
func GetStringParam(r *http.Request, key string) (string, error) {
	param := strings.TrimSpace(chi.URLParam(r, key))
	if param == "" {
		return "", fmt.Errorf("missing parameter: %s", key)
	}
	return param, nil
}

// GetIntQuery extracts an integer query parameter with a default value
func GetIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
