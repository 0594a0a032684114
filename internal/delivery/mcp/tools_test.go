package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/repository/memory"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"
)

func setupTools(t *testing.T) *Tools {
	t.Helper()

	products := memory.NewProductRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	brands := []string{"IKEA", "West Elm", "Ashley"}

	for i := 0; i < 6; i++ {
		require.NoError(t, products.Create(context.Background(), &domain.Product{
			ID:         fmt.Sprintf("p%d", i),
			Title:      fmt.Sprintf("Chair %d", i),
			Category:   "chair",
			Brand:      brands[i%3],
			Material:   "Wood",
			FinalPrice: float64(100 * (i + 1)),
			Views:      int64(i),
			Sales:      int64(6 - i),
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	service := catalog.NewService(products, memory.NewReviewRepository(), nil, nil, logger.Nop(), catalog.Options{
		DefaultLimit: 12,
		MaxLimit:     100,
		TopLimit:     10,
	})
	return NewTools(service, logger.Nop())
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleSearchProducts(t *testing.T) {
	tools := setupTools(t)

	result, err := tools.handleSearchProducts(context.Background(), callRequest("search_products", map[string]any{
		"brand":  "IKEA,Ashley",
		"sortBy": catalog.SortPriceHighToLow,
		"limit":  float64(3),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var got searchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))

	assert.Equal(t, int64(4), got.TotalProducts)
	assert.Equal(t, int64(2), got.TotalPages)
	assert.Equal(t, 1, got.CurrentPage)
	require.Len(t, got.Products, 3)
	assert.Equal(t, "p5", got.Products[0].ID)
	assert.Equal(t, "p3", got.Products[1].ID)
	assert.Equal(t, "p2", got.Products[2].ID)
}

func TestHandleGetTrending(t *testing.T) {
	tools := setupTools(t)

	tests := []struct {
		list    string
		firstID string
	}{
		{listTrending, "p5"},
		{listBestSellers, "p0"},
		{listNewArrivals, "p5"},
	}

	for _, tt := range tests {
		t.Run(tt.list, func(t *testing.T) {
			result, err := tools.handleGetTrending(context.Background(), callRequest("get_trending", map[string]any{
				"list":  tt.list,
				"limit": float64(2),
			}))
			require.NoError(t, err)

			var products []*domain.Product
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &products))
			require.Len(t, products, 2)
			assert.Equal(t, tt.firstID, products[0].ID)
		})
	}
}

func TestHandleGetTrending_UnknownList(t *testing.T) {
	tools := setupTools(t)

	result, err := tools.handleGetTrending(context.Background(), callRequest("get_trending", map[string]any{"list": "popular"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleListFacetValues(t *testing.T) {
	tools := setupTools(t)

	result, err := tools.handleListFacetValues(context.Background(), callRequest("list_facet_values", map[string]any{"facet": "brand"}))
	require.NoError(t, err)

	var values []string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &values))
	assert.Equal(t, []string{"Ashley", "IKEA", "West Elm"}, values)

	result, err = tools.handleListFacetValues(context.Background(), callRequest("list_facet_values", map[string]any{"facet": "price"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestArgsToQuery(t *testing.T) {
	values := argsToQuery(map[string]any{
		"search":   "oak",
		"minPrice": float64(150),
		"page":     float64(2),
		"color":    []any{"#000000", "#FFFFFF"},
		"brand":    "IKEA",
		"ignored":  "x",
	})

	assert.Equal(t, url.Values{
		"search":   {"oak"},
		"minPrice": {"150"},
		"page":     {"2"},
		"color":    {"#000000", "#FFFFFF"},
		"brand":    {"IKEA"},
	}, values)
}

func TestArgsToQuery_LargeNumbersStayDecimal(t *testing.T) {
	values := argsToQuery(map[string]any{
		"page":     float64(2000000),
		"limit":    float64(1e6),
		"maxPrice": 1234567.5,
	})

	assert.Equal(t, "2000000", values.Get("page"))
	assert.Equal(t, "1000000", values.Get("limit"))
	assert.Equal(t, "1234567.5", values.Get("maxPrice"))
}
