package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"
)

// Top lists served by get_trending
const (
	listTrending    = "trending"
	listBestSellers = "bestsellers"
	listNewArrivals = "newArrivals"
)

// queryArgs are passed through to the list query parser under the same names
var queryArgs = []string{"search", "sortBy", "minPrice", "maxPrice", "minRating", "discount", "page", "limit"}

// Tools serves catalog reads to MCP clients
type Tools struct {
	service *catalog.Service
	logger  *logger.Logger
}

// NewTools creates the catalog tool handlers
func NewTools(service *catalog.Service, log *logger.Logger) *Tools {
	return &Tools{service: service, logger: log}
}

// Register adds every tool to s
func (t *Tools) Register(s *server.MCPServer) {
	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search the furniture catalog with filters, sorting and pagination"),
		mcp.WithString("search", mcp.Description("Case-insensitive text matched against title, description, category, brand and material")),
		mcp.WithString("category", mcp.Description("Comma-separated categories")),
		mcp.WithString("brand", mcp.Description("Comma-separated brands")),
		mcp.WithString("material", mcp.Description("Comma-separated materials")),
		mcp.WithString("color", mcp.Description("Comma-separated colors")),
		mcp.WithString("location", mcp.Description("Comma-separated locations")),
		mcp.WithNumber("minPrice", mcp.Description("Lowest final price")),
		mcp.WithNumber("maxPrice", mcp.Description("Highest final price")),
		mcp.WithNumber("minRating", mcp.Description("Lowest rating")),
		mcp.WithNumber("discount", mcp.Description("Lowest discount percentage")),
		mcp.WithString("sortBy",
			mcp.Description("Sort order"),
			mcp.Enum(catalog.SortPriceHighToLow, catalog.SortPriceLowToHigh, catalog.SortRatingHighToLow,
				catalog.SortRatingLowToHigh, catalog.SortAlphabeticalAZ, catalog.SortAlphabeticalZA),
		),
		mcp.WithNumber("page", mcp.Description("Page number (default: 1)")),
		mcp.WithNumber("limit", mcp.Description("Products per page")),
	)
	s.AddTool(searchTool, t.handleSearchProducts)

	trendingTool := mcp.NewTool("get_trending",
		mcp.WithDescription("Get the most viewed, best selling or newest products"),
		mcp.WithString("list",
			mcp.Description("Which list to return (default: trending)"),
			mcp.Enum(listTrending, listBestSellers, listNewArrivals),
		),
		mcp.WithNumber("limit", mcp.Description("Number of products")),
	)
	s.AddTool(trendingTool, t.handleGetTrending)

	facetTool := mcp.NewTool("list_facet_values",
		mcp.WithDescription("List the distinct values of a product facet"),
		mcp.WithString("facet",
			mcp.Required(),
			mcp.Description("Facet name"),
			mcp.Enum(facetNames()...),
		),
	)
	s.AddTool(facetTool, t.handleListFacetValues)
}

func facetNames() []string {
	names := make([]string, len(domain.Facets))
	for i, f := range domain.Facets {
		names[i] = string(f)
	}
	return names
}

type searchResult struct {
	TotalProducts int64             `json:"totalProducts"`
	TotalPages    int64             `json:"totalPages"`
	CurrentPage   int               `json:"currentPage"`
	Products      []*domain.Product `json:"products"`
}

func (t *Tools) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values := argsToQuery(request.GetArguments())

	page, err := t.service.Search(ctx, t.service.ParseQuery(values))
	if err != nil {
		t.logger.Errorf(err, "MCP search failed")
		return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
	}

	return jsonResult(searchResult{
		TotalProducts: page.Total,
		TotalPages:    page.TotalPages,
		CurrentPage:   page.CurrentPage,
		Products:      page.Products,
	})
}

func (t *Tools) handleGetTrending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := request.GetString("list", listTrending)
	limit := request.GetInt("limit", 0)

	var (
		products []*domain.Product
		err      error
	)
	switch list {
	case listTrending:
		products, err = t.service.Trending(ctx, limit)
	case listBestSellers:
		products, err = t.service.BestSellers(ctx, limit)
	case listNewArrivals:
		products, err = t.service.NewArrivals(ctx, limit)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown list %q", list)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s error: %v", list, err)), nil
	}

	return jsonResult(products)
}

func (t *Tools) handleListFacetValues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("facet", "")
	facet, ok := domain.ParseFacet(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown facet %q", name)), nil
	}

	values, err := t.service.FacetValues(ctx, facet)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("facet error: %v", err)), nil
	}

	return jsonResult(values)
}

// argsToQuery maps tool arguments onto list query parameters. Facet
// arguments accept a comma-separated string or an array of strings.
func argsToQuery(args map[string]any) url.Values {
	values := url.Values{}

	for _, key := range queryArgs {
		if v, ok := args[key]; ok && v != nil {
			values.Set(key, argString(v))
		}
	}

	for _, facet := range domain.Facets {
		switch v := args[string(facet)].(type) {
		case string:
			for _, part := range strings.Split(v, ",") {
				values.Add(string(facet), part)
			}
		case []any:
			for _, part := range v {
				values.Add(string(facet), argString(part))
			}
		}
	}

	return values
}

// argString formats a tool argument as a query value. JSON numbers arrive as
// float64 and must stay in plain decimal notation.
func argString(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
