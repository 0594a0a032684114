package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

// Sort keys accepted by sortBy
const (
	SortPriceHighToLow  = "priceHighToLow"
	SortPriceLowToHigh  = "priceLowToHigh"
	SortRatingHighToLow = "ratingHighToLow"
	SortRatingLowToHigh = "ratingLowToHigh"
	SortAlphabeticalAZ  = "alphabeticalAZ"
	SortAlphabeticalZA  = "alphabeticalZA"
)

// QueryOptions bounds how list parameters are normalised
type QueryOptions struct {
	DefaultLimit int
	MaxLimit     int // 0 disables the cap
	StrictSort   bool
}

// QueryRequest is a product list request after boundary normalisation.
// Numeric bounds are nil when absent or unparseable.
type QueryRequest struct {
	Page      int
	Limit     int
	SortBy    string
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	Discount  *float64
	Facets    map[domain.FacetField][]string
}

// ParseQuery normalises raw query parameters. It never fails: malformed paging
// values fall back to defaults and malformed bounds are dropped.
func ParseQuery(values url.Values, opts QueryOptions) QueryRequest {
	req := QueryRequest{
		Page:      positiveInt(values.Get("page"), 1),
		Limit:     positiveInt(values.Get("limit"), opts.DefaultLimit),
		SortBy:    strings.TrimSpace(values.Get("sortBy")),
		Search:    strings.TrimSpace(values.Get("search")),
		MinPrice:  optionalFloat(values.Get("minPrice")),
		MaxPrice:  optionalFloat(values.Get("maxPrice")),
		MinRating: optionalFloat(values.Get("minRating")),
		Discount:  optionalFloat(values.Get("discount")),
		Facets:    make(map[domain.FacetField][]string),
	}

	if opts.MaxLimit > 0 && req.Limit > opts.MaxLimit {
		req.Limit = opts.MaxLimit
	}

	for _, facet := range domain.Facets {
		raw := make([]string, 0, len(values[string(facet)])+len(values[string(facet)+"[]"]))
		raw = append(raw, values[string(facet)]...)
		raw = append(raw, values[string(facet)+"[]"]...)
		if set := normalizeSet(raw); len(set) > 0 {
			req.Facets[facet] = set
		}
	}

	return req
}

// WithFacet returns a copy of req restricted to a single facet value
func (req QueryRequest) WithFacet(field domain.FacetField, value string) QueryRequest {
	facets := make(map[domain.FacetField][]string, len(req.Facets)+1)
	for k, v := range req.Facets {
		facets[k] = v
	}
	if set := normalizeSet([]string{value}); len(set) > 0 {
		facets[field] = set
	} else {
		delete(facets, field)
	}
	req.Facets = facets
	return req
}

// Window returns the pagination window of the request. The offset saturates
// at math.MaxInt64 so a huge page lands past the end instead of wrapping.
func (req QueryRequest) Window() domain.Window {
	limit := int64(req.Limit)
	skipped := int64(req.Page - 1)

	offset := int64(math.MaxInt64)
	if limit == 0 || skipped <= math.MaxInt64/limit {
		offset = skipped * limit
	}

	return domain.Window{Offset: offset, Limit: limit}
}

// BuildFilter is the single place a request becomes a store predicate.
// Both the page fetch and the total count are issued with its result.
func BuildFilter(req QueryRequest) domain.ProductFilter {
	filter := domain.ProductFilter{
		Search:      req.Search,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		MinRating:   req.MinRating,
		MinDiscount: req.Discount,
	}

	for _, facet := range domain.Facets {
		if values := req.Facets[facet]; len(values) > 0 {
			if filter.Facets == nil {
				filter.Facets = make(map[domain.FacetField][]string)
			}
			filter.Facets[facet] = append([]string(nil), values...)
		}
	}

	return filter
}

// ResolveSort maps a sortBy key to a sort specification.
//
// Known keys use the fixed table. An empty key sorts newest first. Any other key
// is taken as a field name sorted ascending when it names a sortable product field;
// otherwise it falls back to newest first, or returns ErrInvalidSort when strict.
// Every order ends with _id descending so equal keys paginate deterministically.
func ResolveSort(sortBy string, strict bool) (domain.SortSpec, error) {
	newest := domain.SortKey{Field: domain.FieldID, Direction: domain.Descending}

	var primary domain.SortKey
	switch sortBy {
	case SortPriceHighToLow:
		primary = domain.SortKey{Field: domain.FieldFinalPrice, Direction: domain.Descending}
	case SortPriceLowToHigh:
		primary = domain.SortKey{Field: domain.FieldFinalPrice, Direction: domain.Ascending}
	case SortRatingHighToLow:
		primary = domain.SortKey{Field: domain.FieldRating, Direction: domain.Descending}
	case SortRatingLowToHigh:
		primary = domain.SortKey{Field: domain.FieldRating, Direction: domain.Ascending}
	case SortAlphabeticalAZ:
		primary = domain.SortKey{Field: domain.FieldTitle, Direction: domain.Ascending}
	case SortAlphabeticalZA:
		primary = domain.SortKey{Field: domain.FieldTitle, Direction: domain.Descending}
	case "":
		return domain.SortSpec{newest}, nil
	default:
		if strict {
			return nil, domain.ErrInvalidSort
		}
		if !domain.IsSortable(sortBy) {
			return domain.SortSpec{newest}, nil
		}
		primary = domain.SortKey{Field: sortBy, Direction: domain.Ascending}
	}

	if primary.Field == domain.FieldID {
		return domain.SortSpec{primary}, nil
	}
	return domain.SortSpec{primary, newest}, nil
}

// TotalPages returns ceil(total/limit)
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func optionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// normalizeSet trims, drops blanks and removes duplicates, keeping first-seen order
func normalizeSet(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
