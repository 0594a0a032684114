package domain

// FacetField is a categorical product attribute usable as a filter
type FacetField string

const (
	FacetCategory FacetField = "category"
	FacetBrand    FacetField = "brand"
	FacetMaterial FacetField = "material"
	FacetColor    FacetField = "color"
	FacetLocation FacetField = "location"
)

// Facets lists every facet in a fixed order
var Facets = []FacetField{FacetCategory, FacetBrand, FacetMaterial, FacetColor, FacetLocation}

// ParseFacet returns the facet named s
func ParseFacet(s string) (FacetField, bool) {
	for _, f := range Facets {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// IsArray reports whether the facet is stored as a list of strings
func (f FacetField) IsArray() bool {
	return f == FacetColor || f == FacetLocation
}

// SearchFields are matched by the free-text search
var SearchFields = []string{"title", "description", "category", "brand", "material"}

// ProductFilter is the store-agnostic predicate over products.
// Facet values OR within a facet; every other part ANDs.
type ProductFilter struct {
	Search      string
	Facets      map[FacetField][]string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64
	MinDiscount *float64
}

// IsEmpty reports whether the filter matches every product
func (f ProductFilter) IsEmpty() bool {
	return f.Search == "" && len(f.Facets) == 0 &&
		f.MinPrice == nil && f.MaxPrice == nil && f.MinRating == nil && f.MinDiscount == nil
}

// SortDirection orders a sort key
type SortDirection int

const (
	Ascending  SortDirection = 1
	Descending SortDirection = -1
)

// Sortable product fields, named as stored in the document store
const (
	FieldID         = "_id"
	FieldTitle      = "title"
	FieldFinalPrice = "finalPrice"
	FieldRating     = "rating"
	FieldViews      = "views"
	FieldSales      = "sales"
	FieldCreatedAt  = "createdAt"
)

var sortableFields = map[string]struct{}{
	FieldID: {}, FieldTitle: {}, "category": {}, "brand": {}, "material": {}, "origin": {},
	"originalPrice": {}, "discount": {}, FieldFinalPrice: {}, "quantity": {}, "stock": {},
	FieldRating: {}, "weight": {}, FieldViews: {}, FieldSales: {}, FieldCreatedAt: {}, "updatedAt": {},
}

// IsSortable reports whether field names a product field a store can order by
func IsSortable(field string) bool {
	_, ok := sortableFields[field]
	return ok
}

// SortKey is one field of a sort specification
type SortKey struct {
	Field     string
	Direction SortDirection
}

// SortSpec is an ordered list of sort keys
type SortSpec []SortKey

// Window selects a slice of an ordered result
type Window struct {
	Offset int64
	Limit  int64
}

// ProductPage is one page of a product query
type ProductPage struct {
	Products    []*Product
	Total       int64
	TotalPages  int64
	CurrentPage int
	Limit       int
}
