package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

// sortColumns maps sortable product fields to columns
var sortColumns = map[string]string{
	domain.FieldID:         "id",
	domain.FieldTitle:      "title",
	"category":             "category",
	"brand":                "brand",
	"material":             "material",
	"origin":               "origin",
	"originalPrice":        "original_price",
	"discount":             "discount",
	domain.FieldFinalPrice: "final_price",
	"quantity":             "quantity",
	"stock":                "stock",
	domain.FieldRating:     "rating",
	"weight":               "weight",
	domain.FieldViews:      "views",
	domain.FieldSales:      "sales",
	domain.FieldCreatedAt:  "created_at",
	"updatedAt":            "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereBuilder accumulates SQL conditions with numbered placeholders
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *whereBuilder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// buildWhere translates a product filter into a WHERE clause and its arguments.
// Find and Count both go through here.
func buildWhere(f domain.ProductFilter) (string, []any) {
	b := &whereBuilder{}

	if f.Search != "" {
		p := b.arg("%" + likeEscaper.Replace(f.Search) + "%")
		parts := make([]string, 0, len(domain.SearchFields))
		for _, field := range domain.SearchFields {
			parts = append(parts, fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, field, p))
		}
		b.add("(" + strings.Join(parts, " OR ") + ")")
	}

	for _, field := range domain.Facets {
		values := f.Facets[field]
		if len(values) == 0 {
			continue
		}
		if field.IsArray() {
			b.add(fmt.Sprintf("%s && %s", field, b.arg(pq.StringArray(values))))
		} else {
			b.add(fmt.Sprintf("%s = ANY(%s)", field, b.arg(pq.StringArray(values))))
		}
	}

	if f.MinPrice != nil {
		b.add("final_price >= " + b.arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		b.add("final_price <= " + b.arg(*f.MaxPrice))
	}
	if f.MinRating != nil {
		b.add("rating >= " + b.arg(*f.MinRating))
	}
	if f.MinDiscount != nil {
		b.add("discount >= " + b.arg(*f.MinDiscount))
	}

	return b.clause(), b.args
}

func buildOrderBy(spec domain.SortSpec) string {
	parts := make([]string, 0, len(spec))
	for _, key := range spec {
		col, ok := sortColumns[key.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if key.Direction == domain.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
