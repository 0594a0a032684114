package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

const productColumns = `id, title, description, about, category, image, origin,
	original_price, discount, final_price, quantity, material, color, stock,
	dim_length, dim_width, dim_height, rating, brand, weight, location,
	views, sales, created_at, updated_at`

const uniqueViolation = "23505"

// productRow is the flattened table shape of a product
type productRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	About         string         `db:"about"`
	Category      string         `db:"category"`
	Image         string         `db:"image"`
	Origin        string         `db:"origin"`
	OriginalPrice float64        `db:"original_price"`
	Discount      float64        `db:"discount"`
	FinalPrice    float64        `db:"final_price"`
	Quantity      int            `db:"quantity"`
	Material      string         `db:"material"`
	Color         pq.StringArray `db:"color"`
	Stock         int            `db:"stock"`
	DimLength     string         `db:"dim_length"`
	DimWidth      string         `db:"dim_width"`
	DimHeight     string         `db:"dim_height"`
	Rating        float64        `db:"rating"`
	Brand         string         `db:"brand"`
	Weight        float64        `db:"weight"`
	Location      pq.StringArray `db:"location"`
	Views         int64          `db:"views"`
	Sales         int64          `db:"sales"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func toRow(p *domain.Product) productRow {
	return productRow{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		About:         p.About,
		Category:      p.Category,
		Image:         p.Image,
		Origin:        p.Origin,
		OriginalPrice: p.OriginalPrice,
		Discount:      p.Discount,
		FinalPrice:    p.FinalPrice,
		Quantity:      p.Quantity,
		Material:      p.Material,
		Color:         pq.StringArray(nonNil(p.Color)),
		Stock:         p.Stock,
		DimLength:     p.Dimension.Length,
		DimWidth:      p.Dimension.Width,
		DimHeight:     p.Dimension.Height,
		Rating:        p.Rating,
		Brand:         p.Brand,
		Weight:        p.Weight,
		Location:      pq.StringArray(nonNil(p.Location)),
		Views:         p.Views,
		Sales:         p.Sales,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r productRow) toDomain() *domain.Product {
	return &domain.Product{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		About:         r.About,
		Category:      r.Category,
		Image:         r.Image,
		Origin:        r.Origin,
		OriginalPrice: r.OriginalPrice,
		Discount:      r.Discount,
		FinalPrice:    r.FinalPrice,
		Quantity:      r.Quantity,
		Material:      r.Material,
		Color:         nonNil(r.Color),
		Stock:         r.Stock,
		Dimension:     domain.Dimension{Length: r.DimLength, Width: r.DimWidth, Height: r.DimHeight},
		Rating:        r.Rating,
		Brand:         r.Brand,
		Weight:        r.Weight,
		Location:      nonNil(r.Location),
		Views:         r.Views,
		Sales:         r.Sales,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (:id, :title, :description, :about, :category, :image, :origin,
			:original_price, :discount, :final_price, :quantity, :material, :color, :stock,
			:dim_length, :dim_width, :dim_height, :rating, :brand, :weight, :location,
			:views, :sales, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, toRow(product)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var row productRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// Update sets the editable fields of a product. Counters and created_at are left alone.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET title = :title, description = :description, about = :about, category = :category,
			image = :image, origin = :origin, original_price = :original_price, discount = :discount,
			final_price = :final_price, quantity = :quantity, material = :material, color = :color,
			stock = :stock, dim_length = :dim_length, dim_width = :dim_width, dim_height = :dim_height,
			rating = :rating, brand = :brand, weight = :weight, location = :location,
			updated_at = :updated_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, toRow(product))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Find returns the window of matching products in sort order
func (r *ProductRepository) Find(ctx context.Context, filter domain.ProductFilter, sort domain.SortSpec, window domain.Window) ([]*domain.Product, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + productColumns + ` FROM products` + where + buildOrderBy(sort)

	if window.Limit > 0 {
		args = append(args, window.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if window.Offset > 0 {
		args = append(args, window.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

// Count returns the number of matching products
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	where, args := buildWhere(filter)

	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`+where, args...); err != nil {
		return 0, err
	}
	return count, nil
}

// Distinct returns the distinct non-empty values of a facet field
func (r *ProductRepository) Distinct(ctx context.Context, field domain.FacetField) ([]string, error) {
	var query string
	if field.IsArray() {
		query = fmt.Sprintf(`SELECT DISTINCT v FROM products, unnest(%s) AS v WHERE v <> ''`, field)
	} else {
		query = fmt.Sprintf(`SELECT DISTINCT %[1]s FROM products WHERE %[1]s <> ''`, field)
	}

	var values []string
	if err := r.db.SelectContext(ctx, &values, query); err != nil {
		return nil, err
	}
	return values, nil
}

// AddToCounter adds delta to a counter, clamping at zero, and returns the updated product
func (r *ProductRepository) AddToCounter(ctx context.Context, id string, counter domain.Counter, delta int64) (*domain.Product, error) {
	var column string
	switch counter {
	case domain.CounterViews:
		column = "views"
	case domain.CounterSales:
		column = "sales"
	default:
		return nil, domain.ErrInvalidInput
	}

	query := fmt.Sprintf(`
		UPDATE products
		SET %[1]s = GREATEST(%[1]s + $1, 0), updated_at = $2
		WHERE id = $3
		RETURNING %[2]s
	`, column, productColumns)

	var row productRow
	err := r.db.QueryRowxContext(ctx, query, delta, time.Now().UTC(), id).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain(), nil
}
