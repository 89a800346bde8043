package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaswear/atlaswear/internal/shared"
)

// Repository reads catalog data. The catalog store is read-only from the
// storefront's point of view; writes happen through the admin module.
type Repository interface {
	ListActive(ctx context.Context) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (Category, error)
	SearchProducts(ctx context.Context, q string, limit int) ([]Product, error)
	SearchCategories(ctx context.Context, q string, limit int) ([]Category, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, slug, name, name_ar, price, sale_price, is_active, is_limited, category_id, created_at, updated_at`

func (r *repository) ListActive(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1 AND is_active`
	var p Product
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&p.ID, &p.Slug, &p.Name, &p.NameAr, &p.Price, &p.SalePrice,
		&p.IsActive, &p.IsLimited, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	products := []Product{p}
	if err := r.attachVariants(ctx, products); err != nil {
		return Product{}, err
	}
	return products[0], nil
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, slug, name, name_ar, created_at FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *repository) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, slug, name, name_ar, created_at FROM categories WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Slug, &c.Name, &c.NameAr, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) SearchProducts(ctx context.Context, q string, limit int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_active AND (name ILIKE $1 OR name_ar ILIKE $1)
		ORDER BY name LIMIT $2`
	rows, err := r.db.Query(ctx, query, "%"+q+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) SearchCategories(ctx context.Context, q string, limit int) ([]Category, error) {
	query := `SELECT id, slug, name, name_ar, created_at FROM categories
		WHERE name ILIKE $1 OR name_ar ILIKE $1
		ORDER BY name LIMIT $2`
	rows, err := r.db.Query(ctx, query, "%"+q+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

// attachVariants loads every variant for the given products in one query.
func (r *repository) attachVariants(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(products))
	index := make(map[int64]int, len(products))
	for i, p := range products {
		ids = append(ids, p.ID)
		index[p.ID] = i
	}

	rows, err := r.db.Query(ctx, `SELECT id, product_id, size_label, color, color_code, stock, images, position
		FROM product_variants WHERE product_id = ANY($1) ORDER BY product_id, position, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SizeLabel, &v.Color, &v.ColorCode, &v.Stock, &v.Images, &v.Position); err != nil {
			return err
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return rows.Err()
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Slug, &p.Name, &p.NameAr, &p.Price, &p.SalePrice,
			&p.IsActive, &p.IsLimited, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanCategories(rows pgx.Rows) ([]Category, error) {
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.NameAr, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
