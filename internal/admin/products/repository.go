package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaswear/atlaswear/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error
	AddVariant(ctx context.Context, variant Variant) (Variant, error)
	UpdateVariantStock(ctx context.Context, variantID int64, stock int) error
	DeleteVariant(ctx context.Context, variantID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, slug, name, name_ar, price, sale_price, is_active, is_limited, category_id, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	query := `SELECT ` + columns + ` FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		cond := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR name_ar ILIKE $` + strconv.Itoa(argCount) + ` OR slug ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.CategoryID != nil {
		argCount++
		cond := ` AND category_id = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.CategoryID)
	}
	if filters.IsActive != nil {
		argCount++
		cond := ` AND is_active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.NameAr, &p.Price, &p.SalePrice, &p.IsActive, &p.IsLimited, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Slug, &p.Name, &p.NameAr, &p.Price, &p.SalePrice, &p.IsActive, &p.IsLimited, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, product_id, size_label, color, color_code, stock, images, position
		FROM product_variants WHERE product_id = $1 ORDER BY position, id`, id)
	if err != nil {
		return Product{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SizeLabel, &v.Color, &v.ColorCode, &v.Stock, &v.Images, &v.Position); err != nil {
			return Product{}, err
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO products (slug, name, name_ar, price, sale_price, is_active, is_limited, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		product.Slug, product.Name, product.NameAr, product.Price, product.SalePrice, product.IsActive, product.IsLimited, product.CategoryID, now, now).
		Scan(&product.ID)
	if err != nil {
		return Product{}, err
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	_, err := r.db.Exec(ctx, `UPDATE products SET slug = $1, name = $2, name_ar = $3, price = $4, sale_price = $5, is_active = $6, is_limited = $7, category_id = $8, updated_at = $9 WHERE id = $10`,
		product.Slug, product.Name, product.NameAr, product.Price, product.SalePrice, product.IsActive, product.IsLimited, product.CategoryID, time.Now(), id)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

func (r *repository) AddVariant(ctx context.Context, variant Variant) (Variant, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO product_variants (product_id, size_label, color, color_code, stock, images, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		variant.ProductID, variant.SizeLabel, variant.Color, variant.ColorCode, variant.Stock, variant.Images, variant.Position).
		Scan(&variant.ID)
	if err != nil {
		return Variant{}, err
	}
	return variant, nil
}

func (r *repository) UpdateVariantStock(ctx context.Context, variantID int64, stock int) error {
	_, err := r.db.Exec(ctx, `UPDATE product_variants SET stock = $1 WHERE id = $2`, stock, variantID)
	return err
}

func (r *repository) DeleteVariant(ctx context.Context, variantID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE id = $1`, variantID)
	return err
}
