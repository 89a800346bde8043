package products

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 25
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	product.Slug = strings.TrimSpace(strings.ToLower(product.Slug))
	if err := validateProduct(product); err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	product.Slug = strings.TrimSpace(strings.ToLower(product.Slug))
	if err := validateProduct(product); err != nil {
		return fmt.Errorf("products: update: %w", err)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddVariant(ctx context.Context, variant Variant) (Variant, error) {
	if err := validateVariant(variant); err != nil {
		return Variant{}, fmt.Errorf("products: add variant: %w", err)
	}
	if _, err := s.repo.Get(ctx, variant.ProductID); err != nil {
		return Variant{}, err
	}
	return s.repo.AddVariant(ctx, variant)
}

func (s *Service) SetVariantStock(ctx context.Context, variantID int64, stock int) error {
	if stock < 0 {
		return fmt.Errorf("products: set variant stock: stock cannot be negative")
	}
	return s.repo.UpdateVariantStock(ctx, variantID, stock)
}

func (s *Service) DeleteVariant(ctx context.Context, variantID int64) error {
	return s.repo.DeleteVariant(ctx, variantID)
}
