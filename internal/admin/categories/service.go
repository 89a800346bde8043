package categories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrHasProducts blocks deleting a category that still has products.
var ErrHasProducts = errors.New("categories: category still has products")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	category.Slug = strings.TrimSpace(strings.ToLower(category.Slug))
	if err := validate(category); err != nil {
		return Category{}, fmt.Errorf("categories: create: %w", err)
	}
	return s.repo.Create(ctx, category)
}

func (s *Service) Update(ctx context.Context, id int64, category Category) error {
	category.Slug = strings.TrimSpace(strings.ToLower(category.Slug))
	if err := validate(category); err != nil {
		return fmt.Errorf("categories: update: %w", err)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, category)
}

// Delete refuses while products still point at the category. Reassign
// them first.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.ProductCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasProducts
	}
	return s.repo.Delete(ctx, id)
}

func validate(c Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !slugPattern.MatchString(c.Slug) {
		return fmt.Errorf("slug %q must be lowercase letters, digits and hyphens", c.Slug)
	}
	return nil
}
