package catalog

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// searchLimit caps type-ahead results; the endpoint feeds a dropdown,
// not a results page.
const searchLimit = 8

// Service exposes catalog reads to the storefront handlers.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListingQuery describes a listing or category page request.
type ListingQuery struct {
	CategorySlug string
	Sort         SortOption
	Filters      FilterOptions
	Locale       string
}

// ListingResult is the rendered listing page input.
type ListingResult struct {
	Products   []Product
	Categories []Category
	Category   *Category
}

// Listing loads the active catalog and runs it through the pipeline.
// When a category slug is present the category becomes an extra filter
// on top of whatever the query already asked for.
func (s *Service) Listing(ctx context.Context, q ListingQuery) (ListingResult, error) {
	var result ListingResult

	if q.CategorySlug != "" {
		category, err := s.repo.GetCategoryBySlug(ctx, q.CategorySlug)
		if err != nil {
			return ListingResult{}, err
		}
		result.Category = &category
		q.Filters.Categories = append(q.Filters.Categories, category.ID)
	}

	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return ListingResult{}, err
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return ListingResult{}, err
	}

	result.Products = Process(products, q.Sort, q.Filters, q.Locale)
	result.Categories = categories
	return result, nil
}

// Detail loads one product with its variants.
func (s *Service) Detail(ctx context.Context, slug string) (Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// SearchResult is the type-ahead payload.
type SearchResult struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
}

// Search runs the product and category lookups concurrently and caps
// both result sets for the dropdown.
func (s *Service) Search(ctx context.Context, q string) (SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return SearchResult{Products: []Product{}, Categories: []Category{}}, nil
	}

	var result SearchResult
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.repo.SearchProducts(ctx, q, searchLimit)
		if err != nil {
			return err
		}
		result.Products = products
		return nil
	})
	g.Go(func() error {
		categories, err := s.repo.SearchCategories(ctx, q, searchLimit)
		if err != nil {
			return err
		}
		result.Categories = categories
		return nil
	})
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}
	if result.Products == nil {
		result.Products = []Product{}
	}
	if result.Categories == nil {
		result.Categories = []Category{}
	}
	return result, nil
}
