package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlaswear/atlaswear/internal/shared"
)

type memoryRepo struct {
	products   []Product
	categories []Category
	searchErr  error
}

func (r *memoryRepo) ListActive(ctx context.Context) ([]Product, error) {
	return append([]Product(nil), r.products...), nil
}

func (r *memoryRepo) GetBySlug(ctx context.Context, slug string) (Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (r *memoryRepo) ListCategories(ctx context.Context) ([]Category, error) {
	return append([]Category(nil), r.categories...), nil
}

func (r *memoryRepo) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	for _, c := range r.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Category{}, shared.ErrNotFound
}

func (r *memoryRepo) SearchProducts(ctx context.Context, q string, limit int) ([]Product, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	var out []Product
	for _, p := range r.products {
		if len(out) == limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) SearchCategories(ctx context.Context, q string, limit int) ([]Category, error) {
	return nil, nil
}

func newFixtureService() (*Service, *memoryRepo) {
	cat := int64(1)
	repo := &memoryRepo{
		products: []Product{
			{ID: 1, Slug: "tee", Name: "Tee", Price: 20, CategoryID: &cat, Variants: []Variant{{Stock: 3}}},
			{ID: 2, Slug: "cap", Name: "Cap", Price: 24, Variants: []Variant{{Stock: 1}}},
		},
		categories: []Category{{ID: 1, Slug: "tees", Name: "T-Shirts"}},
	}
	return NewService(repo), repo
}

func TestListingCategorySlugBecomesFilter(t *testing.T) {
	svc, _ := newFixtureService()

	result, err := svc.Listing(context.Background(), ListingQuery{CategorySlug: "tees", Locale: "en"})
	require.NoError(t, err)
	require.NotNil(t, result.Category)
	require.Equal(t, "tees", result.Category.Slug)
	require.Len(t, result.Products, 1)
	require.Equal(t, "tee", result.Products[0].Slug)
}

func TestListingUnknownCategory(t *testing.T) {
	svc, _ := newFixtureService()

	_, err := svc.Listing(context.Background(), ListingQuery{CategorySlug: "nope", Locale: "en"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc, _ := newFixtureService()

	result, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	require.NotNil(t, result.Products)
	require.NotNil(t, result.Categories)
	require.Empty(t, result.Products)
}

func TestSearchPropagatesErrors(t *testing.T) {
	svc, repo := newFixtureService()
	repo.searchErr = errors.New("db down")

	_, err := svc.Search(context.Background(), "tee")
	require.Error(t, err)
}

func TestSearchReturnsEmptySlicesNotNil(t *testing.T) {
	svc, repo := newFixtureService()
	repo.products = nil

	result, err := svc.Search(context.Background(), "tee")
	require.NoError(t, err)
	require.NotNil(t, result.Products)
	require.NotNil(t, result.Categories)
}
