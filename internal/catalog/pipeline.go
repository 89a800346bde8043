package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOption enumerates the orderings a listing page can request.
type SortOption string

const (
	SortFeatured  SortOption = "featured"
	SortNameAsc   SortOption = "name-asc"
	SortNameDesc  SortOption = "name-desc"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
	SortDateDesc  SortOption = "date-desc"
	SortDateAsc   SortOption = "date-asc"
)

// Availability narrows a listing to products with or without stock.
type Availability string

const (
	AvailabilityAny        Availability = ""
	AvailabilityInStock    Availability = "in-stock"
	AvailabilityOutOfStock Availability = "out-of-stock"
)

// PriceRange bounds the comparison price, inclusive. A nil bound means
// no constraint on that side.
type PriceRange struct {
	From *float64
	To   *float64
}

// FilterOptions carries the optional listing filters. The zero value
// keeps every product.
type FilterOptions struct {
	Availability Availability
	PriceRange   *PriceRange
	Categories   []int64
}

// Process filters and sorts a loaded product list. It never mutates its
// input: callers can reuse the same slice for a different sort. Filters
// apply before the sort, in a fixed order: availability, price range,
// category. Unknown sort values get the featured ordering. Safe to call
// from concurrent requests; it shares no state between invocations.
func Process(products []Product, sortBy SortOption, filters FilterOptions, locale string) []Product {
	result := make([]Product, 0, len(products))
	categorySet := make(map[int64]struct{}, len(filters.Categories))
	for _, id := range filters.Categories {
		categorySet[id] = struct{}{}
	}

	for _, p := range products {
		switch filters.Availability {
		case AvailabilityInStock:
			if !p.InStock() {
				continue
			}
		case AvailabilityOutOfStock:
			if p.InStock() {
				continue
			}
		}
		if r := filters.PriceRange; r != nil {
			price := p.ComparisonPrice()
			if r.From != nil && price < *r.From {
				continue
			}
			if r.To != nil && price > *r.To {
				continue
			}
		}
		if len(categorySet) > 0 {
			if p.CategoryID == nil {
				continue
			}
			if _, ok := categorySet[*p.CategoryID]; !ok {
				continue
			}
		}
		result = append(result, p)
	}

	sortProducts(result, sortBy, locale)
	return result
}

func sortProducts(products []Product, sortBy SortOption, locale string) {
	switch sortBy {
	case SortNameAsc:
		c := collatorFor(locale)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].DisplayName(locale), products[j].DisplayName(locale)) < 0
		})
	case SortNameDesc:
		c := collatorFor(locale)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].DisplayName(locale), products[j].DisplayName(locale)) > 0
		})
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].ComparisonPrice() < products[j].ComparisonPrice()
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].ComparisonPrice() > products[j].ComparisonPrice()
		})
	case SortDateAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].CreatedAt.Before(products[j].CreatedAt)
		})
	case SortDateDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		})
	default:
		// Featured: limited editions first, then in-stock, then newest.
		sort.SliceStable(products, func(i, j int) bool {
			a, b := products[i], products[j]
			if a.IsLimited != b.IsLimited {
				return a.IsLimited
			}
			if a.InStock() != b.InStock() {
				return a.InStock()
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	}
}

// collatorFor builds a collator for name sorting. Arabic names sort by
// Arabic collation rules, everything else by English. Collators mutate
// internal iterator state on every comparison, so each sort gets its
// own instead of sharing one across requests.
func collatorFor(locale string) *collate.Collator {
	if locale == "ar" {
		return collate.New(language.Arabic)
	}
	return collate.New(language.English)
}

// ParseSort maps a raw query value to a SortOption. Unrecognized values
// fall back to the featured ordering rather than erroring: browsing is
// best effort.
func ParseSort(raw string) SortOption {
	switch SortOption(raw) {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc, SortDateAsc, SortDateDesc:
		return SortOption(raw)
	default:
		return SortFeatured
	}
}
