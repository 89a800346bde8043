package catalog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFiltersDefaults(t *testing.T) {
	filters := ParseFilters(url.Values{})

	require.Equal(t, AvailabilityAny, filters.Availability)
	require.Nil(t, filters.PriceRange)
	require.Empty(t, filters.Categories)
}

func TestParseFiltersAvailability(t *testing.T) {
	filters := ParseFilters(url.Values{"availability": {"in-stock"}})
	require.Equal(t, AvailabilityInStock, filters.Availability)

	filters = ParseFilters(url.Values{"availability": {"whatever"}})
	require.Equal(t, AvailabilityAny, filters.Availability)
}

func TestParseFiltersPriceRange(t *testing.T) {
	filters := ParseFilters(url.Values{"price_from": {"10"}, "price_to": {"50"}})
	require.NotNil(t, filters.PriceRange)
	require.Equal(t, 10.0, *filters.PriceRange.From)
	require.Equal(t, 50.0, *filters.PriceRange.To)
}

func TestParseFiltersMalformedPriceDropped(t *testing.T) {
	filters := ParseFilters(url.Values{"price_from": {"abc"}, "price_to": {"50"}})
	require.NotNil(t, filters.PriceRange)
	require.Nil(t, filters.PriceRange.From)
	require.Equal(t, 50.0, *filters.PriceRange.To)

	filters = ParseFilters(url.Values{"price_from": {"abc"}, "price_to": {"xyz"}})
	require.Nil(t, filters.PriceRange)
}

func TestParseFiltersNegativePriceClamped(t *testing.T) {
	filters := ParseFilters(url.Values{"price_from": {"-5"}})
	require.NotNil(t, filters.PriceRange)
	require.Equal(t, 0.0, *filters.PriceRange.From)
}

func TestParseFiltersInvertedBoundsSwapped(t *testing.T) {
	filters := ParseFilters(url.Values{"price_from": {"50"}, "price_to": {"10"}})
	require.Equal(t, 10.0, *filters.PriceRange.From)
	require.Equal(t, 50.0, *filters.PriceRange.To)
}

func TestParseFiltersCategories(t *testing.T) {
	filters := ParseFilters(url.Values{"category": {"1", "junk", "-2", "3"}})
	require.Equal(t, []int64{1, 3}, filters.Categories)
}
