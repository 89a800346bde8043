package catalog

import (
	"net/url"
	"strconv"
)

// ParseFilters builds FilterOptions from listing query parameters.
// Malformed values degrade silently: a price bound that does not parse
// is dropped, negative bounds clamp to zero, and inverted bounds are
// swapped. A browsing page should narrow results, never fail.
func ParseFilters(query url.Values) FilterOptions {
	filters := FilterOptions{}

	switch Availability(query.Get("availability")) {
	case AvailabilityInStock:
		filters.Availability = AvailabilityInStock
	case AvailabilityOutOfStock:
		filters.Availability = AvailabilityOutOfStock
	}

	from := parsePrice(query.Get("price_from"))
	to := parsePrice(query.Get("price_to"))
	if from != nil && to != nil && *from > *to {
		from, to = to, from
	}
	if from != nil || to != nil {
		filters.PriceRange = &PriceRange{From: from, To: to}
	}

	for _, raw := range query["category"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filters.Categories = append(filters.Categories, id)
		}
	}

	return filters
}

func parsePrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	if value < 0 {
		value = 0
	}
	return &value
}
