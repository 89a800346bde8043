package categories

import "time"

// Category groups products for storefront navigation.
type Category struct {
	ID        int64
	Slug      string
	Name      string
	NameAr    string
	Position  int
	CreatedAt time.Time
}
