package products

import "time"

// Product is the editable catalog entry as seen by the back office.
type Product struct {
	ID         int64
	Slug       string
	Name       string
	NameAr     string
	Price      float64
	SalePrice  *float64
	IsActive   bool
	IsLimited  bool
	CategoryID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Variants   []Variant
}

// Variant is one purchasable size/color row under a product.
type Variant struct {
	ID        int64
	ProductID int64
	SizeLabel string
	Color     string
	ColorCode string
	Stock     int
	Images    []string
	Position  int
}

// ListFilters narrows the admin product list.
type ListFilters struct {
	Search     string
	CategoryID *int64
	IsActive   *bool
	Page       int
	Limit      int
}
