package catalog

import "time"

// Category groups products for navigation and filtering.
type Category struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	NameAr    string    `json:"name_ar"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog entry. SalePrice is nil unless the product is
// discounted; NameAr is empty unless an Arabic name was entered.
type Product struct {
	ID         int64      `json:"id"`
	Slug       string     `json:"slug"`
	Name       string     `json:"name"`
	NameAr     string     `json:"name_ar"`
	Price      float64    `json:"price"`
	SalePrice  *float64   `json:"sale_price"`
	IsActive   bool       `json:"is_active"`
	IsLimited  bool       `json:"is_limited"`
	CategoryID *int64     `json:"category_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Variants   []Variant  `json:"variants"`
}

// Variant is a purchasable size/color combination with its own stock.
type Variant struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"product_id"`
	SizeLabel string   `json:"size_label"`
	Color     string   `json:"color"`
	ColorCode string   `json:"color_code"`
	Stock     int      `json:"stock"`
	Images    []string `json:"images"`
	Position  int      `json:"position"`
}

// ComparisonPrice is the price used for filtering and price sorting:
// the sale price when set, the base price otherwise.
func (p Product) ComparisonPrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// OnSale reports whether the sale price applies.
func (p Product) OnSale() bool {
	return p.SalePrice != nil && *p.SalePrice < p.Price
}

// TotalStock sums variant stock. Negative counts are data errors and are
// clamped to zero before summing so a single bad row cannot hide stock.
func (p Product) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		if v.Stock > 0 {
			total += v.Stock
		}
	}
	return total
}

// InStock reports whether any variant has stock. A product without
// variants is never in stock.
func (p Product) InStock() bool {
	return p.TotalStock() > 0
}

// DisplayName returns the name for the locale: the Arabic name when the
// locale is Arabic and one was entered, the primary name otherwise.
func (p Product) DisplayName(locale string) string {
	if locale == "ar" && p.NameAr != "" {
		return p.NameAr
	}
	return p.Name
}

// DisplayName returns the category name for the locale.
func (c Category) DisplayName(locale string) string {
	if locale == "ar" && c.NameAr != "" {
		return c.NameAr
	}
	return c.Name
}
