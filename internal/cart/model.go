package cart

import (
	"errors"
	"time"
)

// Sentinel errors for cart operations.
var (
	ErrVariantNotFound = errors.New("cart: variant not found")
	ErrOutOfStock      = errors.New("cart: variant out of stock")
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	ErrLineNotFound    = errors.New("cart: line not found")
)

// Owner identifies who a cart belongs to: an authenticated user or a
// guest session. Exactly one side is set.
type Owner struct {
	UserID  int64
	GuestID string
}

// IsGuest reports whether the owner is an unauthenticated session.
func (o Owner) IsGuest() bool {
	return o.UserID == 0
}

// UserOwner builds an Owner for an authenticated user.
func UserOwner(userID int64) Owner {
	return Owner{UserID: userID}
}

// GuestOwner builds an Owner for a guest session identity.
func GuestOwner(guestID string) Owner {
	return Owner{GuestID: guestID}
}

// Cart holds the lines for one owner. Created lazily on first add.
type Cart struct {
	ID        int64
	UserID    *int64
	GuestID   *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Lines     []Line
}

// Line is one variant in a cart. The product fields are denormalized at
// read time for display; the row itself stores only cart, variant and
// quantity.
type Line struct {
	ID        int64
	CartID    int64
	VariantID int64
	Quantity  int

	ProductID   int64
	ProductName string
	ProductAr   string
	Slug        string
	SizeLabel   string
	Color       string
	Price       float64
	SalePrice   *float64
	Stock       int
	ImageURL    string
}

// UnitPrice is the price charged for the line's variant: sale price when
// set, base price otherwise.
func (l Line) UnitPrice() float64 {
	if l.SalePrice != nil {
		return *l.SalePrice
	}
	return l.Price
}

// Subtotal is the line total.
func (l Line) Subtotal() float64 {
	return l.UnitPrice() * float64(l.Quantity)
}

// DisplayName returns the product name for the locale.
func (l Line) DisplayName(locale string) string {
	if locale == "ar" && l.ProductAr != "" {
		return l.ProductAr
	}
	return l.ProductName
}

// Count sums line quantities.
func (c Cart) Count() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Subtotal sums line totals.
func (c Cart) Subtotal() float64 {
	total := 0.0
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

// MergeResult reports what a guest cart merge did.
type MergeResult struct {
	CartID  int64
	Merged  int
	Skipped []int64
}
