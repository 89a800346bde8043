package checkout

import (
	"errors"
	"time"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

var (
	ErrEmptyCart         = errors.New("checkout: cart is empty")
	ErrInsufficientStock = errors.New("checkout: not enough stock")
	ErrOrderNotFound     = errors.New("checkout: order not found")
)

// Order is a placed order with its snapshot lines.
type Order struct {
	ID        int64
	Code      string
	UserID    *int64
	Email     string
	Name      string
	Phone     string
	Address   string
	City      string
	Status    string
	Total     float64
	CreatedAt time.Time
	UpdatedAt time.Time
	Lines     []OrderLine
}

// OrderLine snapshots what was bought at the price it was bought for.
// The variant reference may go stale later; the snapshot fields do not.
type OrderLine struct {
	ID          int64
	OrderID     int64
	VariantID   *int64
	ProductName string
	SizeLabel   string
	Color       string
	UnitPrice   float64
	Quantity    int
}

// CheckoutInput is the validated shipping form.
type CheckoutInput struct {
	Email   string `validate:"required,email"`
	Name    string `validate:"required,min=2"`
	Phone   string `validate:"omitempty,min=6"`
	Address string `validate:"required,min=5"`
	City    string `validate:"required,min=2"`
}
