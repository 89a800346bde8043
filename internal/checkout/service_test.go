package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlaswear/atlaswear/internal/cart"
)

type memoryRepo struct {
	cartID    int64
	cartLines []cart.Line
	stock     map[int64]int

	orders      map[string]Order
	nextOrderID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		stock:  make(map[int64]int),
		orders: make(map[string]Order),
	}
}

func (r *memoryRepo) snapshot() (map[int64]int, []cart.Line, int64, map[string]Order) {
	stock := make(map[int64]int, len(r.stock))
	for k, v := range r.stock {
		stock[k] = v
	}
	lines := append([]cart.Line(nil), r.cartLines...)
	orders := make(map[string]Order, len(r.orders))
	for k, v := range r.orders {
		orders[k] = v
	}
	return stock, lines, r.cartID, orders
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	stock, lines, cartID, orders := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.stock, r.cartLines, r.cartID, r.orders = stock, lines, cartID, orders
		return err
	}
	return nil
}

func (r *memoryRepo) GetByCode(ctx context.Context, code string) (Order, error) {
	order, ok := r.orders[code]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (r *memoryRepo) SetStatus(ctx context.Context, code, status string) error {
	order, ok := r.orders[code]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	r.orders[code] = order
	return nil
}

func (tx *memoryTx) LockCartLines(ctx context.Context, owner cart.Owner) (int64, []cart.Line, error) {
	return tx.repo.cartID, append([]cart.Line(nil), tx.repo.cartLines...), nil
}

func (tx *memoryTx) DecrementStock(ctx context.Context, variantID int64, qty int) error {
	if tx.repo.stock[variantID] < qty {
		return ErrInsufficientStock
	}
	tx.repo.stock[variantID] -= qty
	return nil
}

func (tx *memoryTx) InsertOrder(ctx context.Context, order Order) (int64, error) {
	tx.repo.nextOrderID++
	order.ID = tx.repo.nextOrderID
	tx.repo.orders[order.Code] = order
	return order.ID, nil
}

func (tx *memoryTx) InsertOrderLines(ctx context.Context, orderID int64, lines []OrderLine) error {
	return nil
}

func (tx *memoryTx) DeleteCart(ctx context.Context, cartID int64) error {
	tx.repo.cartID = 0
	tx.repo.cartLines = nil
	return nil
}

type stubMailer struct {
	emails []string
	codes  []string
}

func (m *stubMailer) EnqueueOrderConfirmation(ctx context.Context, email, orderCode string) error {
	m.emails = append(m.emails, email)
	m.codes = append(m.codes, orderCode)
	return nil
}

func validInput() CheckoutInput {
	return CheckoutInput{
		Email:   "buyer@example.com",
		Name:    "Buyer",
		Address: "1 Main Street",
		City:    "Casablanca",
	}
}

func TestPlaceOrderSnapshotsAndClearsCart(t *testing.T) {
	repo := newMemoryRepo()
	sale := 15.0
	repo.cartID = 1
	repo.cartLines = []cart.Line{
		{VariantID: 1, Quantity: 2, ProductName: "Tee", Price: 20, SalePrice: &sale},
		{VariantID: 2, Quantity: 1, ProductName: "Cap", Price: 24},
	}
	repo.stock = map[int64]int{1: 5, 2: 5}
	mail := &stubMailer{}
	svc := NewService(repo, mail, nil)

	order, err := svc.PlaceOrder(context.Background(), cart.UserOwner(42), validInput())
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Len(t, order.Lines, 2)
	// Sale price is charged and snapshotted, not the base price.
	require.InDelta(t, 15.0, order.Lines[0].UnitPrice, 0.001)
	require.InDelta(t, 2*15.0+24.0, order.Total, 0.001)

	require.Equal(t, 3, repo.stock[1])
	require.Equal(t, 4, repo.stock[2])
	require.Empty(t, repo.cartLines)

	require.Equal(t, []string{"buyer@example.com"}, mail.emails)
	require.Equal(t, []string{order.Code}, mail.codes)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), cart.GuestOwner("g1"), validInput())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.cartID = 1
	repo.cartLines = []cart.Line{
		{VariantID: 1, Quantity: 1, ProductName: "Tee", Price: 20},
		{VariantID: 2, Quantity: 3, ProductName: "Cap", Price: 24},
	}
	repo.stock = map[int64]int{1: 5, 2: 2}
	svc := NewService(repo, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), cart.UserOwner(42), validInput())
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing was decremented and the cart survives.
	require.Equal(t, 5, repo.stock[1])
	require.Equal(t, 2, repo.stock[2])
	require.Len(t, repo.cartLines, 2)
	require.Empty(t, repo.orders)
}

func TestCompletePayment(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders["ORD-1"] = Order{Code: "ORD-1", Status: StatusPending}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.CompletePayment(ctx, "ORD-1", true))
	order, err := svc.GetByCode(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, StatusPaid, order.Status)

	require.NoError(t, svc.CompletePayment(ctx, "ORD-1", false))
	order, err = svc.GetByCode(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, order.Status)

	require.ErrorIs(t, svc.CompletePayment(ctx, "missing", true), ErrOrderNotFound)
}
