package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaswear/atlaswear/internal/cart"
	"github.com/atlaswear/atlaswear/internal/platform/db"
)

// RepositoryPort abstracts order persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByCode(ctx context.Context, code string) (Order, error)
	SetStatus(ctx context.Context, code, status string) error
}

// TxRepository is the transactional surface for placing an order. Stock
// rows are locked while decrementing so concurrent checkouts cannot
// oversell the same variant.
type TxRepository interface {
	LockCartLines(ctx context.Context, owner cart.Owner) (int64, []cart.Line, error)
	DecrementStock(ctx context.Context, variantID int64, qty int) error
	InsertOrder(ctx context.Context, order Order) (int64, error)
	InsertOrderLines(ctx context.Context, orderID int64, lines []OrderLine) error
	DeleteCart(ctx context.Context, cartID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) GetByCode(ctx context.Context, code string) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `SELECT id, code, user_id, email, name, phone, address, city, status, total, created_at, updated_at
		FROM orders WHERE code = $1`, code).
		Scan(&o.ID, &o.Code, &o.UserID, &o.Email, &o.Name, &o.Phone, &o.Address, &o.City, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, order_id, variant_id, product_name, size_label, color, unit_price, quantity
		FROM order_lines WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.VariantID, &l.ProductName, &l.SizeLabel, &l.Color, &l.UnitPrice, &l.Quantity); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

func (r *repository) SetStatus(ctx context.Context, code, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE code = $1`, code, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (t *txRepository) LockCartLines(ctx context.Context, owner cart.Owner) (int64, []cart.Line, error) {
	var cartID int64
	var err error
	if owner.IsGuest() {
		err = t.tx.QueryRow(ctx, `SELECT id FROM carts WHERE guest_id = $1 FOR UPDATE`, owner.GuestID).Scan(&cartID)
	} else {
		err = t.tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, owner.UserID).Scan(&cartID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	rows, err := t.tx.Query(ctx, `SELECT cl.variant_id, cl.quantity, p.name, v.size_label, v.color, p.price, p.sale_price, v.stock
		FROM cart_lines cl
		JOIN product_variants v ON v.id = cl.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE cl.cart_id = $1
		ORDER BY cl.id
		FOR UPDATE OF v`, cartID)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var lines []cart.Line
	for rows.Next() {
		var l cart.Line
		if err := rows.Scan(&l.VariantID, &l.Quantity, &l.ProductName, &l.SizeLabel, &l.Color, &l.Price, &l.SalePrice, &l.Stock); err != nil {
			return 0, nil, err
		}
		l.CartID = cartID
		lines = append(lines, l)
	}
	return cartID, lines, rows.Err()
}

func (t *txRepository) DecrementStock(ctx context.Context, variantID int64, qty int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE product_variants SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, variantID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (t *txRepository) InsertOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO orders (code, user_id, email, name, phone, address, city, status, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		order.Code, order.UserID, order.Email, order.Name, order.Phone, order.Address, order.City, order.Status, order.Total).Scan(&id)
	return id, err
}

func (t *txRepository) InsertOrderLines(ctx context.Context, orderID int64, lines []OrderLine) error {
	for _, l := range lines {
		if _, err := t.tx.Exec(ctx, `INSERT INTO order_lines (order_id, variant_id, product_name, size_label, color, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			orderID, l.VariantID, l.ProductName, l.SizeLabel, l.Color, l.UnitPrice, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) DeleteCart(ctx context.Context, cartID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}
