package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaswear/atlaswear/internal/platform/db"
)

// RepositoryPort abstracts cart persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByOwner(ctx context.Context, owner Owner) (Cart, error)
	DeleteIdleGuestCarts(ctx context.Context, idleSince time.Time) (int64, error)
}

// TxRepository is the transactional surface used inside WithTx. The
// merge path locks the destination cart row so concurrent logins for
// the same user serialize instead of double-counting quantities.
type TxRepository interface {
	GetOrCreateCartForUpdate(ctx context.Context, owner Owner) (int64, error)
	FindCart(ctx context.Context, owner Owner) (int64, error)
	GetLines(ctx context.Context, cartID int64) ([]Line, error)
	VariantExists(ctx context.Context, variantID int64) (bool, int, error)
	UpsertLine(ctx context.Context, cartID, variantID int64, qty int) error
	SetLineQuantity(ctx context.Context, cartID, variantID int64, qty int) error
	RemoveLine(ctx context.Context, cartID, variantID int64) error
	DeleteCart(ctx context.Context, cartID int64) error
	TouchCart(ctx context.Context, cartID int64) error
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

const lineColumns = `
	cl.id, cl.cart_id, cl.variant_id, cl.quantity,
	p.id, p.name, p.name_ar, p.slug, v.size_label, v.color,
	p.price, p.sale_price, v.stock,
	COALESCE(v.images[1], '')`

func (r *repository) GetByOwner(ctx context.Context, owner Owner) (Cart, error) {
	var (
		cart Cart
		err  error
	)
	if owner.IsGuest() {
		err = r.pool.QueryRow(ctx, `SELECT id, user_id, guest_id, created_at, updated_at FROM carts WHERE guest_id = $1`, owner.GuestID).
			Scan(&cart.ID, &cart.UserID, &cart.GuestID, &cart.CreatedAt, &cart.UpdatedAt)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT id, user_id, guest_id, created_at, updated_at FROM carts WHERE user_id = $1`, owner.UserID).
			Scan(&cart.ID, &cart.UserID, &cart.GuestID, &cart.CreatedAt, &cart.UpdatedAt)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lazily created carts: no row yet means an empty cart.
			return Cart{}, nil
		}
		return Cart{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+`
		FROM cart_lines cl
		JOIN product_variants v ON v.id = cl.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE cl.cart_id = $1
		ORDER BY cl.id`, cart.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID, &l.CartID, &l.VariantID, &l.Quantity,
			&l.ProductID, &l.ProductName, &l.ProductAr, &l.Slug, &l.SizeLabel, &l.Color,
			&l.Price, &l.SalePrice, &l.Stock, &l.ImageURL,
		); err != nil {
			return Cart{}, err
		}
		cart.Lines = append(cart.Lines, l)
	}
	return cart, rows.Err()
}

func (r *repository) DeleteIdleGuestCarts(ctx context.Context, idleSince time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE guest_id IS NOT NULL AND updated_at < $1`, idleSince)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) GetOrCreateCartForUpdate(ctx context.Context, owner Owner) (int64, error) {
	id, err := t.lockCart(ctx, owner)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var insertErr error
	if owner.IsGuest() {
		insertErr = t.tx.QueryRow(ctx, `INSERT INTO carts (guest_id) VALUES ($1)
			ON CONFLICT (guest_id) WHERE guest_id IS NOT NULL DO NOTHING RETURNING id`, owner.GuestID).Scan(&id)
	} else {
		insertErr = t.tx.QueryRow(ctx, `INSERT INTO carts (user_id) VALUES ($1)
			ON CONFLICT (user_id) WHERE user_id IS NOT NULL DO NOTHING RETURNING id`, owner.UserID).Scan(&id)
	}
	if insertErr == nil {
		return id, nil
	}
	if !errors.Is(insertErr, pgx.ErrNoRows) {
		return 0, insertErr
	}
	// Lost the insert race; the row exists now, lock it.
	return t.lockCart(ctx, owner)
}

func (t *txRepository) lockCart(ctx context.Context, owner Owner) (int64, error) {
	var id int64
	if owner.IsGuest() {
		err := t.tx.QueryRow(ctx, `SELECT id FROM carts WHERE guest_id = $1 FOR UPDATE`, owner.GuestID).Scan(&id)
		return id, err
	}
	err := t.tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, owner.UserID).Scan(&id)
	return id, err
}

func (t *txRepository) FindCart(ctx context.Context, owner Owner) (int64, error) {
	id, err := t.lockCart(ctx, owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (t *txRepository) GetLines(ctx context.Context, cartID int64) ([]Line, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, cart_id, variant_id, quantity FROM cart_lines WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.CartID, &l.VariantID, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t *txRepository) VariantExists(ctx context.Context, variantID int64) (bool, int, error) {
	var stock int
	err := t.tx.QueryRow(ctx, `SELECT stock FROM product_variants WHERE id = $1`, variantID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, stock, nil
}

func (t *txRepository) UpsertLine(ctx context.Context, cartID, variantID int64, qty int) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO cart_lines (cart_id, variant_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`,
		cartID, variantID, qty)
	return err
}

func (t *txRepository) SetLineQuantity(ctx context.Context, cartID, variantID int64, qty int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE cart_lines SET quantity = $3 WHERE cart_id = $1 AND variant_id = $2`, cartID, variantID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (t *txRepository) RemoveLine(ctx context.Context, cartID, variantID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND variant_id = $2`, cartID, variantID)
	return err
}

func (t *txRepository) DeleteCart(ctx context.Context, cartID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}

func (t *txRepository) TouchCart(ctx context.Context, cartID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
	return err
}
