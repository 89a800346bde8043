package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlaswear/atlaswear/internal/cart"
)

// MailEnqueuer queues the order confirmation for the background worker.
type MailEnqueuer interface {
	EnqueueOrderConfirmation(ctx context.Context, email, orderCode string) error
}

// Service turns carts into orders.
type Service struct {
	repo   RepositoryPort
	mail   MailEnqueuer
	logger *slog.Logger
}

func NewService(repo RepositoryPort, mail MailEnqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, mail: mail, logger: logger}
}

// PlaceOrder creates an order from the owner's cart in one transaction:
// snapshot lines at current prices, decrement variant stock, delete the
// cart. Stock is enforced here, not at cart time, so an oversold line
// fails the whole checkout.
func (s *Service) PlaceOrder(ctx context.Context, owner cart.Owner, input CheckoutInput) (Order, error) {
	order := Order{
		Code:    newOrderCode(),
		Email:   input.Email,
		Name:    input.Name,
		Phone:   input.Phone,
		Address: input.Address,
		City:    input.City,
		Status:  StatusPending,
	}
	if !owner.IsGuest() {
		userID := owner.UserID
		order.UserID = &userID
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cartID, lines, err := tx.LockCartLines(ctx, owner)
		if err != nil {
			return err
		}
		if cartID == 0 || len(lines) == 0 {
			return ErrEmptyCart
		}

		for _, line := range lines {
			if err := tx.DecrementStock(ctx, line.VariantID, line.Quantity); err != nil {
				return fmt.Errorf("variant %d: %w", line.VariantID, err)
			}
			variantID := line.VariantID
			order.Lines = append(order.Lines, OrderLine{
				VariantID:   &variantID,
				ProductName: line.ProductName,
				SizeLabel:   line.SizeLabel,
				Color:       line.Color,
				UnitPrice:   line.UnitPrice(),
				Quantity:    line.Quantity,
			})
			order.Total += line.Subtotal()
		}

		orderID, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID
		if err := tx.InsertOrderLines(ctx, orderID, order.Lines); err != nil {
			return err
		}
		return tx.DeleteCart(ctx, cartID)
	})
	if err != nil {
		return Order{}, err
	}

	if s.mail != nil {
		if err := s.mail.EnqueueOrderConfirmation(ctx, order.Email, order.Code); err != nil {
			// The order stands; only the notification is delayed.
			s.logger.Warn("enqueue order confirmation", slog.Any("error", err), slog.String("order", order.Code))
		}
	}
	return order, nil
}

// GetByCode loads an order for the result page.
func (s *Service) GetByCode(ctx context.Context, code string) (Order, error) {
	return s.repo.GetByCode(ctx, code)
}

// CompletePayment records the payment provider's redirect outcome.
func (s *Service) CompletePayment(ctx context.Context, code string, success bool) error {
	status := StatusCancelled
	if success {
		status = StatusPaid
	}
	return s.repo.SetStatus(ctx, code, status)
}

func newOrderCode() string {
	if id, err := uuid.NewRandom(); err == nil {
		return "ORD-" + id.String()[:8]
	}
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}
