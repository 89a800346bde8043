package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service coordinates cart operations. All mutations run inside a
// repository transaction; the cache mirror is refreshed afterwards.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
}

func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Get loads the owner's cart with display data. A missing cart row is an
// empty cart, not an error.
func (s *Service) Get(ctx context.Context, owner Owner) (Cart, error) {
	return s.repo.GetByOwner(ctx, owner)
}

// AddLine puts qty of a variant into the owner's cart, creating the cart
// on first use. Adding a variant already in the cart increments the
// existing line instead of creating a duplicate.
func (s *Service) AddLine(ctx context.Context, owner Owner, variantID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, stock, err := tx.VariantExists(ctx, variantID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrVariantNotFound
		}
		if stock <= 0 {
			return ErrOutOfStock
		}
		cartID, err := tx.GetOrCreateCartForUpdate(ctx, owner)
		if err != nil {
			return err
		}
		if err := tx.UpsertLine(ctx, cartID, variantID, qty); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cartID)
	})
	if err != nil {
		return err
	}
	s.refreshCache(ctx, owner)
	return nil
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, owner Owner, variantID int64, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cartID, err := tx.FindCart(ctx, owner)
		if err != nil {
			return err
		}
		if cartID == 0 {
			return ErrLineNotFound
		}
		if qty == 0 {
			if err := tx.RemoveLine(ctx, cartID, variantID); err != nil {
				return err
			}
		} else if err := tx.SetLineQuantity(ctx, cartID, variantID, qty); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cartID)
	})
	if err != nil {
		return err
	}
	s.refreshCache(ctx, owner)
	return nil
}

// RemoveLine drops a variant from the owner's cart.
func (s *Service) RemoveLine(ctx context.Context, owner Owner, variantID int64) error {
	return s.SetQuantity(ctx, owner, variantID, 0)
}

// MergeGuestCart folds a guest cart into the user's cart at login. The
// whole merge is one transaction with the destination cart row locked,
// so two concurrent logins for the same user serialize; a failure rolls
// everything back and leaves both carts untouched.
//
// Lines whose variant has been deleted since the guest added them are
// skipped and reported, not fatal. Quantities are summed without a
// stock cap; checkout is where stock is enforced.
func (s *Service) MergeGuestCart(ctx context.Context, guestID string, userID int64) (MergeResult, error) {
	var result MergeResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		guestCartID, err := tx.FindCart(ctx, GuestOwner(guestID))
		if err != nil {
			return err
		}
		if guestCartID == 0 {
			// Nothing to merge; still resolve the destination for the result.
			result.CartID, err = tx.FindCart(ctx, UserOwner(userID))
			return err
		}

		guestLines, err := tx.GetLines(ctx, guestCartID)
		if err != nil {
			return err
		}

		userCartID, err := tx.GetOrCreateCartForUpdate(ctx, UserOwner(userID))
		if err != nil {
			return err
		}
		result.CartID = userCartID

		for _, line := range guestLines {
			exists, _, err := tx.VariantExists(ctx, line.VariantID)
			if err != nil {
				return err
			}
			if !exists {
				result.Skipped = append(result.Skipped, line.VariantID)
				continue
			}
			if err := tx.UpsertLine(ctx, userCartID, line.VariantID, line.Quantity); err != nil {
				return err
			}
			result.Merged++
		}

		if err := tx.DeleteCart(ctx, guestCartID); err != nil {
			return err
		}
		return tx.TouchCart(ctx, userCartID)
	})
	if err != nil {
		return MergeResult{}, fmt.Errorf("cart: merge guest cart: %w", err)
	}
	if len(result.Skipped) > 0 && s.logger != nil {
		s.logger.Warn("cart merge skipped deleted variants",
			slog.Int64("user_id", userID),
			slog.Any("variant_ids", result.Skipped))
	}
	s.refreshCache(ctx, GuestOwner(guestID))
	s.refreshCache(ctx, UserOwner(userID))
	return result, nil
}

// ReapIdleGuestCarts deletes guest carts untouched for the retention
// window. Called from the background worker.
func (s *Service) ReapIdleGuestCarts(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteIdleGuestCarts(ctx, time.Now().Add(-retention))
}

func (s *Service) refreshCache(ctx context.Context, owner Owner) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Refresh(ctx, owner); err != nil && s.logger != nil {
		s.logger.Warn("cart cache refresh", slog.Any("error", err))
	}
}
