package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Summary is the small cart mirror shown in the page header.
type Summary struct {
	Count    int     `json:"count"`
	Subtotal float64 `json:"subtotal"`
}

// SummaryLoader computes a summary from the source of truth.
type SummaryLoader interface {
	GetByOwner(ctx context.Context, owner Owner) (Cart, error)
}

// Cache mirrors cart summaries in Redis. It is an explicit state
// container: nothing subscribes to it, consumers read Get and mutators
// call Refresh after writing through the service.
type Cache struct {
	client *redis.Client
	loader SummaryLoader
	ttl    time.Duration
}

func NewCache(client *redis.Client, loader SummaryLoader, ttl time.Duration) *Cache {
	return &Cache{client: client, loader: loader, ttl: ttl}
}

// Get returns the cached summary, recomputing on a miss.
func (c *Cache) Get(ctx context.Context, owner Owner) (Summary, error) {
	data, err := c.client.Get(ctx, c.key(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.reload(ctx, owner)
		}
		return Summary{}, err
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return c.reload(ctx, owner)
	}
	return summary, nil
}

// Refresh recomputes the summary from the store and rewrites the mirror.
func (c *Cache) Refresh(ctx context.Context, owner Owner) error {
	_, err := c.reload(ctx, owner)
	return err
}

// Invalidate drops the mirror so the next Get recomputes.
func (c *Cache) Invalidate(ctx context.Context, owner Owner) error {
	err := c.client.Del(ctx, c.key(owner)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (c *Cache) reload(ctx context.Context, owner Owner) (Summary, error) {
	cart, err := c.loader.GetByOwner(ctx, owner)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Count: cart.Count(), Subtotal: cart.Subtotal()}
	data, err := json.Marshal(summary)
	if err != nil {
		return Summary{}, err
	}
	if err := c.client.Set(ctx, c.key(owner), data, c.ttl).Err(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (c *Cache) key(owner Owner) string {
	if owner.IsGuest() {
		return "cart:summary:guest:" + owner.GuestID
	}
	return fmt.Sprintf("cart:summary:user:%d", owner.UserID)
}
