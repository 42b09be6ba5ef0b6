package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SiamFS/Project471/internal/domain"
)

const cartCountPrefix = "project471:cart:count:"

// CachedStore wraps a Store with a Redis cache for cart counts. The
// count badge is the hottest read in the frontend; everything else
// passes straight through.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore builds the cache decorator around an existing store.
func NewCachedStore(inner Store, addr, password string, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedStore{
		Store: inner,
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

func cacheCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

// CountCartByEmail serves the count from Redis when present, falling
// back to the inner store. Cache failures are ignored; the store is
// authoritative.
func (c *CachedStore) CountCartByEmail(email string) (int64, error) {
	ctx, cancel := cacheCtx()
	defer cancel()
	if val, err := c.client.Get(ctx, cartCountPrefix+email).Result(); err == nil {
		if count, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return count, nil
		}
	}
	count, err := c.Store.CountCartByEmail(email)
	if err != nil {
		return 0, err
	}
	setCtx, setCancel := cacheCtx()
	defer setCancel()
	_ = c.client.Set(setCtx, cartCountPrefix+email, strconv.FormatInt(count, 10), c.ttl).Err()
	return count, nil
}

// AddCartItem writes through and drops the user's cached count.
func (c *CachedStore) AddCartItem(item domain.CartItem) (domain.CartItem, error) {
	created, err := c.Store.AddCartItem(item)
	if err != nil {
		return domain.CartItem{}, err
	}
	c.invalidate(created.UserEmail)
	return created, nil
}

// RemoveCartItemByID removes a line. The line's owner is unknown at
// this layer, so the whole count keyspace is dropped.
func (c *CachedStore) RemoveCartItemByID(id string) error {
	if err := c.Store.RemoveCartItemByID(id); err != nil {
		return err
	}
	c.invalidateAll()
	return nil
}

// RemoveCartItemByOriginalID removes a checkout-committed line and
// drops the buyer's cached count.
func (c *CachedStore) RemoveCartItemByOriginalID(bookID, email string) (bool, error) {
	removed, err := c.Store.RemoveCartItemByOriginalID(bookID, email)
	if err != nil {
		return false, err
	}
	if removed {
		c.invalidate(email)
	}
	return removed, nil
}

func (c *CachedStore) invalidate(email string) {
	ctx, cancel := cacheCtx()
	defer cancel()
	_ = c.client.Del(ctx, cartCountPrefix+email).Err()
}

func (c *CachedStore) invalidateAll() {
	ctx, cancel := cacheCtx()
	defer cancel()
	iter := c.client.Scan(ctx, 0, cartCountPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
