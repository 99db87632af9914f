package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// kvStore is the slice of pkg/redis.Client the adapter needs.
type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(shopperID string) string
}

type redisPersistence struct {
	kv kvStore
}

// NewRedisPersistence builds the Redis-backed persistence adapter. Carts never
// expire on their own, so entries are written without a TTL.
func NewRedisPersistence(kv kvStore) (Persistence, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisPersistence{kv: kv}, nil
}

func (p *redisPersistence) Save(ctx context.Context, shopperID string, items []LineItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart items: %w", err)
	}
	return p.kv.Set(ctx, p.kv.CartKey(shopperID), string(payload), 0)
}

func (p *redisPersistence) Load(ctx context.Context, shopperID string) ([]LineItem, error) {
	raw, err := p.kv.Get(ctx, p.kv.CartKey(shopperID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotPersisted
		}
		return nil, err
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart items: %w", err)
	}
	return items, nil
}

func (p *redisPersistence) Delete(ctx context.Context, shopperID string) error {
	return p.kv.Del(ctx, p.kv.CartKey(shopperID))
}
