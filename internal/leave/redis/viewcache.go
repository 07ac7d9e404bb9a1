package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/frahmantamala/leave-management/internal/leave"
)

const (
	HistoryKeyPrefix = "leave:history:"
	PendingKey       = "leave:pending"

	DefaultTTL = 5 * time.Minute
)

func HistoryKey(accountID int64) string {
	return fmt.Sprintf("%s%d", HistoryKeyPrefix, accountID)
}

// ViewCache stores leave lists as JSON strings with a fixed TTL.
type ViewCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewViewCache(rdb goredis.Cmdable, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ViewCache{rdb: rdb, ttl: ttl}
}

func (c *ViewCache) GetHistory(ctx context.Context, accountID int64) ([]*leave.Request, bool, error) {
	return c.get(ctx, HistoryKey(accountID))
}

func (c *ViewCache) SetHistory(ctx context.Context, accountID int64, requests []*leave.Request) error {
	return c.set(ctx, HistoryKey(accountID), requests)
}

func (c *ViewCache) GetPending(ctx context.Context) ([]*leave.Request, bool, error) {
	return c.get(ctx, PendingKey)
}

func (c *ViewCache) SetPending(ctx context.Context, requests []*leave.Request) error {
	return c.set(ctx, PendingKey, requests)
}

// Invalidate drops the history of accountID together with the pending list.
func (c *ViewCache) Invalidate(ctx context.Context, accountID int64) error {
	return c.rdb.Del(ctx, HistoryKey(accountID), PendingKey).Err()
}

func (c *ViewCache) get(ctx context.Context, key string) ([]*leave.Request, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var requests []*leave.Request
	if err := json.Unmarshal([]byte(raw), &requests); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return requests, true, nil
}

func (c *ViewCache) set(ctx context.Context, key string, requests []*leave.Request) error {
	if requests == nil {
		requests = []*leave.Request{}
	}
	data, err := json.Marshal(requests)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}
