package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// OrderStatus is the cached view of an order kept by the notifier.
type OrderStatus struct {
	OrderID   int       `json:"order_id"`
	Status    string    `json:"status"`
	Rider     string    `json:"rider,omitempty"`
	Rank      int       `json:"rank"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supersedes reports whether s may replace prev in the cache. Equal ranks
// replace so a redelivered event with a newer rider still lands.
func (s OrderStatus) Supersedes(prev OrderStatus) bool {
	return s.Rank >= prev.Rank
}

var ErrMiss = errors.New("cache miss")

type StatusCache struct {
	RDB     *redis.Client
	Service string
}

// MarkSeen records eventID and reports whether this call was the first to
// see it.
func (c *StatusCache) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(KeyDedup, c.Service, eventID)
	return c.RDB.SetNX(ctx, key, "1", TTLDedup).Result()
}

// Forget drops a dedup marker so a failed event can be retried.
func (c *StatusCache) Forget(ctx context.Context, eventID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyDedup, c.Service, eventID)).Err()
}

// setIfNotOlder mirrors OrderStatus.Supersedes on the server so concurrent
// workers cannot move an order back to an earlier status.
//
// KEYS[1] status key, ARGV[1] encoded status, ARGV[2] rank, ARGV[3] ttl ms.
var setIfNotOlder = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, prev = pcall(cjson.decode, cur)
	if ok and type(prev) == 'table' and tonumber(prev.rank or 0) > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// SetStatus stores s unless the cached entry is further along. It reports
// whether s was written.
func (c *StatusCache) SetStatus(ctx context.Context, s OrderStatus) (bool, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return false, err
	}
	key := fmt.Sprintf(KeyOrderStatus, s.OrderID)
	n, err := setIfNotOlder.Run(ctx, c.RDB, []string{key}, b, s.Rank, TTLStatusCache.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *StatusCache) GetStatus(ctx context.Context, orderID int) (OrderStatus, error) {
	var s OrderStatus
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, ErrMiss
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode cached status: %w", err)
	}
	return s, nil
}
