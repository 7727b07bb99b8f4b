package notify

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/ariefcatur/go-quickcart/internal/kafka"
	"github.com/ariefcatur/go-quickcart/internal/logging"
	"github.com/ariefcatur/go-quickcart/internal/orders"
	"github.com/ariefcatur/go-quickcart/internal/redisx"
)

type memCache struct {
	seen     map[string]bool
	statuses map[int]redisx.OrderStatus
	setErr   error
}

func newMemCache() *memCache {
	return &memCache{seen: map[string]bool{}, statuses: map[int]redisx.OrderStatus{}}
}

func (c *memCache) MarkSeen(_ context.Context, id string) (bool, error) {
	if c.seen[id] {
		return false, nil
	}
	c.seen[id] = true
	return true, nil
}

func (c *memCache) Forget(_ context.Context, id string) error {
	delete(c.seen, id)
	return nil
}

func (c *memCache) GetStatus(_ context.Context, orderID int) (redisx.OrderStatus, error) {
	s, ok := c.statuses[orderID]
	if !ok {
		return s, redisx.ErrMiss
	}
	return s, nil
}

func (c *memCache) SetStatus(_ context.Context, s redisx.OrderStatus) (bool, error) {
	if c.setErr != nil {
		return false, c.setErr
	}
	if cur, ok := c.statuses[s.OrderID]; ok && !s.Supersedes(cur) {
		return false, nil
	}
	c.statuses[s.OrderID] = s
	return true, nil
}

func message(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	env, err := orders.NewEnvelope(eventType, "test", "order-1", payload)
	require.NoError(t, err)
	b, err := kafkax.Marshal(env)
	require.NoError(t, err)
	return kafkago.Message{Value: b}
}

func TestHandleOrderEvent_CachesLatestStatus(t *testing.T) {
	cache := newMemCache()
	svc := &Service{Cache: cache}
	ctx := logging.WithCtx(context.Background(), logging.Discard())

	placed := message(t, orders.EventOrderPlaced, orders.OrderPayload{OrderID: 1, Status: orders.StatusPending})
	require.NoError(t, svc.HandleOrderEvent(ctx, placed))
	assert.Equal(t, "PENDING", cache.statuses[1].Status)

	accepted := message(t, orders.EventOrderAccepted, orders.OrderPayload{OrderID: 1, Status: orders.StatusAccepted, Rider: "rick"})
	require.NoError(t, svc.HandleOrderEvent(ctx, accepted))
	assert.Equal(t, "ACCEPTED", cache.statuses[1].Status)
	assert.Equal(t, "rick", cache.statuses[1].Rider)

	// a redelivered old event is ignored
	require.NoError(t, svc.HandleOrderEvent(ctx, placed))
	assert.Equal(t, "ACCEPTED", cache.statuses[1].Status)
}

func TestHandleOrderEvent_IgnoresOtherMessages(t *testing.T) {
	cache := newMemCache()
	svc := &Service{Cache: cache}
	ctx := logging.WithCtx(context.Background(), logging.Discard())

	require.NoError(t, svc.HandleOrderEvent(ctx, kafkago.Message{Value: []byte("garbage")}))
	require.NoError(t, svc.HandleOrderEvent(ctx, message(t, orders.EventProductAdded, orders.ProductPayload{ProductID: 1})))
	assert.Empty(t, cache.statuses)
	assert.Empty(t, cache.seen)
}

func TestHandleOrderEvent_CacheFailureAllowsRetry(t *testing.T) {
	cache := newMemCache()
	cache.setErr = errors.New("redis down")
	svc := &Service{Cache: cache}
	ctx := logging.WithCtx(context.Background(), logging.Discard())

	m := message(t, orders.EventOrderPlaced, orders.OrderPayload{OrderID: 1, Status: orders.StatusPending})
	assert.Error(t, svc.HandleOrderEvent(ctx, m))
	assert.Empty(t, cache.seen)

	cache.setErr = nil
	require.NoError(t, svc.HandleOrderEvent(ctx, m))
	assert.Equal(t, "PENDING", cache.statuses[1].Status)
}

func TestHandleOrderEvent_LateEventDoesNotRewindStatus(t *testing.T) {
	cache := newMemCache()
	svc := &Service{Cache: cache}
	ctx := logging.WithCtx(context.Background(), logging.Discard())

	delivered := message(t, orders.EventOrderStatusChanged, orders.OrderPayload{OrderID: 1, Status: orders.StatusDelivered, Rider: "rick"})
	placed := message(t, orders.EventOrderPlaced, orders.OrderPayload{OrderID: 1, Status: orders.StatusPending})
	accepted := message(t, orders.EventOrderAccepted, orders.OrderPayload{OrderID: 1, Status: orders.StatusAccepted, Rider: "rick"})

	require.NoError(t, svc.HandleOrderEvent(ctx, delivered))
	require.NoError(t, svc.HandleOrderEvent(ctx, placed))
	require.NoError(t, svc.HandleOrderEvent(ctx, accepted))

	got := cache.statuses[1]
	assert.Equal(t, "DELIVERED", got.Status)
	assert.Equal(t, "rick", got.Rider)
	assert.Equal(t, 3, got.Rank)
	// the late events were still consumed once
	assert.Len(t, cache.seen, 3)
}

func TestHandleOrderEvent_UnknownStatusSkipped(t *testing.T) {
	cache := newMemCache()
	svc := &Service{Cache: cache}

	m := message(t, orders.EventOrderStatusChanged, orders.OrderPayload{OrderID: 1, Status: orders.Status("LOST")})
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Empty(t, cache.statuses)
}
