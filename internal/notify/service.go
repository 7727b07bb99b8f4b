package notify

import (
	"context"
	"errors"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-quickcart/internal/kafka"
	"github.com/ariefcatur/go-quickcart/internal/logging"
	"github.com/ariefcatur/go-quickcart/internal/orders"
	"github.com/ariefcatur/go-quickcart/internal/redisx"
)

type Cache interface {
	MarkSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
	GetStatus(ctx context.Context, orderID int) (redisx.OrderStatus, error)
	// SetStatus must not replace an entry further along the lifecycle.
	SetStatus(ctx context.Context, s redisx.OrderStatus) (bool, error)
}

// Service follows order events and keeps the latest status of every order in
// the cache. Workers may handle events of one order out of order; the cache
// only ever moves forward.
type Service struct {
	Cache Cache
}

// HandleOrderEvent is installed as the consumer handler. It logs through the
// logger carried by ctx.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	log := logging.FromCtx(ctx)

	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		// poison message: log and commit past it
		log.Warn("skip undecodable message", "offset", m.Offset, "err", err)
		return nil
	}
	switch env.EventType {
	case orders.EventOrderPlaced, orders.EventOrderAccepted, orders.EventOrderStatusChanged:
	default:
		return nil
	}

	first, err := s.Cache.MarkSeen(ctx, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		log.Debug("duplicate event", "event_id", env.EventID)
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPayload](env.Payload)
	if err != nil || p.Status.Rank() == 0 {
		log.Warn("skip bad payload", "event_id", env.EventID, "status", p.Status, "err", err)
		return nil
	}

	prev, err := s.Cache.GetStatus(ctx, p.OrderID)
	if err != nil && !errors.Is(err, redisx.ErrMiss) {
		log.Debug("read cached status", "order_id", p.OrderID, "err", err)
	}

	st := redisx.OrderStatus{
		OrderID:   p.OrderID,
		Status:    string(p.Status),
		Rider:     p.Rider,
		Rank:      p.Status.Rank(),
		UpdatedAt: env.OccurredAt,
	}
	applied, err := s.Cache.SetStatus(ctx, st)
	if err != nil {
		_ = s.Cache.Forget(ctx, env.EventID)
		return err
	}
	if !applied {
		log.Info("stale status ignored", "order_id", p.OrderID, "status", p.Status, "event", env.EventType)
		return nil
	}
	log.Info("order status", "order_id", p.OrderID, "from", prev.Status, "status", p.Status, "rider", p.Rider, "event", env.EventType)
	return nil
}
