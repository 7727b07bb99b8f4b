package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-quickcart/internal/logging"
	"github.com/ariefcatur/go-quickcart/internal/orders"
)

// Store loads and saves the persisted ledger.
type Store interface {
	Load(ctx context.Context) (orders.Snapshot, error)
	Save(ctx context.Context, snap orders.Snapshot) error
}

type Publisher interface {
	PublishEvent(topic string, env orders.Envelope) error
}

type nopPublisher struct{}

func (nopPublisher) PublishEvent(string, orders.Envelope) error { return nil }

// ErrNotLoggedIn is returned by Logout when nobody is logged in.
var ErrNotLoggedIn = errors.New("not logged in")

// ErrPersist wraps a save failure. The in-memory change it follows is kept.
var ErrPersist = errors.New("persist failed")

// Session drives one interactive user against a ledger. It remembers who is
// logged in and passes that identity explicitly to every ledger call.
type Session struct {
	ledger  *orders.Ledger
	store   Store
	pub     Publisher
	log     *slog.Logger
	service string
	current orders.Identity
}

type Option func(*Session)

func WithPublisher(p Publisher) Option {
	return func(s *Session) {
		if p != nil {
			s.pub = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithServiceName(name string) Option {
	return func(s *Session) { s.service = name }
}

// Open restores the ledger from store. Records that cannot be rebuilt are
// dropped and logged.
func Open(ctx context.Context, store Store, opts ...Option) (*Session, error) {
	s := &Session{
		store:   store,
		pub:     nopPublisher{},
		log:     logging.Discard(),
		service: "quickcart",
	}
	for _, o := range opts {
		o(s)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l, rep := orders.Restore(snap)
	if rep.Dropped() > 0 {
		s.log.Warn("dropped malformed records",
			"users", rep.DroppedUsers, "products", rep.DroppedProducts, "orders", rep.DroppedOrders)
	}
	s.ledger = l
	s.log.Info("ledger loaded", "users", len(snap.Users), "products", len(snap.Products), "orders", len(snap.Orders))
	return s, nil
}

func (s *Session) Ledger() *orders.Ledger { return s.ledger }

func (s *Session) Current() (orders.Identity, bool) {
	return s.current, s.current.Username != ""
}

func (s *Session) Register(ctx context.Context, username, password, role string) (orders.Identity, error) {
	id, err := s.ledger.RegisterIdentity(username, password, role)
	if err != nil {
		s.log.Warn("register rejected", "username", username, "role", role, "err", err)
		return orders.Identity{}, err
	}
	s.log.Info("identity registered", "username", id.Username, "role", id.Role)
	return id, s.commit(ctx, orders.TopicCatalog, orders.EventIdentityRegistered, "user-"+id.Username,
		orders.IdentityRegisteredPayload{Username: id.Username, Role: string(id.Role)})
}

func (s *Session) Login(username, password string) (orders.Identity, error) {
	id, err := s.ledger.Authenticate(username, password)
	if err != nil {
		s.log.Warn("login failed", "username", username)
		return orders.Identity{}, err
	}
	s.current = id
	s.log.Info("logged in", "username", id.Username, "role", id.Role)
	return id, nil
}

func (s *Session) Logout() error {
	if _, ok := s.Current(); !ok {
		return ErrNotLoggedIn
	}
	s.log.Info("logged out", "username", s.current.Username)
	s.current = orders.Identity{}
	return nil
}

func (s *Session) AddProduct(ctx context.Context, name string, price decimal.Decimal, stock int) (orders.Product, error) {
	p, err := s.ledger.AddProduct(s.current, name, price, stock)
	if err != nil {
		return p, s.rejected("add product", err)
	}
	s.log.Info("product added", "actor", s.current.Username, "product_id", p.ID, "name", p.Name, "stock", p.Stock())
	return p, s.commit(ctx, orders.TopicCatalog, orders.EventProductAdded, orders.ProductCorrelationID(p.ID), orders.NewProductPayload(p, 0))
}

func (s *Session) RestockProduct(ctx context.Context, productID, qty int) (orders.Product, error) {
	p, err := s.ledger.RestockProduct(s.current, productID, qty)
	if err != nil {
		return p, s.rejected("restock", err)
	}
	s.log.Info("product restocked", "actor", s.current.Username, "product_id", p.ID, "delta", qty, "stock", p.Stock())
	return p, s.commit(ctx, orders.TopicCatalog, orders.EventProductRestocked, orders.ProductCorrelationID(p.ID), orders.NewProductPayload(p, qty))
}

func (s *Session) PlaceOrder(ctx context.Context, productID, qty int) (orders.Order, error) {
	o, err := s.ledger.PlaceOrder(s.current, productID, qty)
	if err != nil {
		return o, s.rejected("place order", err)
	}
	s.log.Info("order placed", "actor", s.current.Username, "order_id", o.ID, "product_id", o.ProductID, "qty", o.Quantity)
	return o, s.commit(ctx, orders.TopicOrders, orders.EventOrderPlaced, orders.OrderCorrelationID(o.ID), orders.NewOrderPayload(o))
}

func (s *Session) AcceptOrder(ctx context.Context, orderID int) (orders.Order, error) {
	o, err := s.ledger.AcceptOrder(s.current, orderID)
	if err != nil {
		return o, s.rejected("accept order", err)
	}
	s.log.Info("order accepted", "actor", s.current.Username, "order_id", o.ID)
	return o, s.commit(ctx, orders.TopicOrders, orders.EventOrderAccepted, orders.OrderCorrelationID(o.ID), orders.NewOrderPayload(o))
}

// UpdateOrderStatus takes the target as typed by the user ("delivered").
func (s *Session) UpdateOrderStatus(ctx context.Context, orderID int, target string) (orders.Order, error) {
	st, err := orders.ParseStatus(target)
	if err != nil {
		return orders.Order{}, s.rejected("update status", err)
	}
	o, err := s.ledger.UpdateOrderStatus(s.current, orderID, st)
	if err != nil {
		return o, s.rejected("update status", err)
	}
	s.log.Info("order status updated", "actor", s.current.Username, "order_id", o.ID, "status", o.Status())
	return o, s.commit(ctx, orders.TopicOrders, orders.EventOrderStatusChanged, orders.OrderCorrelationID(o.ID), orders.NewOrderPayload(o))
}

func (s *Session) BrowseProducts() []orders.Product { return s.ledger.BrowseProducts() }

func (s *Session) AllOrders() ([]orders.Order, error) { return s.ledger.AllOrders(s.current) }

func (s *Session) PendingOrders() ([]orders.Order, error) { return s.ledger.PendingOrders(s.current) }

func (s *Session) OrderHistory() ([]orders.Order, error) { return s.ledger.OrderHistory(s.current) }

func (s *Session) AssignedOrders() ([]orders.Order, error) { return s.ledger.AssignedOrders(s.current) }

func (s *Session) rejected(op string, err error) error {
	s.log.Warn(op+" rejected", "actor", s.current.Username, "role", s.current.Role, "err", err)
	return err
}

func (s *Session) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, s.ledger.Snapshot()); err != nil {
		s.log.Error("persist ledger", "err", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// commit saves the ledger and then announces the change. A failed save is
// reported but the event still goes out: the change is live in memory.
func (s *Session) commit(ctx context.Context, topic, eventType, correlationID string, payload any) error {
	err := s.persist(ctx)
	s.publish(topic, eventType, correlationID, payload)
	return err
}

func (s *Session) publish(topic, eventType, correlationID string, payload any) {
	env, err := orders.NewEnvelope(eventType, s.service, correlationID, payload)
	if err == nil {
		err = s.pub.PublishEvent(topic, env)
	}
	if err != nil {
		s.log.Error("publish event", "event", eventType, "correlation_id", correlationID, "err", err)
	}
}
