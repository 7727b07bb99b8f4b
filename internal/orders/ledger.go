package orders

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Ledger owns every identity, product and order. All operations run under a
// single lock: placing an order touches a product and the order book
// together, so per-entity locks would not keep them consistent.
//
// Returned entities are copies; mutating them does not affect the ledger.
type Ledger struct {
	mu sync.Mutex

	users    map[string]*Identity
	products map[int]*Product
	orders   map[int]*Order

	history  map[string][]int // customer -> order ids, insertion order
	assigned map[string][]int // rider -> order ids, acceptance order

	nextProductID int
	nextOrderID   int
}

func NewLedger() *Ledger {
	return &Ledger{
		users:         map[string]*Identity{},
		products:      map[int]*Product{},
		orders:        map[int]*Order{},
		history:       map[string][]int{},
		assigned:      map[string][]int{},
		nextProductID: 1,
		nextOrderID:   1,
	}
}

// authorize checks that actor is a registered identity holding role.
func (l *Ledger) authorize(actor Identity, role Role) error {
	u, ok := l.users[actor.Username]
	if !ok || u.Role != actor.Role || actor.Role != role {
		return fmt.Errorf("%w: requires %s", ErrUnauthorized, role)
	}
	return nil
}

func (l *Ledger) RegisterIdentity(username, credential, roleName string) (Identity, error) {
	role, err := ParseRole(roleName)
	if err != nil {
		return Identity{}, err
	}
	id, err := NewIdentity(username, credential, role)
	if err != nil {
		return Identity{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.users[username]; exists {
		return Identity{}, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}
	l.users[username] = &id
	return id, nil
}

func (l *Ledger) Authenticate(username, credential string) (Identity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[username]
	if !ok || !u.Verify(credential) {
		return Identity{}, ErrInvalidCredentials
	}
	return *u, nil
}

func (l *Ledger) AddProduct(actor Identity, name string, price decimal.Decimal, stock int) (Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleAdmin); err != nil {
		return Product{}, err
	}
	p, err := NewProduct(l.nextProductID, name, price, stock)
	if err != nil {
		return Product{}, err
	}
	l.products[p.ID] = p
	l.nextProductID++
	return *p, nil
}

func (l *Ledger) RestockProduct(actor Identity, productID, qty int) (Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleAdmin); err != nil {
		return Product{}, err
	}
	if qty <= 0 {
		return Product{}, fmt.Errorf("%w: restock quantity must be > 0", ErrInvalidArgument)
	}
	p, ok := l.products[productID]
	if !ok {
		return Product{}, fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	if !p.AdjustStock(qty) {
		return Product{}, fmt.Errorf("%w: restock of %d overflows stock", ErrInvalidArgument, qty)
	}
	return *p, nil
}

// PlaceOrder reserves qty units and opens a pending order. Nothing changes
// unless both succeed.
func (l *Ledger) PlaceOrder(actor Identity, productID, qty int) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleCustomer); err != nil {
		return Order{}, err
	}
	if qty <= 0 {
		return Order{}, fmt.Errorf("%w: quantity must be > 0", ErrInvalidArgument)
	}
	p, ok := l.products[productID]
	if !ok {
		return Order{}, fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	if p.Stock() < qty || !p.AdjustStock(-qty) {
		return Order{}, fmt.Errorf("%w: product %d required=%d available=%d", ErrInsufficientStock, productID, qty, p.Stock())
	}

	o := newOrder(l.nextOrderID, actor.Username, productID, qty)
	l.orders[o.ID] = o
	l.history[actor.Username] = append(l.history[actor.Username], o.ID)
	l.nextOrderID++
	return *o, nil
}

func (l *Ledger) AcceptOrder(actor Identity, orderID int) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleRider); err != nil {
		return Order{}, err
	}
	o, ok := l.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("%w: %d", ErrUnknownOrder, orderID)
	}
	if err := o.AssignRider(actor.Username); err != nil {
		return Order{}, err
	}
	l.assigned[actor.Username] = append(l.assigned[actor.Username], o.ID)
	return *o, nil
}

func (l *Ledger) UpdateOrderStatus(actor Identity, orderID int, target Status) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleRider); err != nil {
		return Order{}, err
	}
	o, ok := l.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("%w: %d", ErrUnknownOrder, orderID)
	}
	if err := o.UpdateStatus(actor.Username, target); err != nil {
		return Order{}, err
	}
	return *o, nil
}

func (l *Ledger) AllOrders(actor Identity) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleAdmin); err != nil {
		return nil, err
	}
	return l.collect(func(*Order) bool { return true }), nil
}

func (l *Ledger) PendingOrders(actor Identity) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleRider); err != nil {
		return nil, err
	}
	return l.collect(func(o *Order) bool { return o.status == StatusPending }), nil
}

func (l *Ledger) OrderHistory(actor Identity) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleCustomer); err != nil {
		return nil, err
	}
	return l.byIDs(l.history[actor.Username]), nil
}

func (l *Ledger) AssignedOrders(actor Identity) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(actor, RoleRider); err != nil {
		return nil, err
	}
	return l.byIDs(l.assigned[actor.Username]), nil
}

func (l *Ledger) BrowseProducts() []Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Product, 0, len(l.products))
	for _, p := range l.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Ledger) Product(id int) (Product, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

func (l *Ledger) collect(keep func(*Order) bool) []Order {
	out := make([]Order, 0, len(l.orders))
	for _, o := range l.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Ledger) byIDs(ids []int) []Order {
	out := make([]Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := l.orders[id]; ok {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
