package orders

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Persisted shape of the ledger. Map keys match the on-disk layout: users by
// username, products and orders by their id rendered as a decimal string.
type Snapshot struct {
	Users    map[string]UserEntry
	Products map[string]ProductEntry
	Orders   map[string]OrderEntry
}

type UserEntry struct {
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ProductEntry struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// MarshalJSON writes price as a JSON number with at least one decimal place
// ("price": 10.0), the form the data files have always used.
func (p ProductEntry) MarshalJSON() ([]byte, error) {
	price := p.Price.String()
	if p.Price.Equal(p.Price.Truncate(0)) {
		price = p.Price.StringFixed(1)
	}
	return json.Marshal(struct {
		Name  string      `json:"name"`
		Price json.Number `json:"price"`
		Stock int         `json:"stock"`
	}{p.Name, json.Number(price), p.Stock})
}

type OrderEntry struct {
	ID        int     `json:"id"`
	Customer  string  `json:"customer"`
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Status    string  `json:"status"`
	Rider     *string `json:"rider"`
}

func NewSnapshot() Snapshot {
	return Snapshot{
		Users:    map[string]UserEntry{},
		Products: map[string]ProductEntry{},
		Orders:   map[string]OrderEntry{},
	}
}

// RestoreReport counts records skipped while rebuilding a ledger.
type RestoreReport struct {
	DroppedUsers    int
	DroppedProducts int
	DroppedOrders   int
}

func (r RestoreReport) Dropped() int {
	return r.DroppedUsers + r.DroppedProducts + r.DroppedOrders
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := NewSnapshot()
	for name, u := range l.users {
		s.Users[name] = UserEntry{Password: u.credential, Role: string(u.Role)}
	}
	for id, p := range l.products {
		s.Products[strconv.Itoa(id)] = ProductEntry{Name: p.Name, Price: p.Price, Stock: p.stock}
	}
	for id, o := range l.orders {
		e := OrderEntry{
			ID:        o.ID,
			Customer:  o.Customer,
			ProductID: o.ProductID,
			Quantity:  o.Quantity,
			Status:    string(o.status),
		}
		if o.rider != "" {
			r := o.rider
			e.Rider = &r
		}
		s.Orders[strconv.Itoa(id)] = e
	}
	return s
}

// Restore rebuilds a ledger from its persisted shape. Malformed records are
// skipped and counted rather than failing the load:
//   - users with an unknown role;
//   - products with a non-numeric key, negative price or negative stock;
//   - orders with a non-numeric key or non-positive quantity, whose customer
//     or product is missing, or that are past Pending without a resolvable
//     rider.
//
// An unknown order status is read as Pending. Id counters resume above the
// highest id seen, dropped records included.
func Restore(s Snapshot) (*Ledger, RestoreReport) {
	l := NewLedger()
	var rep RestoreReport

	for name, e := range s.Users {
		role, err := ParseRole(e.Role)
		if err != nil {
			rep.DroppedUsers++
			continue
		}
		id, err := NewIdentity(name, e.Password, role)
		if err != nil {
			rep.DroppedUsers++
			continue
		}
		l.users[name] = &id
	}

	for key, e := range s.Products {
		pid, err := strconv.Atoi(key)
		if err != nil || pid <= 0 {
			rep.DroppedProducts++
			continue
		}
		if pid >= l.nextProductID {
			l.nextProductID = pid + 1
		}
		p, err := NewProduct(pid, e.Name, e.Price, e.Stock)
		if err != nil {
			rep.DroppedProducts++
			continue
		}
		l.products[pid] = p
	}

	// Orders are replayed in id order so customer history and rider
	// assignment lists come back in the order they were built.
	keys := make([]int, 0, len(s.Orders))
	entries := make(map[int]OrderEntry, len(s.Orders))
	for key, e := range s.Orders {
		oid, err := strconv.Atoi(key)
		if err != nil || oid <= 0 {
			rep.DroppedOrders++
			continue
		}
		if oid >= l.nextOrderID {
			l.nextOrderID = oid + 1
		}
		keys = append(keys, oid)
		entries[oid] = e
	}
	sort.Ints(keys)

	for _, oid := range keys {
		o, ok := l.rebuildOrder(oid, entries[oid])
		if !ok {
			rep.DroppedOrders++
			continue
		}
		l.orders[oid] = o
		if l.users[o.Customer].Role == RoleCustomer {
			l.history[o.Customer] = append(l.history[o.Customer], oid)
		}
		if o.rider != "" {
			l.assigned[o.rider] = append(l.assigned[o.rider], oid)
		}
	}
	return l, rep
}

func (l *Ledger) rebuildOrder(oid int, e OrderEntry) (*Order, bool) {
	if _, ok := l.users[e.Customer]; !ok {
		return nil, false
	}
	if _, ok := l.products[e.ProductID]; !ok {
		return nil, false
	}
	if e.Quantity <= 0 {
		return nil, false
	}
	o := newOrder(oid, e.Customer, e.ProductID, e.Quantity)
	o.status = statusOrPending(e.Status)
	if o.status == StatusPending {
		return o, true
	}
	if e.Rider == nil {
		return nil, false
	}
	r, ok := l.users[*e.Rider]
	if !ok || r.Role != RoleRider {
		return nil, false
	}
	o.rider = r.Username
	return o, true
}
