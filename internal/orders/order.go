package orders

import "fmt"

// Order links a customer and a product by key; it never holds the entities
// themselves.
type Order struct {
	ID        int
	Customer  string
	ProductID int
	Quantity  int
	status    Status
	rider     string
}

func newOrder(id int, customer string, productID, qty int) *Order {
	return &Order{ID: id, Customer: customer, ProductID: productID, Quantity: qty, status: StatusPending}
}

func (o Order) Status() Status { return o.status }

// Rider returns the assigned rider's username, empty while pending.
func (o Order) Rider() string { return o.rider }

// AssignRider accepts a pending order on behalf of rider.
func (o *Order) AssignRider(rider string) error {
	if o.status != StatusPending {
		return fmt.Errorf("%w: order %d is %s", ErrOrderNotPending, o.ID, o.status)
	}
	if rider == "" {
		return fmt.Errorf("%w: empty rider", ErrInvalidArgument)
	}
	o.rider = rider
	o.status = StatusAccepted
	return nil
}

// UpdateStatus moves the order along the transition table. Only the assigned
// rider may do so.
func (o *Order) UpdateStatus(by string, next Status) error {
	if o.rider == "" || o.rider != by {
		return fmt.Errorf("%w: order %d", ErrNotAssignedRider, o.ID)
	}
	if !CanTransition(o.status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.status, next)
	}
	o.status = next
	return nil
}
