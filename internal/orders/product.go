package orders

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID    int
	Name  string
	Price decimal.Decimal
	stock int
}

func NewProduct(id int, name string, price decimal.Decimal, stock int) (*Product, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: negative price %s", ErrInvalidArgument, price)
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: negative stock %d", ErrInvalidArgument, stock)
	}
	return &Product{ID: id, Name: name, Price: price, stock: stock}, nil
}

func (p Product) Stock() int { return p.stock }

// AdjustStock adds delta to the stock counter. A delta that would take stock
// below zero (or past the int range) is rejected and the counter is left as is.
func (p *Product) AdjustStock(delta int) bool {
	if delta > 0 && p.stock > math.MaxInt-delta {
		return false
	}
	if p.stock+delta < 0 {
		return false
	}
	p.stock += delta
	return true
}

func (p Product) String() string {
	return fmt.Sprintf("[%d] %s - $%s | Stock: %d", p.ID, p.Name, p.Price.StringFixed(2), p.stock)
}
