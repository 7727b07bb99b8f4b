package orders

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventIdentityRegistered = "IdentityRegistered"
	EventProductAdded       = "ProductAdded"
	EventProductRestocked   = "ProductRestocked"
	EventOrderPlaced        = "OrderPlaced"
	EventOrderAccepted      = "OrderAccepted"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order or product id
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// ---- payloads ----

type IdentityRegisteredPayload struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type ProductPayload struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Delta     int             `json:"delta,omitempty"`
}

type OrderPayload struct {
	OrderID   int    `json:"order_id"`
	Customer  string `json:"customer"`
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Status    Status `json:"status"`
	Rider     string `json:"rider,omitempty"`
}

func NewProductPayload(p Product, delta int) ProductPayload {
	return ProductPayload{ProductID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock(), Delta: delta}
}

func NewOrderPayload(o Order) OrderPayload {
	return OrderPayload{
		OrderID:   o.ID,
		Customer:  o.Customer,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status(),
		Rider:     o.Rider(),
	}
}

func OrderCorrelationID(id int) string   { return "order-" + strconv.Itoa(id) }
func ProductCorrelationID(id int) string { return "product-" + strconv.Itoa(id) }
