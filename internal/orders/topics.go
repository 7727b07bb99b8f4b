package orders

const (
	TopicCatalog = "quickcart.catalog" // identities and products
	TopicOrders  = "quickcart.orders"
)

// Partition key = correlation id, so every event of one order stays in order.
func PartitionKey(correlationID string) []byte { return []byte(correlationID) }
