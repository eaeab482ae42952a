package models

// FeedIDOffset is added to every demo-feed product id so feed ids can never
// collide with locally authored ones. Local ids are ObjectID hex strings and
// never parse as numbers, feed ids are always numeric and >= the offset.
const FeedIDOffset = 1000

// DefaultCategory is used when a product record carries no category.
const DefaultCategory = "Others"

type Origin string

const (
	OriginLocal Origin = "local"
	OriginFeed  Origin = "feed"
)

// Product is the normalized catalog record. Both sources are mapped into this
// shape at the aggregation boundary; origin is explicit, not inferred from the
// id.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating,omitempty"`
	Origin      Origin  `json:"origin"`
}

func (p Product) IsLocal() bool { return p.Origin == OriginLocal }

type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

type DeliveryDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Pin     string `json:"pin"`
	Phone   string `json:"phone"`
}

type OrderStatus string

const (
	StatusProcessing     OrderStatus = "Processing"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
)

// Order is created once at checkout. Amount is the checkout-time total and is
// never recomputed afterwards.
type Order struct {
	ID              string          `json:"id"`
	Items           []CartItem      `json:"items"`
	Amount          float64         `json:"amount"`
	DeliveryDetails DeliveryDetails `json:"deliveryDetails"`
	PaymentMethod   string          `json:"paymentMethod"`
	Date            string          `json:"date"`
	Status          OrderStatus     `json:"status"`
}
