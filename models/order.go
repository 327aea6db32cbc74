package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "CARD"
	PaymentBoleto   PaymentMethod = "BOLETO"
	PaymentPix      PaymentMethod = "PIX"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

type ShippingAddress struct {
	Street       string `bson:"street" json:"street"`
	Number       string `bson:"number,omitempty" json:"number,omitempty"`
	Complement   string `bson:"complement,omitempty" json:"complement,omitempty"`
	Neighborhood string `bson:"neighborhood,omitempty" json:"neighborhood,omitempty"`
	City         string `bson:"city" json:"city"`
	State        string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode      string `bson:"zipCode" json:"zipCode"`
	Country      string `bson:"country" json:"country"`
}

type OrderItem struct {
	ProductID bson.ObjectID `bson:"productId" json:"productId"`
	Quantity  int           `bson:"quantity" json:"quantity"`
	Price     float64       `bson:"price" json:"price"`
}

type Order struct {
	Id              bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID          bson.ObjectID   `bson:"userId" json:"userId"`
	Items           []OrderItem     `bson:"items" json:"items"`
	ShippingAddress ShippingAddress `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `bson:"paymentMethod" json:"paymentMethod"`
	Status          OrderStatus     `bson:"status" json:"status"`
	Total           float64         `bson:"total" json:"total"`
	TrackingNumber  string          `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes           string          `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// CanBeCancelled reports whether the order is still in a cancellable state.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// ValidStatusTransition guards the admin status update path.
func ValidStatusTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusProcessing || to == OrderStatusCancelled
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	default:
		return false
	}
}
