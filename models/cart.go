package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CartItem captures the price at the time the product was added.
type CartItem struct {
	ProductID bson.ObjectID `bson:"productId" json:"productId"`
	Quantity  int           `bson:"quantity" json:"quantity"`
	Price     float64       `bson:"price" json:"price"`
}

// Cart is one-per-user, keyed by the user id.
type Cart struct {
	Id        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem    `bson:"items" json:"items"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}
