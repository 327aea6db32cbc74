package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Product. Category is nullable: a cascading category delete clears the
// reference instead of deleting the product.
type Product struct {
	Id          bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string         `bson:"name" json:"name"`
	Slug        string         `bson:"slug" json:"slug"`
	Description string         `bson:"description" json:"description"`
	Brand       string         `bson:"brand,omitempty" json:"brand,omitempty"`
	Price       float64        `bson:"price" json:"price"`
	Category    *bson.ObjectID `bson:"category" json:"category"`
	Stock       int            `bson:"stock" json:"stock"`
	Rating      float64        `bson:"rating" json:"rating"`
	NumReviews  int            `bson:"numReviews" json:"numReviews"`
	Tags        []string       `bson:"tags,omitempty" json:"tags,omitempty"`
	Images      []string       `bson:"images,omitempty" json:"images,omitempty"`
	IsFeatured  bool           `bson:"isFeatured" json:"isFeatured"`
	IsActive    bool           `bson:"isActive" json:"isActive"`
	Seller      bson.ObjectID  `bson:"seller,omitempty" json:"seller,omitempty"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
}

func (p *Product) HasStock(qty int) bool {
	return p.Stock >= qty
}
