package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Category is a node in the catalog tree. Parent and Children are id
// references maintained together by the category manager: for every category
// with parent P, P's children set contains it, and only such categories.
type Category struct {
	Id          bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string          `bson:"name" json:"name"`
	Slug        string          `bson:"slug" json:"slug"`
	Description string          `bson:"description,omitempty" json:"description,omitempty"`
	Parent      *bson.ObjectID  `bson:"parent" json:"parent"`
	Children    []bson.ObjectID `bson:"children" json:"children"`
	Image       string          `bson:"image,omitempty" json:"image,omitempty"`
	Icon        string          `bson:"icon,omitempty" json:"icon,omitempty"`
	Order       int             `bson:"order" json:"order"`
	IsActive    bool            `bson:"isActive" json:"isActive"`
	Featured    bool            `bson:"featured" json:"featured"`
	CreatedBy   bson.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy   bson.ObjectID   `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}
