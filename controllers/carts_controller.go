package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/dto"
	"github.com/vcardoso/lojabackend/models"
)

func currentUserID(c *gin.Context) (bson.ObjectID, bool) {
	uid, err := bson.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		jsonError(c, http.StatusUnauthorized, "invalid user")
		return bson.ObjectID{}, false
	}
	return uid, true
}

// loadCart returns the user's cart, creating an empty one on first use.
func loadCart(c *gin.Context, db *database.DB, userID bson.ObjectID) (*models.Cart, bool) {
	ctx := c.Request.Context()

	var cart models.Cart
	err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == nil {
		return &cart, true
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		fail(c, err)
		return nil, false
	}

	now := time.Now().UTC()
	cart = models.Cart{UserID: userID, Items: []models.CartItem{}, CreatedAt: now, UpdatedAt: now}
	res, err := db.Collection("carts").InsertOne(ctx, cart)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	cart.Id = res.InsertedID.(bson.ObjectID)
	return &cart, true
}

func saveCartItems(c *gin.Context, db *database.DB, cart *models.Cart) bool {
	_, err := db.Collection("carts").UpdateByID(c.Request.Context(), cart.Id, bson.M{
		"$set": bson.M{"items": cart.Items, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		fail(c, err)
		return false
	}
	return true
}

func cartResponse(c *gin.Context, cart *models.Cart) {
	jsonOK(c, http.StatusOK, gin.H{"cart": cart, "total": cart.Total()})
}

func GetCart(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUserID(c)
		if !ok {
			return
		}
		cart, ok := loadCart(c, db, uid)
		if !ok {
			return
		}
		cartResponse(c, cart)
	}
}

// AddCartItem adds a product with the current price; adding a product already
// in the cart bumps its quantity instead of duplicating the line.
func AddCartItem(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		uid, ok := currentUserID(c)
		if !ok {
			return
		}

		var body dto.AddCartItemDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}
		productID, err := bson.ObjectIDFromHex(body.ProductID)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid product id")
			return
		}

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID, "isActive": true}).Decode(&product); err != nil {
			jsonError(c, http.StatusNotFound, "product not found")
			return
		}

		cart, ok := loadCart(c, db, uid)
		if !ok {
			return
		}

		wanted := body.Quantity
		idx := -1
		for i, item := range cart.Items {
			if item.ProductID == productID {
				idx = i
				wanted += item.Quantity
				break
			}
		}
		if !product.HasStock(wanted) {
			jsonError(c, http.StatusBadRequest, "insufficient stock")
			return
		}

		if idx >= 0 {
			cart.Items[idx].Quantity = wanted
			cart.Items[idx].Price = product.Price
		} else {
			cart.Items = append(cart.Items, models.CartItem{
				ProductID: productID,
				Quantity:  body.Quantity,
				Price:     product.Price,
			})
		}

		if !saveCartItems(c, db, cart) {
			return
		}
		cartResponse(c, cart)
	}
}

// UpdateCartItem sets an item quantity; zero removes the item.
func UpdateCartItem(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		uid, ok := currentUserID(c)
		if !ok {
			return
		}
		productID, err := bson.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid product id")
			return
		}

		var body dto.UpdateCartItemDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		cart, ok := loadCart(c, db, uid)
		if !ok {
			return
		}

		idx := -1
		for i, item := range cart.Items {
			if item.ProductID == productID {
				idx = i
				break
			}
		}
		if idx < 0 {
			jsonError(c, http.StatusNotFound, "item not in cart")
			return
		}

		quantity := *body.Quantity
		if quantity == 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			var product models.Product
			if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
				jsonError(c, http.StatusNotFound, "product not found")
				return
			}
			if !product.HasStock(quantity) {
				jsonError(c, http.StatusBadRequest, "insufficient stock")
				return
			}
			cart.Items[idx].Quantity = quantity
		}

		if !saveCartItems(c, db, cart) {
			return
		}
		cartResponse(c, cart)
	}
}

func RemoveCartItem(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUserID(c)
		if !ok {
			return
		}
		productID, err := bson.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid product id")
			return
		}

		cart, ok := loadCart(c, db, uid)
		if !ok {
			return
		}

		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(cart.Items) {
			jsonError(c, http.StatusNotFound, "item not in cart")
			return
		}
		cart.Items = kept

		if !saveCartItems(c, db, cart) {
			return
		}
		cartResponse(c, cart)
	}
}

func ClearCart(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUserID(c)
		if !ok {
			return
		}
		cart, ok := loadCart(c, db, uid)
		if !ok {
			return
		}
		cart.Items = []models.CartItem{}
		if !saveCartItems(c, db, cart) {
			return
		}
		cartResponse(c, cart)
	}
}
