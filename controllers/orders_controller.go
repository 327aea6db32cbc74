package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/dto"
	"github.com/vcardoso/lojabackend/models"
	"github.com/vcardoso/lojabackend/query"
)

// CreateOrder turns the user's cart into an order. Stock is decremented with
// a guarded $inc inside a transaction, so two orders can never both take the
// last unit, and the cart is emptied in the same transaction.
func CreateOrder(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		uid, ok := currentUserID(c)
		if !ok {
			return
		}

		var body dto.CreateOrderDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		cart, ok := loadCart(c, db, uid)
		if !ok {
			return
		}
		if len(cart.Items) == 0 {
			jsonError(c, http.StatusBadRequest, "cart is empty")
			return
		}

		now := time.Now().UTC()
		order := models.Order{
			UserID: uid,
			Items:  make([]models.OrderItem, 0, len(cart.Items)),
			ShippingAddress: models.ShippingAddress{
				Street:       body.ShippingAddress.Street,
				Number:       body.ShippingAddress.Number,
				Complement:   body.ShippingAddress.Complement,
				Neighborhood: body.ShippingAddress.Neighborhood,
				City:         body.ShippingAddress.City,
				State:        body.ShippingAddress.State,
				ZipCode:      body.ShippingAddress.ZipCode,
				Country:      body.ShippingAddress.Country,
			},
			PaymentMethod: models.PaymentMethod(body.PaymentMethod),
			Status:        models.OrderStatusPending,
			Total:         cart.Total(),
			Notes:         body.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		for _, item := range cart.Items {
			order.Items = append(order.Items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}

		err := db.WithTransaction(ctx, func(ctx context.Context) error {
			products := db.Collection("products")
			for _, item := range order.Items {
				res, err := products.UpdateOne(ctx,
					bson.M{"_id": item.ProductID, "stock": bson.M{"$gte": item.Quantity}},
					bson.M{"$inc": bson.M{"stock": -item.Quantity}},
				)
				if err != nil {
					return err
				}
				if res.MatchedCount == 0 {
					return fmt.Errorf("insufficient stock for product %s", item.ProductID.Hex())
				}
			}

			res, err := db.Collection("orders").InsertOne(ctx, order)
			if err != nil {
				return err
			}
			order.Id = res.InsertedID.(bson.ObjectID)

			_, err = db.Collection("carts").UpdateByID(ctx, cart.Id, bson.M{
				"$set": bson.M{"items": []models.CartItem{}, "updatedAt": now},
			})
			return err
		})
		if err != nil {
			jsonError(c, http.StatusConflict, err.Error())
			return
		}

		jsonOK(c, http.StatusCreated, order)
	}
}

func GetMyOrders(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		uid, ok := currentUserID(c)
		if !ok {
			return
		}

		desc, err := query.Build(c.Request.URL.Query())
		if err != nil {
			fail(c, err)
			return
		}
		desc.Require(query.Eq{Field: "userId", Value: uid})

		orders := make([]models.Order, 0)
		res, err := query.Paginate(ctx, db.Collection("orders"), desc, &orders)
		if err != nil {
			fail(c, err)
			return
		}
		jsonPage(c, res, orders)
	}
}

// GetOrder returns a single order; customers only see their own.
func GetOrder(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		uid, ok := currentUserID(c)
		if !ok {
			return
		}
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid order id")
			return
		}

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
			jsonError(c, http.StatusNotFound, "order not found")
			return
		}
		if order.UserID != uid && models.Role(c.GetString("role")) != models.RoleAdmin {
			jsonError(c, http.StatusForbidden, "not your order")
			return
		}
		jsonOK(c, http.StatusOK, order)
	}
}

// CancelOrder lets the owner cancel a pending or processing order; the
// reserved stock goes back in the same transaction.
func CancelOrder(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		uid, ok := currentUserID(c)
		if !ok {
			return
		}
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid order id")
			return
		}

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
			jsonError(c, http.StatusNotFound, "order not found")
			return
		}
		if order.UserID != uid {
			jsonError(c, http.StatusForbidden, "not your order")
			return
		}
		if !order.CanBeCancelled() {
			jsonError(c, http.StatusBadRequest, fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
			return
		}

		if err := cancelAndRestock(ctx, db, &order); err != nil {
			fail(c, err)
			return
		}
		jsonOK(c, http.StatusOK, order)
	}
}

// GetOrders is the admin listing with the full query surface.
func GetOrders(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		desc, err := query.Build(c.Request.URL.Query())
		if err != nil {
			fail(c, err)
			return
		}

		orders := make([]models.Order, 0)
		res, err := query.Paginate(ctx, db.Collection("orders"), desc, &orders)
		if err != nil {
			fail(c, err)
			return
		}
		jsonPage(c, res, orders)
	}
}

// UpdateOrderStatus is the admin path through the status machine. A move to
// CANCELLED restores stock like a customer cancel does.
func UpdateOrderStatus(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid order id")
			return
		}

		var body dto.UpdateOrderStatusDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}
		target := models.OrderStatus(body.Status)

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
			jsonError(c, http.StatusNotFound, "order not found")
			return
		}
		if !models.ValidStatusTransition(order.Status, target) {
			jsonError(c, http.StatusBadRequest, fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
			return
		}

		if target == models.OrderStatusCancelled {
			if err := cancelAndRestock(ctx, db, &order); err != nil {
				fail(c, err)
				return
			}
			jsonOK(c, http.StatusOK, order)
			return
		}

		set := bson.M{"status": target, "updatedAt": time.Now().UTC()}
		if body.TrackingNumber != "" {
			set["trackingNumber"] = body.TrackingNumber
		}
		if _, err := db.Collection("orders").UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
			fail(c, err)
			return
		}
		order.Status = target
		if body.TrackingNumber != "" {
			order.TrackingNumber = body.TrackingNumber
		}
		jsonOK(c, http.StatusOK, order)
	}
}

func cancelAndRestock(ctx context.Context, db *database.DB, order *models.Order) error {
	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		products := db.Collection("products")
		for _, item := range order.Items {
			if _, err := products.UpdateByID(ctx, item.ProductID,
				bson.M{"$inc": bson.M{"stock": item.Quantity}}); err != nil {
				return err
			}
		}
		_, err := db.Collection("orders").UpdateByID(ctx, order.Id, bson.M{
			"$set": bson.M{"status": models.OrderStatusCancelled, "updatedAt": time.Now().UTC()},
		})
		return err
	})
	if err == nil {
		order.Status = models.OrderStatusCancelled
	}
	return err
}
