package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/dto"
	"github.com/vcardoso/lojabackend/models"
	"github.com/vcardoso/lojabackend/query"
	"github.com/vcardoso/lojabackend/utils"
)

// GetUsers is the admin user listing with the full query surface.
func GetUsers(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		desc, err := query.Build(c.Request.URL.Query())
		if err != nil {
			fail(c, err)
			return
		}

		users := make([]models.User, 0)
		res, err := query.Paginate(ctx, db.Collection("users"), desc, &users)
		if err != nil {
			fail(c, err)
			return
		}
		jsonPage(c, res, users)
	}
}

// CreateUser lets an admin open an account with any role.
func CreateUser(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := db.Collection("users")

		var body dto.CreateUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		email := strings.ToLower(strings.TrimSpace(body.Email))

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			fail(c, err)
			return
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           bson.NewObjectID(),
			Name:         body.Name,
			Email:        email,
			PasswordHash: hash,
			Role:         models.Role(body.Role),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if _, err := usersCol.InsertOne(ctx, user); err != nil {
			if utils.IsDuplicateKey(err) {
				jsonError(c, http.StatusConflict, "email already registered")
				return
			}
			fail(c, err)
			return
		}

		jsonOK(c, http.StatusCreated, user)
	}
}

func GetMe(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := currentUserID(c)
		if !ok {
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(c.Request.Context(), bson.M{"_id": uid}).Decode(&user); err != nil {
			jsonError(c, http.StatusNotFound, "user not found")
			return
		}
		jsonOK(c, http.StatusOK, user)
	}
}

// ChangeMyPassword verifies the current password, swaps the hash and revokes
// every outstanding refresh token for the user.
func ChangeMyPassword(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := db.Collection("users")

		var body dto.ChangeMyPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		uid, ok := currentUserID(c)
		if !ok {
			return
		}

		var user models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
			jsonError(c, http.StatusUnauthorized, "invalid user")
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.CurrentPassword); err != nil {
			jsonError(c, http.StatusUnauthorized, "current password is incorrect")
			return
		}

		newHash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			fail(c, err)
			return
		}

		_, err = usersCol.UpdateByID(ctx, uid, bson.M{
			"$set": bson.M{"passwordHash": newHash, "updatedAt": time.Now().UTC()},
		})
		if err != nil {
			fail(c, err)
			return
		}

		_ = RevokeAllRefreshTokens(c, db, uid)
		utils.ClearRefreshCookie(c)

		jsonOK(c, http.StatusOK, gin.H{"changed": true})
	}
}
