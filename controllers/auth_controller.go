package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/dto"
	"github.com/vcardoso/lojabackend/models"
	"github.com/vcardoso/lojabackend/utils"
)

// Register creates a customer account. Admins are seeded, never registered.
func Register(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := db.Collection("users")

		var body dto.RegisterUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		count, err := usersCol.CountDocuments(ctx, bson.M{"email": body.Email})
		if err != nil {
			fail(c, err)
			return
		}
		if count > 0 {
			jsonError(c, http.StatusConflict, "email already registered")
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			fail(c, err)
			return
		}

		now := time.Now().UTC()
		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         models.RoleCustomer,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		res, err := usersCol.InsertOne(ctx, user)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				jsonError(c, http.StatusConflict, "email already registered")
				return
			}
			fail(c, err)
			return
		}
		user.ID = res.InsertedID.(bson.ObjectID)

		jsonOK(c, http.StatusCreated, user)
	}
}

func Login(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": body.Email}).Decode(&user); err != nil {
			jsonError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			jsonError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if !user.IsActive {
			jsonError(c, http.StatusForbidden, "account disabled")
			return
		}

		accessToken, err := utils.GenerateAccessToken(user.ID.Hex(), user.Email, string(user.Role), utils.AccessTTL())
		if err != nil {
			fail(c, err)
			return
		}
		refreshToken, err := utils.GenerateRefreshToken(user.ID.Hex())
		if err != nil {
			fail(c, err)
			return
		}

		now := time.Now().UTC()
		_, err = db.Collection("refresh_tokens").InsertOne(ctx, models.RefreshToken{
			UserID:    user.ID,
			TokenHash: refreshToken,
			ExpiresAt: now.Add(utils.RefreshTTL()),
			CreatedAt: now,
		})
		if err != nil {
			fail(c, err)
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     "refreshToken",
			Value:    refreshToken,
			Path:     "/auth/refresh",
			MaxAge:   int(utils.RefreshTTL().Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode, // for cross-site
		})
		jsonOK(c, http.StatusOK, gin.H{"accessToken": accessToken})
	}
}

// Refresh rotates the refresh token: the presented token is revoked and
// replaced in the same request.
func Refresh(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := db.Collection("users")
		refreshCol := db.Collection("refresh_tokens")

		hash, err := c.Cookie("refreshToken")
		if err != nil || hash == "" {
			jsonError(c, http.StatusUnauthorized, "missing refresh token")
			return
		}

		var rt models.RefreshToken
		err = refreshCol.FindOne(ctx, bson.M{
			"tokenHash": hash,
			"revokedAt": bson.M{"$exists": false},
			"expiresAt": bson.M{"$gt": time.Now().UTC()},
		}).Decode(&rt)
		if err != nil {
			jsonError(c, http.StatusUnauthorized, "invalid refresh token")
			return
		}

		var user models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": rt.UserID}).Decode(&user); err != nil {
			jsonError(c, http.StatusUnauthorized, "invalid user")
			return
		}
		if !user.IsActive {
			jsonError(c, http.StatusForbidden, "account disabled")
			return
		}

		newHash, err := utils.GenerateRefreshToken(user.ID.Hex())
		if err != nil {
			fail(c, err)
			return
		}

		now := time.Now().UTC()
		_, err = refreshCol.UpdateByID(ctx, rt.ID, bson.M{
			"$set": bson.M{"revokedAt": now, "replacedBy": newHash},
		})
		if err != nil {
			fail(c, err)
			return
		}
		_, err = refreshCol.InsertOne(ctx, models.RefreshToken{
			UserID:    user.ID,
			TokenHash: newHash,
			ExpiresAt: now.Add(utils.RefreshTTL()),
			CreatedAt: now,
		})
		if err != nil {
			fail(c, err)
			return
		}

		accessToken, err := utils.GenerateAccessToken(user.ID.Hex(), user.Email, string(user.Role), utils.AccessTTL())
		if err != nil {
			fail(c, err)
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     "refreshToken",
			Value:    newHash,
			Path:     "/auth/refresh",
			MaxAge:   int(utils.RefreshTTL().Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
		})
		jsonOK(c, http.StatusOK, gin.H{"accessToken": accessToken})
	}
}

func Logout(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		hash, _ := c.Cookie("refreshToken")
		utils.ClearRefreshCookie(c)

		// best effort revoke
		if hash != "" {
			_, _ = db.Collection("refresh_tokens").UpdateOne(ctx, bson.M{
				"tokenHash": hash,
				"revokedAt": bson.M{"$exists": false},
			}, bson.M{
				"$set": bson.M{"revokedAt": time.Now().UTC()},
			})
		}

		jsonOK(c, http.StatusOK, gin.H{"loggedOut": true})
	}
}

func RevokeAllRefreshTokens(c *gin.Context, db *database.DB, userID bson.ObjectID) error {
	_, err := db.Collection("refresh_tokens").UpdateMany(c.Request.Context(), bson.M{
		"userId":    userID,
		"revokedAt": bson.M{"$exists": false},
	}, bson.M{
		"$set": bson.M{"revokedAt": time.Now().UTC()},
	})
	return err
}
