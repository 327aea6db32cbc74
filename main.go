package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vcardoso/lojabackend/category"
	"github.com/vcardoso/lojabackend/controllers"
	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/logger"
	"github.com/vcardoso/lojabackend/middleware"
	"github.com/vcardoso/lojabackend/models"
	"github.com/vcardoso/lojabackend/utils"
)

func main() {
	log := logger.New()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using process environment")
	}

	ctx := context.Background()

	db, err := database.Connect(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		if err := db.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("database disconnect failed")
		}
	}()

	seeded, err := utils.SeedAdminUser(ctx, db.Collection("users"))
	if err != nil {
		log.Fatal().Err(err).Msg("admin seeding failed")
	}
	if seeded {
		log.Info().Msg("admin user seeded")
	}

	images, err := utils.NewImageStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("image store init failed")
	}
	defer images.Close()

	catMgr := category.NewManager(category.NewStore(db))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())

	origins := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	log.Info().Interface("origins", allowedOrigins).Msg("cors configured")
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/auth/register", controllers.Register(db))
	r.POST("/auth/login", controllers.Login(db))
	r.POST("/auth/refresh", controllers.Refresh(db))
	r.POST("/auth/logout", controllers.Logout(db))

	r.GET("/products", controllers.GetProducts(db))
	r.GET("/products/:id", controllers.GetProduct(db))
	r.GET("/products/slug/:slug", controllers.GetProduct(db))

	r.GET("/categories", controllers.GetCategories(db))
	r.GET("/categories/tree", controllers.GetCategoryTree(catMgr))
	r.GET("/categories/:id", controllers.GetCategory(catMgr))
	r.GET("/categories/:id/products", controllers.GetCategoryProducts(db, catMgr))

	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.GET("/users/me", controllers.GetMe(db))
		authed.POST("/users/me/password", controllers.ChangeMyPassword(db))

		authed.GET("/cart", controllers.GetCart(db))
		authed.POST("/cart/items", controllers.AddCartItem(db))
		authed.PATCH("/cart/items/:productId", controllers.UpdateCartItem(db))
		authed.DELETE("/cart/items/:productId", controllers.RemoveCartItem(db))
		authed.DELETE("/cart", controllers.ClearCart(db))

		authed.POST("/orders", controllers.CreateOrder(db))
		authed.GET("/orders", controllers.GetMyOrders(db))
		authed.GET("/orders/:id", controllers.GetOrder(db))
		authed.DELETE("/orders/:id", controllers.CancelOrder(db))
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole(string(models.RoleAdmin), string(models.RolePublisher)))
	{
		admin.POST("/products", controllers.AddProduct(db, catMgr, images))
		admin.PATCH("/products/:id", controllers.UpdateProduct(db, catMgr, images))
		admin.DELETE("/products/:id", controllers.DeleteProduct(db, images))

		admin.POST("/categories", controllers.CreateCategory(catMgr))
		admin.PATCH("/categories/:id", controllers.UpdateCategory(catMgr))
		admin.DELETE("/categories/:id", controllers.DeleteCategory(catMgr))
		admin.PUT("/categories/:id/image", controllers.UploadCategoryImage(catMgr, images))

		admin.GET("/orders", controllers.GetOrders(db))
		admin.PATCH("/orders/:id/status", controllers.UpdateOrderStatus(db))
	}

	adminOnly := r.Group("/admin")
	adminOnly.Use(middleware.AuthMiddleware(), middleware.RequireRole(string(models.RoleAdmin)))
	{
		adminOnly.GET("/users", controllers.GetUsers(db))
		adminOnly.POST("/users", controllers.CreateUser(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("server starting")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
