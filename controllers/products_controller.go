package controllers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vcardoso/lojabackend/category"
	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/dto"
	"github.com/vcardoso/lojabackend/models"
	"github.com/vcardoso/lojabackend/query"
	"github.com/vcardoso/lojabackend/utils"
)

// GetProducts is the advanced listing: field filters with comparison and in
// operators, free-text search, select, sort and pagination, all parsed from
// the query string.
func GetProducts(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		desc, err := query.Build(c.Request.URL.Query())
		if err != nil {
			fail(c, err)
			return
		}

		items := make([]models.Product, 0)
		res, err := query.Paginate(ctx, db.Collection("products"), desc, &items)
		if err != nil {
			fail(c, err)
			return
		}
		jsonPage(c, res, items)
	}
}

// GetProduct accepts a hex id or a slug.
func GetProduct(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := db.Collection("products")

		key := c.Param("id")
		if key == "" {
			key = c.Param("slug")
		}
		filter := bson.M{"slug": strings.TrimSpace(key)}
		if id, err := bson.ObjectIDFromHex(key); err == nil {
			filter = bson.M{"_id": id}
		}

		var product models.Product
		if err := col.FindOne(ctx, filter).Decode(&product); err != nil {
			jsonError(c, http.StatusNotFound, "product not found")
			return
		}
		jsonOK(c, http.StatusOK, product)
	}
}

// AddProduct takes a multipart form: a "data" part with the product JSON and
// up to MAX_PROD_IMAGES "images" files.
func AddProduct(db *database.DB, mgr *category.Manager, images *utils.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := db.Collection("products")

		jsonData := c.PostForm("data")
		if jsonData == "" {
			jsonError(c, http.StatusBadRequest, "missing data")
			return
		}
		var body dto.CreateProductDTO
		if err := json.Unmarshal([]byte(jsonData), &body); err != nil {
			jsonError(c, http.StatusBadRequest, "invalid data json")
			return
		}

		catID, err := bson.ObjectIDFromHex(body.Category)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid category id")
			return
		}
		if _, err := mgr.Get(ctx, catID); err != nil {
			fail(c, err)
			return
		}

		slug := utils.GenerateSlug(body.Name)

		var files []*multipart.FileHeader
		if form, err := c.MultipartForm(); err == nil && form != nil {
			files = form.File["images"]
		}
		var imageUrls []string
		if len(files) > 0 {
			imageUrls, err = images.UploadImages(ctx, "products", slug, files)
			if err != nil {
				jsonError(c, http.StatusBadRequest, err.Error())
				return
			}
		}

		now := time.Now().UTC()
		product := models.Product{
			Name:        body.Name,
			Slug:        slug,
			Description: body.Description,
			Brand:       body.Brand,
			Price:       body.Price,
			Category:    &catID,
			Stock:       body.Stock,
			Tags:        body.Tags,
			Images:      imageUrls,
			IsFeatured:  body.IsFeatured,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if body.IsActive != nil {
			product.IsActive = *body.IsActive
		}
		if uid, err := bson.ObjectIDFromHex(c.GetString("userID")); err == nil {
			product.Seller = uid
		}

		res, err := col.InsertOne(ctx, product)
		if err != nil {
			fail(c, err)
			return
		}
		product.Id = res.InsertedID.(bson.ObjectID)

		jsonOK(c, http.StatusCreated, product)
	}
}

func UpdateProduct(db *database.DB, mgr *category.Manager, images *utils.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := db.Collection("products")

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid product id")
			return
		}

		dataStr := c.PostForm("data")
		if dataStr == "" {
			jsonError(c, http.StatusBadRequest, "missing data")
			return
		}
		var body dto.UpdateProductDTO
		if err := json.Unmarshal([]byte(dataStr), &body); err != nil {
			jsonError(c, http.StatusBadRequest, "invalid data json")
			return
		}

		var product models.Product
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			jsonError(c, http.StatusNotFound, "product not found")
			return
		}

		// only urls the product actually owns may be removed
		imagesToDelete := utils.IntersectStrings(body.RemovedImagesUrls, product.Images)

		var newFiles []*multipart.FileHeader
		if form, err := c.MultipartForm(); err == nil && form != nil {
			newFiles = form.File["images"]
		}
		maxProdImages, err := strconv.Atoi(os.Getenv("MAX_PROD_IMAGES"))
		if err != nil {
			maxProdImages = 4
		}
		if len(product.Images)-len(imagesToDelete)+len(newFiles) > maxProdImages {
			jsonError(c, http.StatusBadRequest, fmt.Sprintf("max %d images", maxProdImages))
			return
		}

		var newUrls []string
		if len(newFiles) > 0 {
			newUrls, err = images.UploadImages(ctx, "products", product.Slug, newFiles)
			if err != nil {
				jsonError(c, http.StatusBadRequest, err.Error())
				return
			}
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Name != nil {
			set["name"] = *body.Name
			set["slug"] = utils.GenerateSlug(*body.Name)
		}
		if body.Description != nil {
			set["description"] = *body.Description
		}
		if body.Brand != nil {
			set["brand"] = *body.Brand
		}
		if body.Price != nil {
			set["price"] = *body.Price
		}
		if body.Category != nil {
			catID, err := bson.ObjectIDFromHex(*body.Category)
			if err != nil {
				jsonError(c, http.StatusBadRequest, "invalid category id")
				return
			}
			if _, err := mgr.Get(ctx, catID); err != nil {
				fail(c, err)
				return
			}
			set["category"] = catID
		}
		if body.Stock != nil {
			set["stock"] = *body.Stock
		}
		if body.Tags != nil {
			set["tags"] = *body.Tags
		}
		if body.IsFeatured != nil {
			set["isFeatured"] = *body.IsFeatured
		}
		if body.IsActive != nil {
			set["isActive"] = *body.IsActive
		}
		if len(imagesToDelete) > 0 || len(newUrls) > 0 {
			set["images"] = utils.MergeImageUrlsArrays(product.Images, imagesToDelete, newUrls)
		}

		if _, err := col.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
			// roll the freshly uploaded objects back so the bucket does not leak
			if len(newUrls) > 0 {
				names := make([]string, 0, len(newUrls))
				for _, u := range newUrls {
					if n, err := images.ObjectName(u); err == nil {
						names = append(names, n)
					}
				}
				_ = images.DeleteObjects(ctx, names)
			}
			fail(c, err)
			return
		}

		if len(imagesToDelete) > 0 {
			names := make([]string, 0, len(imagesToDelete))
			for _, u := range imagesToDelete {
				if n, err := images.ObjectName(u); err == nil {
					names = append(names, n)
				}
			}
			_ = images.DeleteObjects(ctx, names)
		}

		var updated models.Product
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&updated); err != nil {
			fail(c, err)
			return
		}
		jsonOK(c, http.StatusOK, updated)
	}
}

func DeleteProduct(db *database.DB, images *utils.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := db.Collection("products")

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid product id")
			return
		}

		var product models.Product
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			jsonError(c, http.StatusNotFound, "product not found")
			return
		}

		if _, err := col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			fail(c, err)
			return
		}

		if len(product.Images) > 0 {
			names := make([]string, 0, len(product.Images))
			for _, u := range product.Images {
				if n, err := images.ObjectName(u); err == nil {
					names = append(names, n)
				}
			}
			_ = images.DeleteObjects(ctx, names)
		}

		jsonOK(c, http.StatusOK, gin.H{"deleted": id.Hex()})
	}
}
