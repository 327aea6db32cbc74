package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vcardoso/lojabackend/category"
	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/dto"
	"github.com/vcardoso/lojabackend/models"
	"github.com/vcardoso/lojabackend/query"
	"github.com/vcardoso/lojabackend/utils"
)

// GetCategories is the flat, filterable listing. The tree endpoint is the one
// that populates children.
func GetCategories(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		desc, err := query.Build(c.Request.URL.Query())
		if err != nil {
			fail(c, err)
			return
		}

		items := make([]models.Category, 0)
		res, err := query.Paginate(ctx, db.Collection("categories"), desc, &items)
		if err != nil {
			fail(c, err)
			return
		}
		jsonPage(c, res, items)
	}
}

func GetCategoryTree(mgr *category.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, err := mgr.Tree(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		jsonOK(c, http.StatusOK, tree)
	}
}

// GetCategory accepts either a hex id or a slug and returns the category with
// its root-first breadcrumb.
func GetCategory(mgr *category.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var cat *models.Category
		var err error
		if id, idErr := bson.ObjectIDFromHex(c.Param("id")); idErr == nil {
			cat, err = mgr.Get(ctx, id)
		} else {
			cat, err = mgr.BySlug(ctx, strings.TrimSpace(c.Param("id")))
		}
		if err != nil {
			fail(c, err)
			return
		}

		crumbs, err := mgr.Breadcrumb(ctx, cat.Id)
		if err != nil {
			fail(c, err)
			return
		}

		jsonOK(c, http.StatusOK, gin.H{"category": cat, "breadcrumb": crumbs})
	}
}

func CreateCategory(mgr *category.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.CreateCategoryDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		in := category.CreateInput{
			Name:        strings.TrimSpace(body.Name),
			Description: strings.TrimSpace(body.Description),
			Icon:        body.Icon,
			Order:       body.Order,
			IsActive:    true,
			Featured:    body.Featured,
		}
		if body.IsActive != nil {
			in.IsActive = *body.IsActive
		}
		if body.Parent != "" {
			parent, err := bson.ObjectIDFromHex(body.Parent)
			if err != nil {
				jsonError(c, http.StatusBadRequest, "invalid parent id")
				return
			}
			in.Parent = &parent
		}
		if uid, err := bson.ObjectIDFromHex(c.GetString("userID")); err == nil {
			in.CreatedBy = uid
		}

		cat, err := mgr.Create(ctx, in)
		if err != nil {
			fail(c, err)
			return
		}
		jsonOK(c, http.StatusCreated, cat)
	}
}

// UpdateCategory applies scalar changes and, when the parent field is
// present, a reparent in the same request and the same transaction. An empty
// parent string detaches the category to the root.
func UpdateCategory(mgr *category.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid category id")
			return
		}

		var body dto.UpdateCategoryDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}

		patch := category.Patch{
			Name:        body.Name,
			Description: body.Description,
			Icon:        body.Icon,
			Order:       body.Order,
			IsActive:    body.IsActive,
			Featured:    body.Featured,
		}
		if uid, err := bson.ObjectIDFromHex(c.GetString("userID")); err == nil {
			patch.UpdatedBy = uid
		}

		var cat *models.Category
		if body.Parent != nil {
			var newParent *bson.ObjectID
			if hex := strings.TrimSpace(*body.Parent); hex != "" {
				pid, err := bson.ObjectIDFromHex(hex)
				if err != nil {
					jsonError(c, http.StatusBadRequest, "invalid parent id")
					return
				}
				newParent = &pid
			}
			cat, err = mgr.UpdateAndReparent(ctx, id, patch, newParent)
		} else {
			cat, err = mgr.Update(ctx, id, patch)
		}
		if err != nil {
			fail(c, err)
			return
		}
		jsonOK(c, http.StatusOK, cat)
	}
}

func DeleteCategory(mgr *category.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid category id")
			return
		}

		res, err := mgr.Delete(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		jsonOK(c, http.StatusOK, res)
	}
}

func UploadCategoryImage(mgr *category.Manager, images *utils.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid category id")
			return
		}
		cat, err := mgr.Get(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}

		fh, err := c.FormFile("image")
		if err != nil {
			jsonError(c, http.StatusBadRequest, "image file is required")
			return
		}

		url, err := images.UploadImage(ctx, "categories", cat.Slug, fh)
		if err != nil {
			fail(c, err)
			return
		}

		updated, err := mgr.Update(ctx, id, category.Patch{Image: &url})
		if err != nil {
			fail(c, err)
			return
		}

		if cat.Image != "" {
			if name, err := images.ObjectName(cat.Image); err == nil {
				_ = images.DeleteObjects(ctx, []string{name})
			}
		}
		jsonOK(c, http.StatusOK, updated)
	}
}

// GetCategoryProducts lists the products of a category and all of its
// descendants, with the full filter/sort/select/paginate surface on top. The
// category constraint always wins over a conflicting query parameter.
func GetCategoryProducts(db *database.DB, mgr *category.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid category id")
			return
		}

		ids, err := mgr.ChildrenIDs(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}

		desc, err := query.Build(c.Request.URL.Query())
		if err != nil {
			fail(c, err)
			return
		}
		scope := make([]any, 0, len(ids))
		for _, cid := range ids {
			scope = append(scope, cid)
		}
		desc.Require(query.In{Field: "category", Values: scope})

		items := make([]models.Product, 0)
		res, err := query.Paginate(ctx, db.Collection("products"), desc, &items)
		if err != nil {
			fail(c, err)
			return
		}
		jsonPage(c, res, items)
	}
}
