package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vcardoso/lojabackend/category"
	"github.com/vcardoso/lojabackend/query"
	"github.com/vcardoso/lojabackend/utils"
)

func jsonOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func jsonPage(c *gin.Context, res *query.Result, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      res.Count,
		"total":      res.Total,
		"pagination": res.Pagination,
		"data":       data,
	})
}

func jsonError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// fail translates domain errors into HTTP statuses. Anything unrecognized is
// a 500 with the raw error message.
func fail(c *gin.Context, err error) {
	var parseErr *query.ParseError
	switch {
	case errors.As(err, &parseErr):
		jsonError(c, http.StatusBadRequest, parseErr.Error())
	case errors.Is(err, category.ErrNotFound):
		jsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, category.ErrSelfParent), errors.Is(err, category.ErrCycle):
		jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, category.ErrIntegrity):
		jsonError(c, http.StatusInternalServerError, err.Error())
	case utils.IsDuplicateKey(err):
		jsonError(c, http.StatusConflict, "slug already exists")
	default:
		jsonError(c, http.StatusInternalServerError, err.Error())
	}
}
