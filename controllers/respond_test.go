package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcardoso/lojabackend/category"
	"github.com/vcardoso/lojabackend/query"
)

func failWith(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	fail(c, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestFailStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"parse error", &query.ParseError{Param: "price[x]", Value: "gt:abc", Reason: "bad"}, http.StatusBadRequest},
		{"wrapped parse error", fmt.Errorf("listing: %w", &query.ParseError{Param: "p", Value: "v", Reason: "r"}), http.StatusBadRequest},
		{"not found", category.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("parent: %w", category.ErrNotFound), http.StatusNotFound},
		{"self parent", category.ErrSelfParent, http.StatusBadRequest},
		{"cycle", category.ErrCycle, http.StatusBadRequest},
		{"integrity", category.ErrIntegrity, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := failWith(t, tt.err)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}
