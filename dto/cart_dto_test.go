package dto

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindUpdateCartItem(t *testing.T, payload string) (UpdateCartItemDTO, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(payload))
	var body UpdateCartItemDTO
	err := binding.JSON.Bind(req, &body)
	return body, err
}

// An explicit zero removes the item, so it must pass validation and remain
// distinguishable from an absent quantity.
func TestUpdateCartItemDTO_ZeroQuantityBinds(t *testing.T) {
	body, err := bindUpdateCartItem(t, `{"quantity":0}`)
	require.NoError(t, err)
	require.NotNil(t, body.Quantity)
	assert.Equal(t, 0, *body.Quantity)
}

func TestUpdateCartItemDTO_MissingQuantityRejected(t *testing.T) {
	_, err := bindUpdateCartItem(t, `{}`)
	assert.Error(t, err)
}

func TestUpdateCartItemDTO_NegativeQuantityRejected(t *testing.T) {
	_, err := bindUpdateCartItem(t, `{"quantity":-1}`)
	assert.Error(t, err)
}
