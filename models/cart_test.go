package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartTotal(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{Quantity: 2, Price: 19.90},
		{Quantity: 1, Price: 5.50},
	}}
	assert.InDelta(t, 45.30, cart.Total(), 0.001)

	empty := Cart{}
	assert.Zero(t, empty.Total())
}

func TestHasStock(t *testing.T) {
	p := Product{Stock: 3}
	assert.True(t, p.HasStock(3))
	assert.False(t, p.HasStock(4))
	assert.True(t, p.HasStock(0))
}
