package dto

type AddCartItemDTO struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemDTO sets an item quantity. Quantity is a pointer so that an
// explicit zero, which removes the item, survives the required check.
type UpdateCartItemDTO struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}
