package dto

type ShippingAddressDTO struct {
	Street       string `json:"street" binding:"required"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode" binding:"required"`
	Country      string `json:"country" binding:"required"`
}

type CreateOrderDTO struct {
	ShippingAddress ShippingAddressDTO `json:"shippingAddress" binding:"required"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required,oneof=CARD BOLETO PIX TRANSFER"`
	Notes           string             `json:"notes"`
}

type UpdateOrderStatusDTO struct {
	Status         string `json:"status" binding:"required,oneof=PROCESSING SHIPPED DELIVERED CANCELLED"`
	TrackingNumber string `json:"trackingNumber"`
}
