package dto

type CreateProductDTO struct {
	Name        string   `json:"name" binding:"required,min=3,max=100"`
	Description string   `json:"description" binding:"max=2000"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Category    string   `json:"category" binding:"required"`
	Stock       int      `json:"stock" binding:"gte=0"`
	Tags        []string `json:"tags"`
	IsFeatured  bool     `json:"isFeatured"`
	IsActive    *bool    `json:"isActive"`
}

type UpdateProductDTO struct {
	Name              *string   `json:"name,omitempty"`
	Description       *string   `json:"description,omitempty"`
	Brand             *string   `json:"brand,omitempty"`
	Price             *float64  `json:"price,omitempty"`
	Category          *string   `json:"category,omitempty"`
	Stock             *int      `json:"stock,omitempty"`
	Tags              *[]string `json:"tags,omitempty"`
	IsFeatured        *bool     `json:"isFeatured,omitempty"`
	IsActive          *bool     `json:"isActive,omitempty"`
	RemovedImagesUrls []string  `json:"removedImagesUrls,omitempty"`
}
