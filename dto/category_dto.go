package dto

type CreateCategoryDTO struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description" binding:"max=500"`
	Parent      string `json:"parent"` // hex id of the parent category, empty for a root
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	IsActive    *bool  `json:"isActive"`
	Featured    bool   `json:"featured"`
}

// UpdateCategoryDTO holds optional pointer fields. Parent distinguishes three
// cases: nil leaves the parent alone, "" detaches to the root, a hex id
// reparents.
type UpdateCategoryDTO struct {
	Name        *string `json:"name" binding:"omitempty,max=50"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Parent      *string `json:"parent"`
	Icon        *string `json:"icon"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"isActive"`
	Featured    *bool   `json:"featured"`
}
