package structs

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	Description *string         `json:"description,omitempty" validate:"omitnil,max=200"`
	Image       string          `json:"image" validate:"required,max=100"`
}

// UpdateProductRequest is a partial update; nil fields are left untouched.
type UpdateProductRequest struct {
	Name             *string          `json:"name,omitempty" validate:"omitnil,required,max=100"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	CategoryID       *int64           `json:"category_id,omitempty" validate:"omitnil,gt=0"`
	Description      *string          `json:"description,omitempty" validate:"omitnil,max=200"`
	ClearDescription bool             `json:"clear_description,omitempty"`
	Image            *string          `json:"image,omitempty" validate:"omitnil,required,max=100"`
}

// ProductListOptions filters the product catalog.
type ProductListOptions struct {
	ListOptions
	CategoryID *int64           `json:"category_id,omitempty"`
	MinPrice   *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice   *decimal.Decimal `json:"max_price,omitempty"`
	SearchTerm string           `json:"search_term,omitempty"` // case-insensitive match on name
}
