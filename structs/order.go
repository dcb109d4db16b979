package structs

import "time"

type CreateOrderRequest struct {
	ProductID  int64      `json:"product_id" validate:"required,gt=0"`
	CustomerID int64      `json:"customer_id" validate:"required,gt=0"`
	Quantity   *int       `json:"quantity,omitempty" validate:"omitnil,min=1"` // defaults to 1
	Address    string     `json:"address" validate:"max=255"`
	Phone      *string    `json:"phone,omitempty"`
	Date       *time.Time `json:"date,omitempty"` // defaults to today
	Status     bool       `json:"status"`
}

// UpdateOrderRequest is a partial update; nil fields are left untouched.
type UpdateOrderRequest struct {
	Quantity   *int    `json:"quantity,omitempty" validate:"omitnil,min=1"`
	Address    *string `json:"address,omitempty" validate:"omitnil,max=255"`
	Phone      *string `json:"phone,omitempty"`
	ClearPhone bool    `json:"clear_phone,omitempty"`
	Status     *bool   `json:"status,omitempty"`
}

type OrderListOptions struct {
	ListOptions
	CustomerID *int64 `json:"customer_id,omitempty"`
	ProductID  *int64 `json:"product_id,omitempty"`
	Status     *bool  `json:"status,omitempty"`
}
