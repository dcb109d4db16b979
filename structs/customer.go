package structs

type CreateCustomerRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=255"`
	LastName  string  `json:"last_name" validate:"required,max=255"`
	Email     string  `json:"email" validate:"required,email,max=100"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	Phone     *string `json:"phone,omitempty"`
}

// UpdateCustomerRequest is a partial update; nil fields are left untouched.
type UpdateCustomerRequest struct {
	FirstName  *string `json:"first_name,omitempty" validate:"omitnil,required,max=255"`
	LastName   *string `json:"last_name,omitempty" validate:"omitnil,required,max=255"`
	Email      *string `json:"email,omitempty" validate:"omitnil,required,email,max=100"`
	Password   *string `json:"password,omitempty" validate:"omitnil,min=8,max=128"`
	Phone      *string `json:"phone,omitempty"`
	ClearPhone bool    `json:"clear_phone,omitempty"`
}
