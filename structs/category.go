package structs

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type UpdateCategoryRequest struct {
	Name *string `json:"name,omitempty" validate:"omitnil,required,max=50"`
}
