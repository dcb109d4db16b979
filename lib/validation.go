package lib

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so errors line up with request payloads
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError represents a clean validation error for APIs
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a structured validation error
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// OrNil returns e as an error, or nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func NewValidationError(field, message string) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message)
	return ve
}

// ValidateStruct runs the `validate` tags of s and returns a *ValidationError (never a
// bare validator error) when any field is out of bounds.
func ValidateStruct(s any) *ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return &ValidationError{}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return mapValidationErrors(ve)
	}
	return NewValidationError("", err.Error())
}

func mapValidationErrors(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{}

	for _, e := range errs {
		field := strings.ToLower(e.Field())
		isString := e.Kind() == reflect.String

		var message string
		switch e.Tag() {
		case "required":
			message = "is required"
		case "email":
			message = "must be a valid email address"
		case "min":
			if isString {
				message = "must be at least " + e.Param() + " characters"
			} else {
				message = "must be at least " + e.Param()
			}
		case "max":
			if isString {
				message = "must be at most " + e.Param() + " characters"
			} else {
				message = "must be at most " + e.Param()
			}
		case "gt":
			message = "must be greater than " + e.Param()
		case "gte":
			message = "must be greater than or equal to " + e.Param()
		case "lte":
			message = "must be less than or equal to " + e.Param()
		default:
			message = "is invalid"
		}

		out.Add(field, message)
	}

	return out
}
