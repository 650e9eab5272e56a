package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NonFieldErrorsKey groups validation failures that are not tied to one field.
const NonFieldErrorsKey = "non_field_errors"

// ValidationError reports per-field validation failures. Nothing is persisted
// when it is returned.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a validation error from a field map.
func NewValidationError(fields map[string]string) *ValidationError {
	if fields == nil {
		fields = map[string]string{}
	}
	return &ValidationError{Fields: fields}
}

// Add records a message for a field, keeping the first one reported.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidator returns a validator that reports JSON field names and treats
// decimal values as numbers for comparison rules.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	validate.RegisterCustomTypeFunc(func(value reflect.Value) interface{} {
		if d, ok := value.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return validate
}

// validateStruct runs struct validation and converts rule failures into a
// ValidationError.
func validateStruct(validate *validator.Validate, payload interface{}) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := NewValidationError(nil)
	for _, fieldErr := range fieldErrs {
		result.Add(fieldErr.Field(), fieldMessage(fieldErr))
	}
	return result
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "This field is required."
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fieldErr.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fieldErr.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fieldErr.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("Value must be one of: %s.", fieldErr.Param())
	default:
		return "Enter a valid value."
	}
}
