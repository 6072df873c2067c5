// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/javajoker/apparel-inventory/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	validate.RegisterValidation("product_type", validateProductType)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// decimalValue lets numeric tags (gte, lte) apply to decimal fields.
func decimalValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateProductType(fl validator.FieldLevel) bool {
	return IsKnownProductType(fl.Field().String())
}

// NormalizeProductType trims and title-cases a product type name, so
// "hoodie " and "HOODIE" both become "Hoodie".
func NormalizeProductType(name string) models.ProductTypeName {
	name = strings.TrimSpace(name)
	return models.ProductTypeName(cases.Title(language.Und).String(strings.ToLower(name)))
}

func IsKnownProductType(name string) bool {
	normalized := NormalizeProductType(name)
	for _, t := range models.DefaultProductTypes {
		if t == normalized {
			return true
		}
	}
	return false
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return e.Field() + " must have at least " + e.Param() + " entries"
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "product_type":
		return "Product type must be Hoodie or Jacket"
	default:
		return e.Field() + " is invalid"
	}
}
