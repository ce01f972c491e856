// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/readsphere/readsphere-api/internal/models"
)

var validate *validator.Validate

var isbnPattern = regexp.MustCompile(`^(?:\d{9}[\dX]|\d{13})$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(fieldName)
	validate.RegisterValidation("genre", validateGenre)
	validate.RegisterValidation("isbn", validateISBN)
	validate.RegisterValidation("int_range", validateIntRange)
	validate.RegisterValidation("sort_field", validateSortField)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// fieldName reports fields by their wire name so errors match what the client sent
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func validateGenre(fl validator.FieldLevel) bool {
	return models.Genre(fl.Field().String()).IsValid()
}

func validateISBN(fl validator.FieldLevel) bool {
	return isbnPattern.MatchString(fl.Field().String())
}

func validateSortField(fl validator.FieldLevel) bool {
	_, ok := models.BookSortColumns[fl.Field().String()]
	return ok
}

// validateIntRange accepts a string holding an integer within "min:max"; either bound may be omitted
func validateIntRange(fl validator.FieldLevel) bool {
	value, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}

	lower, upper := parseRange(fl.Param())
	if lower != nil && value < *lower {
		return false
	}
	if upper != nil && value > *upper {
		return false
	}
	return true
}

func parseRange(param string) (*int, *int) {
	parts := strings.SplitN(param, ":", 2)
	bound := func(s string) *int {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		return &n
	}

	if len(parts) == 1 {
		return bound(parts[0]), nil
	}
	return bound(parts[0]), bound(parts[1])
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// ValidateRequest validates s and returns an AppError listing every violation, or nil
func ValidateRequest(s interface{}) error {
	if err := ValidateStruct(s); err != nil {
		details := GetValidationErrors(err)
		if len(details) == 0 {
			return UnexpectedErr(err)
		}
		return ValidationErr(details)
	}
	return nil
}

func getValidationMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "email":
		return "Please enter a valid email"
	case "url":
		return field + " must be a valid URL"
	case "min":
		if e.Kind() == reflect.Slice {
			return field + " must contain at least " + e.Param() + " item(s)"
		}
		if e.Kind() == reflect.String {
			return field + " must be at least " + e.Param() + " characters"
		}
		return field + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return field + " must be at most " + e.Param() + " characters"
		}
		return field + " must be at most " + e.Param()
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "genre":
		return "Invalid genre"
	case "isbn":
		return "Invalid ISBN format"
	case "sort_field":
		return "Invalid sort field"
	case "uuid":
		return "Invalid " + field
	case "int_range":
		lower, upper := parseRange(e.Param())
		switch {
		case lower != nil && upper != nil:
			return field + " must be between " + strconv.Itoa(*lower) + " and " + strconv.Itoa(*upper)
		case lower != nil && *lower == 1:
			return field + " must be a positive integer"
		case lower != nil:
			return field + " must be an integer of at least " + strconv.Itoa(*lower)
		default:
			return field + " must be an integer"
		}
	default:
		return field + " is invalid"
	}
}
