package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a request payload struct against its `validate`
// tags and returns a single readable error listing every failed field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs []string
	for _, err := range err.(validator.ValidationErrors) {
		field := strings.ToLower(err.Field())
		switch err.Tag() {
		case "required":
			errs = append(errs, field+" is required")
		case "min":
			errs = append(errs, field+" must be at least "+err.Param()+" characters")
		case "max":
			errs = append(errs, field+" must be at most "+err.Param()+" characters")
		case "email":
			errs = append(errs, field+" must be a valid email")
		case "url":
			errs = append(errs, field+" must be a valid URL")
		case "oneof":
			errs = append(errs, field+" must be one of: "+err.Param())
		default:
			errs = append(errs, field+" is invalid")
		}
	}

	return errors.New(strings.Join(errs, ", "))
}
