package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"rentcal/internal/domain/shared/daterange"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// YYYY-MM-DD calendar day; empty passes unless combined with required.
	validate.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		_, err := time.Parse(daterange.Layout, raw)
		return err == nil
	})

	// YYYY-MM month reference.
	validate.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		_, err := time.Parse("2006-01", raw)
		return err == nil
	})

	// IANA zone name understood by time.LoadLocation.
	validate.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		_, err := time.LoadLocation(raw)
		return err == nil
	})
}

// FieldErrors maps field names to human readable problems.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks s against its `validate` tags. It returns nil or FieldErrors.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validator: %w", err)
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required"
		case "day":
			out[field] = "Must be a date formatted as YYYY-MM-DD"
		case "month":
			out[field] = "Must be a month formatted as YYYY-MM"
		case "timezone":
			out[field] = "Unknown time zone"
		case "min":
			out[field] = "Value is too small (min: " + fe.Param() + ")"
		case "max":
			out[field] = "Value is too large (max: " + fe.Param() + ")"
		case "oneof":
			out[field] = "Must be one of: " + fe.Param()
		default:
			out[field] = "Invalid value"
		}
	}
	return out
}
