package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatValidationErrors converts validator.ValidationErrors to a field -> message map.
// Nested fields keep their path, e.g. "tools[3]".
func FormatValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		key := fieldPath(e)
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = formatSingleError(e)
	}
	return fields
}

// fieldPath strips the top-level struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatSingleError(e validator.FieldError) string {
	param := e.Param()

	switch e.Tag() {
	case "required":
		return "is required"

	case "min":
		if isCollection(e) {
			return fmt.Sprintf("must contain at least %s items", param)
		}
		if e.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return fmt.Sprintf("must be at least %s", param)

	case "max":
		if isCollection(e) {
			return fmt.Sprintf("must contain at most %s items", param)
		}
		if e.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return fmt.Sprintf("must be at most %s", param)

	case "gt":
		return fmt.Sprintf("must be greater than %s", param)

	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(param), ", "))

	case "email":
		return "must be a valid email address"

	case "url":
		return "must be a valid URL"

	case "indian_phone":
		return "must be a valid Indian mobile number"

	case "no_emoji":
		return "must not contain emoji or symbols"

	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}

func isCollection(e validator.FieldError) bool {
	k := e.Kind().String()
	return k == "slice" || k == "array" || k == "map"
}
