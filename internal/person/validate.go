package person

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Validate checks field presence before a write.
func Validate(p *Person) error {
	return validateAt(p, -1)
}

// ValidateAll checks every record of a batch and reports the first offender.
func ValidateAll(people []*Person) error {
	for i, p := range people {
		if err := validateAt(p, i); err != nil {
			return err
		}
	}
	return nil
}

func validateAt(p *Person, idx int) error {
	if p == nil {
		return &ValidationError{Index: idx, Field: "person", Message: "is required"}
	}
	err := v.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Index: idx, Field: "person", Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{Index: idx, Field: jsonName(fe.Field()), Message: message(fe)}
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	default:
		return "failed " + fe.Tag()
	}
}
