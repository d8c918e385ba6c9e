package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCategory checks the struct constraints of a category.
// Failures wrap ErrInvalidData, or ErrInvalidName for a blank name.
func ValidateCategory(c *Category) error {
	if c == nil {
		return ErrInvalidData
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	return structError(validate.Struct(c))
}

// ValidateField checks the struct constraints of a field definition.
func ValidateField(f *Field) error {
	if f == nil {
		return ErrInvalidData
	}
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.ShortName) == "" {
		return ErrInvalidName
	}
	return structError(validate.Struct(f))
}

func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidData, strings.Join(parts, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidData, err)
}
