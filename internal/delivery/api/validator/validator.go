// Package validator adapts go-playground/validator to echo.Validator.
package validator

import (
	"fmt"
	"strings"

	"accounts/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Validator validates request DTOs via struct tags.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with required-struct checking enabled.
func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.WithStack(err)
	}

	return &ValidationError{fields: fieldErrs}
}

// ValidationError lists the failed fields of a request.
type ValidationError struct {
	fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.fields))
	for _, fe := range e.fields {
		msgs = append(msgs, describe(fe))
	}

	return strings.Join(msgs, "; ")
}

// Details maps each failed field to the rule it broke.
func (e *ValidationError) Details() map[string]string {
	details := make(map[string]string, len(e.fields))
	for _, fe := range e.fields {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}

	return details
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
