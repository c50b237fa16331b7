// Package validation registers the request validators used by gin bindings
package validation

import (
	"errors"
	"fmt"

	"authd/internal/auth"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Tags registered on the binding engine
const (
	TagEmailAddress   = "email_address"
	TagStrongPassword = "strong_password"
)

// Initialize registers all custom validators
func Initialize() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := Register(v); err != nil {
			panic(err)
		}
	}
}

// Register adds the custom tags to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagEmailAddress, validateEmailAddress); err != nil {
		return err
	}
	return v.RegisterValidation(TagStrongPassword, validateStrongPassword)
}

func validateEmailAddress(fl validator.FieldLevel) bool {
	return auth.IsValidEmail(fl.Field().String())
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	return auth.ValidatePassword(fl.Field().String()) == nil
}

// Message turns a binding error into the client-facing message for the first
// failing field.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case TagEmailAddress:
		return auth.ErrInvalidEmail.Error()
	case TagStrongPassword:
		return auth.ErrWeakPassword.Error()
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	default:
		return fe.Error()
	}
}
