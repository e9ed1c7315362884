package middleware

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// wireDateLayout matches the observed DD/MM/YYYY wire format for
// appointment and next-visit dates.
const wireDateLayout = "02/01/2006"

// RegisterCustomValidations installs domain validation rules on gin's
// binding engine. Safe to call more than once.
func RegisterCustomValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("ddmmyyyy", validDDMMYYYY)
}

func validDDMMYYYY(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	_, err := time.Parse(wireDateLayout, value)
	return err == nil
}
