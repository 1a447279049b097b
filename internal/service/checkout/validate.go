package checkout

import (
	"errors"
	"reflect"
	"strings"

	"apparel-storefront/internal/domain"
	"github.com/go-playground/validator/v10"
)

type contact struct {
	Email   string                 `json:"email" validate:"required,email"`
	Address domain.ShippingAddress `json:"shipping_address"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func normalizeAddress(a domain.ShippingAddress) domain.ShippingAddress {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Address = strings.TrimSpace(a.Address)
	a.Apartment = strings.TrimSpace(a.Apartment)
	a.City = strings.TrimSpace(a.City)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Phone = strings.TrimSpace(a.Phone)
	return a
}

// validateContact reports the first invalid field.
func validateContact(v *validator.Validate, c contact) error {
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: "Please check your shipping details"}
	}
	fe := fieldErrs[0]
	if fe.Tag() == "email" {
		return &ValidationError{Field: fe.Field(), Message: "Please enter a valid email address"}
	}
	return &ValidationError{Field: fe.Field(), Message: "Please fill in all required fields"}
}
