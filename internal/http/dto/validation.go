package dto

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"crosswalk.app/api/internal/model"
)

// RegisterValidators adds the domain tags used in binding rules to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("rangeclass", func(fl validator.FieldLevel) bool {
		return model.RangeClass(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("registering rangeclass: %w", err)
	}
	if err := v.RegisterValidation("effect", func(fl validator.FieldLevel) bool {
		return model.Effect(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("registering effect: %w", err)
	}
	return nil
}

var fieldMessages = map[string]string{
	"Message":       "Invalid message",
	"Latitude":      "Invalid coordinates",
	"Longitude":     "Invalid coordinates",
	"Lat":           "Invalid coordinates",
	"Lng":           "Invalid coordinates",
	"Radius":        "Invalid radius",
	"Range":         "Invalid range",
	"Effect":        "Invalid effect",
	"ExpiresAt":     "Invalid expiry date",
	"IdentityToken": "Identity token required",
	"AccessToken":   "Access token required",
	"Name":          "Invalid name",
}

// BindingMessage turns a bind error into the message returned to clients.
func BindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].Field()]; ok {
			return msg
		}
	}
	return "Invalid request body"
}
