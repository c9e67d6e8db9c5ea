// Package validate registers the tracker's enum validators with go-playground/validator.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/utilityprofit/moveout-tracker/internal/models"
)

// Register adds the custom tags to v:
//
//	utilitytype   Electric, Gas, Water or Internet
//	utilitystatus one of the four transfer statuses
//	transferto    "", Owner, PM Master Acct or Disconnect
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"utilitytype": func(fl validator.FieldLevel) bool {
			return models.UtilityType(fl.Field().String()).Valid()
		},
		"utilitystatus": func(fl validator.FieldLevel) bool {
			return models.Status(fl.Field().String()).Valid()
		},
		"transferto": func(fl validator.FieldLevel) bool {
			return models.TransferTo(fl.Field().String()).Valid()
		},
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// BindGin registers the custom tags on gin's default binding validator.
func BindGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin binding engine is %T, not *validator.Validate", binding.Validator.Engine())
	}
	return Register(v)
}

// Message turns a binding error into a client-facing message. Missing required fields
// produce missing; enum violations name the offending field; anything else is a body
// that could not be decoded.
func Message(err error, missing string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return missing
		}
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %v", fe.Field(), fe.Value())
}
