package apperr

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their json names, e.g. "schedules[1].time_end".
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate runs struct tags on s and returns a *ValidationError on failure.
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return FromValidator(err)
	}
	return nil
}
