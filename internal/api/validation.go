package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const missingField = "Missing data for required field."

// weatherQuery is the validated form of GET /weather's query string.
type weatherQuery struct {
	City    string `json:"city" validate:"required"`
	Country string `json:"country" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors groups validation failures by field name.
func fieldErrors(err error) map[string][]string {
	out := map[string][]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_schema"] = []string{err.Error()}
		return out
	}

	for _, fe := range verrs {
		msg := "Invalid value."
		if fe.Tag() == "required" {
			msg = missingField
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}
