package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/provision"
	"github.com/shaun/scaffold/server/internal/scaffold"
)

// fieldMessages holds the client-facing message per field and failed tag.
var fieldMessages = map[string]string{
	"name.required":      "Repository name is required",
	"name.reponame":      "Repository name can only contain letters, numbers, hyphens, and underscores",
	"language.required":  "Programming language is required",
	"language.language":  "Invalid programming language",
	"framework.required": "Framework is required",
	"description.max":    "Description must be less than 1000 characters",
}

// newValidator reports fields by their JSON names and checks languages
// against catalog.
func newValidator(catalog *scaffold.Catalog) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "reponame", func(fl validator.FieldLevel) bool {
		return provision.ValidateName(fl.Field().String()) == nil
	})
	mustRegister(v, "language", func(fl validator.FieldLevel) bool {
		return catalog.HasLanguage(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// validationFault turns validator output into a Validation fault with one
// detail per rejected field, in struct order.
func validationFault(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fault.Wrap(err, "validate request", "")
	}
	details := make([]fault.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "failed " + fe.Tag() + " check"
		}
		details = append(details, fault.FieldError{Field: fe.Field(), Message: msg})
	}
	return fault.Invalid("validation failed", details...)
}
