package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const bcryptMaxBytes = 72

// Validator checks forms against their `validate` tags and reports
// violations under the json name of each field.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// bcrypt hashes at most 72 bytes; max counts runes.
	if err := v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	}); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// Check validates form and returns the collected violations. The returned
// value is never nil so callers can append domain checks before calling Err.
func (v *Validator) Check(prefix string, form any) (*domain.ValidationError, error) {
	out := &domain.ValidationError{}
	err := v.v.Struct(form)
	if err == nil {
		return out, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), violationMessage(prefix, fe.Field(), fe.Tag()))
	}
	return out, nil
}

// CheckValue validates a single value and records a violation for property.
func (v *Validator) CheckValue(out *domain.ValidationError, prefix, property string, value any, tag string) {
	err := v.v.Var(value, tag)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		out.Add(property, violationMessage(prefix, property, fieldErrs[0].Tag()))
		return
	}
	out.Add(property, violationMessage(prefix, property, "invalid"))
}

func violationMessage(prefix, property, tag string) string {
	var suffix string
	switch tag {
	case "required", "notblank":
		suffix = "is-blank"
	case "max", "bcryptmax":
		suffix = "is-too-long"
	case "min":
		suffix = "is-empty"
	case "email":
		suffix = "is-invalid"
	default:
		suffix = "is-invalid"
	}
	return fmt.Sprintf("%s.errors.%s-%s", prefix, kebab(property), suffix)
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
