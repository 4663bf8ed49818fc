// Package validation wraps go-playground/validator with readable errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error lists the fields that failed validation, keyed by their config or
// JSON name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + " " + e.Fields[n]
	}
	return "invalid " + strings.Join(parts, "; ")
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their mapstructure, yaml or
// json tag name, in that order.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "yaml", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return &Validator{v: v}
}

// Validate checks s and returns an *Error describing every failing field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// RegisterValidation exposes custom tags to callers.
func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return v.v.RegisterValidation(tag, fn)
}

func (v *Validator) formatError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, e := range verrs {
		out.Fields[e.Field()] = friendlyMessage(e)
	}
	return out
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "nefield":
		return "must differ from " + e.Param()
	default:
		return fmt.Sprintf("failed %q (value %v)", e.Tag(), e.Value())
	}
}
