// Package validate configures the go-playground validator shared by the catalog and its DTOs.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var shared = New()

// New returns a validator with exact comparisons for decimal.Decimal fields:
// `decimal_gte=0` and `decimal_lte=100` compare without converting to float.
func New() *validator.Validate {
	v := validator.New()
	mustRegister(v, "decimal_gte", func(field, bound decimal.Decimal) bool { return field.GreaterThanOrEqual(bound) })
	mustRegister(v, "decimal_lte", func(field, bound decimal.Decimal) bool { return field.LessThanOrEqual(bound) })
	return v
}

func mustRegister(v *validator.Validate, tag string, cmp func(field, bound decimal.Decimal) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		field, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			panic(fmt.Sprintf("validate: bad %s bound %q: %v", tag, fl.Param(), err))
		}
		return cmp(field, bound)
	})
	if err != nil {
		panic(fmt.Sprintf("validate: register %s: %v", tag, err))
	}
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return shared.Struct(s)
}

// Fields converts validation errors into a field -> rule map. It returns nil for other errors.
func Fields(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return fields
}

// Describe renders err as a stable one-line message, listing failed fields in name order.
func Describe(err error) string {
	fields := Fields(err)
	if fields == nil {
		return err.Error()
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return strings.Join(parts, ", ")
}
