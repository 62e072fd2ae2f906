package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/cityhall/internal/repository"
)

var validate = newValidator()

// newValidator reports fields by their JSON names and compares decimals
// numerically so gt/gte/lte tags work on money fields.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Precisions of the NUMERIC(p,2) columns amounts are stored in.
const (
	moneyPrecision = 15
	areaPrecision  = 10
	ratePrecision  = 5
)

// validateParams runs struct tag validation followed by checks, and converts
// every failure into one ValidationError. Tag failures win per field.
func validateParams(params interface{}, checks ...func(fieldErrors)) error {
	fields := fieldErrors{}
	if err := validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields.add(fe.Field(), describe(fe))
		}
	}
	for _, check := range checks {
		check(fields)
	}
	return fields.err()
}

// scaled returns a check that d fits a NUMERIC(precision,2) column without
// rounding.
func scaled(field string, d decimal.Decimal, precision int32) func(fieldErrors) {
	return func(fields fieldErrors) {
		if !d.Equal(d.Truncate(2)) {
			fields.add(field, "must have at most 2 decimal places")
			return
		}
		if limit := decimal.New(1, precision-2); d.Abs().GreaterThanOrEqual(limit) {
			fields.add(field, "must be less than "+limit.String())
		}
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// mapRepoErr translates repository errors for entity into service errors.
// Duplicates are left to the caller, which knows which field collided.
func mapRepoErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%w: %s is still referenced by other records", ErrIntegrity, entity)
	case errors.Is(err, repository.ErrStaleState):
		return fmt.Errorf("%w: %s was changed by another request", ErrInvalidTransition, entity)
	default:
		return err
	}
}
