// Package validation turns raw JSON payloads into typed, bounds-checked request values.
//
// Schemas are declared with validator/v10 struct tags on the request types in internal/dto.
// Only declared fields are projected, so unknown keys are dropped without error. Every field
// error is collected before returning so clients see the complete set in one response.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"hosting-storefront/internal/apperr"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	indexPattern = regexp.MustCompile(`\[\d+\]`)
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Validate satisfies echo.Validator.
func (v *Validator) Validate(i any) error {
	fields := map[string]string{}
	if err := v.collect(i, fields, ""); err != nil {
		return err
	}
	if len(fields) > 0 {
		return apperr.ValidationFailed(fields)
	}
	return nil
}

// Decode projects body onto dst and validates the result.
func (v *Validator) Decode(body []byte, dst any) error {
	fields := map[string]string{}

	if len(bytes.TrimSpace(body)) == 0 {
		fields["body"] = "Request body is required"
		return apperr.ValidationFailed(fields)
	}

	var mismatched string
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			fields["body"] = "Malformed JSON"
			return apperr.ValidationFailed(fields)
		}
		// json keeps decoding the remaining fields after a type mismatch.
		mismatched = typeErrorField(typeErr)
		fields[mismatched] = "Must be " + describeKind(typeErr.Type.Kind())
	}

	if err := v.collect(dst, fields, mismatched); err != nil {
		return err
	}
	if len(fields) > 0 {
		return apperr.ValidationFailed(fields)
	}
	return nil
}

// collect adds one message per failing field. Errors on the field json already rejected are
// dropped; json names nested fields without indexes, so items[0].quantity matches items.quantity.
func (v *Validator) collect(i any, fields map[string]string, mismatched string) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, fe := range validationErrs {
		key := fieldPath(fe.Namespace())
		if _, seen := fields[key]; seen {
			continue
		}
		if mismatched != "" && indexPattern.ReplaceAllString(key, "") == mismatched {
			continue
		}
		fields[key] = message(fe)
	}
	return nil
}

// fieldPath drops the Go type name that prefixes every namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func typeErrorField(err *json.UnmarshalTypeError) string {
	if err.Field == "" {
		return "body"
	}
	return err.Field
}

func describeKind(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	default:
		return "a valid value"
	}
}

func message(e validator.FieldError) string {
	kind := e.Kind()
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "uuid", "uuid4":
		return "Invalid UUID format"
	case "fqdn", "hostname", "hostname_rfc1123":
		return "Invalid hostname"
	case "iso4217":
		return "Invalid currency code"
	case "slug":
		return "Must contain only lowercase letters, digits, '-' or '_'"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "min":
		return "Must be at least " + e.Param() + unit(kind)
	case "max":
		return "Must be at most " + e.Param() + unit(kind)
	case "len":
		return "Must be exactly " + e.Param() + unit(kind)
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	default:
		return "Invalid value"
	}
}

func unit(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}
