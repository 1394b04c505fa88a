package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Validator validates structs via `validate` tags.
// Supported rules: required, email, min=N, max=N, oneof=a b c, gt=N.
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a struct
func (v *Validator) Validate(s interface{}) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validate expects a struct")
	}

	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		tag := fieldType.Tag.Get("validate")

		if tag == "" {
			continue
		}

		if err := v.validateField(field, tag); err != nil {
			return fmt.Errorf("%s: %w", fieldName(fieldType), err)
		}
	}

	return nil
}

// fieldName prefers the json field name in error messages
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		return strings.Split(tag, ",")[0]
	}
	return f.Name
}

// validateField validates a single field
func (v *Validator) validateField(field reflect.Value, tag string) error {
	rules := strings.Split(tag, ",")

	// Optional pointer fields: nil passes everything except required
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			for _, rule := range rules {
				if rule == "required" {
					return fmt.Errorf("field is required")
				}
			}
			return nil
		}
		field = field.Elem()
	}

	for _, rule := range rules {
		parts := strings.SplitN(rule, "=", 2)
		ruleName := parts[0]
		arg := ""
		if len(parts) == 2 {
			arg = parts[1]
		}

		switch ruleName {
		case "required":
			if field.IsZero() {
				return fmt.Errorf("field is required")
			}

		case "email":
			email := field.String()
			at := strings.Index(email, "@")
			if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
				return fmt.Errorf("invalid email format")
			}

		case "min":
			n, err := strconv.Atoi(arg)
			if err != nil {
				continue
			}
			if l, ok := lengthOf(field); ok && l < n {
				return fmt.Errorf("minimum length is %d", n)
			}
			if f, ok := numberOf(field); ok && f < float64(n) {
				return fmt.Errorf("minimum value is %d", n)
			}

		case "max":
			n, err := strconv.Atoi(arg)
			if err != nil {
				continue
			}
			if l, ok := lengthOf(field); ok && l > n {
				return fmt.Errorf("maximum length is %d", n)
			}
			if f, ok := numberOf(field); ok && f > float64(n) {
				return fmt.Errorf("maximum value is %d", n)
			}

		case "oneof":
			value := field.String()
			allowed := strings.Fields(arg)
			found := false
			for _, a := range allowed {
				if value == a {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("must be one of: %s", strings.Join(allowed, ", "))
			}

		case "gt":
			n, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				continue
			}
			if f, ok := numberOf(field); ok && f <= n {
				return fmt.Errorf("must be greater than %s", arg)
			}
		}
	}

	return nil
}

// lengthOf returns the length of string-like fields
func lengthOf(field reflect.Value) (int, bool) {
	if field.Kind() == reflect.String {
		return len(field.String()), true
	}
	return 0, false
}

// numberOf returns numeric fields as float64
func numberOf(field reflect.Value) (float64, bool) {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(field.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(field.Uint()), true
	case reflect.Float32, reflect.Float64:
		return field.Float(), true
	}
	return 0, false
}
