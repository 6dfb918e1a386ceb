package doccoll

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// Validate checks a model instance against its schema and returns every
// violation found. A nil result means the model is valid.
func Validate(model any, schema *Schema) []ValidationError {
	v := reflect.Indirect(reflect.ValueOf(model))

	var errs []ValidationError
	for _, fs := range schema.Fields {
		fv := v.FieldByName(fs.Name)
		if !fv.IsValid() {
			continue
		}

		if fs.Required && isEmpty(fv) {
			errs = append(errs, ValidationError{Field: fs.BSONName, Message: "field is required"})
			continue
		}
		if fv.IsZero() {
			continue
		}

		if len(fs.Enum) > 0 {
			s := stringValue(fv)
			if !slices.Contains(fs.Enum, s) {
				errs = append(errs, ValidationError{
					Field:   fs.BSONName,
					Message: fmt.Sprintf("value %q is not in enum %v", s, fs.Enum),
				})
			}
		}

		if fs.Min != nil {
			if n, what, ok := measure(fv); ok && n < float64(*fs.Min) {
				errs = append(errs, ValidationError{
					Field:   fs.BSONName,
					Message: fmt.Sprintf("%s %s is less than minimum %d", what, formatMeasure(n), *fs.Min),
				})
			}
		}
		if fs.Max != nil {
			if n, what, ok := measure(fv); ok && n > float64(*fs.Max) {
				errs = append(errs, ValidationError{
					Field:   fs.BSONName,
					Message: fmt.Sprintf("%s %s exceeds maximum %d", what, formatMeasure(n), *fs.Max),
				})
			}
		}
	}

	return errs
}

// validateImmutable reports immutable fields whose value differs between the
// stored snapshot and the next state.
func validateImmutable(old, next any, schema *Schema) []ValidationError {
	oldV := reflect.Indirect(reflect.ValueOf(old))
	nextV := reflect.Indirect(reflect.ValueOf(next))

	var errs []ValidationError
	for _, field := range schema.Fields {
		if !field.Immutable {
			continue
		}
		a, b := oldV.FieldByName(field.Name), nextV.FieldByName(field.Name)
		if !a.IsValid() || !b.IsValid() {
			continue
		}
		if !reflect.DeepEqual(a.Interface(), b.Interface()) {
			errs = append(errs, ValidationError{
				Field:   field.BSONName,
				Message: "field is immutable and cannot be changed",
			})
		}
	}
	return errs
}

// isEmpty treats blank strings and empty slices as missing, matching what a
// caller means by "required".
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// measure returns the number min/max rules compare against: the value for
// numbers, the length for strings and slices. Floats are not rounded.
func measure(v reflect.Value) (float64, string, bool) {
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return float64(v.Len()), "length", true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), "value", true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), "value", true
	case reflect.Float32, reflect.Float64:
		return v.Float(), "value", true
	case reflect.Pointer:
		if v.IsNil() {
			return 0, "", false
		}
		return measure(v.Elem())
	}
	return 0, "", false
}

func formatMeasure(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func stringValue(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}
