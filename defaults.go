package doccoll

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// applyDefaults fills zero-valued fields from their `default=` rule.
// Defaults are an insert-time concern only.
func applyDefaults(model any, schema *Schema) error {
	v := reflect.Indirect(reflect.ValueOf(model))

	for _, field := range schema.Fields {
		if field.Default == "" {
			continue
		}
		fv := v.FieldByName(field.Name)
		if !fv.IsValid() || !fv.CanSet() || !fv.IsZero() {
			continue
		}
		if err := setFieldFromString(fv, field.Default); err != nil {
			return fmt.Errorf("doccoll: cannot apply default %q to field %s: %w", field.Default, field.Name, err)
		}
	}
	return nil
}

// setFieldFromString parses s into the kind of fv. String slices accept a
// "|" separated list.
func setFieldFromString(fv reflect.Value, s string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported type %s", fv.Type())
		}
		parts := strings.Split(s, "|")
		out := reflect.MakeSlice(fv.Type(), len(parts), len(parts))
		for i, p := range parts {
			out.Index(i).SetString(p)
		}
		fv.Set(out)
	default:
		return fmt.Errorf("unsupported type %s", fv.Type())
	}
	return nil
}
