// Package internal holds reflection helpers shared by doccoll.
package internal

import (
	"reflect"
)

// StructFields returns the exported fields of a struct type in declaration
// order. Embedded structs (by value or pointer) are flattened in place, which
// mirrors how the bson codec treats `bson:",inline"` embeddings.
func StructFields(t reflect.Type) []reflect.StructField {
	t = Indirect(t)
	if t.Kind() != reflect.Struct {
		return nil
	}

	var fields []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && Indirect(f.Type).Kind() == reflect.Struct {
			fields = append(fields, StructFields(f.Type)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// Indirect strips any number of pointer levels from t.
func Indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeName returns a short, human-readable type name such as "[]string",
// "*int" or "time.Time".
func TypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Map:
		return "map[" + TypeName(t.Key()) + "]" + TypeName(t.Elem())
	}
	if t.Name() == "" {
		return t.String()
	}
	if pkg := t.PkgPath(); pkg != "" {
		short := pkg
		for i := len(pkg) - 1; i >= 0; i-- {
			if pkg[i] == '/' {
				short = pkg[i+1:]
				break
			}
		}
		return short + "." + t.Name()
	}
	return t.Name()
}
