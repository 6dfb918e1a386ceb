package doccoll

import (
	"strconv"
	"strings"
)

// ParseTag parses a `doccoll:"..."` struct tag value into FieldSchema rules.
// Supported: required, immutable, index, unique, default=v, enum=a|b|c,
// min=N, max=N. Unknown keys are ignored.
func ParseTag(tag string) FieldSchema {
	var fs FieldSchema
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		k, v, hasValue := strings.Cut(part, "=")
		if !hasValue {
			switch part {
			case "required":
				fs.Required = true
			case "immutable":
				fs.Immutable = true
			case "index":
				fs.Index = true
			case "unique":
				fs.Unique = true
			}
			continue
		}

		switch k {
		case "default":
			fs.Default = v
		case "enum":
			fs.Enum = strings.Split(v, "|")
		case "min":
			if n, err := strconv.Atoi(v); err == nil {
				fs.Min = &n
			}
		case "max":
			if n, err := strconv.Atoi(v); err == nil {
				fs.Max = &n
			}
		}
	}
	return fs
}

// ParseBSONTag extracts the BSON field name from a `bson:"..."` struct tag.
// Returns the field name and whether the field is inlined.
func ParseBSONTag(tag string) (name string, inline bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "inline" {
			inline = true
		}
	}
	return parts[0], inline
}
