package doccoll

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// FieldSchema describes a single field parsed from struct tags.
type FieldSchema struct {
	Name      string   // Go field name
	BSONName  string   // bson tag name
	Type      string   // Go type as string
	Required  bool     // field must be non-zero
	Unique    bool     // unique index on this field
	Index     bool     // single-field index
	Default   string   // raw default value
	Enum      []string // allowed values
	Min       *int     // minimum value/length
	Max       *int     // maximum value/length
	Immutable bool     // cannot be changed after creation
}

// Schema is the parsed representation of a document struct.
type Schema struct {
	ModelName       string
	Collection      string
	Fields          []FieldSchema
	CompoundIndexes []CompoundIndex
	Hooks           []string
	CollOptions     *CollectionOptions
}

// HasField returns true if the schema contains a field with the given BSON name.
func (s *Schema) HasField(bsonName string) bool {
	return s.GetField(bsonName) != nil
}

// GetField returns the FieldSchema for a given BSON name, or nil if not found.
func (s *Schema) GetField(bsonName string) *FieldSchema {
	for i := range s.Fields {
		if s.Fields[i].BSONName == bsonName {
			return &s.Fields[i]
		}
	}
	return nil
}

// checkPath rejects field paths that do not start with a known field.
// Dotted paths into arrays or subdocuments are checked by their first segment.
func (s *Schema) checkPath(path string) error {
	if path == "" {
		return ValidationError{Field: path, Message: "field name is empty"}
	}
	root, _, _ := strings.Cut(path, ".")
	if strings.HasPrefix(root, "$") {
		return ValidationError{Field: path, Message: "operators are not field names"}
	}
	if !s.HasField(root) {
		return ValidationError{Field: path, Message: "unknown field for " + s.ModelName}
	}
	return nil
}

// Indexable is implemented by models that define compound indexes.
type Indexable interface {
	Indexes() []CompoundIndex
}

// CollectionOptions carries per-model read and write settings applied to the
// driver collection handle.
type CollectionOptions struct {
	ReadPreference *readpref.ReadPref
	ReadConcern    *readconcern.ReadConcern
	WriteConcern   *writeconcern.WriteConcern
}

// Configurable is implemented by models that need non-default collection options.
type Configurable interface {
	CollectionOptions() CollectionOptions
}

func (o *CollectionOptions) driverOptions() *options.CollectionOptionsBuilder {
	opts := options.Collection()
	if o == nil {
		return opts
	}
	if o.ReadPreference != nil {
		opts.SetReadPreference(o.ReadPreference)
	}
	if o.ReadConcern != nil {
		opts.SetReadConcern(o.ReadConcern)
	}
	if o.WriteConcern != nil {
		opts.SetWriteConcern(o.WriteConcern)
	}
	return opts
}
