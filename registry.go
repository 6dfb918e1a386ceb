package doccoll

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/dwoolworth/doccoll/internal"
)

var (
	schemaMu    sync.RWMutex
	schemaCache = map[schemaKey]*Schema{}
)

type schemaKey struct {
	t          reflect.Type
	collection string
}

var modelType = reflect.TypeOf(Model{})

// ParseSchema parses a document struct and returns its schema. The model
// must be a struct, or pointer to one, that embeds Model by value. Results are cached
// per type and collection name, so repeated calls are cheap.
func ParseSchema(model any, collection string) (*Schema, error) {
	if model == nil {
		return nil, fmt.Errorf("doccoll: ParseSchema expects a struct, got nil")
	}
	t := internal.Indirect(reflect.TypeOf(model))
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("doccoll: ParseSchema expects a struct, got %s", t.Kind())
	}
	if !embedsModel(t) {
		return nil, fmt.Errorf("doccoll: %s does not embed doccoll.Model", t.Name())
	}
	if collection == "" {
		return nil, fmt.Errorf("doccoll: collection name for %s is empty", t.Name())
	}

	key := schemaKey{t: t, collection: collection}
	schemaMu.RLock()
	cached, ok := schemaCache[key]
	schemaMu.RUnlock()
	if ok {
		return cached, nil
	}

	schema := &Schema{
		ModelName:  t.Name(),
		Collection: collection,
	}

	for _, f := range internal.StructFields(t) {
		bsonName, _ := ParseBSONTag(f.Tag.Get("bson"))
		if bsonName == "-" {
			continue
		}
		if bsonName == "" {
			bsonName = strings.ToLower(f.Name)
		}

		fs := ParseTag(f.Tag.Get("doccoll"))
		fs.Name = f.Name
		fs.BSONName = bsonName
		fs.Type = internal.TypeName(f.Type)
		if bsonName == "_id" || bsonName == "created_at" {
			fs.Immutable = true
		}
		schema.Fields = append(schema.Fields, fs)
	}

	// Interfaces are usually implemented on the pointer receiver.
	zero := reflect.New(t).Interface()
	if indexable, ok := zero.(Indexable); ok {
		schema.CompoundIndexes = indexable.Indexes()
	}
	if configurable, ok := zero.(Configurable); ok {
		opts := configurable.CollectionOptions()
		schema.CollOptions = &opts
	}
	schema.Hooks = detectHooks(zero)

	schemaMu.Lock()
	if existing, ok := schemaCache[key]; ok {
		schema = existing
	} else {
		schemaCache[key] = schema
	}
	schemaMu.Unlock()

	return schema, nil
}

// Schemas returns every schema parsed so far, ordered by collection name.
func Schemas() []*Schema {
	schemaMu.RLock()
	out := make([]*Schema, 0, len(schemaCache))
	for _, s := range schemaCache {
		out = append(out, s)
	}
	schemaMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Collection == out[j].Collection {
			return out[i].ModelName < out[j].ModelName
		}
		return out[i].Collection < out[j].Collection
	})
	return out
}

func embedsModel(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == modelType {
			return true
		}
	}
	return false
}

// detectHooks lists the hook interfaces a model implements.
func detectHooks(model any) []string {
	var hooks []string
	if _, ok := model.(BeforeInsert); ok {
		hooks = append(hooks, "BeforeInsert")
	}
	if _, ok := model.(AfterInsert); ok {
		hooks = append(hooks, "AfterInsert")
	}
	if _, ok := model.(BeforeSave); ok {
		hooks = append(hooks, "BeforeSave")
	}
	if _, ok := model.(AfterSave); ok {
		hooks = append(hooks, "AfterSave")
	}
	if _, ok := model.(AfterDelete); ok {
		hooks = append(hooks, "AfterDelete")
	}
	return hooks
}
