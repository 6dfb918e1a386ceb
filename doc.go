// Package doccoll is a typed document-collection layer over MongoDB.
//
// A document type embeds Model and describes its fields with bson and
// doccoll struct tags:
//
//	type Person struct {
//	    doccoll.Model `bson:",inline"`
//	    Name string   `bson:"name" doccoll:"required,index"`
//	    Tags []string `bson:"tags,omitempty"`
//	}
//
// New binds the type to a named collection of a connected database. The
// resulting Collection validates documents before every insert and save,
// stamps ids and timestamps, and reports failures as ValidationError,
// ErrNotFound or *StoreError:
//
//	db, err := doccoll.Connect(ctx, "mongodb://localhost:27017", "app")
//	people, err := doccoll.New[Person](db, "people")
//	saved, err := people.InsertOne(ctx, &Person{Name: "Ada"})
//
// Absent results are nil pointers or empty slices, never errors, except for
// FetchEditSave which returns ErrNotFound when there is nothing to edit.
//
// FetchEditSave is a read, a local edit and a full replace. Two concurrent
// calls on the same document can overwrite each other's changes; use
// UpdateWhere with update operators when the edit must be atomic.
//
// Cross-cutting behavior (logging, tracing, metrics) is added per collection
// through Options.Middleware; see the observe package.
package doccoll
