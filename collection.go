package doccoll

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// StoreConnection hands out named collection handles. *mongo.Database
// satisfies it. The connection must be established before any operation is
// invoked; its lifecycle belongs to the caller.
type StoreConnection interface {
	Collection(name string, opts ...options.Lister[options.CollectionOptions]) *mongo.Collection
}

// Options configures a Collection.
type Options struct {
	// Middleware wraps every operation, outermost first.
	Middleware []MiddlewareFunc
}

// FindOneOptions configures FindOneByField.
type FindOneOptions struct {
	// Sort makes the winner deterministic when several documents match.
	Sort bson.D
}

// DeleteSummary reports the outcome of DeleteWhere.
type DeleteSummary struct {
	DeletedCount int64
}

// Collection is a typed view over one MongoDB collection whose documents
// decode into T. T must be a struct that embeds Model.
//
// A Collection is safe for concurrent use. It holds no state besides the
// driver handle, the parsed schema and the middleware chain.
type Collection[T any] struct {
	coll       *mongo.Collection
	schema     *Schema
	mw         chain
	modelIndex []int
}

// New binds T to the named collection of conn.
func New[T any](conn StoreConnection, name string, opts ...Options) (*Collection[T], error) {
	if conn == nil {
		return nil, ErrNoDatabase
	}
	if db, ok := conn.(*mongo.Database); ok && db == nil {
		return nil, ErrNoDatabase
	}

	schema, err := ParseSchema(new(T), name)
	if err != nil {
		return nil, err
	}

	c := &Collection[T]{
		coll:       conn.Collection(name, schema.CollOptions.driverOptions()),
		schema:     schema,
		modelIndex: modelFieldIndex(reflect.TypeFor[T]()),
	}
	for _, o := range opts {
		c.mw = append(c.mw, o.Middleware...)
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.schema.Collection }

// Schema returns the parsed schema of T.
func (c *Collection[T]) Schema() *Schema { return c.schema }

// Handle returns the underlying driver collection for operations this
// package does not cover. Calls made through it bypass middleware.
func (c *Collection[T]) Handle() *mongo.Collection { return c.coll }

// InsertOne validates doc and inserts it. On success doc carries its new ID
// and timestamps and is returned. A missing required field fails with
// ValidationErrors and nothing is written.
func (c *Collection[T]) InsertOne(ctx context.Context, doc *T) (*T, error) {
	if doc == nil {
		return nil, ValidationError{Field: "document", Message: "document is nil"}
	}

	err := c.run(ctx, OpInsertOne, doc, nil, func(ctx context.Context) error {
		if err := c.prepareInsert(ctx, doc, timestamp()); err != nil {
			return err
		}
		if _, err := c.coll.InsertOne(ctx, doc); err != nil {
			return storeErr(OpInsertOne, c.Name(), err)
		}
		if hook, ok := any(doc).(AfterInsert); ok {
			return hook.AfterInsert(ctx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FindByField returns every document whose field equals value. No match is
// an empty slice, not an error.
func (c *Collection[T]) FindByField(ctx context.Context, field string, value any) ([]*T, error) {
	if err := c.checkField(field); err != nil {
		return nil, err
	}
	return c.find(ctx, bson.D{{Key: field, Value: idValue(field, value)}}, options.Find())
}

// FindOneByField returns one document whose field equals value, or nil when
// none does. Without a sort the store picks the winner (usually natural
// order), so callers must not rely on which of several matches comes back.
func (c *Collection[T]) FindOneByField(ctx context.Context, field string, value any, opts ...FindOneOptions) (*T, error) {
	if err := c.checkField(field); err != nil {
		return nil, err
	}
	findOpts := options.FindOne()
	for _, o := range opts {
		if len(o.Sort) > 0 {
			for _, e := range o.Sort {
				if err := c.checkField(e.Key); err != nil {
					return nil, err
				}
			}
			findOpts.SetSort(o.Sort)
		}
	}
	return c.findOne(ctx, bson.D{{Key: field, Value: idValue(field, value)}}, findOpts)
}

// FindByID returns the document with the given ID, or nil when it does not
// exist. A nil result distinguishes absence from a store fault.
func (c *Collection[T]) FindByID(ctx context.Context, id ID) (*T, error) {
	if id.IsZero() {
		return nil, ValidationError{Field: "_id", Message: "id is zero"}
	}
	return c.findOne(ctx, bson.D{{Key: "_id", Value: id}}, options.FindOne())
}

// FetchEditSave loads the document, lets mutate change it in memory and
// replaces the stored document with the result. It fails with ErrNotFound
// when id does not exist, and returns mutate's error unchanged.
//
// The read and the write are separate round trips. A concurrent writer that
// saves between them is silently overwritten (last writer wins); no error
// signals the lost update. Use UpdateWhere when the change must be atomic.
func (c *Collection[T]) FetchEditSave(ctx context.Context, id ID, mutate func(*T) error) (*T, error) {
	if mutate == nil {
		return nil, ValidationError{Field: "mutate", Message: "mutation function is nil"}
	}

	current, err := c.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}

	before, err := clone(current)
	if err != nil {
		return nil, fmt.Errorf("doccoll: snapshot copy failed: %w", err)
	}
	if err := mutate(current); err != nil {
		return nil, err
	}

	if err := c.replace(ctx, before, current); err != nil {
		return nil, err
	}
	return current, nil
}

// UpdateWhere atomically applies patch to one document matching filter and
// returns the document as it is after the update, or nil when nothing
// matched. A patch without update operators is treated as a $set. Hooks and
// schema validation do not run.
func (c *Collection[T]) UpdateWhere(ctx context.Context, filter, patch any) (*T, error) {
	update, err := normalizePatch(patch, timestamp())
	if err != nil {
		return nil, err
	}
	filter = orEmpty(filter)

	var out *T
	err = c.run(ctx, OpUpdate, nil, filter, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		res := c.coll.FindOneAndUpdate(ctx, filter, update, opts)
		doc, err := decodeSingle[T](res)
		if err != nil {
			return storeErr(OpUpdate, c.Name(), err)
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes the document with the given ID and returns it, or nil
// when it did not exist.
func (c *Collection[T]) DeleteByID(ctx context.Context, id ID) (*T, error) {
	if id.IsZero() {
		return nil, ValidationError{Field: "_id", Message: "id is zero"}
	}
	filter := bson.D{{Key: "_id", Value: id}}

	var out *T
	err := c.run(ctx, OpDelete, nil, filter, func(ctx context.Context) error {
		doc, err := decodeSingle[T](c.coll.FindOneAndDelete(ctx, filter))
		if err != nil {
			return storeErr(OpDelete, c.Name(), err)
		}
		if doc == nil {
			return nil
		}
		out = doc
		if hook, ok := any(doc).(AfterDelete); ok {
			return hook.AfterDelete(ctx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of documents matching filter. A nil filter counts
// every document.
func (c *Collection[T]) Count(ctx context.Context, filter any) (int64, error) {
	filter = orEmpty(filter)

	var n int64
	err := c.run(ctx, OpCount, nil, filter, func(ctx context.Context) error {
		var err error
		n, err = c.coll.CountDocuments(ctx, filter)
		return storeErr(OpCount, c.Name(), err)
	})
	return n, err
}

// Query starts a new read query over the collection.
func (c *Collection[T]) Query() Query[T] {
	return Query[T]{coll: c}
}

// --- helpers ---

func (c *Collection[T]) run(ctx context.Context, op OpType, model, filter any, fn func(context.Context) error) error {
	return c.mw.run(ctx, &OpInfo{
		Operation:  op,
		Collection: c.schema.Collection,
		ModelName:  c.schema.ModelName,
		Model:      model,
		Filter:     filter,
	}, fn)
}

// prepareInsert readies doc for insertion: stageInsert on a copy, then
// commitInsert. A rejected document is left exactly as the caller passed it.
func (c *Collection[T]) prepareInsert(ctx context.Context, doc *T, now time.Time) error {
	staged, err := c.stageInsert(ctx, doc)
	if err != nil {
		return err
	}
	c.commitInsert(doc, staged, now)
	return nil
}

// stageInsert applies defaults, runs BeforeInsert and validates a shallow
// copy of doc. doc itself is not modified.
func (c *Collection[T]) stageInsert(ctx context.Context, doc *T) (*T, error) {
	staged := new(T)
	*staged = *doc

	if err := applyDefaults(staged, c.schema); err != nil {
		return nil, err
	}
	if hook, ok := any(staged).(BeforeInsert); ok {
		if err := hook.BeforeInsert(ctx); err != nil {
			return nil, err
		}
	}
	if errs := Validate(staged, c.schema); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return staged, nil
}

// commitInsert copies the staged state into doc and assigns the ID and
// timestamps.
func (c *Collection[T]) commitInsert(doc, staged *T, now time.Time) {
	*doc = *staged

	base := c.base(doc)
	if base.ID.IsZero() {
		base.ID = bson.NewObjectID()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func (c *Collection[T]) replace(ctx context.Context, before, doc *T) error {
	id := c.base(doc).ID
	filter := bson.D{{Key: "_id", Value: c.base(before).ID}}

	return c.run(ctx, OpReplace, doc, filter, func(ctx context.Context) error {
		if errs := validateImmutable(before, doc, c.schema); len(errs) > 0 {
			return ValidationErrors(errs)
		}
		if hook, ok := any(doc).(BeforeSave); ok {
			if err := hook.BeforeSave(ctx); err != nil {
				return err
			}
		}
		if errs := Validate(doc, c.schema); len(errs) > 0 {
			return ValidationErrors(errs)
		}

		c.base(doc).UpdatedAt = timestamp()

		res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
		if err != nil {
			return storeErr(OpReplace, c.Name(), err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}

		if hook, ok := any(doc).(AfterSave); ok {
			return hook.AfterSave(ctx)
		}
		return nil
	})
}

func (c *Collection[T]) find(ctx context.Context, filter any, opts *options.FindOptionsBuilder) ([]*T, error) {
	results := make([]*T, 0)
	err := c.run(ctx, OpFind, nil, filter, func(ctx context.Context) error {
		cursor, err := c.coll.Find(ctx, filter, opts)
		if err != nil {
			return storeErr(OpFind, c.Name(), err)
		}
		defer func() { _ = cursor.Close(ctx) }()

		return storeErr(OpFind, c.Name(), cursor.All(ctx, &results))
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Collection[T]) findOne(ctx context.Context, filter any, opts *options.FindOneOptionsBuilder) (*T, error) {
	var out *T
	err := c.run(ctx, OpFindOne, nil, filter, func(ctx context.Context) error {
		doc, err := decodeSingle[T](c.coll.FindOne(ctx, filter, opts))
		if err != nil {
			return storeErr(OpFindOne, c.Name(), err)
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collection[T]) checkField(field string) error {
	return c.schema.checkPath(field)
}

func (c *Collection[T]) base(doc *T) *Model {
	return reflect.ValueOf(doc).Elem().FieldByIndex(c.modelIndex).Addr().Interface().(*Model)
}

// decodeSingle decodes a single result, mapping "no document" to nil.
func decodeSingle[T any](res *mongo.SingleResult) (*T, error) {
	doc := new(T)
	if err := res.Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// clone deep-copies a document through its BSON form, which is exactly the
// state the store would see.
func clone[T any](doc *T) (*T, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func modelFieldIndex(t reflect.Type) []int {
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Anonymous && f.Type == modelType {
			return f.Index
		}
	}
	return nil
}

// idValue lets callers pass a hex string where an _id is expected.
func idValue(field string, value any) any {
	if field != "_id" {
		return value
	}
	if s, ok := value.(string); ok {
		if id, err := bson.ObjectIDFromHex(s); err == nil {
			return id
		}
	}
	return value
}

func orEmpty(filter any) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
