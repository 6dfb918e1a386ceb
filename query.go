package doccoll

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SortDirection orders query results on one field.
type SortDirection int

const (
	Asc  SortDirection = 1
	Desc SortDirection = -1
)

type projectionMode int

const (
	projectNone projectionMode = iota
	projectInclude
	projectExclude
)

// Query is a composable read over a Collection. It is a value: every method
// returns a new Query and leaves the receiver untouched, so a partially built
// query can be reused or branched freely.
//
// Stages are applied in a fixed order regardless of call order: filter,
// sort, skip and limit, projection. Only Execute, First and Count talk to the
// store; argument errors collected along the chain are returned from them.
//
//	people, err := coll.Query().
//	    Where("tags", "burrito").
//	    Sort("name", doccoll.Asc).
//	    Limit(2).
//	    Select("-age").
//	    Execute(ctx)
type Query[T any] struct {
	coll       *Collection[T]
	filter     bson.D
	sort       bson.D
	skip       int64
	limit      int64
	hasLimit   bool
	projection bson.D
	mode       projectionMode
	errs       []ValidationError
}

// QueryPlan is the accumulated state of a Query, for inspection.
type QueryPlan struct {
	Filter     bson.D
	Sort       bson.D
	Skip       int64
	Limit      *int64
	Projection bson.D
}

// Filter replaces the filter with f, which may be a bson.D, bson.M, map or
// struct.
func (q Query[T]) Filter(f any) Query[T] {
	if f == nil {
		q.filter = nil
		return q
	}
	doc, err := toD(f)
	if err != nil {
		return q.fail(ValidationError{Field: "filter", Message: "filter is not a document: " + err.Error()})
	}
	q.filter = doc
	return q
}

// Where adds an equality term on field to the filter.
func (q Query[T]) Where(field string, value any) Query[T] {
	if err := q.coll.checkField(field); err != nil {
		return q.failErr(err)
	}
	q.filter = append(slices.Clip(q.filter), bson.E{Key: field, Value: idValue(field, value)})
	return q
}

// Sort appends a sort key. Earlier keys take precedence.
func (q Query[T]) Sort(field string, dir SortDirection) Query[T] {
	if err := q.coll.checkField(field); err != nil {
		return q.failErr(err)
	}
	if dir != Asc && dir != Desc {
		return q.fail(ValidationError{Field: field, Message: "sort direction must be 1 or -1"})
	}
	q.sort = append(slices.Clip(q.sort), bson.E{Key: field, Value: int(dir)})
	return q
}

// Skip discards the first n matches.
func (q Query[T]) Skip(n int64) Query[T] {
	if n < 0 {
		return q.fail(ValidationError{Field: "skip", Message: "skip must not be negative"})
	}
	q.skip = n
	return q
}

// Limit caps the number of results. Zero requests no results at all; it does
// not mean unlimited.
func (q Query[T]) Limit(n int64) Query[T] {
	if n < 0 {
		return q.fail(ValidationError{Field: "limit", Message: "limit must not be negative"})
	}
	q.limit, q.hasLimit = n, true
	return q
}

// Select chooses the returned fields. A leading "-" excludes a field,
// anything else includes it. Inclusion and exclusion cannot be mixed, except
// that _id may be excluded from an inclusion projection.
func (q Query[T]) Select(fields ...string) Query[T] {
	for _, f := range fields {
		if name, ok := strings.CutPrefix(f, "-"); ok {
			q = q.project(name, false)
		} else {
			q = q.project(strings.TrimPrefix(f, "+"), true)
		}
	}
	return q
}

// Include adds fields to an inclusion projection.
func (q Query[T]) Include(fields ...string) Query[T] {
	for _, f := range fields {
		q = q.project(f, true)
	}
	return q
}

// Exclude adds fields to an exclusion projection.
func (q Query[T]) Exclude(fields ...string) Query[T] {
	for _, f := range fields {
		q = q.project(f, false)
	}
	return q
}

func (q Query[T]) project(field string, include bool) Query[T] {
	if err := q.coll.checkField(field); err != nil {
		return q.failErr(err)
	}

	value := 0
	if include {
		value = 1
	}
	if field != "_id" {
		mode := projectExclude
		if include {
			mode = projectInclude
		}
		if q.mode != projectNone && q.mode != mode {
			return q.fail(ValidationError{Field: field, Message: "projection cannot mix inclusion and exclusion"})
		}
		q.mode = mode
	}

	q.projection = slices.Clip(q.projection)
	for i, e := range q.projection {
		if e.Key == field {
			q.projection = slices.Clone(q.projection)
			q.projection[i].Value = value
			return q
		}
	}
	q.projection = append(q.projection, bson.E{Key: field, Value: value})
	return q
}

func (q Query[T]) failErr(err error) Query[T] {
	var ve ValidationError
	if !errors.As(err, &ve) {
		ve = ValidationError{Field: "query", Message: err.Error()}
	}
	return q.fail(ve)
}

func (q Query[T]) fail(err ValidationError) Query[T] {
	q.errs = append(slices.Clip(q.errs), err)
	return q
}

// Plan returns the accumulated query state.
func (q Query[T]) Plan() QueryPlan {
	p := QueryPlan{
		Filter:     slices.Clone(q.filter),
		Sort:       slices.Clone(q.sort),
		Skip:       q.skip,
		Projection: slices.Clone(q.projection),
	}
	if q.hasLimit {
		n := q.limit
		p.Limit = &n
	}
	return p
}

// Err returns the argument errors collected so far, or nil.
func (q Query[T]) Err() error {
	if len(q.errs) == 0 {
		return nil
	}
	return ValidationErrors(slices.Clone(q.errs))
}

// Execute runs the query and returns the matching documents. No match is an
// empty slice. Ordering between documents with equal sort keys is up to the
// store.
func (q Query[T]) Execute(ctx context.Context) ([]*T, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	if q.hasLimit && q.limit == 0 {
		return []*T{}, nil
	}

	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}
	if q.skip > 0 {
		opts.SetSkip(q.skip)
	}
	if q.hasLimit {
		opts.SetLimit(q.limit)
	}
	if len(q.projection) > 0 {
		opts.SetProjection(q.projection)
	}
	return q.coll.find(ctx, q.filterDoc(), opts)
}

// First runs the query with a limit of one and returns the first document,
// or nil when nothing matches.
func (q Query[T]) First(ctx context.Context) (*T, error) {
	if q.hasLimit && q.limit == 0 {
		if err := q.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	docs, err := q.Limit(1).Execute(ctx)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Count returns how many documents Execute would return.
func (q Query[T]) Count(ctx context.Context) (int64, error) {
	if err := q.Err(); err != nil {
		return 0, err
	}
	if q.hasLimit && q.limit == 0 {
		return 0, nil
	}

	filter := q.filterDoc()
	var n int64
	err := q.coll.run(ctx, OpCount, nil, filter, func(ctx context.Context) error {
		opts := options.Count()
		if q.skip > 0 {
			opts.SetSkip(q.skip)
		}
		if q.hasLimit {
			opts.SetLimit(q.limit)
		}
		var err error
		n, err = q.coll.coll.CountDocuments(ctx, filter, opts)
		return storeErr(OpCount, q.coll.Name(), err)
	})
	return n, err
}

func (q Query[T]) filterDoc() bson.D {
	if q.filter == nil {
		return bson.D{}
	}
	return q.filter
}
