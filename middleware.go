package doccoll

import (
	"context"
)

// OpType identifies the kind of collection operation being performed.
type OpType string

const (
	OpInsertOne  OpType = "insert_one"
	OpInsertMany OpType = "insert_many"
	OpFind       OpType = "find"
	OpFindOne    OpType = "find_one"
	OpCount      OpType = "count"
	OpUpdate     OpType = "update"
	OpReplace    OpType = "replace"
	OpDelete     OpType = "delete"
	OpDeleteMany OpType = "delete_many"
	OpAggregate  OpType = "aggregate"
	OpIndexes    OpType = "create_indexes"
)

// OpInfo describes the operation a middleware is wrapping.
type OpInfo struct {
	Operation  OpType
	Collection string
	ModelName  string
	Model      any // the document being written, or nil
	Filter     any // the query filter, if applicable
}

// MiddlewareFunc wraps a collection operation. Call next(ctx) to continue the
// chain, or return an error to abort. The context passed to next may be
// replaced, for example to carry a tracing span.
type MiddlewareFunc func(ctx context.Context, op *OpInfo, next func(context.Context) error) error

// chain runs fn behind the middleware in registration order: the first
// middleware is the outermost.
type chain []MiddlewareFunc

func (c chain) run(ctx context.Context, info *OpInfo, fn func(context.Context) error) error {
	if len(c) == 0 {
		return fn(ctx)
	}

	var build func(int) func(context.Context) error
	build = func(i int) func(context.Context) error {
		if i == len(c) {
			return fn
		}
		return func(ctx context.Context) error {
			return c[i](ctx, info, build(i+1))
		}
	}
	return build(0)(ctx)
}
