package doccoll

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Pipeline is a fluent builder for aggregation pipelines over a Collection.
// Unlike Query it accumulates stages in place and keeps them in call order.
//
//	var counts []struct {
//	    Tag   string `bson:"_id"`
//	    Count int    `bson:"count"`
//	}
//	err := coll.Aggregate().
//	    Unwind("tags").
//	    Group(bson.D{{Key: "_id", Value: "$tags"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}).
//	    Sort(bson.D{{Key: "count", Value: -1}}).
//	    Execute(ctx, &counts)
type Pipeline[T any] struct {
	coll   *Collection[T]
	stages []bson.D
}

// Aggregate starts an aggregation pipeline over the collection.
func (c *Collection[T]) Aggregate() *Pipeline[T] {
	return &Pipeline[T]{coll: c}
}

// Match adds a $match stage.
func (p *Pipeline[T]) Match(filter any) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$match", Value: filter}})
}

// Group adds a $group stage.
func (p *Pipeline[T]) Group(group any) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$group", Value: group}})
}

// Sort adds a $sort stage.
func (p *Pipeline[T]) Sort(sort any) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$sort", Value: sort}})
}

// Project adds a $project stage.
func (p *Pipeline[T]) Project(projection any) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$project", Value: projection}})
}

// Limit adds a $limit stage.
func (p *Pipeline[T]) Limit(n int64) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$limit", Value: n}})
}

// Skip adds a $skip stage.
func (p *Pipeline[T]) Skip(n int64) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$skip", Value: n}})
}

// Unwind adds a $unwind stage for an array field. The "$" prefix is added.
func (p *Pipeline[T]) Unwind(field string) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$unwind", Value: "$" + field}})
}

// Count adds a $count stage writing the document count into field.
func (p *Pipeline[T]) Count(field string) *Pipeline[T] {
	return p.Stage(bson.D{{Key: "$count", Value: field}})
}

// Stage appends a raw stage.
func (p *Pipeline[T]) Stage(stage bson.D) *Pipeline[T] {
	p.stages = append(p.stages, stage)
	return p
}

// Stages returns the accumulated stages.
func (p *Pipeline[T]) Stages() []bson.D {
	return p.stages
}

// Execute runs the pipeline and decodes every output document into results,
// which must be a pointer to a slice.
func (p *Pipeline[T]) Execute(ctx context.Context, results any) error {
	c := p.coll
	stages := p.stages
	if stages == nil {
		stages = []bson.D{}
	}
	return c.run(ctx, OpAggregate, nil, stages, func(ctx context.Context) error {
		cursor, err := c.coll.Aggregate(ctx, stages)
		if err != nil {
			return storeErr(OpAggregate, c.Name(), err)
		}
		defer func() { _ = cursor.Close(ctx) }()

		return storeErr(OpAggregate, c.Name(), cursor.All(ctx, results))
	})
}
