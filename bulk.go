package doccoll

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// InsertMany validates every document and inserts them with one ordered
// InsertMany call.
//
// Validation runs on all documents before anything is written: the first
// invalid document fails the call with a ValidationError naming its index,
// nothing is persisted, and every document is left as the caller passed it.
// The insert itself is not transactional. The store stops at the first
// failing document, so on a store fault the documents persisted before it
// are returned together with the *StoreError.
func (c *Collection[T]) InsertMany(ctx context.Context, docs []*T) ([]*T, error) {
	if len(docs) == 0 {
		return []*T{}, nil
	}
	for i, doc := range docs {
		if doc == nil {
			return nil, ValidationError{Field: fmt.Sprintf("documents[%d]", i), Message: "document is nil"}
		}
	}

	inserted := []*T{}
	err := c.run(ctx, OpInsertMany, nil, nil, func(ctx context.Context) error {
		staged := make([]*T, len(docs))
		for i, doc := range docs {
			s, err := c.stageInsert(ctx, doc)
			if err != nil {
				return fmt.Errorf("doccoll: document %d: %w", i, err)
			}
			staged[i] = s
		}

		now := timestamp()
		batch := make([]any, len(docs))
		for i, doc := range docs {
			c.commitInsert(doc, staged[i], now)
			batch[i] = doc
		}

		_, err := c.coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true))
		if err != nil {
			inserted = docs[:persistedPrefix(err, len(docs))]
			return storeErr(OpInsertMany, c.Name(), err)
		}
		inserted = docs

		for _, doc := range docs {
			if hook, ok := any(doc).(AfterInsert); ok {
				if err := hook.AfterInsert(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return inserted, err
}

// persistedPrefix returns how many of the n documents of an ordered insert
// reached the store before err. A bare write concern error means every
// document was written but durability was not confirmed. Any other fault
// (network, timeout) gives no information, so nothing is claimed.
func persistedPrefix(err error, n int) int {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return 0
	}
	if len(bwe.WriteErrors) == 0 {
		if bwe.WriteConcernError != nil {
			return n
		}
		return 0
	}
	first := bwe.WriteErrors[0].Index
	for _, we := range bwe.WriteErrors[1:] {
		first = min(first, we.Index)
	}
	return min(first, n)
}

// DeleteWhere removes every document matching filter and reports how many
// were deleted. Zero is a valid outcome.
//
// A nil filter is rejected; pass bson.D{} to delete everything. The removal
// is multi-document and not transactional: a fault part way through leaves
// the documents already removed deleted.
func (c *Collection[T]) DeleteWhere(ctx context.Context, filter any) (DeleteSummary, error) {
	if filter == nil {
		return DeleteSummary{}, ValidationError{Field: "filter", Message: "filter is required (use bson.D{} to match all)"}
	}

	var summary DeleteSummary
	err := c.run(ctx, OpDeleteMany, nil, filter, func(ctx context.Context) error {
		res, err := c.coll.DeleteMany(ctx, filter)
		if err != nil {
			return storeErr(OpDeleteMany, c.Name(), err)
		}
		summary.DeletedCount = res.DeletedCount
		return nil
	})
	return summary, err
}
