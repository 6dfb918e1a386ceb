package doccoll

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the indexes the schema declares (`index` and
// `unique` field rules, and Indexes() compound indexes) that do not exist
// yet, and returns the names of the ones it created. Indexes the schema does
// not know about are left alone.
func (c *Collection[T]) EnsureIndexes(ctx context.Context) ([]string, error) {
	var created []string
	err := c.run(ctx, OpIndexes, nil, nil, func(ctx context.Context) error {
		existing, err := listIndexNames(ctx, c.coll)
		if err != nil {
			return storeErr(OpIndexes, c.Name(), err)
		}

		var missing []mongo.IndexModel
		for _, m := range expectedIndexes(c.schema) {
			if existing[indexName(m.Keys.(bson.D))] {
				continue
			}
			missing = append(missing, m)
		}
		if len(missing) == 0 {
			return nil
		}

		names, err := c.coll.Indexes().CreateMany(ctx, missing)
		if err != nil {
			return storeErr(OpIndexes, c.Name(), err)
		}
		created = names
		return nil
	})
	return created, err
}

// expectedIndexes lists the index models a schema asks for.
func expectedIndexes(schema *Schema) []mongo.IndexModel {
	var models []mongo.IndexModel
	for _, f := range schema.Fields {
		if f.BSONName == "_id" || (!f.Unique && !f.Index) {
			continue
		}
		m := mongo.IndexModel{Keys: bson.D{{Key: f.BSONName, Value: 1}}}
		if f.Unique {
			m.Options = options.Index().SetUnique(true)
		}
		models = append(models, m)
	}
	for _, ci := range schema.CompoundIndexes {
		keys := make(bson.D, 0, len(ci.Fields))
		for _, f := range ci.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		m := mongo.IndexModel{Keys: keys}
		if ci.Unique {
			m.Options = options.Index().SetUnique(true)
		}
		models = append(models, m)
	}
	return models
}

// indexName reproduces the server's default name, e.g. "name_1_age_1".
func indexName(keys bson.D) string {
	parts := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		dir := "1"
		if v, ok := k.Value.(int); ok && v < 0 {
			dir = "-1"
		}
		parts = append(parts, k.Key, dir)
	}
	return strings.Join(parts, "_")
}

func listIndexNames(ctx context.Context, coll *mongo.Collection) (map[string]bool, error) {
	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	names := make(map[string]bool)
	for cursor.Next(ctx) {
		var idx struct {
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&idx); err != nil {
			return nil, err
		}
		names[idx.Name] = true
	}
	return names, cursor.Err()
}
