package people

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/doccoll"
)

// Service implements the person workflows on top of a typed collection.
type Service struct {
	coll *doccoll.Collection[Person]
}

// TagCount is one row of TagCounts.
type TagCount struct {
	Tag   string `bson:"_id"   json:"tag"`
	Count int64  `bson:"count" json:"count"`
}

// NewService binds a Service to the people collection of conn.
func NewService(conn doccoll.StoreConnection, opts ...doccoll.Options) (*Service, error) {
	coll, err := doccoll.New[Person](conn, CollectionName, opts...)
	if err != nil {
		return nil, err
	}
	return &Service{coll: coll}, nil
}

// Collection exposes the underlying typed collection.
func (s *Service) Collection() *doccoll.Collection[Person] { return s.coll }

// CreateAndSave inserts one person.
func (s *Service) CreateAndSave(ctx context.Context, p *Person) (*Person, error) {
	return s.coll.InsertOne(ctx, p)
}

// CreateMany inserts people in order. See doccoll.Collection.InsertMany for
// partial failure behaviour.
func (s *Service) CreateMany(ctx context.Context, people []*Person) ([]*Person, error) {
	return s.coll.InsertMany(ctx, people)
}

// FindByName returns everyone with exactly this name.
func (s *Service) FindByName(ctx context.Context, name string) ([]*Person, error) {
	return s.coll.FindByField(ctx, "name", name)
}

// FindOneByFood returns one person who likes food, or nil. Matching the
// array field "tags" against a single value finds documents containing it.
func (s *Service) FindOneByFood(ctx context.Context, food string) (*Person, error) {
	return s.coll.FindOneByField(ctx, "tags", food)
}

// FindByID returns the person with id, or nil.
func (s *Service) FindByID(ctx context.Context, id doccoll.ID) (*Person, error) {
	return s.coll.FindByID(ctx, id)
}

// AddFavoriteFood appends food to the person's tags with a fetch, edit and
// save. Two concurrent calls for the same person can lose one of the foods.
func (s *Service) AddFavoriteFood(ctx context.Context, id doccoll.ID, food string) (*Person, error) {
	if food == "" {
		return nil, doccoll.ValidationError{Field: "tags", Message: "food is empty"}
	}
	return s.coll.FetchEditSave(ctx, id, func(p *Person) error {
		p.AddTag(food)
		return nil
	})
}

// SetAgeByName atomically sets the age of one person with this name and
// returns the updated document, or nil when nobody has the name.
func (s *Service) SetAgeByName(ctx context.Context, name string, age int) (*Person, error) {
	if age < 0 {
		return nil, doccoll.ValidationError{Field: "age", Message: "age must not be negative"}
	}
	return s.coll.UpdateWhere(ctx,
		bson.D{{Key: "name", Value: name}},
		bson.D{{Key: "age", Value: age}},
	)
}

// RemoveByID deletes the person and returns it, or nil if absent.
func (s *Service) RemoveByID(ctx context.Context, id doccoll.ID) (*Person, error) {
	return s.coll.DeleteByID(ctx, id)
}

// RemoveManyByName deletes everyone with this name.
func (s *Service) RemoveManyByName(ctx context.Context, name string) (doccoll.DeleteSummary, error) {
	if name == "" {
		return doccoll.DeleteSummary{}, doccoll.ValidationError{Field: "name", Message: "name is empty"}
	}
	return s.coll.DeleteWhere(ctx, bson.D{{Key: "name", Value: name}})
}

// QueryChain returns at most two people who like food, sorted by name, with
// their age hidden.
func (s *Service) QueryChain(ctx context.Context, food string) ([]*Person, error) {
	return s.FoodQuery(food).Execute(ctx)
}

// FoodQuery is the query behind QueryChain, exposed for reuse.
func (s *Service) FoodQuery(food string) doccoll.Query[Person] {
	return s.coll.Query().
		Where("tags", food).
		Sort("name", doccoll.Asc).
		Limit(2).
		Select("-age")
}

// TagCounts reports how many people like each food, most popular first.
func (s *Service) TagCounts(ctx context.Context) ([]TagCount, error) {
	counts := []TagCount{}
	err := s.coll.Aggregate().
		Unwind("tags").
		Group(bson.D{
			{Key: "_id", Value: "$tags"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}).
		Sort(bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}).
		Execute(ctx, &counts)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// EnsureIndexes creates the indexes Person declares.
func (s *Service) EnsureIndexes(ctx context.Context) ([]string, error) {
	return s.coll.EnsureIndexes(ctx)
}

// IsNotFound reports whether err means the person does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, doccoll.ErrNotFound)
}
