package people

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/doccoll"
)

func offlineService(t *testing.T) *Service {
	t.Helper()
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	svc, err := NewService(client.Database("people_offline"))
	require.NoError(t, err)
	return svc
}

func setupService(t *testing.T) (context.Context, *Service) {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx := context.Background()
	db, err := doccoll.Connect(ctx, uri, fmt.Sprintf("people_test_%d", time.Now().UnixNano()),
		doccoll.ConnectOptions{AppName: "people-test", Timeout: 5 * time.Second})
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = doccoll.Disconnect(ctx, db)
	})

	svc, err := NewService(db)
	require.NoError(t, err)
	if _, err := svc.EnsureIndexes(ctx); err != nil {
		t.Skipf("MongoDB not writable: %v", err)
	}
	return ctx, svc
}

func TestPerson_AddTag(t *testing.T) {
	p := &Person{Name: "Karim", Tags: []string{"pizza", "sushi"}}
	p.AddTag("hamburger")
	p.AddTag("pizza")
	assert.Equal(t, []string{"pizza", "sushi", "hamburger", "pizza"}, p.Tags)
}

func TestPerson_BeforeInsert(t *testing.T) {
	p := &Person{Name: "Nia"}
	require.NoError(t, p.BeforeInsert(context.Background()))
	assert.NotNil(t, p.Tags)
	assert.Empty(t, p.Tags)

	p = &Person{Name: "Nia", Tags: []string{"pho"}}
	require.NoError(t, p.BeforeInsert(context.Background()))
	assert.Equal(t, []string{"pho"}, p.Tags)
}

func TestPerson_Schema(t *testing.T) {
	svc := offlineService(t)
	s := svc.Collection().Schema()

	assert.Equal(t, "Person", s.ModelName)
	assert.Equal(t, CollectionName, s.Collection)
	assert.True(t, s.GetField("name").Required)
	assert.True(t, s.GetField("tags").Index)
	require.Len(t, s.CompoundIndexes, 1)
	assert.Equal(t, []string{"tags", "name"}, s.CompoundIndexes[0].Fields)
	require.NotNil(t, s.CollOptions)
	assert.NotNil(t, s.CollOptions.WriteConcern)
	assert.Equal(t, []string{"BeforeInsert"}, s.Hooks)

	errs := doccoll.Validate(&Person{Age: 30}, s)
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
	assert.Len(t, doccoll.Validate(&Person{Name: "Old", Age: 250}, s), 1)
}

func TestService_ArgumentErrors(t *testing.T) {
	svc := offlineService(t)
	ctx := context.Background()

	_, err := svc.AddFavoriteFood(ctx, bson.NewObjectID(), "")
	assert.ErrorIs(t, err, doccoll.ErrValidation)

	_, err = svc.SetAgeByName(ctx, "Ann", -1)
	assert.ErrorIs(t, err, doccoll.ErrValidation)

	_, err = svc.RemoveManyByName(ctx, "")
	assert.ErrorIs(t, err, doccoll.ErrValidation)

	_, err = svc.CreateAndSave(ctx, &Person{Age: 3})
	assert.ErrorIs(t, err, doccoll.ErrValidation)
}

func TestService_FoodQueryPlan(t *testing.T) {
	svc := offlineService(t)

	plan := svc.FoodQuery("burrito").Plan()
	assert.Equal(t, bson.D{{Key: "tags", Value: "burrito"}}, plan.Filter)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, plan.Sort)
	require.NotNil(t, plan.Limit)
	assert.EqualValues(t, 2, *plan.Limit)
	assert.Equal(t, bson.D{{Key: "age", Value: 0}}, plan.Projection)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", doccoll.ErrNotFound)))
	assert.False(t, IsNotFound(doccoll.ErrValidation))
	assert.False(t, IsNotFound(nil))
}

// --- integration ---

func TestService_Workflow(t *testing.T) {
	ctx, svc := setupService(t)

	karim, err := svc.CreateAndSave(ctx, &Person{Name: "Karim", Age: 34, Tags: []string{"pizza", "sushi"}})
	require.NoError(t, err)
	assert.False(t, karim.ID.IsZero())

	found, err := svc.FindByName(ctx, "Karim")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, karim.ID, found[0].ID)

	one, err := svc.FindOneByFood(ctx, "sushi")
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "Karim", one.Name)

	edited, err := svc.AddFavoriteFood(ctx, karim.ID, "hamburger")
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza", "sushi", "hamburger"}, edited.Tags)

	_, err = svc.AddFavoriteFood(ctx, bson.NewObjectID(), "hamburger")
	assert.True(t, IsNotFound(err))

	aged, err := svc.SetAgeByName(ctx, "Karim", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, aged.Age)
	assert.Equal(t, []string{"pizza", "sushi", "hamburger"}, aged.Tags)

	nobody, err := svc.SetAgeByName(ctx, "Nobody", 20)
	require.NoError(t, err)
	assert.Nil(t, nobody)

	removed, err := svc.RemoveByID(ctx, karim.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)

	gone, err := svc.FindByID(ctx, karim.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestService_EmptyTagsRoundTrip(t *testing.T) {
	ctx, svc := setupService(t)

	for _, tags := range [][]string{nil, {}} {
		saved, err := svc.CreateAndSave(ctx, &Person{Name: "Nia", Tags: tags})
		require.NoError(t, err)
		assert.Equal(t, []string{}, saved.Tags)

		got, err := svc.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, *saved, *got)
	}

	// The stored empty array accepts $push.
	pushed, err := svc.Collection().UpdateWhere(ctx,
		bson.D{{Key: "name", Value: "Nia"}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "tags", Value: "pho"}}}},
	)
	require.NoError(t, err)
	require.NotNil(t, pushed)
	assert.Equal(t, []string{"pho"}, pushed.Tags)
}

func TestService_QueryChain(t *testing.T) {
	ctx, svc := setupService(t)

	_, err := svc.CreateMany(ctx, []*Person{
		{Name: "Zoe", Age: 30, Tags: []string{"burrito"}},
		{Name: "Mia", Age: 22, Tags: []string{"burrito", "tacos"}},
		{Name: "Ali", Age: 41, Tags: []string{"burrito"}},
		{Name: "Bo", Age: 19, Tags: []string{"tacos"}},
	})
	require.NoError(t, err)

	found, err := svc.QueryChain(ctx, "burrito")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Ali", found[0].Name)
	assert.Equal(t, "Mia", found[1].Name)
	for _, p := range found {
		assert.Zero(t, p.Age)
		assert.Contains(t, p.Tags, "burrito")
	}

	counts, err := svc.TagCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{Tag: "burrito", Count: 3}, {Tag: "tacos", Count: 2}}, counts)
}

func TestService_RemoveManyByName(t *testing.T) {
	ctx, svc := setupService(t)

	_, err := svc.CreateMany(ctx, []*Person{{Name: "Tom"}, {Name: "Tom"}, {Name: "Ann"}})
	require.NoError(t, err)

	summary, err := svc.RemoveManyByName(ctx, "Tom")
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.DeletedCount)

	summary, err = svc.RemoveManyByName(ctx, "Tom")
	require.NoError(t, err)
	assert.Zero(t, summary.DeletedCount)

	left, err := svc.FindByName(ctx, "Ann")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
