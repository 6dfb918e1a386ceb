package doccoll

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// --- test models ---

type testUser struct {
	Model `bson:",inline"`
	Email string   `bson:"email"          doccoll:"unique,required"`
	Name  string   `bson:"name"           doccoll:"required,immutable"`
	Age   int      `bson:"age"            doccoll:"min=0,max=200"`
	Role  string   `bson:"role"           doccoll:"enum=admin|user,default=user"`
	Tags  []string `bson:"tags"`
}

type testIndexed struct {
	Model `bson:",inline"`
	Name  string `bson:"name" doccoll:"required,index"`
	Owner string `bson:"owner"`
}

func (m *testIndexed) Indexes() []CompoundIndex {
	return []CompoundIndex{NewUniqueCompoundIndex("owner", "name")}
}

func (m *testIndexed) CollectionOptions() CollectionOptions {
	return CollectionOptions{
		ReadPreference: readpref.Primary(),
		WriteConcern:   writeconcern.Majority(),
	}
}

type testHookDoc struct {
	Model  `bson:",inline"`
	Name   string   `bson:"name" doccoll:"required"`
	Events []string `bson:"-"`
	fail   error
}

func (d *testHookDoc) BeforeInsert(ctx context.Context) error {
	d.Events = append(d.Events, "before_insert")
	return d.fail
}
func (d *testHookDoc) AfterInsert(ctx context.Context) error {
	d.Events = append(d.Events, "after_insert")
	return nil
}
func (d *testHookDoc) BeforeSave(ctx context.Context) error {
	d.Events = append(d.Events, "before_save")
	return nil
}
func (d *testHookDoc) AfterSave(ctx context.Context) error {
	d.Events = append(d.Events, "after_save")
	return nil
}
func (d *testHookDoc) AfterDelete(ctx context.Context) error {
	d.Events = append(d.Events, "after_delete")
	return nil
}

func intPtr(n int) *int { return &n }

// --- offline collections ---

// offlineDB returns a database handle whose client never dials: the driver
// connects lazily, so building collections and checking arguments works
// without a server.
func offlineDB(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := mongo.Connect(options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("doccoll_offline")
}

func newOffline[T any](t *testing.T, name string, opts ...Options) *Collection[T] {
	t.Helper()
	c, err := New[T](offlineDB(t), name, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// --- test DB setup ---

func setupTestDB(t *testing.T) (context.Context, *mongo.Database) {
	t.Helper()
	ctx := context.Background()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(2 * time.Second))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("MongoDB not available: %v", err)
	}

	dbName := fmt.Sprintf("doccoll_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	// Verify we can actually perform operations (auth check)
	check := db.Collection("_doccoll_auth_check")
	if _, err := check.InsertOne(ctx, bson.D{{Key: "test", Value: true}}); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("MongoDB not writable (auth required?): %v", err)
	}
	_ = check.Drop(ctx)

	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return ctx, db
}

func newTestCollection[T any](t *testing.T, db *mongo.Database, name string, opts ...Options) *Collection[T] {
	t.Helper()
	c, err := New[T](db, name, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
