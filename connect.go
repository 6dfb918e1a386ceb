package doccoll

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConnectOptions configures Connect.
type ConnectOptions struct {
	// AppName is reported to the server for diagnostics.
	AppName string
	// Timeout bounds every operation issued through the client. Zero keeps the
	// driver default.
	Timeout time.Duration
	// Compressors lists wire compressors to negotiate, e.g. "zstd", "snappy".
	Compressors []string
}

// Connect dials MongoDB, verifies the connection with a ping and returns the
// named database. The returned handle satisfies StoreConnection; release it
// with Disconnect. Nothing is stored globally.
func Connect(ctx context.Context, uri, dbName string, opts ...ConnectOptions) (*mongo.Database, error) {
	if dbName == "" {
		return nil, fmt.Errorf("doccoll: database name is empty")
	}

	clientOpts := options.Client().ApplyURI(uri)
	for _, o := range opts {
		if o.AppName != "" {
			clientOpts.SetAppName(o.AppName)
		}
		if o.Timeout > 0 {
			clientOpts.SetTimeout(o.Timeout)
		}
		if len(o.Compressors) > 0 {
			clientOpts.SetCompressors(o.Compressors)
		}
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("doccoll: failed to connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("doccoll: failed to ping: %w", err)
	}

	return client.Database(dbName), nil
}

// Disconnect closes the client behind db.
func Disconnect(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	if err := db.Client().Disconnect(ctx); err != nil {
		return fmt.Errorf("doccoll: disconnect failed: %w", err)
	}
	return nil
}
