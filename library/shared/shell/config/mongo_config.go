package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoClientOptions creates the client options for uri with the service's pool settings.
// The ledger needs multi-document transactions, so uri must point to a replica set.
func MongoClientOptions(uri string) *options.ClientOptions {
	const defaultMaxPoolSize = uint64(50)
	const defaultMinPoolSize = uint64(2)
	const defaultMaxConnIdleTime = time.Minute * 5
	const defaultConnectTimeout = time.Second * 5
	const defaultServerSelectionTimeout = time.Second * 5

	return options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(defaultMaxPoolSize).
		SetMinPoolSize(defaultMinPoolSize).
		SetMaxConnIdleTime(defaultMaxConnIdleTime).
		SetConnectTimeout(defaultConnectTimeout).
		SetServerSelectionTimeout(defaultServerSelectionTimeout).
		SetRetryWrites(true)
}

// MongoClient connects to uri and pings the primary.
func MongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := MongoClientOptions(uri)
	if err := clientOptions.Validate(); err != nil {
		return nil, fmt.Errorf("parsing mongo uri: %w", err)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if pingErr := client.Ping(ctx, readpref.Primary()); pingErr != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("pinging mongo: %w", pingErr)
	}

	return client, nil
}
