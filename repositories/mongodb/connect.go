package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// External Packages
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect connects to the mongodb server and returns the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	timeout := time.Second * 5
	opts := &options.ClientOptions{ServerSelectionTimeout: &timeout}

	// the transfer store is read only for us, secondaries are fine
	opts.SetReadPreference(readpref.SecondaryPreferred())

	client, err := mongo.Connect(ctx, opts.ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingErr := client.Ping(ctx, readpref.Primary())
	if pingErr != nil {
		_ = client.Disconnect(context.Background())
		return nil, pingErr
	}
	return client, nil
}
