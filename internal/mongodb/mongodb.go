package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect creates a client for uri and verifies connectivity with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return client, nil
}

const (
	ttlIndexName = "inserted_ttl"

	// codeIndexOptionsConflict is returned when an index of the same name
	// exists with different options.
	codeIndexOptionsConflict = 85
)

// EnsureIndexes creates the TTL index on "inserted" and a lookup index on
// "location_name". MongoDB's TTL monitor removes documents ttl after they
// were stored. An existing TTL index with a different expiry is updated in
// place with collMod.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection, ttl time.Duration) error {
	seconds := int32(ttl / time.Second)

	lookup := mongo.IndexModel{
		Keys:    bson.D{{Key: locationField, Value: 1}, {Key: insertedField, Value: -1}},
		Options: options.Index().SetName("location_name_inserted"),
	}
	if _, err := coll.Indexes().CreateOne(ctx, lookup); err != nil {
		return fmt.Errorf("creating lookup index on %s: %w", coll.Name(), err)
	}

	expiry := mongo.IndexModel{
		Keys:    bson.D{{Key: insertedField, Value: 1}},
		Options: options.Index().SetName(ttlIndexName).SetExpireAfterSeconds(seconds),
	}
	_, err := coll.Indexes().CreateOne(ctx, expiry)
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != codeIndexOptionsConflict {
		return fmt.Errorf("creating TTL index on %s: %w", coll.Name(), err)
	}

	cmd := bson.D{
		{Key: "collMod", Value: coll.Name()},
		{Key: "index", Value: bson.D{
			{Key: "name", Value: ttlIndexName},
			{Key: "expireAfterSeconds", Value: seconds},
		}},
	}
	if err := coll.Database().RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("updating TTL index on %s: %w", coll.Name(), err)
	}
	return nil
}
