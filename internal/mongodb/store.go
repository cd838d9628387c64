package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/neexbeast/weather-cache/internal/forecast"
)

const (
	locationField = "location_name"
	insertedField = "inserted"
)

// Store keeps forecast documents in a collection. Writes are insert-only;
// expiry is left to the TTL index.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewStore constructs a Store over coll.
func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

// Lookup returns the newest document for the location, without _id.
// Returns nil, nil when none exists.
func (s *Store) Lookup(ctx context.Context, city, country string) (*forecast.Document, error) {
	key := forecast.LocationName(city, country)

	opts := options.FindOne().
		SetProjection(bson.M{"_id": 0}).
		SetSort(bson.D{{Key: insertedField, Value: -1}})

	var doc forecast.Document
	err := s.coll.FindOne(ctx, bson.M{locationField: key}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: finding %q: %v", forecast.ErrUnavailable, key, err)
	}

	return &doc, nil
}

// Store stamps doc.Inserted and inserts it, returning the ObjectID hex.
func (s *Store) Store(ctx context.Context, doc *forecast.Document) (string, error) {
	// BSON dates carry millisecond precision.
	inserted := s.now().UTC().Truncate(time.Millisecond)
	doc.Inserted = &inserted

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: inserting %q: %v", forecast.ErrUnavailable, doc.LocationName, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}
