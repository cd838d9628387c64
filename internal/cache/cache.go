package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/weather-cache/internal/forecast"
)

// DefaultTTL matches the expiry of the MongoDB TTL index.
const DefaultTTL = 120 * time.Second

// Store keeps forecast documents in Redis with a native TTL. A later store for
// the same location replaces the earlier one.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore constructs a Store. A non-positive ttl means DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

// key returns the Redis key for a normalized location name.
func key(location string) string {
	return "forecast:" + location
}

// Lookup returns the cached document for city,country.
// Returns nil, nil on a cache miss (not an error).
func (s *Store) Lookup(ctx context.Context, city, country string) (*forecast.Document, error) {
	location := forecast.LocationName(city, country)

	val, err := s.client.Get(ctx, key(location)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: redis get %q: %v", forecast.ErrUnavailable, location, err)
	}

	var doc forecast.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling cached document %q: %v", forecast.ErrUnavailable, location, err)
	}

	return &doc, nil
}

// Store stamps doc.Inserted and writes it with the configured TTL. The
// returned id is a fresh UUID.
func (s *Store) Store(ctx context.Context, doc *forecast.Document) (string, error) {
	inserted := s.now().UTC()
	doc.Inserted = &inserted

	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling document %q: %w", doc.LocationName, err)
	}

	if err := s.client.Set(ctx, key(doc.LocationName), b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: redis set %q: %v", forecast.ErrUnavailable, doc.LocationName, err)
	}

	return uuid.NewString(), nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
