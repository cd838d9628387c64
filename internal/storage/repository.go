package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/weather-cache/internal/forecast"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores forecast documents as JSONB rows. Rows are never
// updated; the Sweeper deletes them once they outlive the TTL.
type Repository struct {
	q    Querier
	ping func(ctx context.Context) error
	now  func() time.Time
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool, ping: pool.Ping, now: time.Now}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier, now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{q: q, now: now}
}

// Lookup returns the newest document stored for city,country.
// Returns nil, nil when none exists.
func (r *Repository) Lookup(ctx context.Context, city, country string) (*forecast.Document, error) {
	const q = `
		SELECT document
		FROM forecast_documents
		WHERE location_name = $1
		ORDER BY inserted DESC
		LIMIT 1
	`

	location := forecast.LocationName(city, country)

	var raw []byte
	if err := r.q.QueryRow(ctx, q, location).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: querying %q: %v", forecast.ErrUnavailable, location, err)
	}

	var doc forecast.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling document %q: %v", forecast.ErrUnavailable, location, err)
	}

	return &doc, nil
}

// Store stamps doc.Inserted, inserts it and returns the new row id.
func (r *Repository) Store(ctx context.Context, doc *forecast.Document) (string, error) {
	// timestamptz has microsecond precision.
	inserted := r.now().UTC().Truncate(time.Microsecond)
	doc.Inserted = &inserted

	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling document %q: %w", doc.LocationName, err)
	}

	const q = `
		INSERT INTO forecast_documents (location_name, document, inserted)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := r.q.QueryRow(ctx, q, doc.LocationName, b, inserted).Scan(&id); err != nil {
		return "", fmt.Errorf("%w: inserting %q: %v", forecast.ErrUnavailable, doc.LocationName, err)
	}

	return strconv.FormatInt(id, 10), nil
}

// DeleteExpired removes rows inserted more than ttl ago and reports how many
// were deleted.
func (r *Repository) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	const q = `DELETE FROM forecast_documents WHERE inserted < $1`

	cutoff := r.now().UTC().Add(-ttl)
	tag, err := r.q.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting documents older than %s: %w", cutoff.Format(time.RFC3339), err)
	}

	return tag.RowsAffected(), nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if r.ping == nil {
		return nil
	}
	return r.ping(ctx)
}
