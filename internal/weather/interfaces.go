package weather

import (
	"context"

	"github.com/neexbeast/weather-cache/internal/forecast"
	"github.com/neexbeast/weather-cache/internal/openweather"
)

// Repository is the cache the service reads through. Lookup returns nil, nil
// on a miss.
type Repository interface {
	Lookup(ctx context.Context, city, country string) (*forecast.Document, error)
	Store(ctx context.Context, doc *forecast.Document) (string, error)
}

// Provider is the upstream weather source.
type Provider interface {
	Current(ctx context.Context, city, country string) (*openweather.Current, error)
	Daily(ctx context.Context, city, country string) (*openweather.Daily, error)
}
