package api

import (
	"context"

	"github.com/neexbeast/weather-cache/internal/forecast"
)

// WeatherService is the read-through forecast lookup used by handlers.
type WeatherService interface {
	GetWeatherInfo(ctx context.Context, city, country string) (*forecast.Document, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
