package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/neexbeast/weather-cache/internal/forecast"
)

// Service serves forecast documents from the cache, falling back to the
// provider on a miss.
type Service struct {
	repo     Repository
	provider Provider
	log      *zap.Logger
	tracer   trace.Tracer
	tz       *time.Location
	now      func() time.Time
	group    singleflight.Group
}

// Option customizes a Service.
type Option func(*Service)

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLocation sets the zone used for sunrise, sunset and date strings.
func WithLocation(tz *time.Location) Option {
	return func(s *Service) { s.tz = tz }
}

// WithClock overrides the wall clock used for requested_time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(repo Repository, provider Provider, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		provider: provider,
		log:      log,
		tracer:   noop.NewTracerProvider().Tracer(""),
		tz:       time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tz == nil {
		s.tz = time.Local
	}
	return s
}

// GetWeatherInfo returns the forecast document for city,country.
//
// A cached document is returned as stored. On a miss the provider is called
// once per location no matter how many requests are waiting, the result is
// stored, and the formatted document is returned. A provider that answers
// with a non-OK status yields *UpstreamError and nothing is cached.
func (s *Service) GetWeatherInfo(ctx context.Context, city, country string) (*forecast.Document, error) {
	key := forecast.LocationName(city, country)

	ctx, span := s.tracer.Start(ctx, "weather.GetWeatherInfo",
		trace.WithAttributes(attribute.String("weather.location", key)))
	defer span.End()

	cached, err := s.repo.Lookup(ctx, city, country)
	switch {
	case errors.Is(err, forecast.ErrUnavailable):
		s.log.Warn("cache unavailable, falling back to provider", zap.String("location", key), zap.Error(err))
	case err != nil:
		s.log.Error("cache lookup failed", zap.String("location", key), zap.Error(err))
	case cached != nil:
		span.SetAttributes(attribute.Bool("weather.cache_hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("weather.cache_hit", false))

	// The shared fetch outlives any single caller.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.fetchAndStore(fetchCtx, city, country)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if shared {
		s.log.Debug("joined in-flight provider fetch", zap.String("location", key))
	}

	doc := *v.(*forecast.Document)
	return &doc, nil
}

func (s *Service) fetchAndStore(ctx context.Context, city, country string) (*forecast.Document, error) {
	cur, err := s.provider.Current(ctx, city, country)
	if err != nil {
		return nil, fmt.Errorf("fetching current weather: %w", err)
	}
	if !cur.Cod.OK() {
		return nil, &UpstreamError{Code: int(cur.Cod), Payload: cur.Raw}
	}

	daily, err := s.provider.Daily(ctx, city, country)
	if err != nil {
		return nil, fmt.Errorf("fetching daily forecast: %w", err)
	}
	if !daily.Cod.OK() {
		return nil, &UpstreamError{Code: int(daily.Cod), Payload: daily.Raw}
	}

	agg := forecast.NewAggregate(city, country, forecast.NewPoint(cur.Reading(), s.tz), s.now().In(s.tz))
	for _, entry := range daily.List {
		agg.AddForecast(forecast.NewPoint(entry.Reading(), s.tz))
	}
	doc := agg.Format()

	id, err := s.repo.Store(ctx, &doc)
	if err != nil {
		s.log.Error("cache store failed", zap.String("location", doc.LocationName), zap.Error(err))
		doc.Inserted = nil
		return &doc, nil
	}

	s.log.Debug("forecast cached", zap.String("location", doc.LocationName), zap.String("id", id))
	return &doc, nil
}
