package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "http://api.openweathermap.org/data/2.5/"
	DefaultUnits        = "imperial"
	DefaultForecastDays = 10
	defaultTimeout      = 10 * time.Second
)

// Config holds the client settings. Zero values fall back to defaults.
type Config struct {
	BaseURL         string
	APIKey          string
	Units           string
	ForecastDays    int
	Timeout         time.Duration
	Retry           RetryPolicy
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	// RatePerSecond <= 0 disables outbound rate limiting.
	RatePerSecond float64
	Burst         int
}

// Client calls the OpenWeatherMap current-weather and daily-forecast endpoints.
type Client struct {
	baseURL string
	apiKey  string
	units   string
	days    int
	http    *http.Client
	retry   RetryPolicy
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Units == "" {
		cfg.Units = DefaultUnits
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = DefaultForecastDays
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retry.InitialInterval <= 0 {
		cfg.Retry.InitialInterval = 250 * time.Millisecond
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		units:   cfg.Units,
		days:    cfg.ForecastDays,
		http:    &http.Client{Timeout: cfg.Timeout},
		retry:   cfg.Retry,
		breaker: newBreaker(cfg.BreakerFailures, cfg.BreakerTimeout),
		limiter: limiter,
	}
}

// Current fetches today's weather for city,country. A non-OK "cod" is not an
// error: the returned value carries it together with the raw body.
func (c *Client) Current(ctx context.Context, city, country string) (*Current, error) {
	body, err := c.get(ctx, c.endpoint("weather", city, country, nil))
	if err != nil {
		return nil, fmt.Errorf("current weather for %s,%s: %w", city, country, err)
	}

	var probe struct {
		Cod Code `json:"cod"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: decoding current weather for %s,%s: %v", ErrUnavailable, city, country, err)
	}
	if !probe.Cod.OK() {
		return &Current{Cod: probe.Cod, Raw: body}, nil
	}

	var cur Current
	if err := json.Unmarshal(body, &cur); err != nil {
		return nil, fmt.Errorf("%w: decoding current weather for %s,%s: %v", ErrUnavailable, city, country, err)
	}
	cur.Raw = body
	return &cur, nil
}

// Daily fetches the N-day forecast for city,country.
func (c *Client) Daily(ctx context.Context, city, country string) (*Daily, error) {
	extra := url.Values{"cnt": {strconv.Itoa(c.days)}}
	body, err := c.get(ctx, c.endpoint("forecast/daily", city, country, extra))
	if err != nil {
		return nil, fmt.Errorf("daily forecast for %s,%s: %w", city, country, err)
	}

	var probe struct {
		Cod Code `json:"cod"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: decoding daily forecast for %s,%s: %v", ErrUnavailable, city, country, err)
	}
	if !probe.Cod.OK() {
		return &Daily{Cod: probe.Cod, Raw: body}, nil
	}

	var daily Daily
	if err := json.Unmarshal(body, &daily); err != nil {
		return nil, fmt.Errorf("%w: decoding daily forecast for %s,%s: %v", ErrUnavailable, city, country, err)
	}
	daily.Raw = body
	return &daily, nil
}

func (c *Client) endpoint(path, city, country string, extra url.Values) string {
	q := url.Values{}
	q.Set("q", city+","+country)
	q.Set("units", c.units)
	for k, v := range extra {
		q[k] = v
	}
	q.Set("appid", c.apiKey)
	return c.baseURL + path + "?" + q.Encode()
}
