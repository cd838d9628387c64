package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RouterConfig holds the knobs NewRouter needs.
type RouterConfig struct {
	// BearerToken protects /weather when non-empty.
	BearerToken     string
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is never authenticated.
func NewRouter(handlers *Handlers, cfg RouterConfig, store Pinger, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	if cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.LimitByIP(cfg.RateLimit, window))
	}

	r.Get("/health", HealthHandlerFunc(store, log))

	r.Group(func(r chi.Router) {
		if cfg.BearerToken != "" {
			r.Use(BearerAuth(cfg.BearerToken))
		}
		r.Get("/weather", handlers.GetWeather)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
