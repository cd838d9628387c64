package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/neexbeast/weather-cache/internal/weather"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	svc      WeatherService
	validate *validator.Validate
	log      *zap.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(svc WeatherService, log *zap.Logger) *Handlers {
	return &Handlers{
		svc:      svc,
		validate: newValidator(),
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes an already-encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// GetWeather handles GET /weather?city=&country=.
// Provider failures are passed through with 400; transport failures are 502.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	q := weatherQuery{
		City:    strings.TrimSpace(r.URL.Query().Get("city")),
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
	}
	if err := h.validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "invalid query parameters",
			"errors":  fieldErrors(err),
		})
		return
	}

	doc, err := h.svc.GetWeatherInfo(r.Context(), q.City, q.Country)
	if err != nil {
		var upErr *weather.UpstreamError
		if errors.As(err, &upErr) {
			h.log.Info("provider rejected request",
				zap.String("city", q.City),
				zap.String("country", q.Country),
				zap.Int("cod", upErr.Code),
				zap.String("request_id", middleware.GetReqID(r.Context())))
			writeRaw(w, http.StatusBadRequest, upErr.Payload)
			return
		}

		h.log.Error("get weather failed",
			zap.String("city", q.City),
			zap.String("country", q.Country),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "weather provider unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// HealthHandlerFunc returns an http.HandlerFunc that checks cache connectivity.
func HealthHandlerFunc(store Pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Error("health check: cache ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "cache": "error"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "cache": "ok"})
	}
}
