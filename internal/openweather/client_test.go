package openweather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weather-cache/internal/openweather"
)

const testKey = "super-secret-key"

const currentBody = `{
	"coord": {"lon": -51.23, "lat": -30.03},
	"main": {"temp": 77, "pressure": 1013, "humidity": 78},
	"wind": {"speed": 3.6, "deg": 140},
	"clouds": {"all": 40},
	"dt": 1700000000,
	"sys": {"country": "BR", "sunrise": 1700000000, "sunset": 1700043200},
	"name": "Porto Alegre",
	"cod": 200
}`

const dailyBody = `{
	"cod": "200",
	"cnt": 2,
	"list": [
		{"dt": 1700000000, "temp": {"day": 77}, "pressure": 1013, "humidity": 78, "speed": 3.6, "deg": 140, "clouds": 40, "sunrise": 1700000000, "sunset": 1700043200},
		{"dt": 1700086400, "temp": {"day": 50}, "pressure": 1010, "humidity": 60, "speed": 1.2, "deg": 90, "clouds": 0, "sunrise": 1700086400, "sunset": 1700129600}
	]
}`

func testConfig(baseURL string) openweather.Config {
	return openweather.Config{
		BaseURL: baseURL,
		APIKey:  testKey,
		Retry: openweather.RetryPolicy{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// ---- request construction ----

func TestCurrent_BuildsQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		jsonHandler(http.StatusOK, currentBody)(w, r)
	}))
	defer srv.Close()

	c := openweather.NewClient(testConfig(srv.URL))
	_, err := c.Current(context.Background(), "Porto Alegre", "BR")
	require.NoError(t, err)

	assert.Equal(t, "/weather", gotPath)
	assert.Equal(t, []string{"Porto Alegre,BR"}, gotQuery["q"])
	assert.Equal(t, []string{"imperial"}, gotQuery["units"])
	assert.Equal(t, []string{testKey}, gotQuery["appid"])
	assert.NotContains(t, gotQuery, "cnt")
}

func TestDaily_BuildsQueryWithCount(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		jsonHandler(http.StatusOK, dailyBody)(w, r)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.ForecastDays = 7
	c := openweather.NewClient(cfg)

	_, err := c.Daily(context.Background(), "Porto Alegre", "BR")
	require.NoError(t, err)

	assert.Equal(t, "/forecast/daily", gotPath)
	assert.Equal(t, []string{"7"}, gotQuery["cnt"])
	assert.Equal(t, []string{"imperial"}, gotQuery["units"])
}

// ---- decoding ----

func TestCurrent_Decodes(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, currentBody))
	defer srv.Close()

	cur, err := openweather.NewClient(testConfig(srv.URL)).Current(context.Background(), "Porto Alegre", "BR")
	require.NoError(t, err)

	assert.True(t, cur.Cod.OK())
	assert.Equal(t, "Porto Alegre", cur.Name)

	r := cur.Reading()
	assert.Equal(t, 77.0, r.TemperatureF)
	assert.Equal(t, 3.6, r.WindSpeed)
	assert.Equal(t, 140.0, r.WindDeg)
	assert.Equal(t, 40.0, r.Cloudiness)
	assert.Equal(t, int64(1700043200), r.Sunset)
	assert.Equal(t, -51.23, r.Lon)
	assert.Equal(t, -30.03, r.Lat)
	assert.JSONEq(t, currentBody, string(cur.Raw))
}

func TestDaily_DecodesStringCod(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, dailyBody))
	defer srv.Close()

	daily, err := openweather.NewClient(testConfig(srv.URL)).Daily(context.Background(), "Porto Alegre", "BR")
	require.NoError(t, err)

	assert.True(t, daily.Cod.OK())
	require.Len(t, daily.List, 2)
	assert.Equal(t, 50.0, daily.List[1].Reading().TemperatureF)
	assert.Zero(t, daily.List[1].Reading().Lon)
}

func TestCurrent_NonOKCodPassesRawBody(t *testing.T) {
	const body = `{"cod":"404","message":"city not found"}`
	srv := httptest.NewServer(jsonHandler(http.StatusNotFound, body))
	defer srv.Close()

	cur, err := openweather.NewClient(testConfig(srv.URL)).Current(context.Background(), "Atlantis", "XX")
	require.NoError(t, err)

	assert.False(t, cur.Cod.OK())
	assert.Equal(t, openweather.Code(404), cur.Cod)
	assert.JSONEq(t, body, string(cur.Raw))
}

func TestCurrent_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, "<html>nope</html>"))
	defer srv.Close()

	_, err := openweather.NewClient(testConfig(srv.URL)).Current(context.Background(), "Porto Alegre", "BR")
	require.Error(t, err)
	assert.ErrorIs(t, err, openweather.ErrUnavailable)
}

// ---- resilience ----

func TestCurrent_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		jsonHandler(http.StatusOK, currentBody)(w, r)
	}))
	defer srv.Close()

	cur, err := openweather.NewClient(testConfig(srv.URL)).Current(context.Background(), "Porto Alegre", "BR")
	require.NoError(t, err)
	assert.True(t, cur.Cod.OK())
	assert.Equal(t, int32(3), calls.Load())
}

func TestCurrent_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := openweather.NewClient(testConfig(srv.URL)).Current(context.Background(), "Porto Alegre", "BR")
	require.Error(t, err)
	assert.ErrorIs(t, err, openweather.ErrUnavailable)

	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestCurrent_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		jsonHandler(http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`)(w, r)
	}))
	defer srv.Close()

	cur, err := openweather.NewClient(testConfig(srv.URL)).Current(context.Background(), "Porto Alegre", "BR")
	require.NoError(t, err)
	assert.Equal(t, openweather.Code(401), cur.Cod)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCurrent_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry.MaxRetries = 0
	cfg.BreakerFailures = 1
	cfg.BreakerTimeout = time.Hour
	c := openweather.NewClient(cfg)

	_, err := c.Current(context.Background(), "Porto Alegre", "BR")
	require.Error(t, err)

	_, err = c.Current(context.Background(), "Porto Alegre", "BR")
	require.Error(t, err)
	assert.ErrorIs(t, err, openweather.ErrCircuitOpen)
	assert.ErrorIs(t, err, openweather.ErrUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "open breaker must not reach the provider")
}

func TestCurrent_ErrorDoesNotLeakAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused

	cfg := testConfig(srv.URL)
	cfg.Retry.MaxRetries = 0
	_, err := openweather.NewClient(cfg).Current(context.Background(), "Porto Alegre", "BR")
	require.Error(t, err)
	assert.ErrorIs(t, err, openweather.ErrUnavailable)
	assert.NotContains(t, err.Error(), testKey)
}

func TestCurrent_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, currentBody))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := openweather.NewClient(testConfig(srv.URL)).Current(ctx, "Porto Alegre", "BR")
	require.Error(t, err)
	assert.ErrorIs(t, err, openweather.ErrUnavailable)
}

func TestCode_UnmarshalVariants(t *testing.T) {
	var c openweather.Code
	require.NoError(t, c.UnmarshalJSON([]byte(`200`)))
	assert.True(t, c.OK())
	require.NoError(t, c.UnmarshalJSON([]byte(`"200"`)))
	assert.True(t, c.OK())
	require.NoError(t, c.UnmarshalJSON([]byte(`"oops"`)))
	assert.False(t, c.OK())
	require.NoError(t, c.UnmarshalJSON([]byte(`null`)))
	assert.False(t, c.OK())
}
