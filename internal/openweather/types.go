package openweather

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/neexbeast/weather-cache/internal/forecast"
)

// StatusOK is the value of "cod" on a successful provider response.
const StatusOK = 200

// Code is the provider's in-body status. OpenWeatherMap returns it as a
// number on some endpoints and as a string on others.
type Code int

// UnmarshalJSON accepts both 200 and "200". Non-numeric strings decode to 0.
func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			*c = 0
			return nil
		}
		*c = Code(n)
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(int(n))
	return nil
}

// OK reports whether the provider signalled success.
func (c Code) OK() bool { return int(c) == StatusOK }

// Current is the decoded current-weather payload. Raw keeps the body as
// received so failures can be passed through untouched.
type Current struct {
	Cod  Code   `json:"cod"`
	Name string `json:"name"`
	Dt   int64  `json:"dt"`

	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`

	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`

	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`

	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`

	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`

	Raw json.RawMessage `json:"-"`
}

// Reading maps the payload onto the model's raw fields.
func (c *Current) Reading() forecast.Reading {
	return forecast.Reading{
		TemperatureF: c.Main.Temp,
		WindSpeed:    c.Wind.Speed,
		WindDeg:      c.Wind.Deg,
		Cloudiness:   c.Clouds.All,
		Pressure:     c.Main.Pressure,
		Humidity:     c.Main.Humidity,
		Sunrise:      c.Sys.Sunrise,
		Sunset:       c.Sys.Sunset,
		Lon:          c.Coord.Lon,
		Lat:          c.Coord.Lat,
		Timestamp:    c.Dt,
	}
}

// Daily is the decoded N-day forecast payload.
type Daily struct {
	Cod  Code         `json:"cod"`
	List []DailyEntry `json:"list"`

	Raw json.RawMessage `json:"-"`
}

// DailyEntry is one day of the forecast list.
type DailyEntry struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Day float64 `json:"day"`
	} `json:"temp"`
	Pressure float64 `json:"pressure"`
	Humidity float64 `json:"humidity"`
	Speed    float64 `json:"speed"`
	Deg      float64 `json:"deg"`
	Clouds   float64 `json:"clouds"`
	Sunrise  int64   `json:"sunrise"`
	Sunset   int64   `json:"sunset"`
}

// Reading maps the entry onto the model's raw fields. Daily entries carry
// no coordinates.
func (e DailyEntry) Reading() forecast.Reading {
	return forecast.Reading{
		TemperatureF: e.Temp.Day,
		WindSpeed:    e.Speed,
		WindDeg:      e.Deg,
		Cloudiness:   e.Clouds,
		Pressure:     e.Pressure,
		Humidity:     e.Humidity,
		Sunrise:      e.Sunrise,
		Sunset:       e.Sunset,
		Timestamp:    e.Dt,
	}
}
