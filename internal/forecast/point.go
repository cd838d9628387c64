package forecast

import (
	"math"
	"time"
)

const (
	clockLayout = "15:04:05"
	dateLayout  = "Jan 02 2006 15:04:05"
)

// Reading holds the raw fields of one provider observation or forecast entry.
// Temperature is in Fahrenheit and timestamps are epoch seconds.
type Reading struct {
	TemperatureF float64
	WindSpeed    float64
	WindDeg      float64
	Cloudiness   float64
	Pressure     float64
	Humidity     float64
	Sunrise      int64
	Sunset       int64
	Lon          float64
	Lat          float64
	Timestamp    int64
}

// Point is a single weather reading ready for formatting.
type Point struct {
	TemperatureF float64
	WindSpeed    float64
	WindDeg      float64
	Cloudiness   float64
	Pressure     float64
	Humidity     float64
	Sunrise      string
	Sunset       string
	Lon          float64
	Lat          float64
	Date         string
}

// NewPoint converts a raw reading into a Point, rendering the epoch fields
// in tz. A nil tz means time.Local.
func NewPoint(r Reading, tz *time.Location) Point {
	if tz == nil {
		tz = time.Local
	}

	return Point{
		TemperatureF: r.TemperatureF,
		WindSpeed:    r.WindSpeed,
		WindDeg:      r.WindDeg,
		Cloudiness:   r.Cloudiness,
		Pressure:     r.Pressure,
		Humidity:     r.Humidity,
		Sunrise:      time.Unix(r.Sunrise, 0).In(tz).Format(clockLayout),
		Sunset:       time.Unix(r.Sunset, 0).In(tz).Format(clockLayout),
		Lon:          r.Lon,
		Lat:          r.Lat,
		Date:         time.Unix(r.Timestamp, 0).In(tz).Format(dateLayout),
	}
}

// TemperatureC is always derived from TemperatureF.
func (p Point) TemperatureC() int {
	return FahrenheitToCelsius(p.TemperatureF)
}

// FahrenheitToCelsius returns floor((f-32)/1.8), a whole-degree approximation.
func FahrenheitToCelsius(f float64) int {
	return int(math.Floor((f - 32) / 1.8))
}
