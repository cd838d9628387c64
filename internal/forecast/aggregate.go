package forecast

import (
	"strconv"
	"time"
)

const requestedLayout = "2006-01-02 15:04:05"

// Aggregate is the current reading for a location plus its daily forecast.
type Aggregate struct {
	City        string
	Country     string
	Current     Point
	RequestedAt time.Time
	Forecast    []Point
}

// NewAggregate starts an aggregate with an empty forecast sequence.
func NewAggregate(city, country string, current Point, requestedAt time.Time) *Aggregate {
	return &Aggregate{
		City:        city,
		Country:     country,
		Current:     current,
		RequestedAt: requestedAt,
		Forecast:    []Point{},
	}
}

// AddForecast appends p. Callers supply points in chronological order.
func (a *Aggregate) AddForecast(p Point) {
	a.Forecast = append(a.Forecast, p)
}

// Format renders the aggregate as a Document. Forecast is never nil.
func (a *Aggregate) Format() Document {
	days := make([]DayDocument, 0, len(a.Forecast))
	for _, p := range a.Forecast {
		days = append(days, FormatPoint(p))
	}

	return Document{
		LocationName:   LocationName(a.City, a.Country),
		Temperature:    temperaturePair(a.Current),
		Wind:           windString(a.Current),
		Cloudiness:     num(a.Current.Cloudiness) + " %",
		Pressure:       num(a.Current.Pressure) + " hpa",
		Humidity:       num(a.Current.Humidity) + " %",
		Sunrise:        a.Current.Sunrise,
		Sunset:         a.Current.Sunset,
		GeoCoordinates: []float64{a.Current.Lon, a.Current.Lat},
		RequestedTime:  a.RequestedAt.Format(requestedLayout),
		Forecast:       days,
	}
}

// FormatPoint renders a single forecast entry.
func FormatPoint(p Point) DayDocument {
	return DayDocument{
		Temperature: temperaturePair(p),
		Wind:        windString(p),
		Cloudiness:  num(p.Cloudiness) + " %",
		Pressure:    num(p.Pressure) + " hpa",
		Humidity:    num(p.Humidity) + " %",
		Sunrise:     p.Sunrise,
		Sunset:      p.Sunset,
		Date:        p.Date,
	}
}

func temperaturePair(p Point) []string {
	return []string{
		strconv.Itoa(p.TemperatureC()) + " C",
		num(p.TemperatureF) + " F",
	}
}

func windString(p Point) string {
	return num(p.WindSpeed) + " m/s, " + num(p.WindDeg)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
