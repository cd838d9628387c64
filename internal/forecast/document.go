package forecast

import "time"

// Document is the formatted aggregate returned to clients and persisted in
// the cache. Inserted is set by the cache backend at store time.
type Document struct {
	LocationName   string        `json:"location_name" bson:"location_name"`
	Temperature    []string      `json:"temperature" bson:"temperature"`
	Wind           string        `json:"wind" bson:"wind"`
	Cloudiness     string        `json:"cloudiness" bson:"cloudiness"`
	Pressure       string        `json:"pressure" bson:"pressure"`
	Humidity       string        `json:"humidity" bson:"humidity"`
	Sunrise        string        `json:"sunrise" bson:"sunrise"`
	Sunset         string        `json:"sunset" bson:"sunset"`
	GeoCoordinates []float64     `json:"geo_coordinates" bson:"geo_coordinates"`
	RequestedTime  string        `json:"requested_time" bson:"requested_time"`
	Forecast       []DayDocument `json:"forecast" bson:"forecast"`
	Inserted       *time.Time    `json:"inserted,omitempty" bson:"inserted,omitempty"`
}

// DayDocument is one formatted entry of Document.Forecast.
type DayDocument struct {
	Temperature []string `json:"temperature" bson:"temperature"`
	Wind        string   `json:"wind" bson:"wind"`
	Cloudiness  string   `json:"cloudiness" bson:"cloudiness"`
	Pressure    string   `json:"pressure" bson:"pressure"`
	Humidity    string   `json:"humidity" bson:"humidity"`
	Sunrise     string   `json:"sunrise" bson:"sunrise"`
	Sunset      string   `json:"sunset" bson:"sunset"`
	Date        string   `json:"date" bson:"date"`
}
