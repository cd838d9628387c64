package forecast

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LocationName returns the canonical "City, COUNTRY" key used both when a
// document is stored and when it is looked up.
func LocationName(city, country string) string {
	city = strings.Join(strings.Fields(city), " ")
	country = strings.ToUpper(strings.TrimSpace(country))

	return cases.Title(language.Und).String(city) + ", " + country
}
