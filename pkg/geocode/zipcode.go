package geocode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var zipPattern = regexp.MustCompile(`^[0-9]{5}$`)

// ZipCode is a US postal code used purely as a lookup key. It is not
// guaranteed to name a real postal area.
type ZipCode string

// Valid reports whether z is exactly five digits.
func (z ZipCode) Valid() bool {
	return zipPattern.MatchString(string(z))
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether c lies within [-90,90] x [-180,180].
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// parseCoordinates parses the string lat/lon fields returned by the
// geocoding services.
func parseCoordinates(lat, lon string) (Coordinates, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Coordinates{}, eris.Wrapf(err, "geocode: parse latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Coordinates{}, eris.Wrapf(err, "geocode: parse longitude %q", lon)
	}

	c := Coordinates{Latitude: la, Longitude: lo}
	if !c.Valid() {
		return Coordinates{}, eris.Errorf("geocode: coordinates out of range (%f, %f)", la, lo)
	}
	return c, nil
}
