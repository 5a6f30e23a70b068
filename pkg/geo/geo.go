package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const earthRadiusMeters = 6_371_000.0

// LatLng represents a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate parsing and validation errors.
var (
	ErrCoordRequired = errors.New("coordinate is required")
	ErrCoordFormat   = errors.New(`invalid coordinates format, use "lat,lng"`)
	ErrCoordNumber   = errors.New("coordinates must be numbers")
	ErrCoordRange    = errors.New("coordinates out of range")
)

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b LatLng) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// MetersToDegrees returns a latitude span, and the longitude span at lat,
// covering at least the given distance. Used to size search boxes.
func MetersToDegrees(meters, lat float64) (dLat, dLng float64) {
	dLat = meters / earthRadiusMeters * 180 / math.Pi
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		return dLat, 180
	}
	return dLat, dLat / cosLat
}

// Interpolate returns the point at fraction t (clamped to [0,1]) along the
// straight line from a to b.
func Interpolate(a, b LatLng, t float64) LatLng {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return LatLng{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// Validate reports whether ll is a finite coordinate inside the valid range.
func Validate(ll LatLng) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return ErrCoordNumber
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return ErrCoordRange
	}
	return nil
}

// ParseLatLng parses a "lat,lng" string.
func ParseLatLng(s string) (LatLng, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LatLng{}, ErrCoordRequired
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return LatLng{}, ErrCoordFormat
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LatLng{}, ErrCoordNumber
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LatLng{}, ErrCoordNumber
	}
	ll := LatLng{Lat: lat, Lng: lng}
	if err := Validate(ll); err != nil {
		return LatLng{}, err
	}
	return ll, nil
}
