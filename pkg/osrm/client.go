// Package osrm is a minimal client for the OSRM route/v1 HTTP service,
// used to draw road geometry between two points.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"signal_router/pkg/geo"
)

// DefaultBaseURL is the public OSRM demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

// ErrNoRoute is returned when OSRM answers with a code other than "Ok".
var ErrNoRoute = errors.New("osrm: no route")

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("osrm: HTTP %d: %s", e.StatusCode, e.Body)
}

// Route is a road route between two points.
type Route struct {
	Line            orb.LineString `json:"-"`
	Coordinates     []geo.LatLng   `json:"coordinates"`
	DistanceMeters  float64        `json:"distance_meters"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// Client queries one OSRM server with the driving profile.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
	} `json:"routes"`
}

// Route returns the fastest driving route from one point to another.
func (c *Client) Route(ctx context.Context, from, to geo.LatLng) (*Route, error) {
	// OSRM uses lng,lat order
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.BaseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("osrm read: %w", err)
	}

	var body routeResponse
	decodeErr := json.Unmarshal(data, &body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// OSRM reports NoRoute and friends with a 400 and a JSON body.
		if decodeErr == nil && body.Code != "" && body.Code != "Ok" {
			return nil, fmt.Errorf("%w: %s: %s", ErrNoRoute, body.Code, body.Message)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("osrm decode: %w", decodeErr)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoRoute, body.Code, body.Message)
	}

	first := body.Routes[0]
	if first.Geometry == nil {
		return nil, fmt.Errorf("osrm: route has no geometry")
	}
	line, ok := first.Geometry.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("osrm: unexpected geometry %s", first.Geometry.Type)
	}

	coords := make([]geo.LatLng, len(line))
	for i, p := range line {
		coords[i] = geo.LatLng{Lat: p.Lat(), Lng: p.Lon()}
	}
	return &Route{
		Line:            line,
		Coordinates:     coords,
		DistanceMeters:  first.Distance,
		DurationSeconds: first.Duration,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
