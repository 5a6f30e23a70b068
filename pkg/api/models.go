package api

import (
	"encoding/json"

	"signal_router/pkg/geo"
	"signal_router/pkg/playback"
	"signal_router/pkg/routing"
)

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Vehicle string `json:"vehicle,omitempty"`
}

// PointRouteRequest is the JSON body for POST /api/v1/route/points and
// POST /api/v1/road-route. Each point is either {"lat":..,"lng":..} or a
// "lat,lng" string.
type PointRouteRequest struct {
	Start json.RawMessage `json:"start"`
	End   json.RawMessage `json:"end"`
}

// SimulationRequest is the JSON body for POST /api/v1/simulations.
type SimulationRequest struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Vehicle     string `json:"vehicle,omitempty"`
	StepDelayMS int64  `json:"step_delay_ms,omitempty"`
}

// WaypointJSON represents a waypoint in JSON.
type WaypointJSON struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StatsJSON is the display summary of a route.
type StatsJSON struct {
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
	Signals    int     `json:"signals"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Waypoints   []WaypointJSON `json:"waypoints"`
	TotalWeight float64        `json:"total_weight"`
	Stats       StatsJSON      `json:"stats"`
	Vehicle     string         `json:"vehicle,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// SnapJSON describes how a free coordinate was matched to a waypoint.
type SnapJSON struct {
	ID             string  `json:"id"`
	DistanceMeters float64 `json:"distance_meters"`
}

// PointRouteResponse is the JSON response for POST /api/v1/route/points.
type PointRouteResponse struct {
	RouteResponse
	StartSnap SnapJSON `json:"start_snap"`
	EndSnap   SnapJSON `json:"end_snap"`
	TotalCost float64  `json:"total_cost"` // legs to and from the free points included
}

// SimulationResponse is the JSON response for POST /api/v1/simulations.
type SimulationResponse struct {
	Run   playback.Run  `json:"run"`
	Route RouteResponse `json:"route"`
}

// SimulationState is the JSON response for GET /api/v1/simulations/current.
type SimulationState struct {
	Run      *playback.Run                   `json:"run,omitempty"`
	Running  bool                            `json:"running"`
	Progress float64                         `json:"progress"`
	Vehicle  *geo.LatLng                     `json:"vehicle,omitempty"`
	Signals  map[string]playback.SignalState `json:"signals"`
}

// RoadRouteResponse is the JSON response for POST /api/v1/road-route.
type RoadRouteResponse struct {
	Coordinates     []geo.LatLng `json:"coordinates"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
}

// VehicleJSON describes a supported vehicle type.
type VehicleJSON struct {
	ID   routing.VehicleType `json:"id"`
	Name string              `json:"name"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error          string  `json:"error"`
	Field          string  `json:"field,omitempty"`
	Message        string  `json:"message,omitempty"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumWaypoints  int `json:"num_waypoints"`
	NumEdges      int `json:"num_edges"`
	NumComponents int `json:"num_components"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
