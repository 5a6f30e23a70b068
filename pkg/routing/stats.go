package routing

import (
	"math"
	"time"

	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
)

const (
	// AverageSpeedKmh is the assumed city driving speed.
	AverageSpeedKmh = 40.0
	// SignalDelay is the time added for each signal passed between start and end.
	SignalDelay = 30 * time.Second
)

// Stats summarises a route for display.
type Stats struct {
	DistanceKm float64 // great-circle length along the route, 2 decimals
	ETAMinutes int
	Signals    int // intermediate waypoints passed
}

// ComputeStats returns the distance and travel-time estimate for r.
// Waypoints unknown to g contribute no distance.
func ComputeStats(g *graph.Graph, r Route) Stats {
	var meters float64
	for i := 0; i+1 < len(r.Waypoints); i++ {
		a, okA := g.Waypoint(r.Waypoints[i])
		b, okB := g.Waypoint(r.Waypoints[i+1])
		if !okA || !okB {
			continue
		}
		meters += geo.Distance(a.LatLng(), b.LatLng())
	}

	km := math.Round(meters/1000*100) / 100
	signals := max(len(r.Waypoints)-2, 0)

	minutes := km/AverageSpeedKmh*60 + float64(signals)*SignalDelay.Minutes()

	return Stats{
		DistanceKm: km,
		ETAMinutes: int(math.Round(minutes)),
		Signals:    signals,
	}
}
