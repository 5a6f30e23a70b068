package playback

import (
	"time"

	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
)

// Position returns the vehicle's coordinate at fraction p (clamped to [0,1])
// of the route's great-circle length. It reports false if the route is empty
// or names a waypoint unknown to g.
func Position(g *graph.Graph, waypoints []string, p float64) (geo.LatLng, bool) {
	if len(waypoints) == 0 {
		return geo.LatLng{}, false
	}
	pts := make([]geo.LatLng, len(waypoints))
	for i, id := range waypoints {
		w, ok := g.Waypoint(id)
		if !ok {
			return geo.LatLng{}, false
		}
		pts[i] = w.LatLng()
	}

	legs := make([]float64, len(pts)-1)
	var total float64
	for i := range legs {
		legs[i] = geo.Distance(pts[i], pts[i+1])
		total += legs[i]
	}
	if total == 0 || p <= 0 {
		return pts[0], true
	}
	if p >= 1 {
		return pts[len(pts)-1], true
	}

	target := p * total
	for i, leg := range legs {
		if target <= leg && leg > 0 {
			return geo.Interpolate(pts[i], pts[i+1], target/leg), true
		}
		target -= leg
	}
	return pts[len(pts)-1], true
}

// Progress returns the fraction of a run's playback elapsed at now.
func Progress(run Run, now time.Time) float64 {
	total := time.Duration(len(run.Route)) * run.StepDelay
	if total <= 0 {
		return 1
	}
	p := float64(now.Sub(run.StartedAt)) / float64(total)
	return min(max(p, 0), 1)
}
