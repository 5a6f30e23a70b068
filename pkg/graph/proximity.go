package graph

import (
	"math"
	"slices"

	"github.com/tidwall/rtree"

	"signal_router/pkg/geo"
)

// DefaultProximityMeters is the maximum distance at which two signals are
// considered directly connected.
const DefaultProximityMeters = 150.0

// BuildProximity connects every pair of points within maxMeters of each other.
// Edge weights are the great-circle distance in whole meters (at least 1).
// Points with duplicate identifiers keep their first occurrence.
func BuildProximity(points []Waypoint, maxMeters float64) Config {
	var tr rtree.RTreeG[int]
	waypoints := make([]Waypoint, 0, len(points))
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		pt := [2]float64{p.Lng, p.Lat}
		tr.Insert(pt, pt, len(waypoints))
		waypoints = append(waypoints, p)
	}

	var edges []Edge
	for i, a := range waypoints {
		dLat, dLng := geo.MetersToDegrees(maxMeters, a.Lat)
		lo := [2]float64{a.Lng - dLng, a.Lat - dLat}
		hi := [2]float64{a.Lng + dLng, a.Lat + dLat}

		var candidates []int
		tr.Search(lo, hi, func(_, _ [2]float64, j int) bool {
			if j > i {
				candidates = append(candidates, j)
			}
			return true
		})
		// Search order is unspecified; keep edge order deterministic.
		slices.Sort(candidates)

		for _, j := range candidates {
			b := waypoints[j]
			d := geo.Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
			if d > maxMeters {
				continue
			}
			w := math.Round(d)
			if w < 1 {
				w = 1 // avoid zero-weight edges
			}
			edges = append(edges, Edge{A: a.ID, B: b.ID, Weight: w})
		}
	}

	return Config{Waypoints: waypoints, Edges: edges}
}
