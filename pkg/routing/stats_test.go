package routing

import (
	"testing"

	"signal_router/pkg/graph"
)

func TestComputeStats(t *testing.T) {
	// Points 0.09 degrees of latitude apart are ~10.01 km from each other.
	g, err := graph.Build(graph.Config{
		Waypoints: []graph.Waypoint{
			{ID: "A", Lat: 30.00, Lng: 78.0},
			{ID: "B", Lat: 30.09, Lng: 78.0},
			{ID: "C", Lat: 30.18, Lng: 78.0},
		},
		Edges: []graph.Edge{
			{A: "A", B: "B", Weight: 1},
			{A: "B", B: "C", Weight: 1},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tests := []struct {
		name string
		r    Route
		want Stats
	}{
		{"one hop", Route{Waypoints: []string{"A", "B"}}, Stats{DistanceKm: 10.01, ETAMinutes: 15, Signals: 0}},
		// 20.02 km at 40 km/h is 30.03 min, plus 30 s for signal B.
		{"two hops", Route{Waypoints: []string{"A", "B", "C"}}, Stats{DistanceKm: 20.02, ETAMinutes: 31, Signals: 1}},
		{"single waypoint", Route{Waypoints: []string{"A"}}, Stats{}},
		{"empty", Route{}, Stats{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(g, tt.r)
			if got != tt.want {
				t.Errorf("ComputeStats = %+v, want %+v", got, tt.want)
			}
		})
	}
}
