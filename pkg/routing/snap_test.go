package routing

import (
	"context"
	"errors"
	"slices"
	"testing"

	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
)

func TestNearest(t *testing.T) {
	g := buildDehradun(t)
	s := NewSnapper(g)

	// ~50 m north of the Clock Tower; Survey is next, about 900 m east.
	res := s.Nearest(30.32475, 78.0414, 2)
	if len(res) != 2 {
		t.Fatalf("Nearest returned %d results, want 2", len(res))
	}
	if res[0].ID != "ClockTower" || res[1].ID != "Survey" {
		t.Errorf("Nearest = %q, %q; want ClockTower, Survey", res[0].ID, res[1].ID)
	}
	if res[0].Dist < 40 || res[0].Dist > 60 {
		t.Errorf("Dist = %f m, want ~50", res[0].Dist)
	}
	if res[1].Dist <= res[0].Dist {
		t.Errorf("results not ordered by distance: %+v", res)
	}

	// Exactly on a waypoint.
	res = s.Nearest(30.2876, 77.9983, 1)
	if len(res) != 1 || res[0].ID != "ISBT" || res[0].Dist != 0 {
		t.Errorf("Nearest = %+v, want ISBT at 0 m", res)
	}

	// More than the graph holds.
	if res = s.Nearest(30.3, 78.0, 10); len(res) != 6 {
		t.Errorf("Nearest(k=10) returned %d results, want 6", len(res))
	}
	if res = s.Nearest(30.3, 78.0, 0); len(res) != 0 {
		t.Errorf("Nearest(k=0) = %+v, want none", res)
	}
}

func TestNearestTies(t *testing.T) {
	// b and c are equidistant from the query point on either side.
	g, err := graph.Build(graph.Config{Waypoints: []graph.Waypoint{
		{ID: "a", Lat: 31, Lng: 78},
		{ID: "b", Lat: 30, Lng: 78.5},
		{ID: "c", Lat: 30, Lng: 77.5},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	res := NewSnapper(g).Nearest(30, 78, 1)
	if len(res) != 1 || res[0].ID != "b" {
		t.Errorf("Nearest = %+v, want b (lower index)", res)
	}
}

func TestEngineRouteBetweenPoints(t *testing.T) {
	eng := NewEngine(buildDehradun(t))

	pr, err := eng.RouteBetweenPoints(context.Background(),
		geo.LatLng{Lat: 30.2878, Lng: 77.9985}, // near ISBT
		geo.LatLng{Lat: 30.3442, Lng: 78.0601}, // near Rajpur
	)
	if err != nil {
		t.Fatalf("RouteBetweenPoints: %v", err)
	}
	if pr.StartSnap.ID != "ISBT" || pr.EndSnap.ID != "Rajpur" {
		t.Errorf("linked %q -> %q, want ISBT -> Rajpur", pr.StartSnap.ID, pr.EndSnap.ID)
	}
	if pr.TotalWeight != 9 || pr.Len() != 5 {
		t.Errorf("route %v weight %v, want 5 waypoints weight 9", pr.Waypoints, pr.TotalWeight)
	}
	if err := Validate(eng.g, pr.Route); err != nil {
		t.Errorf("Validate: %v", err)
	}
	wantCost := legWeight(pr.StartSnap.Dist) + 9 + legWeight(pr.EndSnap.Dist)
	if pr.Cost != wantCost {
		t.Errorf("Cost = %v, want %v", pr.Cost, wantCost)
	}
}

func TestEngineRouteBetweenPointsTooFar(t *testing.T) {
	eng := NewEngine(buildDehradun(t))

	_, err := eng.RouteBetweenPoints(context.Background(),
		geo.LatLng{Lat: 30.2878, Lng: 77.9985},
		geo.LatLng{Lat: 31.0, Lng: 79.0},
	)
	if !errors.Is(err, ErrPointTooFar) {
		t.Fatalf("err = %v, want ErrPointTooFar", err)
	}
	var se *SnapError
	if !errors.As(err, &se) || se.Field != "end" {
		t.Fatalf("err = %v, want SnapError for end", err)
	}
	if se.Dist <= MaxSnapDistMeters {
		t.Errorf("Dist = %v, want the distance to the nearest waypoint", se.Dist)
	}

	empty, err := graph.Build(graph.Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = NewEngine(empty).RouteBetweenPoints(context.Background(),
		geo.LatLng{Lat: 30, Lng: 78}, geo.LatLng{Lat: 30, Lng: 78})
	if !errors.As(err, &se) || se.Field != "start" || se.Dist != 0 {
		t.Errorf("empty graph: err = %v, want start SnapError", err)
	}
}

// linkedGraph puts the waypoint nearest the start point, "island", in a
// component with "lonely" only. The cheapest route enters the graph at the
// third nearest waypoint.
func linkedGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(graph.Config{
		Waypoints: []graph.Waypoint{
			{ID: "island", Lat: 30.3001, Lng: 78.0000},
			{ID: "lonely", Lat: 30.2900, Lng: 77.9900},
			{ID: "near", Lat: 30.3000, Lng: 78.0005},
			{ID: "far", Lat: 30.2990, Lng: 78.0000},
			{ID: "mid", Lat: 30.3100, Lng: 78.0050},
			{ID: "goal", Lat: 30.3200, Lng: 78.0100},
		},
		Edges: []graph.Edge{
			{A: "island", B: "lonely", Weight: 5},
			{A: "near", B: "mid", Weight: 1000},
			{A: "far", B: "mid", Weight: 500},
			{A: "mid", B: "goal", Weight: 1000},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestEngineRouteBetweenPointsLinksSeveralWaypoints(t *testing.T) {
	g := linkedGraph(t)
	eng := NewEngine(g)
	start := geo.LatLng{Lat: 30.3000, Lng: 78.0000}
	end := geo.LatLng{Lat: 30.3200, Lng: 78.0100}

	near := NewSnapper(g).Nearest(start.Lat, start.Lng, ConnectCount)
	if len(near) != 3 || near[0].ID != "island" {
		t.Fatalf("Nearest = %+v, want island first of 3", near)
	}

	pr, err := eng.RouteBetweenPoints(context.Background(), start, end)
	if err != nil {
		t.Fatalf("RouteBetweenPoints: %v", err)
	}
	// near (~48 m) + 1000 + 1000 loses to far (~111 m) + 500 + 1000.
	want := []string{"far", "mid", "goal"}
	if !slices.Equal(pr.Waypoints, want) {
		t.Errorf("route = %v, want %v", pr.Waypoints, want)
	}
	if pr.StartSnap.ID != "far" || pr.EndSnap.ID != "goal" || pr.EndSnap.Dist != 0 {
		t.Errorf("links = %+v / %+v", pr.StartSnap, pr.EndSnap)
	}
	if pr.TotalWeight != 1500 {
		t.Errorf("TotalWeight = %v, want 1500", pr.TotalWeight)
	}
	if pr.Cost != legWeight(pr.StartSnap.Dist)+1500 {
		t.Errorf("Cost = %v", pr.Cost)
	}
}

func TestEngineRouteBetweenPointsSharedWaypoint(t *testing.T) {
	eng := NewEngine(buildDehradun(t))

	// Both points sit beside the Clock Tower.
	pr, err := eng.RouteBetweenPoints(context.Background(),
		geo.LatLng{Lat: 30.3245, Lng: 78.0414},
		geo.LatLng{Lat: 30.3241, Lng: 78.0414},
	)
	if err != nil {
		t.Fatalf("RouteBetweenPoints: %v", err)
	}
	if !slices.Equal(pr.Waypoints, []string{"ClockTower"}) || pr.TotalWeight != 0 {
		t.Errorf("route = %v weight %v, want [ClockTower] weight 0", pr.Waypoints, pr.TotalWeight)
	}
}

func TestEngineRouteBetweenPointsNoPath(t *testing.T) {
	g, err := graph.Build(graph.Config{Waypoints: []graph.Waypoint{
		{ID: "a", Lat: 30.3000, Lng: 78.0000},
		{ID: "b", Lat: 30.3100, Lng: 78.0000},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = NewEngine(g).RouteBetweenPoints(context.Background(),
		geo.LatLng{Lat: 30.3000, Lng: 78.0001},
		geo.LatLng{Lat: 30.3100, Lng: 78.0001},
	)
	// Each point links to both waypoints, so a and b both qualify.
	if err != nil {
		t.Fatalf("RouteBetweenPoints: %v", err)
	}

	g, err = graph.Build(graph.Config{Waypoints: []graph.Waypoint{
		{ID: "a", Lat: 30.3000, Lng: 78.0000},
		{ID: "b", Lat: 30.3100, Lng: 78.0000},
		{ID: "c", Lat: 30.3000, Lng: 78.0010},
		{ID: "d", Lat: 30.3000, Lng: 77.9990},
		{ID: "e", Lat: 30.3100, Lng: 78.0010},
		{ID: "f", Lat: 30.3100, Lng: 77.9990},
	}, Edges: []graph.Edge{
		{A: "a", B: "c", Weight: 1},
		{A: "b", B: "e", Weight: 1},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = NewEngine(g).RouteBetweenPoints(context.Background(),
		geo.LatLng{Lat: 30.3000, Lng: 78.0000},
		geo.LatLng{Lat: 30.3100, Lng: 78.0000},
	)
	if !errors.Is(err, ErrNoPath) {
		t.Errorf("err = %v, want ErrNoPath", err)
	}
}

func TestEngineRoute(t *testing.T) {
	eng := NewEngine(buildDehradun(t))

	r, err := eng.Route(context.Background(), "Ballupur", "Rajpur")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	// Ballupur-Survey-ClockTower-Rajpur = 3+1+3.
	if r.TotalWeight != 7 {
		t.Errorf("TotalWeight = %v, want 7", r.TotalWeight)
	}
}
