package graph

import "testing"

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	for i := uint32(0); i < 5; i++ {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}

	uf.Union(0, 1)
	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 should be in same set")
	}

	uf.Union(2, 3)
	if uf.Find(2) != uf.Find(3) {
		t.Error("2 and 3 should be in same set")
	}

	if uf.Find(0) == uf.Find(2) {
		t.Error("0 and 2 should be in different sets")
	}

	if !uf.Union(1, 3) {
		t.Error("Union(1, 3) = false, want true")
	}
	if uf.Find(0) != uf.Find(3) {
		t.Error("0 and 3 should now be in same set")
	}
	if uf.Union(0, 2) {
		t.Error("Union(0, 2) = true for elements already joined")
	}
}

// twoComponents is a triangle A-B-C plus an isolated pair D-E.
func twoComponents() Config {
	return Config{
		Waypoints: []Waypoint{
			{ID: "A", Lat: 30.0, Lng: 78.0},
			{ID: "B", Lat: 30.1, Lng: 78.1},
			{ID: "C", Lat: 30.2, Lng: 78.2},
			{ID: "D", Lat: 31.0, Lng: 79.0},
			{ID: "E", Lat: 31.1, Lng: 79.1},
		},
		Edges: []Edge{
			{A: "A", B: "B", Weight: 100},
			{A: "B", B: "C", Weight: 200},
			{A: "C", B: "A", Weight: 300},
			{A: "D", B: "E", Weight: 400},
		},
	}
}

func TestConnected(t *testing.T) {
	g, err := Build(twoComponents())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !g.Connected("A", "C") {
		t.Error("A and C should be connected")
	}
	if !g.Connected("D", "E") {
		t.Error("D and E should be connected")
	}
	if g.Connected("A", "E") {
		t.Error("A and E should not be connected")
	}
	if g.Connected("A", "Z") {
		t.Error("unknown waypoint should never be connected")
	}
	if n := NumComponents(g); n != 2 {
		t.Errorf("NumComponents = %d, want 2", n)
	}
}

func TestLargestComponent(t *testing.T) {
	g, err := Build(twoComponents())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	nodes := LargestComponent(g)
	if len(nodes) != 3 {
		t.Fatalf("LargestComponent has %d nodes, want 3", len(nodes))
	}
}

func TestFilterToComponent(t *testing.T) {
	g, err := Build(twoComponents())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	filtered := FilterToComponent(g, LargestComponent(g))

	if filtered.NumNodes != 3 {
		t.Fatalf("filtered NumNodes = %d, want 3", filtered.NumNodes)
	}
	if filtered.NumEdges != 3 {
		t.Fatalf("filtered NumEdges = %d, want 3", filtered.NumEdges)
	}
	if filtered.Has("D") || filtered.Has("E") {
		t.Error("filtered graph kept nodes from the smaller component")
	}

	// Each undirected edge is stored twice.
	var total float64
	for _, w := range filtered.Weight {
		total += w
	}
	if total != 1200 {
		t.Errorf("total arc weight = %v, want 1200", total)
	}
}

func TestFilterToComponentEmptyGraph(t *testing.T) {
	g := &Graph{}
	nodes := LargestComponent(g)
	if nodes != nil {
		t.Errorf("expected nil for empty graph, got %v", nodes)
	}

	filtered := FilterToComponent(g, nil)
	if filtered.NumNodes != 0 || filtered.NumEdges != 0 {
		t.Errorf("expected empty graph, got %d nodes, %d edges", filtered.NumNodes, filtered.NumEdges)
	}
}
