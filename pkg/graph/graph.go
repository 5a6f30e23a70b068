package graph

import "signal_router/pkg/geo"

// Waypoint is a named point of interest in the routing graph.
type Waypoint struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatLng returns the waypoint's coordinate.
func (w Waypoint) LatLng() geo.LatLng {
	return geo.LatLng{Lat: w.Lat, Lng: w.Lng}
}

// Edge is an undirected, weighted connection between two waypoints.
type Edge struct {
	A      string  `json:"a"`
	B      string  `json:"b"`
	Weight float64 `json:"weight"`
}

// Graph is an undirected waypoint graph stored as a symmetric directed graph
// in CSR (Compressed Sparse Row) format. Every undirected edge appears as two
// arcs. A Graph is read-only once built and safe for concurrent readers.
type Graph struct {
	NumNodes uint32
	NumEdges uint32    // undirected edges; len(Head) == 2*NumEdges
	FirstOut []uint32  // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are arcs from node i
	Head     []uint32  // target node for each arc
	Weight   []float64 // cost for each arc
	NodeLat  []float64 // len: NumNodes
	NodeLon  []float64 // len: NumNodes
	IDs      []string  // len: NumNodes; waypoint identifier for each node

	index     map[string]uint32
	component []uint32 // union-find root per node
}

// EdgesFrom returns the range of arc indices for arcs originating from node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// Len returns the number of waypoints.
func (g *Graph) Len() int {
	return int(g.NumNodes)
}

// Node returns the node index for a waypoint identifier.
func (g *Graph) Node(id string) (uint32, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Has reports whether id is a waypoint of g.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Waypoint returns the waypoint with the given identifier.
func (g *Graph) Waypoint(id string) (Waypoint, bool) {
	n, ok := g.index[id]
	if !ok {
		return Waypoint{}, false
	}
	return g.waypointAt(n), true
}

func (g *Graph) waypointAt(n uint32) Waypoint {
	return Waypoint{ID: g.IDs[n], Lat: g.NodeLat[n], Lng: g.NodeLon[n]}
}

// Waypoints returns all waypoints in load order.
func (g *Graph) Waypoints() []Waypoint {
	out := make([]Waypoint, g.NumNodes)
	for i := uint32(0); i < g.NumNodes; i++ {
		out[i] = g.waypointAt(i)
	}
	return out
}

// Neighbors returns the waypoints adjacent to id, in edge load order.
func (g *Graph) Neighbors(id string) []string {
	u, ok := g.index[id]
	if !ok {
		return nil
	}
	start, end := g.EdgesFrom(u)
	out := make([]string, 0, end-start)
	for e := start; e < end; e++ {
		out = append(out, g.IDs[g.Head[e]])
	}
	return out
}

// EdgeWeight returns the weight of the edge between a and b.
func (g *Graph) EdgeWeight(a, b string) (float64, bool) {
	u, ok := g.index[a]
	if !ok {
		return 0, false
	}
	v, ok := g.index[b]
	if !ok {
		return 0, false
	}
	start, end := g.EdgesFrom(u)
	for e := start; e < end; e++ {
		if g.Head[e] == v {
			return g.Weight[e], true
		}
	}
	return 0, false
}

// Edges returns every undirected edge once, oriented from the lower node
// index to the higher one.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.NumEdges)
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if v := g.Head[e]; u < v {
				out = append(out, Edge{A: g.IDs[u], B: g.IDs[v], Weight: g.Weight[e]})
			}
		}
	}
	return out
}

// Connected reports whether a and b are in the same connected component.
// Unknown identifiers are never connected.
func (g *Graph) Connected(a, b string) bool {
	u, ok := g.index[a]
	if !ok {
		return false
	}
	v, ok := g.index[b]
	if !ok {
		return false
	}
	return g.component[u] == g.component[v]
}

// Config returns a Config that rebuilds g.
func (g *Graph) Config() Config {
	return Config{Waypoints: g.Waypoints(), Edges: g.Edges()}
}
