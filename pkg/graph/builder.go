package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"signal_router/pkg/geo"
)

// ErrInvalidConfig is returned by Build when the config violates a graph invariant.
var ErrInvalidConfig = errors.New("invalid graph config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Build validates cfg and creates a CSR Graph from it.
//
// Waypoint identifiers must be unique and non-empty with valid coordinates.
// Edges must join two distinct known waypoints, carry a positive finite
// weight, and appear at most once per unordered pair. The sum of all
// weights must itself be finite so that no path cost overflows.
func Build(cfg Config) (*Graph, error) {
	seen := make(map[string]struct{}, len(cfg.Waypoints))
	for i, w := range cfg.Waypoints {
		if w.ID == "" {
			return nil, invalid("waypoint %d has an empty id", i)
		}
		if _, dup := seen[w.ID]; dup {
			return nil, invalid("duplicate waypoint %q", w.ID)
		}
		if err := geo.Validate(w.LatLng()); err != nil {
			return nil, invalid("waypoint %q: %v", w.ID, err)
		}
		seen[w.ID] = struct{}{}
	}

	type pair struct{ a, b string }
	pairs := make(map[pair]struct{}, len(cfg.Edges))
	var total float64
	for i, e := range cfg.Edges {
		if _, ok := seen[e.A]; !ok {
			return nil, invalid("edge %d references unknown waypoint %q", i, e.A)
		}
		if _, ok := seen[e.B]; !ok {
			return nil, invalid("edge %d references unknown waypoint %q", i, e.B)
		}
		if e.A == e.B {
			return nil, invalid("edge %d is a self-loop on %q", i, e.A)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight <= 0 {
			return nil, invalid("edge %s-%s has non-positive or non-finite weight %v", e.A, e.B, e.Weight)
		}
		key := pair{e.A, e.B}
		if key.a > key.b {
			key.a, key.b = key.b, key.a
		}
		if _, dup := pairs[key]; dup {
			return nil, invalid("duplicate edge %s-%s", e.A, e.B)
		}
		pairs[key] = struct{}{}
		if total += e.Weight; math.IsInf(total, 1) {
			return nil, invalid("edge weights overflow when summed at edge %s-%s", e.A, e.B)
		}
	}

	return assemble(cfg.Waypoints, cfg.Edges), nil
}

// assemble lays out already-validated waypoints and edges as a CSR graph.
func assemble(waypoints []Waypoint, edges []Edge) *Graph {
	numNodes := uint32(len(waypoints))
	g := &Graph{
		NumNodes: numNodes,
		NumEdges: uint32(len(edges)),
		FirstOut: make([]uint32, numNodes+1),
		NodeLat:  make([]float64, numNodes),
		NodeLon:  make([]float64, numNodes),
		IDs:      make([]string, numNodes),
		index:    make(map[string]uint32, numNodes),
	}
	for i, w := range waypoints {
		g.IDs[i] = w.ID
		g.NodeLat[i] = w.Lat
		g.NodeLon[i] = w.Lng
		g.index[w.ID] = uint32(i)
	}

	// Each undirected edge becomes two arcs.
	type arc struct {
		from, to uint32
		weight   float64
	}
	arcs := make([]arc, 0, 2*len(edges))
	for _, e := range edges {
		a, b := g.index[e.A], g.index[e.B]
		arcs = append(arcs, arc{a, b, e.Weight}, arc{b, a, e.Weight})
	}

	// Stable sort keeps per-node arcs in edge load order.
	sort.SliceStable(arcs, func(i, j int) bool {
		return arcs[i].from < arcs[j].from
	})

	g.Head = make([]uint32, len(arcs))
	g.Weight = make([]float64, len(arcs))
	for i, a := range arcs {
		g.Head[i] = a.to
		g.Weight[i] = a.weight
		g.FirstOut[a.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		g.FirstOut[i] += g.FirstOut[i-1]
	}

	uf := NewUnionFind(numNodes)
	for _, a := range arcs {
		uf.Union(a.from, a.to)
	}
	g.component = make([]uint32, numNodes)
	for i := uint32(0); i < numNodes; i++ {
		g.component[i] = uf.Find(i)
	}

	return g
}
