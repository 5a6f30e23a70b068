package routing

import (
	"context"
	"errors"
	"math"
	"slices"

	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
)

const (
	// ConnectCount is how many nearby waypoints a free point is linked to.
	ConnectCount = 3
	// MaxSnapDistMeters bounds the distance from a free point to its
	// nearest waypoint.
	MaxSnapDistMeters = 500.0
)

// ErrPointTooFar is returned when the query point is too far from any waypoint.
var ErrPointTooFar = errors.New("point too far from any waypoint")

// PointRoute is a route between two free coordinates. The free points are
// linked to their nearest waypoints by straight legs weighted in meters;
// StartSnap and EndSnap are the waypoints the route enters and leaves by.
type PointRoute struct {
	Route
	StartSnap SnapResult
	EndSnap   SnapResult
	Cost      float64 // both legs plus Route.TotalWeight
}

// SnapError reports which endpoint of a point route could not be linked.
type SnapError struct {
	Field string  // "start" or "end"
	Dist  float64 // meters to the nearest waypoint, 0 if the graph is empty
	Err   error
}

func (e *SnapError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *SnapError) Unwrap() error { return e.Err }

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end string) (Route, error)
	RouteBetweenPoints(ctx context.Context, start, end geo.LatLng) (*PointRoute, error)
}

// Engine implements Router over a waypoint graph.
type Engine struct {
	g       *graph.Graph
	snapper *Snapper
}

// NewEngine creates a routing engine for g.
func NewEngine(g *graph.Graph) *Engine {
	return &Engine{
		g:       g,
		snapper: NewSnapper(g),
	}
}

// Route computes the shortest route between two waypoints.
func (e *Engine) Route(ctx context.Context, start, end string) (Route, error) {
	return ComputeRouteContext(ctx, e.g, start, end)
}

// RouteBetweenPoints links each coordinate to its ConnectCount nearest
// waypoints and returns the cheapest route through the graph between them.
func (e *Engine) RouteBetweenPoints(ctx context.Context, start, end geo.LatLng) (*PointRoute, error) {
	from, err := e.link("start", start)
	if err != nil {
		return nil, err
	}
	to, err := e.link("end", end)
	if err != nil {
		return nil, err
	}
	return routeLinked(ctx, e.g, from, to)
}

func (e *Engine) link(field string, p geo.LatLng) ([]SnapResult, error) {
	near := e.snapper.Nearest(p.Lat, p.Lng, ConnectCount)
	if len(near) == 0 {
		return nil, &SnapError{Field: field, Err: ErrPointTooFar}
	}
	if near[0].Dist > MaxSnapDistMeters {
		return nil, &SnapError{Field: field, Dist: near[0].Dist, Err: ErrPointTooFar}
	}
	return near, nil
}

// legWeight is the cost of a straight leg between a free point and a
// waypoint: whole meters.
func legWeight(meters float64) float64 { return math.Round(meters) }

// routeLinked runs Dijkstra seeded from every start link and finishes at
// whichever end link gives the lowest total cost.
func routeLinked(ctx context.Context, g *graph.Graph, from, to []SnapResult) (*PointRoute, error) {
	dist := make([]float64, g.NumNodes)
	pred := make([]uint32, g.NumNodes)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = noNode
	}

	var pq MinHeap
	for _, l := range from {
		if w := legWeight(l.Dist); w < dist[l.Node] {
			dist[l.Node] = w
			pq.Push(l.Node, w)
		}
	}
	exit := make(map[uint32]float64, len(to))
	for _, l := range to {
		exit[l.Node] = legWeight(l.Dist)
	}

	best := math.Inf(1)
	last := uint32(noNode)

	iterations := 0
	for pq.Len() > 0 && pq.PeekDist() < best {
		iterations++
		if iterations%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		item := pq.Pop()
		u := item.Node
		if item.Dist > dist[u] {
			continue // stale entry
		}
		if w, ok := exit[u]; ok && item.Dist+w < best {
			best = item.Dist + w
			last = u
		}

		lo, hi := g.EdgesFrom(u)
		for e := lo; e < hi; e++ {
			v := g.Head[e]
			newDist := item.Dist + g.Weight[e]
			if newDist < dist[v] {
				dist[v] = newDist
				pred[v] = u
				pq.Push(v, newDist)
			}
		}
	}

	if last == noNode {
		return nil, ErrNoPath
	}

	var nodes []uint32
	for n := last; n != noNode; n = pred[n] {
		nodes = append(nodes, n)
	}
	slices.Reverse(nodes)

	r := Route{Waypoints: make([]string, len(nodes))}
	for i, n := range nodes {
		r.Waypoints[i] = g.IDs[n]
		if i > 0 {
			w, _ := g.EdgeWeight(r.Waypoints[i-1], r.Waypoints[i])
			r.TotalWeight += w
		}
	}

	return &PointRoute{
		Route:     r,
		StartSnap: findLink(from, nodes[0]),
		EndSnap:   findLink(to, last),
		Cost:      best,
	}, nil
}

func findLink(links []SnapResult, n uint32) SnapResult {
	for _, l := range links {
		if l.Node == n {
			return l
		}
	}
	return SnapResult{}
}
