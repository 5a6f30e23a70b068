package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"signal_router/pkg/graph"
)

const noNode = math.MaxUint32

var (
	// ErrUnknownWaypoint matches any *UnknownWaypointError.
	ErrUnknownWaypoint = errors.New("unknown waypoint")
	// ErrNoPath is returned when start and end lie in different components.
	ErrNoPath = errors.New("no path between waypoints")
	// ErrInvalidRoute is returned by Validate.
	ErrInvalidRoute = errors.New("invalid route")
)

// UnknownWaypointError reports an identifier that is not part of the graph.
type UnknownWaypointError struct {
	ID string
}

func (e *UnknownWaypointError) Error() string {
	return fmt.Sprintf("unknown waypoint %q", e.ID)
}

func (e *UnknownWaypointError) Is(target error) bool {
	return target == ErrUnknownWaypoint
}

// Route is an ordered sequence of waypoint identifiers from start to end.
// Consumers must treat it as read-only.
type Route struct {
	Waypoints   []string
	TotalWeight float64
}

// Len returns the number of waypoints on the route.
func (r Route) Len() int { return len(r.Waypoints) }

// ComputeRoute returns the minimum-total-weight route from start to end.
func ComputeRoute(g *graph.Graph, start, end string) (Route, error) {
	return ComputeRouteContext(context.Background(), g, start, end)
}

// ComputeRouteContext is ComputeRoute with cancellation. Ties between
// equal-weight paths go to the first path that reaches a node; arcs are
// relaxed in edge load order.
func ComputeRouteContext(ctx context.Context, g *graph.Graph, start, end string) (Route, error) {
	s, ok := g.Node(start)
	if !ok {
		return Route{}, &UnknownWaypointError{ID: start}
	}
	t, ok := g.Node(end)
	if !ok {
		return Route{}, &UnknownWaypointError{ID: end}
	}
	if s == t {
		return Route{Waypoints: []string{start}}, nil
	}
	if !g.Connected(start, end) {
		return Route{}, ErrNoPath
	}

	dist := make([]float64, g.NumNodes)
	pred := make([]uint32, g.NumNodes)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = noNode
	}
	dist[s] = 0

	var pq MinHeap
	pq.Push(s, 0)

	iterations := 0
	for pq.Len() > 0 {
		iterations++
		if iterations%100 == 0 {
			if err := ctx.Err(); err != nil {
				return Route{}, err
			}
		}

		item := pq.Pop()
		u := item.Node
		if item.Dist > dist[u] {
			continue // stale entry
		}
		if u == t {
			break
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

	if math.IsInf(dist[t], 1) {
		return Route{}, ErrNoPath
	}

	var nodes []uint32
	for n := t; n != noNode; n = pred[n] {
		nodes = append(nodes, n)
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[len(nodes)-1-i] = g.IDs[n]
	}

	return Route{Waypoints: ids, TotalWeight: dist[t]}, nil
}

// Validate checks that every consecutive pair of r is an edge of g and that
// TotalWeight equals the sum of those edge weights.
func Validate(g *graph.Graph, r Route) error {
	if len(r.Waypoints) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidRoute)
	}
	for _, id := range r.Waypoints {
		if !g.Has(id) {
			return fmt.Errorf("%w: %w", ErrInvalidRoute, &UnknownWaypointError{ID: id})
		}
	}

	var total float64
	for i := 0; i+1 < len(r.Waypoints); i++ {
		a, b := r.Waypoints[i], r.Waypoints[i+1]
		w, ok := g.EdgeWeight(a, b)
		if !ok {
			return fmt.Errorf("%w: no edge %s-%s", ErrInvalidRoute, a, b)
		}
		total += w
	}

	if math.Abs(total-r.TotalWeight) > 1e-9*math.Max(1, total) {
		return fmt.Errorf("%w: total weight %v, edges sum to %v", ErrInvalidRoute, r.TotalWeight, total)
	}
	return nil
}
