package routing

import (
	"cmp"
	"math"
	"slices"

	"github.com/tidwall/rtree"

	"signal_router/pkg/geo"
	"signal_router/pkg/graph"
)

// SnapResult represents a point linked to a nearby waypoint.
type SnapResult struct {
	Node uint32
	ID   string
	Dist float64 // distance in meters from query point to the waypoint
}

// Snapper provides nearest-waypoint lookup backed by an R-tree keyed on
// (lng, lat).
type Snapper struct {
	tr rtree.RTreeG[uint32]
	g  *graph.Graph
}

// NewSnapper indexes every waypoint of g.
func NewSnapper(g *graph.Graph) *Snapper {
	s := &Snapper{g: g}
	for n := uint32(0); n < g.NumNodes; n++ {
		pt := [2]float64{g.NodeLon[n], g.NodeLat[n]}
		s.tr.Insert(pt, pt, n)
	}
	return s
}

// Nearest returns up to k waypoints closest to (lat, lng), nearest first.
// Candidates are ranked on a plane scaled to the query latitude and
// reported with their haversine distance. Equal distances resolve to the
// lower node index.
func (s *Snapper) Nearest(lat, lng float64, k int) []SnapResult {
	if k <= 0 {
		return nil
	}
	kx := math.Cos(lat * math.Pi / 180)
	planar := func(lo, hi [2]float64, _ uint32, _ bool) float64 {
		dx := axisGap(lng, lo[0], hi[0]) * kx
		dy := axisGap(lat, lo[1], hi[1])
		return dx*dx + dy*dy
	}

	type candidate struct {
		n uint32
		d float64
	}
	var cands []candidate
	s.tr.Nearby(planar, func(_, _ [2]float64, n uint32, d float64) bool {
		// Keep collecting past k while distances tie with the k-th.
		if len(cands) >= k && d > cands[k-1].d {
			return false
		}
		cands = append(cands, candidate{n, d})
		return true
	})
	slices.SortFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(a.d, b.d); c != 0 {
			return c
		}
		return cmp.Compare(a.n, b.n)
	})
	if len(cands) > k {
		cands = cands[:k]
	}

	out := make([]SnapResult, len(cands))
	for i, c := range cands {
		out[i] = SnapResult{
			Node: c.n,
			ID:   s.g.IDs[c.n],
			Dist: geo.Haversine(lat, lng, s.g.NodeLat[c.n], s.g.NodeLon[c.n]),
		}
	}
	return out
}

// axisGap is the distance from v to the interval [lo, hi].
func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}
