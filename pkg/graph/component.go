package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	for i := uint32(0); i < n; i++ {
		parent[i] = i
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// NumComponents returns the number of connected components in g.
func NumComponents(g *Graph) int {
	roots := make(map[uint32]struct{})
	for _, r := range g.component {
		roots[r] = struct{}{}
	}
	return len(roots)
}

// LargestComponent returns the node indices belonging to the largest
// connected component. Ties go to the component containing the lowest node index.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	sizes := make(map[uint32]uint32)
	for _, r := range g.component {
		sizes[r]++
	}

	bestRoot := g.component[0]
	for i := uint32(0); i < g.NumNodes; i++ {
		r := g.component[i]
		if sizes[r] > sizes[bestRoot] {
			bestRoot = r
		}
	}

	nodes := make([]uint32, 0, sizes[bestRoot])
	for i := uint32(0); i < g.NumNodes; i++ {
		if g.component[i] == bestRoot {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent creates a new graph containing only the specified nodes
// and the edges between them.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	keep := make(map[uint32]struct{}, len(nodes))
	waypoints := make([]Waypoint, 0, len(nodes))
	for _, n := range nodes {
		keep[n] = struct{}{}
		waypoints = append(waypoints, g.waypointAt(n))
	}

	var edges []Edge
	for u := uint32(0); u < g.NumNodes; u++ {
		if _, ok := keep[u]; !ok {
			continue
		}
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if _, ok := keep[v]; ok && u < v {
				edges = append(edges, Edge{A: g.IDs[u], B: g.IDs[v], Weight: g.Weight[e]})
			}
		}
	}

	return assemble(waypoints, edges)
}
