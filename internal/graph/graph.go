// Package graph builds weighted collaboration graphs from contribution
// events and computes the structural metrics derived from them: centrality,
// structural holes, community partitions and bus factor.
package graph

import "sort"

// Graph is a weighted undirected collaboration graph. Nodes live in an
// arena indexed by small integer ids; adjacency is a sparse weight map per
// node. A Graph is built once per (repository, window) and is read-only
// afterwards, so concurrent readers need no locking.
type Graph struct {
	ids      []string
	index    map[string]int
	adj      []map[int]float64
	nbr      [][]int // sorted neighbor indexes, frozen at build time
	strength []float64
	total    float64 // sum of all edge weights
	edges    int
}

func newGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

func (g *Graph) addNode(id string) int {
	if idx, ok := g.index[id]; ok {
		return idx
	}
	idx := len(g.ids)
	g.ids = append(g.ids, id)
	g.index[id] = idx
	g.adj = append(g.adj, make(map[int]float64))
	return idx
}

func (g *Graph) addEdgeWeight(u, v int, w float64) {
	if u == v || w <= 0 {
		return
	}
	if _, exists := g.adj[u][v]; !exists {
		g.edges++
	}
	g.adj[u][v] += w
	g.adj[v][u] += w
	g.total += w
}

// freeze precomputes the sorted neighbor lists and node strengths. Sorted
// iteration keeps floating-point accumulation order stable across runs.
func (g *Graph) freeze() {
	g.nbr = make([][]int, len(g.ids))
	g.strength = make([]float64, len(g.ids))
	for u, weights := range g.adj {
		nbrs := make([]int, 0, len(weights))
		s := 0.0
		for v, w := range weights {
			nbrs = append(nbrs, v)
			s += w
		}
		sort.Ints(nbrs)
		g.nbr[u] = nbrs
		g.strength[u] = s
	}
}

// NumNodes returns the number of contributors in the graph.
func (g *Graph) NumNodes() int { return len(g.ids) }

// NumEdges returns the number of distinct collaboration edges.
func (g *Graph) NumEdges() int { return g.edges }

// TotalWeight returns the sum of all edge weights.
func (g *Graph) TotalWeight() float64 { return g.total }

// ID returns the contributor id for a node index.
func (g *Graph) ID(idx int) string { return g.ids[idx] }

// IDs returns all contributor ids in node-index order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Index returns the node index for a contributor id.
func (g *Graph) Index(id string) (int, bool) {
	idx, ok := g.index[id]
	return idx, ok
}

// Weight returns the accumulated edge weight between two nodes, 0 when no
// edge exists.
func (g *Graph) Weight(u, v int) float64 { return g.adj[u][v] }

// Neighbors returns the neighbor indexes of u in ascending order. The
// returned slice is shared and must not be mutated.
func (g *Graph) Neighbors(u int) []int { return g.nbr[u] }

// Degree returns the number of neighbors of u.
func (g *Graph) Degree(u int) int { return len(g.nbr[u]) }

// Strength returns the weighted degree of u.
func (g *Graph) Strength(u int) float64 { return g.strength[u] }
