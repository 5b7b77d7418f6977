package graph

import (
	"container/heap"
	"math"
)

// NodeCentrality holds the four centrality measures for one contributor.
type NodeCentrality struct {
	Degree      float64 `json:"degree_centrality"`
	Betweenness float64 `json:"betweenness_centrality"`
	Closeness   float64 `json:"closeness_centrality"`
	PageRank    float64 `json:"pagerank"`
}

// CentralityResult maps contributor id to centrality measures. When PageRank
// hits the iteration cap before converging the best iterate is kept and the
// result is flagged approximate instead of failing.
type CentralityResult struct {
	Scores             map[string]NodeCentrality `json:"scores"`
	PageRankConverged  bool                      `json:"pagerank_converged"`
	PageRankIterations int                       `json:"pagerank_iterations"`
}

// Approximate reports whether any iterative measure stopped at its cap.
func (r CentralityResult) Approximate() bool { return !r.PageRankConverged }

// CentralityConfig tunes the PageRank iteration.
type CentralityConfig struct {
	Damping       float64
	Epsilon       float64
	MaxIterations int
}

// DefaultCentralityConfig returns the standard damping/convergence settings.
func DefaultCentralityConfig() CentralityConfig {
	return CentralityConfig{
		Damping:       0.85,
		Epsilon:       1e-6,
		MaxIterations: 100,
	}
}

// Centrality computes degree, betweenness, closeness and PageRank for every
// node. All measures are total over well-formed graphs: isolated nodes and
// disconnected components yield the specified degenerate values.
func Centrality(g *Graph, cfg CentralityConfig) CentralityResult {
	n := g.NumNodes()

	degree := degreeCentrality(g)
	betweenness, closeness := pathCentrality(g)
	pagerank, converged, iters := pageRank(g, cfg)

	scores := make(map[string]NodeCentrality, n)
	for u := 0; u < n; u++ {
		scores[g.ID(u)] = NodeCentrality{
			Degree:      degree[u],
			Betweenness: betweenness[u],
			Closeness:   closeness[u],
			PageRank:    pagerank[u],
		}
	}

	return CentralityResult{
		Scores:             scores,
		PageRankConverged:  converged,
		PageRankIterations: iters,
	}
}

// degreeCentrality is weighted degree over (n-1), clamped to [0,1].
func degreeCentrality(g *Graph) []float64 {
	n := g.NumNodes()
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	for u := 0; u < n; u++ {
		out[u] = clampUnit(g.Strength(u) / float64(n-1))
	}
	return out
}

// distItem is a priority-queue entry for Dijkstra.
type distItem struct {
	node int
	dist float64
}

type distQueue []distItem

func (q distQueue) Len() int { return len(q) }
func (q distQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q distQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x interface{}) { *q = append(*q, x.(distItem)) }
func (q *distQueue) Pop() interface{} {
	old := *q
	last := old[len(old)-1]
	*q = old[:len(old)-1]
	return last
}

// pathCentrality runs Brandes' algorithm generalized to weighted graphs with
// edge cost 1/weight, producing betweenness and closeness in one sweep.
// Cross-component pairs are unreachable and excluded from closeness sums.
func pathCentrality(g *Graph) (betweenness, closeness []float64) {
	n := g.NumNodes()
	betweenness = make([]float64, n)
	closeness = make([]float64, n)
	if n <= 1 {
		return betweenness, closeness
	}

	dist := make([]float64, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	settled := make([]bool, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			dist[i] = math.Inf(1)
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
			settled[i] = false
		}
		dist[s] = 0
		sigma[s] = 1

		// Dijkstra with settlement order recorded for the back-propagation.
		order := make([]int, 0, n)
		pq := &distQueue{{node: s, dist: 0}}
		for pq.Len() > 0 {
			item := heap.Pop(pq).(distItem)
			u := item.node
			if settled[u] {
				continue
			}
			settled[u] = true
			order = append(order, u)

			for _, v := range g.Neighbors(u) {
				cost := 1.0 / g.Weight(u, v)
				alt := dist[u] + cost
				switch {
				case alt < dist[v]:
					dist[v] = alt
					sigma[v] = sigma[u]
					preds[v] = append(preds[v][:0], u)
					heap.Push(pq, distItem{node: v, dist: alt})
				case alt == dist[v]:
					sigma[v] += sigma[u]
					preds[v] = append(preds[v], u)
				}
			}
		}

		// Closeness over the reachable set only, scaled by reachable share
		// so disconnected graphs stay within [0,1].
		reach := 0
		sumDist := 0.0
		for _, u := range order {
			if u == s {
				continue
			}
			reach++
			sumDist += dist[u]
		}
		if reach > 0 && sumDist > 0 {
			frac := float64(reach) / float64(n-1)
			closeness[s] = clampUnit((float64(reach) / sumDist) * frac)
		}

		// Dependency accumulation in reverse settlement order.
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	if n > 2 {
		norm := float64((n - 1) * (n - 2))
		for u := range betweenness {
			betweenness[u] = clampUnit(betweenness[u] / norm)
		}
	} else {
		for u := range betweenness {
			betweenness[u] = 0
		}
	}

	return betweenness, closeness
}

// pageRank runs the damped power iteration over the weighted adjacency.
// Isolated nodes dangle; their rank mass is redistributed uniformly so the
// vector keeps summing to 1.
func pageRank(g *Graph, cfg CentralityConfig) (rank []float64, converged bool, iterations int) {
	n := g.NumNodes()
	rank = make([]float64, n)
	if n == 0 {
		return rank, true, 0
	}

	inv := 1.0 / float64(n)
	for u := range rank {
		rank[u] = inv
	}
	if n == 1 {
		return rank, true, 0
	}

	next := make([]float64, n)
	for iterations = 1; iterations <= cfg.MaxIterations; iterations++ {
		dangling := 0.0
		for u := 0; u < n; u++ {
			next[u] = 0
			if g.Strength(u) == 0 {
				dangling += rank[u]
			}
		}

		base := (1-cfg.Damping)*inv + cfg.Damping*dangling*inv
		for u := 0; u < n; u++ {
			next[u] += base
		}
		for u := 0; u < n; u++ {
			su := g.Strength(u)
			if su == 0 {
				continue
			}
			share := cfg.Damping * rank[u] / su
			for _, v := range g.Neighbors(u) {
				next[v] += share * g.Weight(u, v)
			}
		}

		l1 := 0.0
		for u := 0; u < n; u++ {
			l1 += math.Abs(next[u] - rank[u])
		}
		rank, next = next, rank

		if l1 < cfg.Epsilon {
			return rank, true, iterations
		}
	}

	return rank, false, cfg.MaxIterations
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
