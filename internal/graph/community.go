package graph

import "sort"

// CommunityPartition assigns every contributor a community id, contiguous
// from 0, together with the modularity of the partition.
type CommunityPartition struct {
	Assignments map[string]int `json:"assignments"`
	Count       int            `json:"count"`
	Modularity  float64        `json:"modularity"`
	Converged   bool           `json:"converged"`
}

// CommunityConfig bounds the Louvain iteration.
type CommunityConfig struct {
	// MaxPasses caps local-move sweeps within one level.
	MaxPasses int
	// MaxLevels caps aggregation rounds.
	MaxLevels int
	// MinGain is the smallest modularity improvement worth a move.
	MinGain float64
}

// DefaultCommunityConfig returns the standard Louvain bounds.
func DefaultCommunityConfig() CommunityConfig {
	return CommunityConfig{
		MaxPasses: 100,
		MaxLevels: 20,
		MinGain:   1e-9,
	}
}

// louvainLevel is the working graph of one aggregation round: communities of
// the previous round collapsed into super-nodes.
type louvainLevel struct {
	adj      []map[int]float64
	loops    []float64 // self-loop weight per super-node
	strength []float64
	total    float64 // sum of edge weights incl. self-loops
}

// Communities partitions the graph by greedy modularity optimization in the
// Louvain style: local moves in ascending node-id order with lowest-id
// tie-breaks, then community aggregation, repeated until no move improves
// modularity. Zero-edge graphs come back as singletons with modularity 0.
func Communities(g *Graph, cfg CommunityConfig) CommunityPartition {
	n := g.NumNodes()
	if n == 0 {
		return CommunityPartition{Assignments: map[string]int{}, Converged: true}
	}
	if g.TotalWeight() == 0 {
		assign := make(map[string]int, n)
		for u := 0; u < n; u++ {
			assign[g.ID(u)] = u
		}
		return CommunityPartition{Assignments: assign, Count: n, Modularity: 0, Converged: true}
	}

	level := &louvainLevel{
		adj:      make([]map[int]float64, n),
		loops:    make([]float64, n),
		strength: make([]float64, n),
		total:    g.TotalWeight(),
	}
	for u := 0; u < n; u++ {
		level.adj[u] = make(map[int]float64, g.Degree(u))
		for _, v := range g.Neighbors(u) {
			level.adj[u][v] = g.Weight(u, v)
		}
		level.strength[u] = g.Strength(u)
	}

	// membership[u] is the final community of original node u.
	membership := make([]int, n)
	for u := range membership {
		membership[u] = u
	}

	converged := true
	for lvl := 0; lvl < cfg.MaxLevels; lvl++ {
		comm, improved, ok := localMoves(level, cfg)
		if !ok {
			converged = false
		}
		if !improved {
			break
		}

		remap := relabel(comm)
		for u := range membership {
			membership[u] = remap[comm[membership[u]]]
		}
		level = aggregate(level, comm, remap)

		if len(level.adj) == 1 {
			break
		}
	}

	assign := make(map[string]int, n)
	for u := 0; u < n; u++ {
		assign[g.ID(u)] = membership[u]
	}
	count := 0
	for _, c := range assign {
		if c+1 > count {
			count = c + 1
		}
	}

	return CommunityPartition{
		Assignments: assign,
		Count:       count,
		Modularity:  modularityOf(level),
		Converged:   converged,
	}
}

// localMoves runs move sweeps until a full pass makes no reassignment.
// Returns the community of each super-node, whether anything moved at all,
// and whether the sweeps settled within the pass cap.
func localMoves(level *louvainLevel, cfg CommunityConfig) (comm []int, improved, settled bool) {
	n := len(level.adj)
	comm = make([]int, n)
	commStrength := make([]float64, n)
	for u := 0; u < n; u++ {
		comm[u] = u
		commStrength[u] = level.strength[u]
	}

	twoM := 2 * level.total

	for pass := 0; pass < cfg.MaxPasses; pass++ {
		moves := 0
		for u := 0; u < n; u++ {
			cur := comm[u]

			// Weight from u to each adjacent community.
			toComm := map[int]float64{cur: 0}
			nbrs := make([]int, 0, len(level.adj[u]))
			for v := range level.adj[u] {
				nbrs = append(nbrs, v)
			}
			sort.Ints(nbrs)
			for _, v := range nbrs {
				if v == u {
					continue
				}
				toComm[comm[v]] += level.adj[u][v]
			}

			commStrength[cur] -= level.strength[u]

			// Best gain with lowest-community-id tie-break.
			bestComm := cur
			bestGain := toComm[cur] - level.strength[u]*commStrength[cur]/twoM
			targets := make([]int, 0, len(toComm))
			for c := range toComm {
				targets = append(targets, c)
			}
			sort.Ints(targets)
			for _, c := range targets {
				if c == cur {
					continue
				}
				gain := toComm[c] - level.strength[u]*commStrength[c]/twoM
				if gain > bestGain+cfg.MinGain {
					bestGain = gain
					bestComm = c
				}
			}

			commStrength[bestComm] += level.strength[u]
			if bestComm != cur {
				comm[u] = bestComm
				moves++
				improved = true
			}
		}
		if moves == 0 {
			return comm, improved, true
		}
	}
	return comm, improved, false
}

// relabel maps sparse community ids to a contiguous range, ordered by the
// lowest member id so the labeling is deterministic.
func relabel(comm []int) map[int]int {
	remap := make(map[int]int)
	next := 0
	for u := 0; u < len(comm); u++ {
		if _, ok := remap[comm[u]]; !ok {
			remap[comm[u]] = next
			next++
		}
	}
	return remap
}

// aggregate collapses communities into super-nodes for the next level.
func aggregate(level *louvainLevel, comm []int, remap map[int]int) *louvainLevel {
	m := len(remap)
	next := &louvainLevel{
		adj:      make([]map[int]float64, m),
		loops:    make([]float64, m),
		strength: make([]float64, m),
		total:    level.total,
	}
	for c := 0; c < m; c++ {
		next.adj[c] = make(map[int]float64)
	}

	for u := range level.adj {
		cu := remap[comm[u]]
		next.loops[cu] += level.loops[u]
		next.strength[cu] += level.strength[u]
		for v, w := range level.adj[u] {
			cv := remap[comm[v]]
			if cu == cv {
				if u < v {
					next.loops[cu] += w
				}
				continue
			}
			next.adj[cu][cv] += w
		}
	}
	return next
}

// modularityOf computes modularity of the fully aggregated level, where each
// super-node is one community.
func modularityOf(level *louvainLevel) float64 {
	if level.total == 0 {
		return 0
	}
	m := level.total
	q := 0.0
	for c := range level.adj {
		// strength already counts loop weight twice by construction.
		in := level.loops[c]
		tot := level.strength[c]
		q += in/m - (tot/(2*m))*(tot/(2*m))
	}
	return q
}
