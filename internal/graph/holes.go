package graph

import (
	"math"
	"sort"
)

// NodeHoles holds Burt's structural-hole measures for one contributor.
type NodeHoles struct {
	Constraint       float64 `json:"constraint"`
	EffectiveSize    float64 `json:"effective_size"`
	Efficiency       float64 `json:"efficiency"`
	Hierarchy        float64 `json:"hierarchy"`
	BridgeScore      float64 `json:"bridge_score"`
	IsCriticalBridge bool    `json:"is_critical_bridge"`
}

// StructuralHoleResult maps contributor id to structural-hole measures.
type StructuralHoleResult struct {
	Scores map[string]NodeHoles `json:"scores"`
}

// HolesConfig tunes critical-bridge detection.
type HolesConfig struct {
	// BridgePercentile is the share of top-scored nodes eligible as critical
	// bridges (0.10 = top 10%).
	BridgePercentile float64
}

// DefaultHolesConfig returns the standard bridge threshold.
func DefaultHolesConfig() HolesConfig {
	return HolesConfig{BridgePercentile: 0.10}
}

// StructuralHoles computes Burt's constraint, effective size, efficiency and
// hierarchy per node, plus a derived bridge score. A node is a critical
// bridge when its bridge score lands in the configured top percentile AND
// removing it disconnects at least one currently-connected pair, verified by
// a targeted removal-and-reachability test.
func StructuralHoles(g *Graph, cfg HolesConfig) StructuralHoleResult {
	n := g.NumNodes()
	scores := make(map[string]NodeHoles, n)

	type candidate struct {
		node  int
		score float64
	}
	candidates := make([]candidate, 0, n)

	for u := 0; u < n; u++ {
		nh := holesForNode(g, u)
		if g.Degree(u) > 0 {
			candidates = append(candidates, candidate{node: u, score: nh.BridgeScore})
		}
		scores[g.ID(u)] = nh
	}

	// Percentile cut over scored nodes; isolated nodes never qualify.
	if len(candidates) > 0 && cfg.BridgePercentile > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].score != candidates[j].score {
				return candidates[i].score > candidates[j].score
			}
			return candidates[i].node < candidates[j].node
		})
		top := int(math.Ceil(float64(len(candidates)) * cfg.BridgePercentile))
		if top < 1 {
			top = 1
		}
		for i := 0; i < top && i < len(candidates); i++ {
			u := candidates[i].node
			if disconnectsOnRemoval(g, u) {
				id := g.ID(u)
				nh := scores[id]
				nh.IsCriticalBridge = true
				scores[id] = nh
			}
		}
	}

	return StructuralHoleResult{Scores: scores}
}

// proportion returns p_uv, u's proportional investment of relational weight
// in v.
func proportion(g *Graph, u, v int) float64 {
	s := g.Strength(u)
	if s == 0 {
		return 0
	}
	return g.Weight(u, v) / s
}

func holesForNode(g *Graph, u int) NodeHoles {
	nbrs := g.Neighbors(u)
	deg := len(nbrs)
	if deg == 0 {
		// Isolated nodes carry no relational investment at all.
		return NodeHoles{}
	}

	// Per-neighbor constraint contributions c_uv = (p_uv + sum_q p_uq*p_qv)^2.
	contrib := make([]float64, deg)
	total := 0.0
	for i, v := range nbrs {
		indirect := 0.0
		for _, q := range nbrs {
			if q == v {
				continue
			}
			indirect += proportion(g, u, q) * proportion(g, q, v)
		}
		c := proportion(g, u, v) + indirect
		contrib[i] = c * c
		total += contrib[i]
	}
	constraint := clampUnit(total)

	// Effective size: degree minus the redundancy of u's contacts, with
	// redundancy m_vq scaled against each neighbor's strongest tie.
	redundancy := 0.0
	for _, v := range nbrs {
		maxW := 0.0
		for _, q := range g.Neighbors(v) {
			if w := g.Weight(v, q); w > maxW {
				maxW = w
			}
		}
		if maxW == 0 {
			continue
		}
		for _, q := range nbrs {
			if q == v {
				continue
			}
			redundancy += proportion(g, u, q) * (g.Weight(v, q) / maxW)
		}
	}
	effectiveSize := float64(deg) - redundancy
	if effectiveSize < 0 {
		effectiveSize = 0
	}

	efficiency := clampUnit(effectiveSize / float64(deg))

	return NodeHoles{
		Constraint:    constraint,
		EffectiveSize: effectiveSize,
		Efficiency:    efficiency,
		Hierarchy:     hierarchy(contrib, total),
		BridgeScore:   (1 - constraint) * effectiveSize,
	}
}

// hierarchy measures how unevenly the constraint total concentrates across
// neighbors: 0 when evenly spread, 1 when one neighbor carries it all.
func hierarchy(contrib []float64, total float64) float64 {
	n := len(contrib)
	if n <= 1 || total == 0 {
		return 0
	}
	mean := total / float64(n)
	sum := 0.0
	for _, c := range contrib {
		if c == 0 {
			continue
		}
		r := c / mean
		sum += r * math.Log(r)
	}
	return clampUnit(sum / (float64(n) * math.Log(float64(n))))
}

// disconnectsOnRemoval reports whether deleting node u would disconnect at
// least one pair of nodes that the full graph currently connects. It BFS-es
// u's component while skipping u and compares the reachable count against
// the component size without u.
func disconnectsOnRemoval(g *Graph, u int) bool {
	nbrs := g.Neighbors(u)
	if len(nbrs) < 2 {
		return false
	}

	componentSize := componentSizeOf(g, u)

	// Walk from one of u's neighbors with u removed.
	visited := map[int]bool{u: true, nbrs[0]: true}
	queue := []int{nbrs[0]}
	reached := 1
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, v := range g.Neighbors(cur) {
			if !visited[v] {
				visited[v] = true
				reached++
				queue = append(queue, v)
			}
		}
	}

	return reached < componentSize-1
}

func componentSizeOf(g *Graph, u int) int {
	visited := map[int]bool{u: true}
	queue := []int{u}
	size := 1
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, v := range g.Neighbors(cur) {
			if !visited[v] {
				visited[v] = true
				size++
				queue = append(queue, v)
			}
		}
	}
	return size
}
