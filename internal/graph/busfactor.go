package graph

import "sort"

// BusRiskLevel bands the bus factor count.
type BusRiskLevel int

const (
	BusRiskLow BusRiskLevel = iota
	BusRiskMedium
	BusRiskHigh
	BusRiskCritical
)

func (l BusRiskLevel) String() string {
	switch l {
	case BusRiskCritical:
		return "critical"
	case BusRiskHigh:
		return "high"
	case BusRiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalJSON renders the level as its categorical name.
func (l BusRiskLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// BusFactorResult is the minimum-coverage summary for one graph.
type BusFactorResult struct {
	Count           int          `json:"count"`
	CriticalMembers []string     `json:"critical_members"`
	RiskLevel       BusRiskLevel `json:"risk_level"`
	Coverage        float64      `json:"remaining_coverage"`
}

// BusFactorConfig tunes the coverage threshold and risk bands. Bands are
// inclusive upper bounds on the count; a count above HighMax reads as low
// risk.
type BusFactorConfig struct {
	CoverageThreshold float64
	CriticalMax       int
	HighMax           int
	MediumMax         int
}

// DefaultBusFactorConfig uses a 50% coverage threshold with bands tuned for
// small-to-mid community scale.
func DefaultBusFactorConfig() BusFactorConfig {
	return BusFactorConfig{
		CoverageThreshold: 0.5,
		CriticalMax:       2,
		HighMax:           5,
		MediumMax:         8,
	}
}

func (c BusFactorConfig) riskFor(count int) BusRiskLevel {
	switch {
	case count <= c.CriticalMax:
		return BusRiskCritical
	case count <= c.HighMax:
		return BusRiskHigh
	case count <= c.MediumMax:
		return BusRiskMedium
	default:
		return BusRiskLow
	}
}

// BusFactor greedily removes the most influential remaining contributor,
// where influence is weighted degree times PageRank, until the fraction of
// total edge weight still carried by the remaining contributors drops below
// the coverage threshold. The removed set is the bus factor.
func BusFactor(g *Graph, centrality CentralityResult, cfg BusFactorConfig) BusFactorResult {
	n := g.NumNodes()
	total := g.TotalWeight()
	if n == 0 || total == 0 {
		return BusFactorResult{CriticalMembers: []string{}, RiskLevel: cfg.riskFor(0)}
	}

	type ranked struct {
		node      int
		influence float64
	}
	order := make([]ranked, 0, n)
	for u := 0; u < n; u++ {
		pr := centrality.Scores[g.ID(u)].PageRank
		order = append(order, ranked{node: u, influence: g.Strength(u) * pr})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].influence != order[j].influence {
			return order[i].influence > order[j].influence
		}
		return order[i].node < order[j].node
	})

	removed := make(map[int]bool, n)
	members := []string{}
	coverage := 1.0

	for _, r := range order {
		removed[r.node] = true
		members = append(members, g.ID(r.node))

		remaining := 0.0
		for u := 0; u < n; u++ {
			if removed[u] {
				continue
			}
			for _, v := range g.Neighbors(u) {
				if u < v && !removed[v] {
					remaining += g.Weight(u, v)
				}
			}
		}
		coverage = remaining / total
		if coverage < cfg.CoverageThreshold {
			break
		}
	}

	return BusFactorResult{
		Count:           len(members),
		CriticalMembers: members,
		RiskLevel:       cfg.riskFor(len(members)),
		Coverage:        coverage,
	}
}

// KeyContributor is one entry of the composite ranking surfaced to the
// dashboard.
type KeyContributor struct {
	Contributor    string  `json:"contributor"`
	CompositeScore float64 `json:"composite_score"`
	Degree         float64 `json:"degree_centrality"`
	Betweenness    float64 `json:"betweenness_centrality"`
	PageRank       float64 `json:"pagerank"`
	EffectiveSize  float64 `json:"effective_size"`
	IsBridge       bool    `json:"is_bridge"`
}

// KeyContributors ranks contributors by a composite of centrality and
// structural-hole position and returns the top n.
func KeyContributors(g *Graph, centrality CentralityResult, holes StructuralHoleResult, topN int) []KeyContributor {
	out := make([]KeyContributor, 0, g.NumNodes())
	for u := 0; u < g.NumNodes(); u++ {
		id := g.ID(u)
		c := centrality.Scores[id]
		h := holes.Scores[id]
		out = append(out, KeyContributor{
			Contributor:    id,
			CompositeScore: 0.3*c.Degree + 0.3*c.Betweenness + 0.2*c.PageRank + 0.2*h.EffectiveSize,
			Degree:         c.Degree,
			Betweenness:    c.Betweenness,
			PageRank:       c.PageRank,
			EffectiveSize:  h.EffectiveSize,
			IsBridge:       h.IsCriticalBridge,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompositeScore != out[j].CompositeScore {
			return out[i].CompositeScore > out[j].CompositeScore
		}
		return out[i].Contributor < out[j].Contributor
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
