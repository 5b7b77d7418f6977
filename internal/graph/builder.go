package graph

import (
	"github.com/openpulse/community-pulse/internal/errors"
	"github.com/openpulse/community-pulse/internal/types"
)

// BuilderConfig tunes how contribution events turn into edge weights.
type BuilderConfig struct {
	// KindWeights scales the event weight per kind. Kinds missing from the
	// map use a coefficient of 1.
	KindWeights map[types.EventKind]float64
}

// DefaultBuilderConfig weights review interactions above passive ones,
// matching how upstream feeds weigh collaboration strength.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		KindWeights: map[types.EventKind]float64{
			types.EventCommit: 1.0,
			types.EventReview: 2.0,
			types.EventPR:     1.5,
			types.EventIssue:  0.5,
		},
	}
}

func (c BuilderConfig) kindWeight(kind types.EventKind) float64 {
	if w, ok := c.KindWeights[kind]; ok {
		return w
	}
	return 1.0
}

// Build constructs a collaboration graph from the events that fall inside
// the window. Events without a co-actor contribute node presence only;
// events linking two distinct actors accumulate weight on the undirected
// edge between them. Returns an empty-window error when no event qualifies.
func Build(repo string, events []types.ContributionEvent, window types.Window, cfg BuilderConfig) (*Graph, error) {
	g := newGraph()

	matched := 0
	for _, ev := range events {
		if !window.Contains(ev.Timestamp) {
			continue
		}
		if ev.Weight < 0 {
			continue
		}
		matched++

		u := g.addNode(ev.ActorID)
		if ev.TargetID == "" || ev.TargetID == ev.ActorID {
			// Solo activity: isolated node presence, no edge.
			continue
		}
		v := g.addNode(ev.TargetID)
		g.addEdgeWeight(u, v, ev.Weight*cfg.kindWeight(ev.Kind))
	}

	if matched == 0 {
		return nil, errors.NewEmptyWindowError(repo, window.Start, window.End)
	}

	g.freeze()
	return g, nil
}
