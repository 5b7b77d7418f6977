package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleNeighborConstraint(t *testing.T) {
	g := buildTest(t, [][2]string{{"a", "b"}, {"b", "c"}})

	result := StructuralHoles(g, DefaultHolesConfig())
	require.Len(t, result.Scores, 3)

	// a depends entirely on b.
	a := result.Scores["a"]
	assert.InDelta(t, 1.0, a.Constraint, 1e-12)
	assert.InDelta(t, 1.0, a.EffectiveSize, 1e-12)
	assert.InDelta(t, 1.0, a.Efficiency, 1e-12)
	assert.Equal(t, 0.0, a.Hierarchy)
}

func TestBrokerHasLowerConstraint(t *testing.T) {
	// b bridges two otherwise unconnected contacts; c sits inside a closed
	// triangle of the same degree.
	g := buildTest(t, [][2]string{
		{"a", "b"}, {"b", "c"},
		{"c", "d"}, {"d", "e"}, {"e", "c"},
	})

	result := StructuralHoles(g, DefaultHolesConfig())

	broker := result.Scores["b"]
	closed := result.Scores["d"]
	assert.Less(t, broker.Constraint, closed.Constraint)
	assert.Greater(t, broker.EffectiveSize, closed.EffectiveSize)
}

func TestCriticalBridgeDetection(t *testing.T) {
	// Two triangles joined only through g. Removing g disconnects them, and
	// its bridge score tops the graph.
	g := buildTest(t, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"},
		{"d", "e"}, {"e", "f"}, {"f", "d"},
		{"c", "g"}, {"g", "d"},
	})

	result := StructuralHoles(g, DefaultHolesConfig())

	assert.True(t, result.Scores["g"].IsCriticalBridge)
	for _, id := range []string{"a", "b", "d", "e", "f"} {
		assert.False(t, result.Scores[id].IsCriticalBridge, "node %s", id)
	}
}

func TestNoCriticalBridgeInClique(t *testing.T) {
	g := buildTest(t, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"},
		{"a", "d"}, {"b", "d"}, {"c", "d"},
	})

	result := StructuralHoles(g, DefaultHolesConfig())
	for id, holes := range result.Scores {
		assert.False(t, holes.IsCriticalBridge, "node %s", id)
	}
}

func TestHolesMeasureRanges(t *testing.T) {
	g := buildTest(t, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}, {"a", "c"}, {"b", "e"},
	})

	result := StructuralHoles(g, DefaultHolesConfig())
	for id, h := range result.Scores {
		assert.GreaterOrEqual(t, h.Constraint, 0.0, "constraint for %s", id)
		assert.LessOrEqual(t, h.Constraint, 1.0, "constraint for %s", id)
		assert.GreaterOrEqual(t, h.EffectiveSize, 0.0, "effective size for %s", id)
		assert.GreaterOrEqual(t, h.Efficiency, 0.0, "efficiency for %s", id)
		assert.LessOrEqual(t, h.Efficiency, 1.0, "efficiency for %s", id)
		assert.GreaterOrEqual(t, h.Hierarchy, 0.0, "hierarchy for %s", id)
		assert.LessOrEqual(t, h.Hierarchy, 1.0, "hierarchy for %s", id)
	}
}

func TestIsolatedNodeHoles(t *testing.T) {
	g := buildTest(t, [][2]string{{"a", "b"}, {"loner", ""}})

	result := StructuralHoles(g, DefaultHolesConfig())
	loner := result.Scores["loner"]
	assert.Equal(t, 0.0, loner.BridgeScore)
	assert.False(t, loner.IsCriticalBridge)
}
