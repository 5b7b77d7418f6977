package graph

// NetworkStats summarizes graph-level structure for dashboards and reports.
type NetworkStats struct {
	Nodes                int     `json:"nodes"`
	Edges                int     `json:"edges"`
	Density              float64 `json:"density"`
	AverageDegree        float64 `json:"average_degree"`
	AverageClustering    float64 `json:"average_clustering"`
	Components           int     `json:"components"`
	LargestComponentSize int     `json:"largest_component_size"`
}

// Stats computes density, average degree, average clustering coefficient and
// connected-component structure.
func Stats(g *Graph) NetworkStats {
	n := g.NumNodes()
	st := NetworkStats{Nodes: n, Edges: g.NumEdges()}
	if n == 0 {
		return st
	}

	if n > 1 {
		st.Density = float64(2*g.NumEdges()) / float64(n*(n-1))
	}

	degSum := 0
	clustering := 0.0
	for u := 0; u < n; u++ {
		degSum += g.Degree(u)
		clustering += localClustering(g, u)
	}
	st.AverageDegree = float64(degSum) / float64(n)
	st.AverageClustering = clustering / float64(n)

	st.Components, st.LargestComponentSize = components(g)
	return st
}

func localClustering(g *Graph, u int) float64 {
	nbrs := g.Neighbors(u)
	k := len(nbrs)
	if k < 2 {
		return 0
	}
	links := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if g.Weight(nbrs[i], nbrs[j]) > 0 {
				links++
			}
		}
	}
	return float64(2*links) / float64(k*(k-1))
}

func components(g *Graph) (count, largest int) {
	n := g.NumNodes()
	visited := make([]bool, n)
	for u := 0; u < n; u++ {
		if visited[u] {
			continue
		}
		count++
		size := 0
		queue := []int{u}
		visited[u] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			size++
			for _, v := range g.Neighbors(cur) {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}
		if size > largest {
			largest = size
		}
	}
	return count, largest
}

// ExportNode is one node of the dashboard export.
type ExportNode struct {
	ID     string `json:"id"`
	Degree int    `json:"degree"`
}

// ExportEdge is one edge of the dashboard export.
type ExportEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// NetworkExport is the nodes/edges snapshot consumed by the dashboard.
type NetworkExport struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// Export serializes the graph for visualization, edges listed once with
// source index below target index.
func Export(g *Graph) NetworkExport {
	out := NetworkExport{
		Nodes: make([]ExportNode, 0, g.NumNodes()),
		Edges: make([]ExportEdge, 0, g.NumEdges()),
	}
	for u := 0; u < g.NumNodes(); u++ {
		out.Nodes = append(out.Nodes, ExportNode{ID: g.ID(u), Degree: g.Degree(u)})
		for _, v := range g.Neighbors(u) {
			if u < v {
				out.Edges = append(out.Edges, ExportEdge{
					Source: g.ID(u),
					Target: g.ID(v),
					Weight: g.Weight(u, v),
				})
			}
		}
	}
	return out
}
