package modules

import "sort"

// Graph is the directed, labeled dependency graph over module ids that
// spec.md §4.10 describes: edges carry a Value/TypeOnly kind, build_order
// considers only Value edges, and detect_value_cycles reports any strongly
// connected component entirely on Value edges. Grounded on the teacher's
// dependencyAnalyzer (dependency_analyzer.go), whose GetTopologicalOrder
// Kahn's-algorithm implementation this mirrors; generalized from the
// teacher's single unlabeled edge kind to this repo's Value/TypeOnly
// distinction, since a TypeOnly edge must never gate a Value-edge ordering
// decision or a circular *value* dependency diagnostic.
type Graph struct {
	edges map[ModuleID][]Edge
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{edges: map[ModuleID][]Edge{}}
}

// AddEdge records that from depends on to with the given kind. Duplicate
// edges of the same kind between the same pair are harmless no-ops for
// ordering purposes but are not deduplicated, matching the teacher's
// depGraph, which also tolerates duplicate entries.
func (g *Graph) AddEdge(from, to ModuleID, kind EdgeKind) {
	g.edges[from] = append(g.edges[from], Edge{To: to, Kind: kind})
	if _, ok := g.edges[to]; !ok {
		g.edges[to] = nil
	}
}

// Nodes returns every module id that has appeared as the source or target
// of an edge, or that Registry added as a node when it assigned the id, in
// ascending order.
func (g *Graph) Nodes() []ModuleID {
	ids := make([]ModuleID, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) valueEdges(from ModuleID) []ModuleID {
	var out []ModuleID
	for _, e := range g.edges[from] {
		if e.Kind == Value {
			out = append(out, e.To)
		}
	}
	return out
}

// BuildOrder performs Kahn's algorithm over the Value-edge subgraph only,
// breaking ties deterministically by ascending module id so the same graph
// always yields the same order. The returned order is a permutation of
// Nodes in which, for every Value edge from→to, from (the importing
// module) comes before to (the module it depends on).
func (g *Graph) BuildOrder() ([]ModuleID, error) {
	nodes := g.Nodes()
	inDegree := map[ModuleID]int{}
	for _, id := range nodes {
		inDegree[id] = 0
	}
	for _, from := range nodes {
		for _, to := range g.valueEdges(from) {
			inDegree[to]++
		}
	}

	var ready []ModuleID
	for _, id := range nodes {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	var order []ModuleID
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)

		for _, to := range g.valueEdges(cur) {
			inDegree[to]--
			if inDegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(order) != len(nodes) {
		cyclic := g.DetectValueCycles()
		return nil, &CycleError{Components: cyclic}
	}
	return order, nil
}

// DetectValueCycles reports every strongly connected component (of size
// greater than one, or a single node with a self-edge) entirely on Value
// edges, via Tarjan's algorithm.
func (g *Graph) DetectValueCycles() [][]ModuleID {
	index := 0
	indices := map[ModuleID]int{}
	lowlink := map[ModuleID]int{}
	onStack := map[ModuleID]bool{}
	var stack []ModuleID
	var components [][]ModuleID

	var strongconnect func(v ModuleID)
	strongconnect = func(v ModuleID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.valueEdges(v) {
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var comp []ModuleID
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 || hasSelfEdge(g, v) {
				sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
				components = append(components, comp)
			}
		}
	}

	for _, id := range g.Nodes() {
		if _, seen := indices[id]; !seen {
			strongconnect(id)
		}
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}

func hasSelfEdge(g *Graph, id ModuleID) bool {
	for _, to := range g.valueEdges(id) {
		if to == id {
			return true
		}
	}
	return false
}

// CycleError reports that BuildOrder could not produce a total order
// because the Value subgraph contains a cycle; Components holds every
// strongly connected component responsible.
type CycleError struct {
	Components [][]ModuleID
}

func (e *CycleError) Error() string {
	return "module graph contains a circular value dependency"
}
