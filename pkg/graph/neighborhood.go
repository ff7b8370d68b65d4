package graph

import (
	"cmp"
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Distances returns the hop distance from the nearest focus vertex to every
// vertex reachable within maxDepth. Unknown focus names are ignored.
// A negative maxDepth means unbounded.
func (mg *Multigraph) Distances(focus []string, maxDepth int) map[string]int {
	distances := make(map[string]int)

	for _, name := range focus {
		start, ok := mg.vertices.Get(name)
		if !ok {
			continue
		}

		var bfs traverse.BreadthFirst
		bfs.Walk(mg.graph, start, func(n gonum.Node, d int) bool {
			if maxDepth >= 0 && d > maxDepth {
				return true
			}
			v := n.(*Vertex)
			if prev, seen := distances[v.Name]; !seen || d < prev {
				distances[v.Name] = d
			}
			return false
		})
	}

	return distances
}

// Neighborhood returns the subgraph induced by the vertices within depth hops
// of any focus vertex. Statistics carry over from the full graph.
func (mg *Multigraph) Neighborhood(focus []string, depth int) *Multigraph {
	keep := mg.Distances(focus, depth)

	sub := NewMultigraph()
	sub.stats = mg.stats
	for _, v := range mg.Nodes() {
		if _, ok := keep[v.Name]; ok {
			sub.AddVertex(v.Name, v.Type)
		}
	}
	for _, e := range mg.Edges() {
		_, sok := keep[e.Source]
		_, tok := keep[e.Target]
		if sok && tok {
			sub.copyEdge(e)
		}
	}

	return sub
}

// copyEdge adds a clone of an edge whose endpoints already exist in mg
func (mg *Multigraph) copyEdge(e *Edge) {
	u, _ := mg.vertices.Get(e.Source)
	v, _ := mg.vertices.Get(e.Target)

	edge := &Edge{
		lid:      mg.nextLine,
		Source:   e.Source,
		Target:   e.Target,
		Relation: e.Relation,
		Attrs:    slices.Clone(e.Attrs),
		Rows:     slices.Clone(e.Rows),
	}
	mg.nextLine++
	mg.edges[edge.Key()] = edge
	mg.graph.SetLine(line{from: u, to: v, edge: edge})
}

// Components returns the connected components as sorted name lists, largest
// first and ties broken by first name
func (mg *Multigraph) Components() [][]string {
	var components [][]string
	for _, cc := range topo.ConnectedComponents(mg.graph) {
		names := make([]string, 0, len(cc))
		for _, n := range cc {
			names = append(names, n.(*Vertex).Name)
		}
		slices.Sort(names)
		components = append(components, names)
	}

	slices.SortFunc(components, func(a, b []string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return cmp.Compare(a[0], b[0])
	})
	return components
}
