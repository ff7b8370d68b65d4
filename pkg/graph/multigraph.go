package graph

import (
	"cmp"
	"slices"

	"github.com/tidwall/btree"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/ritzau/kgview/pkg/model"
)

// Vertex attribute names
const (
	AttrType     = "type"
	AttrNodeName = "node_name"
)

// Vertex is a named node of the assembled graph
type Vertex struct {
	id   int64
	Name string `json:"node_name"`
	Type string `json:"type"`
}

// ID implements gonum's graph.Node
func (v *Vertex) ID() int64 { return v.id }

// DOTID returns the vertex name as its DOT identifier
func (v *Vertex) DOTID() string { return v.Name }

// Attributes returns the DOT attributes of the vertex
func (v *Vertex) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "label", Value: v.Name},
		{Key: AttrType, Value: v.Type},
		{Key: AttrNodeName, Value: v.Name},
	}
}

// Attrs returns the vertex attributes as a map
func (v *Vertex) Attrs() map[string]string {
	return map[string]string{
		AttrType:     v.Type,
		AttrNodeName: v.Name,
	}
}

// Key identifies an edge: an unordered vertex pair plus the display_relation
type Key struct {
	A        string
	B        string
	Relation string
}

// NewKey builds a key with the pair in canonical order
func NewKey(u, v, relation string) Key {
	if v < u {
		u, v = v, u
	}
	return Key{A: u, B: v, Relation: relation}
}

// Edge is one keyed edge of the assembled graph.
// Source and Target keep the orientation of the first row that created it.
type Edge struct {
	lid      int64
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Relation string       `json:"display_relation"`
	Attrs    []model.Attr `json:"attrs"`
	Rows     []int        `json:"rows"` // Source table rows merged into this edge
}

// Key returns the edge key
func (e *Edge) Key() Key {
	return NewKey(e.Source, e.Target, e.Relation)
}

// Attr returns the value of the named attribute
func (e *Edge) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// merge overlays the row's columns onto the edge; later values win
func (e *Edge) merge(row model.Edge) {
	for _, a := range row.Attrs {
		replaced := false
		for i := range e.Attrs {
			if e.Attrs[i].Key == a.Key {
				e.Attrs[i].Value = a.Value
				replaced = true
				break
			}
		}
		if !replaced {
			e.Attrs = append(e.Attrs, a)
		}
	}
	e.Rows = append(e.Rows, row.Row)
}

// line adapts an Edge to gonum's graph.Line
type line struct {
	from *Vertex
	to   *Vertex
	edge *Edge
}

func (l line) From() gonum.Node { return l.from }
func (l line) To() gonum.Node   { return l.to }
func (l line) ID() int64        { return l.edge.lid }

func (l line) ReversedLine() gonum.Line {
	return line{from: l.to, to: l.from, edge: l.edge}
}

// Attributes labels the DOT edge with its relation
func (l line) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: l.edge.Relation}}
}

// Multigraph is an undirected multigraph with vertices identified by name and
// parallel edges distinguished by display_relation
type Multigraph struct {
	graph    *multi.UndirectedGraph
	vertices *btree.Map[string, *Vertex] // Ordered by name
	edges    map[Key]*Edge
	nextID   int64
	nextLine int64
	stats    Stats
}

// NewMultigraph creates an empty multigraph
func NewMultigraph() *Multigraph {
	return &Multigraph{
		graph:    multi.NewUndirectedGraph(),
		vertices: btree.NewMap[string, *Vertex](0),
		edges:    make(map[Key]*Edge),
	}
}

// AddVertex adds a vertex, or updates the type of an existing one
func (mg *Multigraph) AddVertex(name, nodeType string) *Vertex {
	if v, exists := mg.vertices.Get(name); exists {
		v.Type = nodeType
		return v
	}

	v := &Vertex{id: mg.nextID, Name: name, Type: nodeType}
	mg.graph.AddNode(v)
	mg.vertices.Set(name, v)
	mg.nextID++

	return v
}

// AddEdge adds a row as an edge between two existing vertices.
// A row whose key already exists is merged into that edge and reported as a
// collision. Returns false if either endpoint is missing.
func (mg *Multigraph) AddEdge(source, target string, row model.Edge) (collided bool, ok bool) {
	u, uok := mg.vertices.Get(source)
	v, vok := mg.vertices.Get(target)
	if !uok || !vok {
		return false, false
	}

	key := NewKey(source, target, row.Relation)
	if existing, exists := mg.edges[key]; exists {
		existing.merge(row)
		return true, true
	}

	edge := &Edge{
		lid:      mg.nextLine,
		Source:   source,
		Target:   target,
		Relation: row.Relation,
		Attrs:    slices.Clone(row.Attrs),
		Rows:     []int{row.Row},
	}
	mg.nextLine++
	mg.edges[key] = edge
	mg.graph.SetLine(line{from: u, to: v, edge: edge})

	return false, true
}

// Node returns a vertex by name
func (mg *Multigraph) Node(name string) (*Vertex, bool) {
	return mg.vertices.Get(name)
}

// Nodes returns all vertices ordered by name
func (mg *Multigraph) Nodes() []*Vertex {
	nodes := make([]*Vertex, 0, mg.vertices.Len())
	mg.vertices.Scan(func(_ string, v *Vertex) bool {
		nodes = append(nodes, v)
		return true
	})
	return nodes
}

// Edges returns all edges ordered by source, target and relation
func (mg *Multigraph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(mg.edges))
	for _, e := range mg.edges {
		edges = append(edges, e)
	}
	sortEdges(edges)
	return edges
}

// Edge returns the edge with the given key
func (mg *Multigraph) Edge(key Key) (*Edge, bool) {
	e, ok := mg.edges[key]
	return e, ok
}

// EdgesBetween returns the parallel edges between two vertices, ordered by relation
func (mg *Multigraph) EdgesBetween(a, b string) []*Edge {
	u, uok := mg.vertices.Get(a)
	v, vok := mg.vertices.Get(b)
	if !uok || !vok {
		return nil
	}

	var edges []*Edge
	iter := mg.graph.LinesBetween(u.ID(), v.ID())
	for iter.Next() {
		if l, ok := iter.Line().(line); ok {
			edges = append(edges, l.edge)
		}
	}
	sortEdges(edges)
	return edges
}

// Neighbors returns the names of vertices sharing at least one edge with name
func (mg *Multigraph) Neighbors(name string) []string {
	v, ok := mg.vertices.Get(name)
	if !ok {
		return nil
	}

	var names []string
	iter := mg.graph.From(v.ID())
	for iter.Next() {
		if n, ok := iter.Node().(*Vertex); ok {
			names = append(names, n.Name)
		}
	}
	slices.Sort(names)
	return names
}

// Degree returns the number of edge ends incident to name; a loop counts twice
func (mg *Multigraph) Degree(name string) int {
	degree := 0
	for _, e := range mg.edges {
		if e.Source == name {
			degree++
		}
		if e.Target == name {
			degree++
		}
	}
	return degree
}

// Order returns the number of vertices
func (mg *Multigraph) Order() int {
	return mg.vertices.Len()
}

// Size returns the number of edges
func (mg *Multigraph) Size() int {
	return len(mg.edges)
}

// Stats returns the assembly statistics
func (mg *Multigraph) Stats() Stats {
	return mg.stats
}

// Graph returns the underlying gonum multigraph
func (mg *Multigraph) Graph() *multi.UndirectedGraph {
	return mg.graph
}

func sortEdges(edges []*Edge) {
	slices.SortFunc(edges, func(a, b *Edge) int {
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.Target, b.Target),
			cmp.Compare(a.Relation, b.Relation),
		)
	})
}
