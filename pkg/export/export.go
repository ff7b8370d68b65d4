// Package export converts an assembled multigraph into the formats consumed
// by graph viewers: cytoscape.js elements JSON and Graphviz DOT text.
package export

import (
	"encoding/json"
	"io"
	"strings"

	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/formats/cytoscapejs"

	"github.com/ritzau/kgview/pkg/errors"
	"github.com/ritzau/kgview/pkg/graph"
	"github.com/ritzau/kgview/pkg/style"
)

// GraphName is the name given to exported DOT graphs
const GraphName = "kgview"

// Reserved cytoscape data keys; edge columns with these names are replaced
// by the resolved vertex names
var reservedEdgeKeys = map[string]bool{"id": true, "source": true, "target": true}

// Document is the JSON handed to the browser viewer
type Document struct {
	Elements cytoscapejs.Elements `json:"elements"`
	Style    *style.Sheet         `json:"style,omitempty"`
}

// idEscaper escapes the separator so distinct edges never share an id
var idEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

// EdgeID returns the cytoscape id of an edge: source|target|relation, with
// backslashes and bars inside the parts escaped by a backslash
func EdgeID(e *graph.Edge) string {
	return idEscaper.Replace(e.Source) + "|" + idEscaper.Replace(e.Target) + "|" + idEscaper.Replace(e.Relation)
}

// Cytoscape builds the cytoscape.js elements for g. Node ids are vertex
// names; edges carry every column of the edge table.
func Cytoscape(g *graph.Multigraph) cytoscapejs.Elements {
	vertices := g.Nodes()
	edges := g.Edges()

	elements := cytoscapejs.Elements{
		Nodes: make([]cytoscapejs.Node, 0, len(vertices)),
		Edges: make([]cytoscapejs.Edge, 0, len(edges)),
	}

	for _, v := range vertices {
		attrs := make(map[string]interface{}, 2)
		for k, val := range v.Attrs() {
			attrs[k] = val
		}
		elements.Nodes = append(elements.Nodes, cytoscapejs.Node{
			Data: cytoscapejs.NodeData{ID: v.Name, Attributes: attrs},
		})
	}

	for _, e := range edges {
		attrs := make(map[string]interface{}, len(e.Attrs))
		for _, a := range e.Attrs {
			if reservedEdgeKeys[a.Key] {
				continue
			}
			attrs[a.Key] = a.Value
		}
		elements.Edges = append(elements.Edges, cytoscapejs.Edge{
			Data: cytoscapejs.EdgeData{
				ID:         EdgeID(e),
				Source:     e.Source,
				Target:     e.Target,
				Attributes: attrs,
			},
		})
	}

	return elements
}

// NewDocument pairs the graph elements with the style sheet
func NewDocument(g *graph.Multigraph, sheet *style.Sheet) Document {
	return Document{Elements: Cytoscape(g), Style: sheet}
}

// WriteCytoscapeJSON writes {"elements": ..., "style": ...} to w
func WriteCytoscapeJSON(w io.Writer, g *graph.Multigraph, sheet *style.Sheet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(g, sheet))
}

// DOT renders g as an undirected DOT multigraph with relation-labelled edges
func DOT(g *graph.Multigraph) ([]byte, error) {
	b, err := dot.MarshalMulti(g.Graph(), GraphName, "", "\t")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, err, "marshal DOT")
	}
	return b, nil
}
