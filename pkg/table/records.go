package table

import (
	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/model"
)

// ReadNodes loads a comma-separated node table.
// Required columns: node_index, node_name, node_type. Other columns are kept
// on each record as Extra.
func ReadNodes(path string) ([]model.Node, error) {
	t, err := Read(path, Comma)
	if err != nil {
		return nil, err
	}
	return NodesFromTable(t)
}

// NodesFromTable converts a loaded table into node records
func NodesFromTable(t *Table) ([]model.Node, error) {
	pos, err := t.Require(model.ColNodeIndex, model.ColNodeName, model.ColNodeType)
	if err != nil {
		return nil, err
	}
	named := map[int]bool{pos[0]: true, pos[1]: true, pos[2]: true}

	nodes := make([]model.Node, 0, len(t.Rows))
	for _, row := range t.Rows {
		node := model.Node{
			Index: row[pos[0]],
			Name:  row[pos[1]],
			Type:  row[pos[2]],
		}
		for i, col := range t.Header {
			if !named[i] {
				node.Extra = append(node.Extra, model.Attr{Key: col, Value: row[i]})
			}
		}
		nodes = append(nodes, node)
	}

	logging.Debug("loaded node table", "path", t.Path, "rows", len(nodes))
	return nodes, nil
}

// ReadEdges loads a comma-separated edge table.
// Required columns: source, target, source_name, target_name, display_relation.
// Every column, required or not, is carried in Attrs.
func ReadEdges(path string) ([]model.Edge, error) {
	t, err := Read(path, Comma)
	if err != nil {
		return nil, err
	}
	return EdgesFromTable(t)
}

// EdgesFromTable converts a loaded table into edge records
func EdgesFromTable(t *Table) ([]model.Edge, error) {
	pos, err := t.Require(
		model.ColSource,
		model.ColTarget,
		model.ColSourceName,
		model.ColTargetName,
		model.ColDisplayRelation,
	)
	if err != nil {
		return nil, err
	}

	edges := make([]model.Edge, 0, len(t.Rows))
	for i, row := range t.Rows {
		edge := model.Edge{
			Row:        i,
			Source:     row[pos[0]],
			Target:     row[pos[1]],
			SourceName: row[pos[2]],
			TargetName: row[pos[3]],
			Relation:   row[pos[4]],
			Attrs:      make([]model.Attr, len(t.Header)),
		}
		for c, col := range t.Header {
			edge.Attrs[c] = model.Attr{Key: col, Value: row[c]}
		}
		edges = append(edges, edge)
	}

	logging.Debug("loaded edge table", "path", t.Path, "rows", len(edges))
	return edges, nil
}
