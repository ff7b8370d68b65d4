package model

// Node table columns
const (
	ColNodeIndex = "node_index"
	ColNodeName  = "node_name"
	ColNodeType  = "node_type"
)

// Edge table columns
const (
	ColSource          = "source"
	ColTarget          = "target"
	ColSourceName      = "source_name"
	ColTargetName      = "target_name"
	ColDisplayRelation = "display_relation"
)

// Gene-set table columns
const (
	ColClusterName = "Cluster_name"
	ColGeneName    = "Gene_name"
)

// TypeGeneProtein is the node_type shared by all gene and protein nodes
const TypeGeneProtein = "gene/protein"

// Attr is a single column/value pair from a table row
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Node represents one row of the node table
type Node struct {
	Index string `json:"node_index"` // Kept as a string; never numerically coerced on load
	Name  string `json:"node_name"`  // Display label, used as the vertex identity in the assembled graph
	Type  string `json:"node_type"`  // e.g., "gene/protein", "pathogen"
	Extra []Attr `json:"extra,omitempty"`
}

// IsGene returns true if the node is a gene/protein node
func (n Node) IsGene() bool {
	return n.Type == TypeGeneProtein
}

// Edge represents one row of the edge table
type Edge struct {
	Row        int    `json:"row"` // 0-based data row in the source table, used as row identity
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
	Relation   string `json:"display_relation"`

	// Attrs holds every column of the row in header order, including the
	// named ones above
	Attrs []Attr `json:"attrs"`
}

// Attr returns the value of the named column
func (e Edge) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Touches returns true if either endpoint name is name
func (e Edge) Touches(name string) bool {
	return e.SourceName == name || e.TargetName == name
}

// GeneSetMember is one (Cluster_name, Gene_name) row of the gene-set table
type GeneSetMember struct {
	Cluster string `json:"cluster"`
	Gene    string `json:"gene"`
}
