package graph

import (
	"strconv"
	"strings"

	"github.com/ritzau/kgview/pkg/errors"
	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/model"
)

// Stats describes how an assembly went
type Stats struct {
	GeneGene    int `json:"gene_gene"`    // Rows with both endpoints in the gene set
	GeneNonGene int `json:"gene_nongene"` // Rows linking a gene-set gene to a non-gene node
	Duplicates  int `json:"duplicates"`   // Rows in both groups, added once
	Collisions  int `json:"collisions"`   // Rows merged into an existing (pair, relation) edge
	Skipped     int `json:"skipped"`      // Rows with an endpoint absent from the node table
}

// AssembleOptions configures Assemble
type AssembleOptions struct {
	// StrictIndex rejects two node rows sharing a node_index with different
	// names. Without it the later row wins.
	StrictIndex bool
}

// Partition selects the edges touching the gene set: gene–gene edges (both
// endpoint names in genes) followed by gene–nongene edges (one endpoint in
// genes, the other a node whose type is not gene/protein). An edge matching
// both groups appears once, in the gene–gene position.
func Partition(nodes []model.Node, edges []model.Edge, genes []string) ([]model.Edge, Stats) {
	geneSet := make(map[string]bool, len(genes))
	for _, g := range genes {
		geneSet[g] = true
	}
	nonGenes := make(map[string]bool)
	for _, n := range nodes {
		if !n.IsGene() {
			nonGenes[n.Name] = true
		}
	}

	var stats Stats
	var betweenGenes, withNonGenes []model.Edge
	inFirst := make(map[int]bool)

	for i, e := range edges {
		if geneSet[e.SourceName] && geneSet[e.TargetName] {
			betweenGenes = append(betweenGenes, e)
			inFirst[i] = true
			stats.GeneGene++
		}
	}
	for i, e := range edges {
		if (geneSet[e.SourceName] && nonGenes[e.TargetName]) ||
			(geneSet[e.TargetName] && nonGenes[e.SourceName]) {
			stats.GeneNonGene++
			if inFirst[i] {
				stats.Duplicates++
				continue
			}
			withNonGenes = append(withNonGenes, e)
		}
	}

	combined := make([]model.Edge, 0, len(betweenGenes)+len(withNonGenes))
	combined = append(combined, betweenGenes...)
	combined = append(combined, withNonGenes...)
	return combined, stats
}

// Assemble builds the gene-set multigraph from the nodes of interest, the
// edges internal to them and the selected gene names.
//
// Vertices are node names taken from the surviving edges, so isolated nodes
// never appear. Each vertex carries the type of its node row. Edges are keyed
// by endpoint pair and display_relation; rows sharing a key are merged.
func Assemble(nodes []model.Node, edges []model.Edge, genes []string, opts AssembleOptions) (*Multigraph, error) {
	combined, stats := Partition(nodes, edges, genes)

	endpointNames := make(map[string]bool)
	for _, e := range combined {
		endpointNames[e.SourceName] = true
		endpointNames[e.TargetName] = true
	}

	var subset []model.Node
	for _, n := range nodes {
		if endpointNames[n.Name] {
			subset = append(subset, n)
		}
	}

	indexToName, err := indexNames(subset, opts.StrictIndex)
	if err != nil {
		return nil, err
	}

	// Later rows win for duplicate names
	typeByName := make(map[string]string, len(subset))
	for _, n := range subset {
		typeByName[n.Name] = n.Type
	}

	mg := NewMultigraph()
	for _, e := range combined {
		source := resolveEndpoint(e.Source, e.SourceName, indexToName)
		target := resolveEndpoint(e.Target, e.TargetName, indexToName)

		sourceType, sok := typeByName[source]
		targetType, tok := typeByName[target]
		if !sok || !tok {
			logging.Warn("skipping edge with unknown endpoint",
				"row", e.Row, "source", source, "target", target)
			stats.Skipped++
			continue
		}

		mg.AddVertex(source, sourceType)
		mg.AddVertex(target, targetType)
		if collided, _ := mg.AddEdge(source, target, e); collided {
			logging.Debug("merged edge with existing key",
				"row", e.Row, "source", source, "target", target, "relation", e.Relation)
			stats.Collisions++
		}
	}
	mg.stats = stats

	logging.Debug("assembled graph",
		"vertices", mg.Order(),
		"edges", mg.Size(),
		"geneGene", stats.GeneGene,
		"geneNonGene", stats.GeneNonGene,
		"duplicates", stats.Duplicates,
		"collisions", stats.Collisions,
		"skipped", stats.Skipped,
	)

	return mg, nil
}

// indexNames maps integer node_index values to node names; the later row
// wins unless strict is set
func indexNames(nodes []model.Node, strict bool) (map[int64]string, error) {
	mapping := make(map[int64]string, len(nodes))
	for _, n := range nodes {
		id, err := parseIndex(n.Index)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTypeConversion, err,
				"node %q: node_index %q is not an integer", n.Name, n.Index)
		}

		if prev, exists := mapping[id]; exists && prev != n.Name {
			if strict {
				return nil, errors.New(errors.ErrCodeDuplicateIndex,
					"node_index %d is used by both %q and %q", id, prev, n.Name)
			}
			logging.Debug("duplicate node_index, later row wins", "index", id, "previous", prev, "name", n.Name)
		}
		mapping[id] = n.Name
	}
	return mapping, nil
}

// resolveEndpoint maps an edge endpoint index to its node name, falling back
// to the name column when the index is not a known integer
func resolveEndpoint(index, name string, indexToName map[int64]string) string {
	id, err := parseIndex(index)
	if err != nil {
		logging.Trace("edge endpoint index is not an integer", "index", index, "name", name)
		return name
	}
	if mapped, ok := indexToName[id]; ok {
		if mapped != name {
			logging.Debug("edge endpoint name differs from node table", "index", index, "edgeName", name, "nodeName", mapped)
		}
		return mapped
	}
	return name
}

func parseIndex(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
