package geneset

import (
	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/model"
	"github.com/ritzau/kgview/pkg/table"
)

// ReadMembers loads every (Cluster_name, Gene_name) row of a tab-separated
// cluster membership file
func ReadMembers(path string) ([]model.GeneSetMember, error) {
	t, err := table.Read(path, table.Tab)
	if err != nil {
		return nil, err
	}

	pos, err := t.Require(model.ColClusterName, model.ColGeneName)
	if err != nil {
		return nil, err
	}

	members := make([]model.GeneSetMember, len(t.Rows))
	for i, row := range t.Rows {
		members[i] = model.GeneSetMember{Cluster: row[pos[0]], Gene: row[pos[1]]}
	}
	return members, nil
}

// Read returns the genes of the named cluster in file order.
// An unknown cluster yields an empty list, not an error.
func Read(path, cluster string) ([]string, error) {
	members, err := ReadMembers(path)
	if err != nil {
		return nil, err
	}

	genes := Genes(members, cluster)
	if len(genes) == 0 {
		logging.Warn("gene set has no members", "cluster", cluster, "path", path)
	}
	return genes, nil
}

// Genes returns the genes belonging to cluster
func Genes(members []model.GeneSetMember, cluster string) []string {
	genes := make([]string, 0)
	for _, m := range members {
		if m.Cluster == cluster {
			genes = append(genes, m.Gene)
		}
	}
	return genes
}

// Clusters returns the distinct cluster names in first-appearance order
func Clusters(path string) ([]string, error) {
	members, err := ReadMembers(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	clusters := make([]string, 0)
	for _, m := range members {
		if !seen[m.Cluster] {
			seen[m.Cluster] = true
			clusters = append(clusters, m.Cluster)
		}
	}
	return clusters, nil
}
