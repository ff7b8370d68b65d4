// Package selection filters node and edge records down to the population of
// interest. Every function here is a pure filter: records are returned in
// source order and never modified.
package selection

import (
	"github.com/ritzau/kgview/pkg/model"
)

// DefaultNodeNames are the pathogen nodes always kept by SelectNodes
var DefaultNodeNames = []string{
	"IAV",
	"RSV",
	"PIV3",
	"SARS-CoV-2",
	"HRV",
	"MERS-CoV",
	"HCoV-229E",
	"HCoV-NL63",
	"HCoV-OC43",
}

// DefaultNodeTypes are the node types always kept by SelectNodes
var DefaultNodeTypes = []string{
	model.TypeGeneProtein,
}

// Criteria selects nodes by type or by name.
// A nil slice falls back to the defaults; an empty non-nil slice matches nothing.
type Criteria struct {
	Types []string
	Names []string
}

// Resolved returns the criteria with defaults filled in
func (c Criteria) Resolved() Criteria {
	if c.Types == nil {
		c.Types = DefaultNodeTypes
	}
	if c.Names == nil {
		c.Names = DefaultNodeNames
	}
	return c
}

// SelectNodes keeps the nodes whose type is in types OR whose name is in names.
// Nil arguments use DefaultNodeTypes and DefaultNodeNames.
func SelectNodes(nodes []model.Node, types, names []string) []model.Node {
	c := Criteria{Types: types, Names: names}.Resolved()
	typeSet := toSet(c.Types)
	nameSet := toSet(c.Names)

	selected := make([]model.Node, 0)
	for _, n := range nodes {
		if typeSet[n.Type] || nameSet[n.Name] {
			selected = append(selected, n)
		}
	}
	return selected
}

// NodeNames returns the names of nodes in source order
func NodeNames(nodes []model.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

// SelectEdges keeps the edges whose source_name AND target_name are both in names
func SelectEdges(edges []model.Edge, names []string) []model.Edge {
	nameSet := toSet(names)

	selected := make([]model.Edge, 0)
	for _, e := range edges {
		if nameSet[e.SourceName] && nameSet[e.TargetName] {
			selected = append(selected, e)
		}
	}
	return selected
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
