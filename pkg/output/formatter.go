package output

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"

	"github.com/ritzau/kgview/pkg/graph"
	"github.com/ritzau/kgview/pkg/pipeline"
)

// Count is a label with the number of graph elements carrying it
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary describes an assembled graph
type Summary struct {
	Cluster     string      `json:"cluster"`
	Genes       int         `json:"genes"`
	Vertices    int         `json:"vertices"`
	Edges       int         `json:"edges"`
	Types       []Count     `json:"types"`     // Vertices per node type
	Relations   []Count     `json:"relations"` // Edges per display_relation
	Components  int         `json:"components"`
	Largest     int         `json:"largest_component"`
	Stats       graph.Stats `json:"stats"`
	DurationMs  int64       `json:"duration_ms"`
	StyleSource string      `json:"style_source,omitempty"`
}

// Summarize collects the summary of a pipeline result
func Summarize(res *pipeline.Result) Summary {
	g := res.Graph

	types := make(map[string]int)
	for _, v := range g.Nodes() {
		types[v.Type]++
	}
	relations := make(map[string]int)
	for _, e := range g.Edges() {
		relations[e.Relation]++
	}

	s := Summary{
		Cluster:    res.Cluster,
		Genes:      len(res.Genes),
		Vertices:   g.Order(),
		Edges:      g.Size(),
		Types:      sortedCounts(types),
		Relations:  sortedCounts(relations),
		Stats:      g.Stats(),
		DurationMs: res.Duration.Milliseconds(),
	}
	if cc := g.Components(); len(cc) > 0 {
		s.Components = len(cc)
		s.Largest = len(cc[0])
	}
	if res.Style != nil {
		s.StyleSource = res.Style.Path()
	}
	return s
}

// PrintSummary prints a nicely formatted graph report with colors
func PrintSummary(w io.Writer, s Summary) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "kgview - Gene Set Subgraph")
	bold.Fprintln(w, "==========================")
	fmt.Fprintf(w, "Gene set: %s (%d genes)\n", s.Cluster, s.Genes)
	if s.StyleSource != "" {
		fmt.Fprintf(w, "Style: %s\n", s.StyleSource)
	}
	fmt.Fprintln(w)

	if s.Vertices == 0 {
		red.Fprintln(w, "The assembled graph is empty.")
		fmt.Fprintln(w, "  Check the gene set name and the node selection.")
		return
	}

	green.Fprintf(w, "Vertices: %d\n", s.Vertices)
	for _, c := range s.Types {
		cyan.Fprintf(w, "  %-20s", c.Label)
		fmt.Fprintf(w, " %d\n", c.Count)
	}
	green.Fprintf(w, "Edges: %d\n", s.Edges)
	for _, c := range s.Relations {
		cyan.Fprintf(w, "  %-20s", c.Label)
		fmt.Fprintf(w, " %d\n", c.Count)
	}
	fmt.Fprintf(w, "Components: %d (largest %d vertices)\n", s.Components, s.Largest)
	fmt.Fprintln(w)

	bold.Fprintln(w, "Edge rows:")
	fmt.Fprintf(w, "  gene-gene:     %d\n", s.Stats.GeneGene)
	fmt.Fprintf(w, "  gene-nongene:  %d\n", s.Stats.GeneNonGene)
	fmt.Fprintf(w, "  in both:       %d\n", s.Stats.Duplicates)

	if s.Stats.Collisions > 0 {
		yellow.Fprintf(w, "  merged:        %d (same pair and relation)\n", s.Stats.Collisions)
	}
	if s.Stats.Skipped > 0 {
		yellow.Fprintf(w, "  skipped:       %d (endpoint missing from node table)\n", s.Stats.Skipped)
	}

	fmt.Fprintln(w)
	green.Fprintf(w, "✓ Graph assembled in %dms\n", s.DurationMs)
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for label, n := range m {
		counts = append(counts, Count{Label: label, Count: n})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Label, b.Label))
	})
	return counts
}
