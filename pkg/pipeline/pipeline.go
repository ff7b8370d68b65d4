// Package pipeline composes the loaders, selectors and the assembler into the
// one-shot transform from knowledge-graph tables to a gene-set multigraph.
//
// Stages run in a fixed order:
//
//	load nodes -> select nodes -> load edges -> select edges ->
//	load gene set -> assemble -> load style
//
// The first failing stage aborts the run and its error is returned as is.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ritzau/kgview/pkg/errors"
	"github.com/ritzau/kgview/pkg/geneset"
	"github.com/ritzau/kgview/pkg/graph"
	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/metrics"
	"github.com/ritzau/kgview/pkg/model"
	"github.com/ritzau/kgview/pkg/selection"
	"github.com/ritzau/kgview/pkg/style"
	"github.com/ritzau/kgview/pkg/table"
)

// Stage names, also used as metric labels
const (
	StageLoadNodes   = "load_nodes"
	StageSelectNodes = "select_nodes"
	StageLoadEdges   = "load_edges"
	StageSelectEdges = "select_edges"
	StageLoadGeneSet = "load_geneset"
	StageAssemble    = "assemble"
	StageLoadStyle   = "load_style"
)

const totalStages = 7

// Result is the output of a pipeline run
type Result struct {
	Graph    *graph.Multigraph
	Style    *style.Sheet
	Cluster  string
	Genes    []string
	Duration time.Duration
}

// Options configures a pipeline run
type Options struct {
	NodeFile    string
	EdgeFile    string
	GeneSetFile string
	StyleFile   string // Optional; no sheet is loaded when empty
	Cluster     string

	// Selection picks the nodes of interest. Nil fields use the defaults.
	Selection selection.Criteria

	StrictIndex     bool // Reject conflicting duplicate node_index rows
	RequireNonEmpty bool // Fail with EMPTY_RESULT when the gene set has no rows

	Reason string // e.g., "initial run", "nodes.csv changed"
}

// StatusPublisher receives progress updates while a run is in flight
type StatusPublisher interface {
	PublishStatus(state, message string, step, total int)
}

// Runner executes pipeline runs one at a time
type Runner struct {
	status StatusPublisher
	mu     sync.Mutex // Prevent concurrent runs
}

// NewRunner creates a runner. status may be nil.
func NewRunner(status StatusPublisher) *Runner {
	return &Runner{status: status}
}

// Prepare runs the pipeline once with the default node selection. Unlike
// Run it always returns a style sheet, so styleFile must be set.
func Prepare(nodeFile, edgeFile, geneSetFile, styleFile, geneSetName string) (*Result, error) {
	if styleFile == "" {
		return nil, errors.New(errors.ErrCodeFileRead, "no style file given")
	}
	return NewRunner(nil).Run(context.Background(), Options{
		NodeFile:    nodeFile,
		EdgeFile:    edgeFile,
		GeneSetFile: geneSetFile,
		StyleFile:   styleFile,
		Cluster:     geneSetName,
		Reason:      "prepare",
	})
}

// Run executes every stage in order. ctx is checked between stages.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	logging.InfoContext(ctx, "pipeline started", "reason", opts.Reason, "cluster", opts.Cluster)

	res, err := r.run(ctx, opts)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues(resultLabel(err)).Inc()
		r.publish("error", errors.UserMessage(err), 0)
		logging.ErrorContext(ctx, "pipeline failed", "reason", opts.Reason, "error", err)
		return nil, err
	}

	res.Duration = time.Since(start)
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	metrics.GraphVertices.Set(float64(res.Graph.Order()))
	metrics.GraphEdges.Set(float64(res.Graph.Size()))
	recordStats(res.Graph.Stats())

	r.publish("ready", fmt.Sprintf("Graph ready: %d vertices, %d edges", res.Graph.Order(), res.Graph.Size()), totalStages)
	logging.InfoContext(ctx, "pipeline complete",
		"vertices", res.Graph.Order(),
		"edges", res.Graph.Size(),
		"durationMs", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, opts Options) (*Result, error) {
	var (
		nodes         []model.Node
		selectedNodes []model.Node
		edges         []model.Edge
		selectedEdges []model.Edge
		genes         []string
		mg            *graph.Multigraph
		sheet         *style.Sheet
	)

	stages := []struct {
		name    string
		message string
		run     func() error
	}{
		{StageLoadNodes, "Loading node table...", func() (err error) {
			nodes, err = table.ReadNodes(opts.NodeFile)
			return err
		}},
		{StageSelectNodes, "Selecting nodes of interest...", func() error {
			selectedNodes = selection.SelectNodes(nodes, opts.Selection.Types, opts.Selection.Names)
			return nil
		}},
		{StageLoadEdges, "Loading edge table...", func() (err error) {
			edges, err = table.ReadEdges(opts.EdgeFile)
			return err
		}},
		{StageSelectEdges, "Selecting edges between selected nodes...", func() error {
			selectedEdges = selection.SelectEdges(edges, selection.NodeNames(selectedNodes))
			return nil
		}},
		{StageLoadGeneSet, "Reading gene set...", func() (err error) {
			genes, err = geneset.Read(opts.GeneSetFile, opts.Cluster)
			if err == nil && len(genes) == 0 && opts.RequireNonEmpty {
				err = errors.New(errors.ErrCodeEmptyResult, "gene set %q has no genes in %s", opts.Cluster, opts.GeneSetFile)
			}
			return err
		}},
		{StageAssemble, "Assembling multigraph...", func() (err error) {
			mg, err = graph.Assemble(selectedNodes, selectedEdges, genes, graph.AssembleOptions{
				StrictIndex: opts.StrictIndex,
			})
			return err
		}},
		{StageLoadStyle, "Loading style...", func() (err error) {
			if opts.StyleFile == "" {
				return nil
			}
			sheet, err = style.Load(opts.StyleFile)
			return err
		}},
	}

	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		step := i + 1
		r.publish(st.name, st.message, step)

		stageStart := time.Now()
		err := st.run()
		elapsed := time.Since(stageStart)
		metrics.StageDuration.WithLabelValues(st.name).Observe(elapsed.Seconds())
		if err != nil {
			return nil, err
		}

		logging.DebugContext(ctx, fmt.Sprintf("step %d/%d done", step, totalStages),
			append(stageCounts(st.name, nodes, selectedNodes, edges, selectedEdges, genes, mg),
				logging.StageKey, st.name, "durationMs", elapsed.Milliseconds())...)
	}

	return &Result{
		Graph:   mg,
		Style:   sheet,
		Cluster: opts.Cluster,
		Genes:   genes,
	}, nil
}

func (r *Runner) publish(state, message string, step int) {
	if r.status != nil {
		r.status.PublishStatus(state, message, step, totalStages)
	}
}

// stageCounts returns the log attributes describing a finished stage
func stageCounts(stage string, nodes, selectedNodes []model.Node, edges, selectedEdges []model.Edge, genes []string, mg *graph.Multigraph) []any {
	switch stage {
	case StageLoadNodes:
		return []any{"nodes", len(nodes)}
	case StageSelectNodes:
		return []any{"selected", len(selectedNodes), "of", len(nodes)}
	case StageLoadEdges:
		return []any{"edges", len(edges)}
	case StageSelectEdges:
		return []any{"selected", len(selectedEdges), "of", len(edges)}
	case StageLoadGeneSet:
		return []any{"genes", len(genes)}
	case StageAssemble:
		return []any{"vertices", mg.Order(), "edges", mg.Size()}
	default:
		return nil
	}
}

func recordStats(s graph.Stats) {
	metrics.EdgeRows.WithLabelValues("gene_gene").Add(float64(s.GeneGene))
	metrics.EdgeRows.WithLabelValues("gene_nongene").Add(float64(s.GeneNonGene))
	metrics.EdgeRows.WithLabelValues("duplicate").Add(float64(s.Duplicates))
	metrics.EdgeRows.WithLabelValues("collision").Add(float64(s.Collisions))
	metrics.EdgeRows.WithLabelValues("skipped").Add(float64(s.Skipped))
}

func resultLabel(err error) string {
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return "canceled"
	}
	return "error"
}
