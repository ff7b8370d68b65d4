package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/kgview/pkg/config"
	"github.com/ritzau/kgview/pkg/errors"
	"github.com/ritzau/kgview/pkg/export"
	"github.com/ritzau/kgview/pkg/geneset"
	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/output"
	"github.com/ritzau/kgview/pkg/pipeline"
)

// app holds the configuration shared by all commands
type app struct {
	configFile string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "kgview",
		Short: "Explore pathogen and gene-set subgraphs of a knowledge graph",
		Long: `kgview filters a knowledge graph (node and edge tables) down to pathogens,
genes and proteins, keeps the edges touching a named gene set and assembles
them into a multigraph for a browser viewer.

Settings come from flags, KGVIEW_* environment variables and kgview.toml,
in that order of priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "", "Config file (default ./"+config.DefaultFile+" if present)")
	f.String("nodes", "", "Node table (CSV with node_index, node_name, node_type)")
	f.String("edges", "", "Edge table (CSV with source, target, source_name, target_name, display_relation)")
	f.String("genesets", "", "Gene set table (TSV with Cluster_name, Gene_name)")
	f.String("style", "", "Style file for the viewer (JSON or YAML)")
	f.StringP("cluster", "c", "", "Gene set to focus on (Cluster_name value)")
	f.StringSlice("node-types", nil, "Node types of interest (default gene/protein)")
	f.StringSlice("node-names", nil, "Node names of interest (default: the pathogen list)")
	f.Bool("strict-index", false, "Reject node rows sharing a node_index with different names")
	f.Bool("require-genes", false, "Fail when the gene set has no genes")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.String("log-format", "compact", "Log format: compact or json")

	root.AddCommand(a.buildCommand())
	root.AddCommand(a.serveCommand())
	root.AddCommand(a.clustersCommand())

	return root
}

// load resolves the configuration and sets up logging
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags(), a.configFile)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "verbosity")
	}
	logging.Configure(logging.Options{Level: level, Format: cfg.LogFormat})

	a.cfg = cfg
	return nil
}

func (a *app) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble the gene-set graph once and print or export it",
		Example: `  kgview build --nodes nodes.csv --edges edges.csv --genesets sets.tsv -c "type I interferon"
  kgview build -c antiviral --format json --output graph.json
  kgview build -c antiviral --format dot | dot -Tsvg > graph.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			res, err := pipeline.NewRunner(nil).Run(cmd.Context(), a.cfg.PipelineOptions("build"))
			if err != nil {
				return err
			}

			if a.cfg.Output == "" {
				return writeResult(cmd.OutOrStdout(), a.cfg.Format, res)
			}
			if err := writeFile(a.cfg.Output, a.cfg.Format, res); err != nil {
				return err
			}
			logging.Info("wrote graph", "path", a.cfg.Output, "format", a.cfg.Format)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", config.FormatSummary, "Output format: summary, json or dot")
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	return cmd
}

// writeFile exports res to path. A failed close counts as a failed export.
func writeFile(path, format string, res *pipeline.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "create %s", path)
	}
	if err := writeResult(file, format, res); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "close %s", path)
	}
	return nil
}

func writeResult(w io.Writer, format string, res *pipeline.Result) error {
	switch format {
	case config.FormatJSON:
		if err := export.WriteCytoscapeJSON(w, res.Graph, res.Style); err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "write JSON")
		}
	case config.FormatDOT:
		b, err := export.DOT(res.Graph)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "write DOT")
		}
	default:
		output.PrintSummary(w, output.Summarize(res))
	}
	return nil
}

func (a *app) clustersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "List the gene sets in the gene set table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.GeneSets == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "genesets is required")
			}

			clusters, err := geneset.Clusters(a.cfg.GeneSets)
			if err != nil {
				return err
			}

			members, err := geneset.ReadMembers(a.cfg.GeneSets)
			if err != nil {
				return err
			}
			sizes := make(map[string]int)
			for _, m := range members {
				sizes[m.Cluster]++
			}

			w := cmd.OutOrStdout()
			for _, c := range clusters {
				marker := " "
				if c == a.cfg.Cluster {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s (%d genes)\n", marker, c, sizes[c])
			}
			return nil
		},
	}
}
