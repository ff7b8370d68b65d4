package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/watcher"
	"github.com/ritzau/kgview/pkg/web"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gene-set graph to the browser viewer",
		Example: `  kgview serve --nodes nodes.csv --edges edges.csv --genesets sets.tsv -c antiviral --watch
  KGVIEW_PORT=9090 kgview serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 8080, "Port for the web server")
	cmd.Flags().Bool("watch", false, "Re-run the pipeline when an input file changes")
	cmd.Flags().Bool("open", true, "Open the viewer in a browser")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	server := web.NewServer(cfg.PipelineOptions("initial run"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, cfg.Port)
	}()

	// A failed first run leaves the server up; the viewer shows the error
	// and a watched fix triggers the next run.
	if err := server.Refresh(ctx, "initial run"); err != nil {
		logging.Error("initial run failed", "error", err)
	}

	if cfg.Watch {
		if err := a.watch(ctx, server); err != nil {
			logging.Warn("file watching disabled", "error", err)
		}
	}

	if cfg.OpenBrowser {
		openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	return <-errCh
}

// watch re-runs the pipeline after debounced input file changes
func (a *app) watch(ctx context.Context, server *web.Server) error {
	fw, err := watcher.NewFileWatcher(watcher.Inputs{
		Nodes:    a.cfg.Nodes,
		Edges:    a.cfg.Edges,
		GeneSets: a.cfg.GeneSets,
		Style:    a.cfg.Style,
	})
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	logging.Info("watching input files", "files", a.cfg.InputFiles())

	debouncer := watcher.NewDebouncer(fw.Events(), 300*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			reason := watcher.Reason(event)
			logging.Info("inputs changed, re-running pipeline", "reason", reason)
			if err := server.Refresh(ctx, reason); err != nil {
				logging.Error("re-run failed", "reason", reason, "error", err)
			}
		}
	}()

	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "url", url, "error", err)
	}
}
