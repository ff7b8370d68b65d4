package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritzau/kgview/pkg/errors"
	"github.com/ritzau/kgview/pkg/export"
	"github.com/ritzau/kgview/pkg/geneset"
	"github.com/ritzau/kgview/pkg/graph"
	"github.com/ritzau/kgview/pkg/logging"
	"github.com/ritzau/kgview/pkg/output"
	"github.com/ritzau/kgview/pkg/pipeline"
	"github.com/ritzau/kgview/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// apiError is the JSON body of a failed API request
type apiError struct {
	Error   string `json:"error"`   // Error code, e.g. "FILE_READ"
	Message string `json:"message"` // Human-readable message
}

// Server hands assembled graphs to the browser viewer
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher
	runner    *pipeline.Runner

	runMu  sync.Mutex // Serialises Refresh and SelectCluster
	mu     sync.RWMutex
	opts   pipeline.Options // Options of the next run; Cluster follows the viewer's choice
	result *pipeline.Result // Latest successful run
}

// NewServer creates a new web server running the pipeline with opts
func NewServer(opts pipeline.Options) *Server {
	publisher := pubsub.NewServerPublisher()

	s := &Server{
		router:    mux.NewRouter(),
		publisher: publisher,
		runner:    pipeline.NewRunner(publisher),
		opts:      opts,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with request IDs and logging applied
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// Publisher returns the event publisher
func (s *Server) Publisher() pubsub.Publisher {
	return s.publisher
}

// Result returns the latest successful pipeline result, or nil
func (s *Server) Result() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Cluster returns the gene set the next run will use
func (s *Server) Cluster() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.Cluster
}

// Refresh re-runs the pipeline with the current options. Options are read
// once any running selection has finished. On failure the previous result
// stays in place.
func (s *Server) Refresh(ctx context.Context, reason string) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.RLock()
	opts := s.opts
	s.mu.RUnlock()

	_, err := s.run(ctx, opts, reason)
	return err
}

// SelectCluster runs the pipeline for another gene set and makes it current
func (s *Server) SelectCluster(ctx context.Context, cluster string) (*pipeline.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.RLock()
	opts := s.opts
	s.mu.RUnlock()

	opts.Cluster = cluster
	res, err := s.run(ctx, opts, "gene set selected")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.opts.Cluster = cluster
	s.mu.Unlock()
	return res, nil
}

func (s *Server) run(ctx context.Context, opts pipeline.Options, reason string) (*pipeline.Result, error) {
	opts.Reason = reason
	res, err := s.runner.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.result = res
	s.mu.Unlock()

	update := pubsub.GraphUpdate{
		Cluster:  res.Cluster,
		Vertices: res.Graph.Order(),
		Edges:    res.Graph.Size(),
		Reason:   reason,
	}
	if err := s.publisher.Publish(pubsub.TopicGraph, "updated", update); err != nil {
		logging.WarnContext(ctx, "graph update not published", "error", err)
	}
	return res, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(recoveryMiddleware, metricsMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/status", s.handleSubscribe(pubsub.TopicStatus)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/graph", s.handleSubscribe(pubsub.TopicGraph)).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/graph.dot", s.handleGraphDOT).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/style", s.handleStyle).Methods("GET")
	s.router.HandleFunc("/api/genesets", s.handleGeneSets).Methods("GET")
	s.router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
			return
		}
		defer sub.Close()

		// Initial comment establishes the stream (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		flush(w)

		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := pubsub.WriteSSE(w, event); err != nil {
					logging.DebugContext(r.Context(), "SSE write failed", "topic", topic, "error", err)
					return
				}
				flush(w)
			}
		}
	}
}

// currentResult returns the result for the requested cluster, running the
// pipeline when it differs from the loaded one
func (s *Server) currentResult(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	cluster := r.URL.Query().Get("cluster")
	res := s.Result()

	if cluster != "" && (res == nil || res.Cluster != cluster) {
		var err error
		res, err = s.SelectCluster(r.Context(), cluster)
		if err != nil {
			writePipelineError(w, err)
			return nil, false
		}
	}

	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", "no graph has been assembled yet")
		return nil, false
	}
	return res, true
}

// requestGraph narrows the result graph to ?focus=A,B within ?depth hops
// (default 1) when a focus is given
func requestGraph(w http.ResponseWriter, r *http.Request, res *pipeline.Result) (*graph.Multigraph, bool) {
	q := r.URL.Query()
	focus := q.Get("focus")
	if focus == "" {
		return res.Graph, true
	}

	depth := 1
	if d := q.Get("depth"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "depth must be an integer")
			return nil, false
		}
		depth = n
	}
	return res.Graph.Neighborhood(strings.Split(focus, ","), depth), true
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentResult(w, r)
	if !ok {
		return
	}
	g, ok := requestGraph(w, r, res)
	if !ok {
		return
	}
	writeJSON(w, export.NewDocument(g, res.Style))
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentResult(w, r)
	if !ok {
		return
	}

	g, ok := requestGraph(w, r, res)
	if !ok {
		return
	}

	b, err := export.DOT(g)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write(b)
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	res := s.Result()
	if res == nil || res.Style == nil {
		writeJSON(w, []any{})
		return
	}
	writeJSON(w, res.Style)
}

func (s *Server) handleGeneSets(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	path, current := s.opts.GeneSetFile, s.opts.Cluster
	s.mu.RUnlock()

	clusters, err := geneset.Clusters(path)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"clusters": clusters,
		"current":  current,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res := s.Result()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", "no graph has been assembled yet")
		return
	}
	writeJSON(w, output.Summarize(res))
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.publisher.Close()
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down web server")
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("response write failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiError{Error: code, Message: message})
}

// writePipelineError maps a coded pipeline error onto an HTTP status
func writePipelineError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeEmptyResult:
		status = http.StatusNotFound
	case errors.ErrCodeParse, errors.ErrCodeTypeConversion, errors.ErrCodeDuplicateIndex:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case "":
		code = "INTERNAL"
	}

	writeError(w, status, string(code), errors.UserMessage(err))
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
