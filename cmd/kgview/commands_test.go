package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ritzau/kgview/pkg/errors"
)

func writeInputs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	files := map[string]string{
		"nodes.csv": "node_index,node_name,node_type\n" +
			"1,GENE_A,gene/protein\n" +
			"2,GENE_B,gene/protein\n" +
			"3,IAV,pathogen\n",
		"edges.csv": "source,target,source_name,target_name,display_relation\n" +
			"1,3,GENE_A,IAV,interacts\n" +
			"1,2,GENE_A,GENE_B,binds\n",
		"genesets.tsv": "Cluster_name\tGene_name\n" +
			"antiviral\tGENE_A\n" +
			"pair\tGENE_A\n" +
			"pair\tGENE_B\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	return []string{"--nodes", "nodes.csv", "--edges", "edges.csv", "--genesets", "genesets.tsv"}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildSummary(t *testing.T) {
	color.NoColor = true
	inputs := writeInputs(t)

	out, err := execute(t, append([]string{"build", "-c", "antiviral"}, inputs...)...)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if !strings.Contains(out, "Vertices: 2") || !strings.Contains(out, "Edges: 1") {
		t.Errorf("Unexpected summary:\n%s", out)
	}
}

func TestBuildJSONToFile(t *testing.T) {
	inputs := writeInputs(t)

	_, err := execute(t, append([]string{"build", "-c", "pair", "--format", "json", "-o", "graph.json"}, inputs...)...)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}

	data, err := os.ReadFile("graph.json")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc struct {
		Elements struct {
			Nodes []json.RawMessage `json:"nodes"`
			Edges []json.RawMessage `json:"edges"`
		} `json:"elements"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if len(doc.Elements.Nodes) != 3 || len(doc.Elements.Edges) != 2 {
		t.Errorf("Expected 3 nodes and 2 edges, got %d and %d", len(doc.Elements.Nodes), len(doc.Elements.Edges))
	}
}

func TestBuildDOT(t *testing.T) {
	inputs := writeInputs(t)

	out, err := execute(t, append([]string{"build", "-c", "antiviral", "-f", "dot"}, inputs...)...)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if !strings.Contains(out, "interacts") || !strings.Contains(out, "IAV") {
		t.Errorf("Unexpected DOT output:\n%s", out)
	}
}

func TestBuildErrors(t *testing.T) {
	inputs := writeInputs(t)

	_, err := execute(t, append([]string{"build"}, inputs...)...)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Expected INVALID_CONFIG without a cluster, got %v", err)
	}

	_, err = execute(t, "build", "-c", "antiviral", "--nodes", "missing.csv", "--edges", "edges.csv", "--genesets", "genesets.tsv")
	if !errors.Is(err, errors.ErrCodeFileRead) {
		t.Errorf("Expected FILE_READ for missing node table, got %v", err)
	}

	_, err = execute(t, append([]string{"build", "-c", "antiviral", "-o", filepath.Join("missing", "graph.json")}, inputs...)...)
	if !errors.Is(err, errors.ErrCodeExport) {
		t.Errorf("Expected EXPORT for an unwritable output path, got %v", err)
	}

	_, err = execute(t, append([]string{"build", "-c", "nothing", "--require-genes"}, inputs...)...)
	if !errors.Is(err, errors.ErrCodeEmptyResult) {
		t.Errorf("Expected EMPTY_RESULT with --require-genes, got %v", err)
	}
}

func TestClusters(t *testing.T) {
	inputs := writeInputs(t)

	out, err := execute(t, append([]string{"clusters", "-c", "pair"}, inputs...)...)
	if err != nil {
		t.Fatalf("clusters error = %v", err)
	}

	want := "  antiviral (1 genes)\n* pair (2 genes)\n"
	if out != want {
		t.Errorf("clusters output = %q, want %q", out, want)
	}
}
