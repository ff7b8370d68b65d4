package graph

import (
	"testing"

	"github.com/ritzau/kgview/pkg/model"
)

func edgeRow(row int, src, tgt, rel string, extra ...model.Attr) model.Edge {
	attrs := []model.Attr{
		{Key: model.ColSourceName, Value: src},
		{Key: model.ColTargetName, Value: tgt},
		{Key: model.ColDisplayRelation, Value: rel},
	}
	return model.Edge{
		Row:        row,
		SourceName: src,
		TargetName: tgt,
		Relation:   rel,
		Attrs:      append(attrs, extra...),
	}
}

func TestNewMultigraph(t *testing.T) {
	mg := NewMultigraph()
	if mg == nil {
		t.Fatal("NewMultigraph() returned nil")
	}

	if mg.Order() != 0 || mg.Size() != 0 {
		t.Errorf("New graph should be empty, got %d vertices and %d edges", mg.Order(), mg.Size())
	}
}

func TestAddVertex(t *testing.T) {
	mg := NewMultigraph()

	mg.AddVertex("IAV", "pathogen")

	if mg.Order() != 1 {
		t.Errorf("Expected 1 vertex, got %d", mg.Order())
	}

	v, exists := mg.Node("IAV")
	if !exists {
		t.Fatal("Vertex not found in graph")
	}
	if v.Type != "pathogen" || v.Name != "IAV" {
		t.Errorf("Unexpected vertex %+v", v)
	}

	// Re-adding updates the type without creating a second vertex
	mg.AddVertex("IAV", "virus")
	if mg.Order() != 1 {
		t.Errorf("Expected 1 vertex after re-add, got %d", mg.Order())
	}
	if v.Type != "virus" {
		t.Errorf("Expected updated type 'virus', got '%s'", v.Type)
	}
}

func TestParallelEdgesAreKeyedByRelation(t *testing.T) {
	mg := NewMultigraph()
	mg.AddVertex("GENE_A", "gene/protein")
	mg.AddVertex("IAV", "pathogen")

	if _, ok := mg.AddEdge("GENE_A", "IAV", edgeRow(0, "GENE_A", "IAV", "interacts")); !ok {
		t.Fatal("AddEdge() failed")
	}
	if _, ok := mg.AddEdge("GENE_A", "IAV", edgeRow(1, "GENE_A", "IAV", "upregulated_by")); !ok {
		t.Fatal("AddEdge() failed")
	}

	if mg.Size() != 2 {
		t.Fatalf("Expected 2 parallel edges, got %d", mg.Size())
	}

	between := mg.EdgesBetween("IAV", "GENE_A")
	if len(between) != 2 {
		t.Fatalf("Expected 2 edges between GENE_A and IAV, got %d", len(between))
	}
	if between[0].Relation != "interacts" || between[1].Relation != "upregulated_by" {
		t.Errorf("Unexpected relations %s, %s", between[0].Relation, between[1].Relation)
	}

	if d := mg.Degree("GENE_A"); d != 2 {
		t.Errorf("Expected degree 2, got %d", d)
	}
	if n := mg.Neighbors("GENE_A"); len(n) != 1 || n[0] != "IAV" {
		t.Errorf("Expected neighbors [IAV], got %v", n)
	}
}

func TestEqualKeyCollides(t *testing.T) {
	mg := NewMultigraph()
	mg.AddVertex("GENE_A", "gene/protein")
	mg.AddVertex("IAV", "pathogen")

	first := edgeRow(0, "GENE_A", "IAV", "interacts", model.Attr{Key: "evidence", Value: "old"})
	second := edgeRow(4, "IAV", "GENE_A", "interacts", model.Attr{Key: "evidence", Value: "new"}, model.Attr{Key: "score", Value: "0.9"})

	if collided, _ := mg.AddEdge("GENE_A", "IAV", first); collided {
		t.Error("First edge should not collide")
	}
	if collided, _ := mg.AddEdge("IAV", "GENE_A", second); !collided {
		t.Error("Reversed pair with the same relation should collide")
	}

	if mg.Size() != 1 {
		t.Fatalf("Expected 1 edge, got %d", mg.Size())
	}

	e, ok := mg.Edge(NewKey("IAV", "GENE_A", "interacts"))
	if !ok {
		t.Fatal("Edge not found by key")
	}
	if v, _ := e.Attr("evidence"); v != "new" {
		t.Errorf("Expected later row to win, got evidence=%s", v)
	}
	if v, _ := e.Attr("score"); v != "0.9" {
		t.Errorf("Expected merged score=0.9, got %s", v)
	}
	if len(e.Rows) != 2 || e.Rows[0] != 0 || e.Rows[1] != 4 {
		t.Errorf("Expected rows [0 4], got %v", e.Rows)
	}
	if e.Source != "GENE_A" {
		t.Errorf("Edge should keep the first orientation, got source %s", e.Source)
	}
}

func TestAddEdgeMissingVertex(t *testing.T) {
	mg := NewMultigraph()
	mg.AddVertex("GENE_A", "gene/protein")

	if _, ok := mg.AddEdge("GENE_A", "IAV", edgeRow(0, "GENE_A", "IAV", "interacts")); ok {
		t.Error("AddEdge() should fail when an endpoint is missing")
	}
	if mg.Size() != 0 {
		t.Errorf("Expected no edges, got %d", mg.Size())
	}
}

func TestNodesAndEdgesAreSorted(t *testing.T) {
	mg := NewMultigraph()
	for _, name := range []string{"RSV", "ACE2", "IAV"} {
		mg.AddVertex(name, "x")
	}
	mg.AddEdge("RSV", "ACE2", edgeRow(0, "RSV", "ACE2", "b"))
	mg.AddEdge("IAV", "ACE2", edgeRow(1, "IAV", "ACE2", "a"))

	nodes := mg.Nodes()
	if nodes[0].Name != "ACE2" || nodes[1].Name != "IAV" || nodes[2].Name != "RSV" {
		t.Errorf("Nodes not sorted by name: %s %s %s", nodes[0].Name, nodes[1].Name, nodes[2].Name)
	}

	edges := mg.Edges()
	if edges[0].Source != "IAV" || edges[1].Source != "RSV" {
		t.Errorf("Edges not sorted by source: %s %s", edges[0].Source, edges[1].Source)
	}
}

func TestSelfLoop(t *testing.T) {
	mg := NewMultigraph()
	mg.AddVertex("TP53", "gene/protein")

	if _, ok := mg.AddEdge("TP53", "TP53", edgeRow(0, "TP53", "TP53", "regulates")); !ok {
		t.Fatal("AddEdge() failed for a loop")
	}
	if d := mg.Degree("TP53"); d != 2 {
		t.Errorf("Expected loop degree 2, got %d", d)
	}
}
