package style

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ritzau/kgview/pkg/errors"
)

func writeStyle(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const jsonSheet = `[
  {"selector": "node", "style": {"label": "data(node_name)", "width": 30}},
  {"selector": "node[type = \"pathogen\"]", "style": {"background-color": "#d62728"}}
]`

func TestLoadJSONPassesThrough(t *testing.T) {
	sheet, err := Load(writeStyle(t, "style.json", jsonSheet))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	out, err := json.Marshal(sheet)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got, want any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if err := json.Unmarshal([]byte(jsonSheet), &want); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	gotJSON, _ := json.Marshal(got)
	wantJSON, _ := json.Marshal(want)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("Sheet changed in transit:\n got %s\nwant %s", gotJSON, wantJSON)
	}
}

func TestLoadYAML(t *testing.T) {
	yamlSheet := "node:\n  label: data(node_name)\n  width: 30\n\"node[type = 'pathogen']\":\n  background-color: \"#d62728\"\n"

	sheet, err := Load(writeStyle(t, "style.yaml", yamlSheet))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	rules, ok := sheet.Value().(map[string]any)
	if !ok {
		t.Fatalf("Expected a mapping, got %T", sheet.Value())
	}
	node, ok := rules["node"].(map[string]any)
	if !ok {
		t.Fatalf("Expected node rule mapping, got %T", rules["node"])
	}
	if node["label"] != "data(node_name)" {
		t.Errorf("Unexpected label %v", node["label"])
	}

	if _, err := json.Marshal(sheet); err != nil {
		t.Errorf("YAML sheet should marshal to JSON, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileRead) {
		t.Errorf("Expected FILE_READ for missing file, got %v", err)
	}

	_, err = Load(writeStyle(t, "bad.json", `{"selector": `))
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("Expected PARSE for malformed JSON, got %v", err)
	}

	for name, content := range map[string]string{
		"two.json":     `{} {}`,
		"brace.json":   `{"node":{}}}`,
		"bracket.json": `[{"selector": "node"}]]`,
	} {
		_, err = Load(writeStyle(t, name, content))
		if !errors.Is(err, errors.ErrCodeParse) {
			t.Errorf("Expected PARSE for trailing data in %s, got %v", name, err)
		}
	}

	if _, err := Load(writeStyle(t, "spaced.json", "{\"node\": {}}\n\n")); err != nil {
		t.Errorf("Trailing whitespace should be accepted, got %v", err)
	}

	_, err = Load(writeStyle(t, "bad.yml", "node: [unclosed\n"))
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("Expected PARSE for malformed YAML, got %v", err)
	}
}
