// Package style loads the style configuration handed to the graph viewer.
//
// The sheet is opaque: it is decoded only to validate that it is well-formed
// and to re-encode it as JSON for the browser. Selector rules are never
// interpreted here.
package style

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ritzau/kgview/pkg/errors"
)

// Sheet is a parsed style configuration
type Sheet struct {
	path  string
	value any
}

// Load reads a style file. Files ending in .yaml or .yml are decoded as
// YAML; everything else as JSON.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileRead, err, "read style %s", path)
	}

	var value any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		value, err = decodeYAML(data)
	default:
		value, err = decodeJSON(data)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse style %s", path)
	}

	return &Sheet{path: path, value: value}, nil
}

// FromValue wraps an already decoded style value
func FromValue(value any) *Sheet {
	return &Sheet{value: value}
}

// Path returns the file the sheet was loaded from
func (s *Sheet) Path() string {
	return s.path
}

// Value returns the decoded style value, typically a list of selector rules
// or a mapping of selectors to properties
func (s *Sheet) Value() any {
	return s.value
}

// MarshalJSON encodes the sheet exactly as it was decoded
func (s *Sheet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	// Only whitespace may follow the document
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeParse, "trailing data after style document")
	}
	return value, nil
}

func decodeYAML(data []byte) (any, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return normalize(value)
}

// normalize converts YAML-decoded maps into JSON-encodable ones
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			key, ok := k.(string)
			if !ok {
				return nil, errors.New(errors.ErrCodeParse, "non-string style key %v", k)
			}
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			m[key] = n
		}
		return m, nil
	case []any:
		for i, item := range t {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}
