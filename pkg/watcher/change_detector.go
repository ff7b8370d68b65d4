package watcher

import (
	"path/filepath"
	"slices"
	"strings"
)

// ChangeType identifies which pipeline input a changed file is
type ChangeType int

const (
	ChangeTypeNodes ChangeType = iota
	ChangeTypeEdges
	ChangeTypeGeneSets
	ChangeTypeStyle
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeNodes:
		return "nodes"
	case ChangeTypeEdges:
		return "edges"
	case ChangeTypeGeneSets:
		return "genesets"
	case ChangeTypeStyle:
		return "style"
	default:
		return "unknown"
	}
}

// Inputs are the files a pipeline run reads. Empty paths are not watched.
type Inputs struct {
	Nodes    string
	Edges    string
	GeneSets string
	Style    string
}

// files maps each absolute input path to its role
func (in Inputs) files() map[string]ChangeType {
	files := make(map[string]ChangeType)
	for path, t := range map[string]ChangeType{
		in.Nodes:    ChangeTypeNodes,
		in.Edges:    ChangeTypeEdges,
		in.GeneSets: ChangeTypeGeneSets,
		in.Style:    ChangeTypeStyle,
	} {
		if path == "" {
			continue
		}
		files[normalize(path)] = t
	}
	return files
}

// Dirs returns the distinct directories holding the inputs, sorted.
// Directories are watched instead of files so that editors replacing a file
// by rename are still noticed.
func (in Inputs) Dirs() []string {
	var dirs []string
	for path := range in.files() {
		dir := filepath.Dir(path)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return dirs
}

// Classify reports which input path is, if any
func (in Inputs) Classify(path string) (ChangeType, bool) {
	t, ok := in.files()[normalize(path)]
	return t, ok
}

// Reason describes a change event for logs and status messages,
// e.g. "nodes.csv, style.json changed"
func Reason(event ChangeEvent) string {
	names := make([]string, 0, len(event.Paths))
	for _, p := range event.Paths {
		names = append(names, filepath.Base(p))
	}
	return strings.Join(names, ", ") + " changed"
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
