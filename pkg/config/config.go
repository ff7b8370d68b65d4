package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/kgview/pkg/errors"
	"github.com/ritzau/kgview/pkg/pipeline"
	"github.com/ritzau/kgview/pkg/selection"
)

// DefaultFile is the optional config file read from the working directory
const DefaultFile = "kgview.toml"

// EnvPrefix prefixes environment overrides (e.g., KGVIEW_PORT=9090)
const EnvPrefix = "KGVIEW_"

// Output formats of the build command
const (
	FormatSummary = "summary"
	FormatJSON    = "json"
	FormatDOT     = "dot"
)

// Config holds all configuration for the application
type Config struct {
	Nodes        string   `koanf:"nodes"`
	Edges        string   `koanf:"edges"`
	GeneSets     string   `koanf:"genesets"`
	Style        string   `koanf:"style"`
	Cluster      string   `koanf:"cluster"`
	NodeTypes    []string `koanf:"node-types"`
	NodeNames    []string `koanf:"node-names"`
	StrictIndex  bool     `koanf:"strict-index"`
	RequireGenes bool     `koanf:"require-genes"`
	Format       string   `koanf:"format"`
	Output       string   `koanf:"output"`
	Port         int      `koanf:"port"`
	Watch        bool     `koanf:"watch"`
	OpenBrowser  bool     `koanf:"open"`
	Verbosity    string   `koanf:"verbosity"`
	VerboseCnt   int      `koanf:"verbose"`
	LogFormat    string   `koanf:"log-format"`
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
//
// path names the config file; when empty DefaultFile is tried and silently
// skipped if absent. An explicitly named file must exist.
func Load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"nodes":         "",
		"edges":         "",
		"genesets":      "",
		"style":         "",
		"cluster":       "",
		"node-types":    selection.DefaultNodeTypes,
		"node-names":    selection.DefaultNodeNames,
		"strict-index":  false,
		"require-genes": false,
		"format":        FormatSummary,
		"output":        "",
		"port":          8080,
		"watch":         false,
		"open":          true,
		"verbosity":     "",
		"verbose":       0,
		"log-format":    "compact",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load defaults")
	}

	// 2. Config File
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config file %s", path)
		}
	} else if explicit {
		return nil, errors.Wrap(errors.ErrCodeFileRead, err, "config file %s", path)
	}

	// 3. Environment Variables
	// KGVIEW_STRICT_INDEX=true sets strict-index
	// KGVIEW_NODE_TYPES=drug,pathogen sets node-types to two entries
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(key, EnvPrefix)), "_", "-")
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load env vars")
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "unmarshal config")
	}

	return &cfg, nil
}

// listKeys are settings holding comma separated lists
var listKeys = map[string]bool{"node-types": true, "node-names": true}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate reports the first setting that makes a pipeline run impossible
func (c *Config) Validate() error {
	required := []struct{ key, value string }{
		{"nodes", c.Nodes},
		{"edges", c.Edges},
		{"genesets", c.GeneSets},
		{"cluster", c.Cluster},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "%s is required", r.key)
		}
	}

	switch c.Format {
	case FormatSummary, FormatJSON, FormatDOT:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (want %s, %s or %s)",
			c.Format, FormatSummary, FormatJSON, FormatDOT)
	}

	switch c.LogFormat {
	case "compact", "json":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log-format %q", c.LogFormat)
	}

	if c.Port < 0 || c.Port > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "port %d out of range", c.Port)
	}

	return nil
}

// PipelineOptions maps the configuration onto a pipeline run
func (c *Config) PipelineOptions(reason string) pipeline.Options {
	return pipeline.Options{
		NodeFile:        c.Nodes,
		EdgeFile:        c.Edges,
		GeneSetFile:     c.GeneSets,
		StyleFile:       c.Style,
		Cluster:         c.Cluster,
		Selection:       selection.Criteria{Types: c.NodeTypes, Names: c.NodeNames},
		StrictIndex:     c.StrictIndex,
		RequireNonEmpty: c.RequireGenes,
		Reason:          reason,
	}
}

// InputFiles returns the configured input paths that are set
func (c *Config) InputFiles() []string {
	var files []string
	for _, p := range []string{c.Nodes, c.Edges, c.GeneSets, c.Style} {
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
