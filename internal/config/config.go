// Package config loads run configuration for the jbsym CLI from YAML and
// maps it onto classifier parameters. All classifier-side validation stays
// in classify.Params.Validate; this package only resolves names and
// defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jbsym/internal/classify"
)

// RunConfig is the top-level YAML configuration.
type RunConfig struct {
	// Pages lists the input page image files, in processing order.
	Pages []string `yaml:"pages"`

	// Output is the path prefix for the result streams; the CLI writes
	// <output>.templates.pbm and <output>.instances.txt.
	Output string `yaml:"output"`

	// Method is "correlation" (default) or "rankhaus".
	Method string `yaml:"method"`
	// Kind is "characters" (default) or "words".
	Kind string `yaml:"kind"`

	Thresh       float64 `yaml:"thresh"`
	WeightFactor float64 `yaml:"weightFactor"`
	Rank         float64 `yaml:"rank"`
	SelSize      int     `yaml:"selSize"`

	MaxCompWidth  int `yaml:"maxCompWidth"`
	MaxCompHeight int `yaml:"maxCompHeight"`
	Connectivity  int `yaml:"connectivity"`

	// Otsu binarizes grayscale pages with Otsu's method instead of the
	// fixed gray cutoff.
	Otsu bool `yaml:"otsu"`

	// Composites enables grayscale composite accumulation.
	Composites bool `yaml:"composites"`

	// LogLevel is a logrus level name ("info", "debug", ...).
	LogLevel string `yaml:"logLevel"`
}

// Load reads and parses a YAML run configuration.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Params maps the configuration onto classifier parameters, applying
// defaults for unset fields.
func (c *RunConfig) Params() (classify.Params, error) {
	p := classify.DefaultParams()

	switch c.Kind {
	case "", "characters":
		// default limits
	case "words":
		p = p.WithKind(classify.KindWords)
	default:
		return p, fmt.Errorf("config: unknown component kind %q", c.Kind)
	}

	switch c.Method {
	case "", "correlation":
		p.Method = classify.MethodCorrelation
	case "rankhaus", "hausdorff":
		p.Method = classify.MethodRankHaus
	default:
		return p, fmt.Errorf("config: unknown method %q", c.Method)
	}

	if c.Thresh != 0 {
		p.Thresh = c.Thresh
	}
	if c.WeightFactor != 0 {
		p.WeightFactor = c.WeightFactor
	}
	if c.Rank != 0 {
		p.Rank = c.Rank
	}
	if c.SelSize != 0 {
		p.SelSize = c.SelSize
	}
	if c.MaxCompWidth != 0 {
		p.MaxCompWidth = c.MaxCompWidth
	}
	if c.MaxCompHeight != 0 {
		p.MaxCompHeight = c.MaxCompHeight
	}
	if c.Connectivity != 0 {
		p.Connectivity = c.Connectivity
	}
	p.KeepComposites = c.Composites
	return p, nil
}
