// Package config loads netgraph configuration files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/recera/netgraph/pkg/netgraph"
)

// ErrUnknownFormat is returned for a config file whose extension is not
// .yaml, .yml, .toml or .json.
var ErrUnknownFormat = errors.New("unknown config format")

// Config represents a netgraph configuration file
type Config struct {
	// Simulation and geometry
	Layout *LayoutConfig `json:"layout,omitempty" yaml:"layout,omitempty" toml:"layout,omitempty"`

	// Zoom limits, gestures and text
	View *ViewConfig `json:"view,omitempty" yaml:"view,omitempty" toml:"view,omitempty"`

	// Browser host
	Serve *ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty" toml:"serve,omitempty"`

	Log *LogConfig `json:"log,omitempty" yaml:"log,omitempty" toml:"log,omitempty"`
}

// LayoutConfig contains layout-related configuration. Zero values take the
// component defaults.
type LayoutConfig struct {
	Width           float64 `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height          float64 `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	NodeRadius      float64 `json:"nodeRadius,omitempty" yaml:"nodeRadius,omitempty" toml:"nodeRadius,omitempty"`
	Repulsion       float64 `json:"repulsion,omitempty" yaml:"repulsion,omitempty" toml:"repulsion,omitempty"`
	LinkDistance    float64 `json:"linkDistance,omitempty" yaml:"linkDistance,omitempty" toml:"linkDistance,omitempty"`
	VelocityDecay   float64 `json:"velocityDecay,omitempty" yaml:"velocityDecay,omitempty" toml:"velocityDecay,omitempty"`
	AlphaMin        float64 `json:"alphaMin,omitempty" yaml:"alphaMin,omitempty" toml:"alphaMin,omitempty"`
	DragAlphaTarget float64 `json:"dragAlphaTarget,omitempty" yaml:"dragAlphaTarget,omitempty" toml:"dragAlphaTarget,omitempty"`

	// Seed for the layout's random source; 0 seeds from the clock
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty"`

	// Restart the layout over visible nodes only when categories are toggled
	ExcludeHidden bool `json:"excludeHidden,omitempty" yaml:"excludeHidden,omitempty" toml:"excludeHidden,omitempty"`
}

// ViewConfig contains view-related configuration
type ViewConfig struct {
	MinScale       float64 `json:"minScale,omitempty" yaml:"minScale,omitempty" toml:"minScale,omitempty"`
	MaxScale       float64 `json:"maxScale,omitempty" yaml:"maxScale,omitempty" toml:"maxScale,omitempty"`
	ClickThreshold float64 `json:"clickThreshold,omitempty" yaml:"clickThreshold,omitempty" toml:"clickThreshold,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty" toml:"fontSize,omitempty"`
	FontFamily     string  `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty" toml:"fontFamily,omitempty"`
	Disabled       bool    `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
}

// ServeConfig contains browser host configuration
type ServeConfig struct {
	// Server host
	Host string `json:"host,omitempty" yaml:"host,omitempty" toml:"host,omitempty"`

	// Server port
	Port int `json:"port,omitempty" yaml:"port,omitempty" toml:"port,omitempty"`

	// Reload the data file when it changes
	Watch bool `json:"watch,omitempty" yaml:"watch,omitempty" toml:"watch,omitempty"`

	// Frame interval as a Go duration, e.g. "16ms"
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty" toml:"interval,omitempty"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Verbosity int `json:"verbosity,omitempty" yaml:"verbosity,omitempty" toml:"verbosity,omitempty"`
}

// Load loads configuration from path. An empty path or a missing file yields
// the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".toml":
		err = toml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	applyDefaults(&config)
	if _, err := config.Serve.FrameInterval(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &config, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// applyDefaults fills in missing sections and serve settings. Layout and view
// zeros are left for netgraph.Options to default.
func applyDefaults(c *Config) {
	if c.Layout == nil {
		c.Layout = &LayoutConfig{}
	}
	if c.View == nil {
		c.View = &ViewConfig{}
	}
	if c.Serve == nil {
		c.Serve = &ServeConfig{}
	}
	if c.Serve.Host == "" {
		c.Serve.Host = "localhost"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 8080
	}
	if c.Log == nil {
		c.Log = &LogConfig{}
	}
}

// Addr returns the listen address.
func (s *ServeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FrameInterval parses Interval. An empty interval is zero, the loop default.
func (s *ServeConfig) FrameInterval() (time.Duration, error) {
	if s == nil || s.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0, fmt.Errorf("serve.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("serve.interval: must be positive, got %s", s.Interval)
	}
	return d, nil
}

// Options maps the layout and view sections onto component options.
func (c *Config) Options() netgraph.Options {
	l, v := c.Layout, c.View
	if l == nil {
		l = &LayoutConfig{}
	}
	if v == nil {
		v = &ViewConfig{}
	}
	return netgraph.Options{
		Width:           l.Width,
		Height:          l.Height,
		NodeRadius:      l.NodeRadius,
		Repulsion:       l.Repulsion,
		LinkDistance:    l.LinkDistance,
		VelocityDecay:   l.VelocityDecay,
		AlphaMin:        l.AlphaMin,
		DragAlphaTarget: l.DragAlphaTarget,
		Seed:            l.Seed,
		ExcludeHidden:   l.ExcludeHidden,
		MinScale:        v.MinScale,
		MaxScale:        v.MaxScale,
		ClickThreshold:  v.ClickThreshold,
		FontSize:        v.FontSize,
		FontFamily:      v.FontFamily,
		Disabled:        v.Disabled,
	}
}
