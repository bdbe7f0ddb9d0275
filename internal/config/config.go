// Package config loads solarview.yaml, overlaid with SOLARVIEW_* environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/viewport"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory
const DefaultPath = "solarview.yaml"

// EnvPrefix marks environment overrides. A double underscore separates sections, so
// SOLARVIEW_SERVER__PORT sets server.port.
const EnvPrefix = "SOLARVIEW_"

// Config is the top-level configuration, corresponding to solarview.yaml
type Config struct {
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Surface  SurfaceConfig  `yaml:"surface" koanf:"surface"`
	Layout   LayoutConfig   `yaml:"layout" koanf:"layout"`
	MiniMap  MiniMapConfig  `yaml:"minimap" koanf:"minimap"`
	Snapshot SnapshotConfig `yaml:"snapshot" koanf:"snapshot"`
	Log      LogConfig      `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Host           string   `yaml:"host" koanf:"host"`
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	SendBuffer     int      `yaml:"send_buffer" koanf:"send_buffer"`
}

// SurfaceConfig is the size the page gives the schematic viewport
type SurfaceConfig struct {
	Width  float64 `yaml:"width" koanf:"width"`
	Height float64 `yaml:"height" koanf:"height"`
}

// LayoutConfig is the initial plant layout and where to watch for changes
type LayoutConfig struct {
	SmbCount    int    `yaml:"smb_count" koanf:"smb_count"`
	StringCount int    `yaml:"string_count" koanf:"string_count"`
	PanelCount  int    `yaml:"panel_count" koanf:"panel_count"`
	MaxPanels   int    `yaml:"max_panels" koanf:"max_panels"`
	WatchDir    string `yaml:"watch_dir" koanf:"watch_dir"`
	Pattern     string `yaml:"pattern" koanf:"pattern"`
}

// MiniMapConfig controls the overview
type MiniMapConfig struct {
	Ratio  float64 `yaml:"ratio" koanf:"ratio"`
	Source string  `yaml:"source" koanf:"source"`
	Width  float64 `yaml:"width" koanf:"width"`
	Height float64 `yaml:"height" koanf:"height"`
	Margin float64 `yaml:"margin" koanf:"margin"`
}

// SnapshotConfig controls PNG rendering and its cache
type SnapshotConfig struct {
	Width         int           `yaml:"width" koanf:"width"`
	Height        int           `yaml:"height" koanf:"height"`
	CacheSize     int64         `yaml:"cache_size" koanf:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl" koanf:"cache_ttl"`
	CacheStrategy string        `yaml:"cache_strategy" koanf:"cache_strategy"`
}

// LogConfig toggles component debug logging
type LogConfig struct {
	Debug bool `yaml:"debug" koanf:"debug"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8080,
			AllowedOrigins: []string{"*"},
			SendBuffer:     256,
		},
		Surface: SurfaceConfig{Width: 1280, Height: 800},
		Layout: LayoutConfig{
			SmbCount:    2,
			StringCount: 4,
			PanelCount:  8,
			MaxPanels:   100000,
			Pattern:     "**/*.layout.yaml",
		},
		MiniMap: MiniMapConfig{
			Ratio:  0.1,
			Width:  240,
			Height: 160,
			Margin: 16,
		},
		Snapshot: SnapshotConfig{
			Width:         960,
			Height:        640,
			CacheSize:     64 << 20,
			CacheTTL:      10 * time.Minute,
			CacheStrategy: "lru",
		},
	}
}

// Load reads configuration from the given YAML file, then overlays environment variable
// overrides (SOLARVIEW_*). A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.SendBuffer < 0 {
		return fmt.Errorf("server.send_buffer must be non-negative")
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("surface size must be positive, got %gx%g", c.Surface.Width, c.Surface.Height)
	}
	if c.Layout.MaxPanels <= 0 || c.Layout.MaxPanels > grid.MaxPanels {
		return fmt.Errorf("layout.max_panels must be between 1 and %d, got %d", grid.MaxPanels, c.Layout.MaxPanels)
	}
	if err := c.LayoutSpec().Check(c.Layout.MaxPanels); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if c.MiniMap.Ratio <= 0 {
		return fmt.Errorf("minimap.ratio must be positive")
	}
	if c.MiniMap.Width < 0 || c.MiniMap.Height < 0 || c.MiniMap.Width > c.Surface.Width || c.MiniMap.Height > c.Surface.Height {
		return fmt.Errorf("minimap %gx%g does not fit the surface", c.MiniMap.Width, c.MiniMap.Height)
	}
	if c.Snapshot.Width <= 0 || c.Snapshot.Height <= 0 {
		return fmt.Errorf("snapshot size must be positive, got %dx%d", c.Snapshot.Width, c.Snapshot.Height)
	}
	if c.Snapshot.CacheSize < 0 {
		return fmt.Errorf("snapshot.cache_size must be non-negative")
	}
	switch c.Snapshot.CacheStrategy {
	case "", "lru", "lfu", "fifo":
	default:
		return fmt.Errorf("invalid snapshot.cache_strategy %q: must be one of lru, lfu, fifo", c.Snapshot.CacheStrategy)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LayoutSpec returns the configured initial layout
func (c *Config) LayoutSpec() grid.LayoutSpec {
	return grid.LayoutSpec{
		SmbCount:    c.Layout.SmbCount,
		StringCount: c.Layout.StringCount,
		PanelCount:  c.Layout.PanelCount,
	}
}

// MiniMapBounds places the mini-map in the bottom-right corner of the surface
func (c *Config) MiniMapBounds() viewport.Rect {
	m := c.MiniMap
	if m.Width <= 0 || m.Height <= 0 {
		return viewport.Rect{}
	}
	return viewport.Rect{
		X: c.Surface.Width - m.Width - m.Margin,
		Y: c.Surface.Height - m.Height - m.Margin,
		W: m.Width,
		H: m.Height,
	}
}
